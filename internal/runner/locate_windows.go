//go:build windows

package runner

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/loykin/clawpanel/internal/process"
)

// npm installs shims as .cmd files on Windows.
func candidateNames(name string) []string {
	return []string{name + ".cmd", name + ".exe", name}
}

func defaultSearchDirs() []string {
	var dirs []string
	if appData := os.Getenv("APPDATA"); appData != "" {
		dirs = append(dirs, filepath.Join(appData, "npm"))
	}
	if pf := os.Getenv("ProgramFiles"); pf != "" {
		dirs = append(dirs, filepath.Join(pf, "nodejs"))
	}
	return dirs
}

// npmGlobalBin returns the npm global prefix; on Windows shims live directly in it.
func npmGlobalBin(ctx context.Context) string {
	if _, err := exec.LookPath("npm"); err != nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "npm", "prefix", "-g")
	cmd.SysProcAttr = process.HiddenAttrs()
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
