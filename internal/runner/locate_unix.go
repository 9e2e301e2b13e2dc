//go:build !windows

package runner

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

func candidateNames(name string) []string {
	return []string{name}
}

// defaultSearchDirs lists the usual npm-global and package-manager bin
// directories a GUI-launched process may not have on PATH.
func defaultSearchDirs() []string {
	dirs := []string{"/usr/local/bin", "/opt/homebrew/bin"}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append([]string{
			filepath.Join(home, ".npm-global", "bin"),
			filepath.Join(home, ".local", "bin"),
			filepath.Join(home, ".volta", "bin"),
		}, dirs...)
	}
	return dirs
}

// npmGlobalBin asks npm for its global prefix; binaries live in <prefix>/bin.
func npmGlobalBin(ctx context.Context) string {
	if _, err := exec.LookPath("npm"); err != nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "npm", "prefix", "-g").Output()
	if err != nil {
		return ""
	}
	prefix := strings.TrimSpace(string(out))
	if prefix == "" {
		return ""
	}
	return filepath.Join(prefix, "bin")
}
