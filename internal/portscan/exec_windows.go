//go:build windows

package portscan

import (
	"context"
	"os/exec"

	"github.com/loykin/clawpanel/internal/process"
)

func commandOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	// #nosec G204 -- fixed tool name, numeric port argument
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.SysProcAttr = process.HiddenAttrs()
	return cmd.Output()
}
