//go:build !windows

package portscan

import (
	"context"
	"os/exec"
)

func commandOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	// #nosec G204 -- fixed tool name, numeric port argument
	return exec.CommandContext(ctx, name, args...).Output()
}
