// pkg/sysmgr/brew.go
package sysmgr

import (
	"context"
	"log"
)

// brewManager drives Homebrew on macOS hosts.
type brewManager struct {
	command string
	logger  *log.Logger
}

func (m *brewManager) Name() string {
	return "brew"
}

func (m *brewManager) Refresh(ctx context.Context) error {
	return runCommand(ctx, m.logger, nil, m.command, "update")
}

func (m *brewManager) Install(ctx context.Context, packages ...string) error {
	args := append([]string{"install"}, packages...)
	return runCommand(ctx, m.logger, nil, m.command, args...)
}
