// pkg/sysmgr/dnf.go
package sysmgr

import (
	"context"
	"log"
)

// dnfManager drives dnf on Fedora/RHEL hosts.
type dnfManager struct {
	command string
	logger  *log.Logger
}

func (m *dnfManager) Name() string {
	return "dnf"
}

func (m *dnfManager) Refresh(ctx context.Context) error {
	return runCommand(ctx, m.logger, nil, m.command, "makecache")
}

func (m *dnfManager) Install(ctx context.Context, packages ...string) error {
	args := append([]string{"install", "-y"}, packages...)
	return runCommand(ctx, m.logger, nil, m.command, args...)
}
