// pkg/sysmgr/apt.go
package sysmgr

import (
	"context"
	"log"
)

// aptManager drives apt-get on Debian/Ubuntu hosts. Installs are
// non-interactive; the orchestrator typically runs inside a container
// where prompting would hang forever.
type aptManager struct {
	command string
	logger  *log.Logger
}

func (m *aptManager) Name() string {
	return "apt"
}

func (m *aptManager) Refresh(ctx context.Context) error {
	return runCommand(ctx, m.logger, m.env(), m.command, "update")
}

func (m *aptManager) Install(ctx context.Context, packages ...string) error {
	args := append([]string{"install", "-y", "--no-install-recommends"}, packages...)
	return runCommand(ctx, m.logger, m.env(), m.command, args...)
}

func (m *aptManager) env() []string {
	return []string{"DEBIAN_FRONTEND=noninteractive"}
}
