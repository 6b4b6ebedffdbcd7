// pkg/sysmgr/sysmgr.go
package sysmgr

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"

	"github.com/mapnik-tools/mapnikdeps/pkg/platform"
)

// Manager installs precompiled libraries from the host's vendor repository.
type Manager interface {
	// Name returns the package manager name for diagnostics.
	Name() string

	// Refresh updates the package index. Called once before installs.
	Refresh(ctx context.Context) error

	// Install installs the named packages.
	Install(ctx context.Context, packages ...string) error
}

// New returns the manager for the detected installation strategy.
func New(p *platform.Platform, logger *log.Logger) (Manager, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	switch p.Strategy {
	case platform.StrategyApt:
		return &aptManager{command: p.Command, logger: logger}, nil
	case platform.StrategyDnf:
		return &dnfManager{command: p.Command, logger: logger}, nil
	case platform.StrategyBrew:
		return &brewManager{command: p.Command, logger: logger}, nil
	default:
		return nil, fmt.Errorf("no manager for strategy %s: %w", p.Strategy, platform.ErrNoPackageManager)
	}
}

// runCommand executes a package manager command, streaming its output to
// the process's stdout/stderr so install progress stays visible.
func runCommand(ctx context.Context, logger *log.Logger, extraEnv []string, name string, args ...string) error {
	logger.Printf("running: %s %v", name, args)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", name, err)
	}
	return nil
}
