// pkg/platform/detect.go
package platform

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

// InstallationStrategy identifies the system package manager used for the
// system-package path. Selected once per run and immutable thereafter.
type InstallationStrategy string

const (
	// StrategyApt uses apt-get on Debian/Ubuntu hosts
	StrategyApt InstallationStrategy = "apt"
	// StrategyDnf uses dnf on Fedora/RHEL hosts
	StrategyDnf InstallationStrategy = "dnf"
	// StrategyBrew uses Homebrew on macOS hosts
	StrategyBrew InstallationStrategy = "brew"
	// StrategyNone means no supported package manager was detected
	StrategyNone InstallationStrategy = "none"
)

// ErrNoPackageManager indicates no supported package manager was found.
// This is fatal for the whole run: only the rendering-toolkit dependency
// chain can be built from source, not the base toolchain itself.
var ErrNoPackageManager = errors.New("no supported package manager found")

// Platform describes the detected host and its installation strategy.
type Platform struct {
	OS       string               // linux, darwin
	Arch     string               // amd64, arm64
	Strategy InstallationStrategy // selected package manager
	Command  string               // command name to invoke (apt-get, dnf, brew)
}

// lookPath is exec.LookPath, overridable in tests.
var lookPath = exec.LookPath

// candidates is the fixed priority order for detection. First match wins:
// hosts with more than one package manager installed have exactly one
// authoritative manager, and it is the earliest entry present.
var candidates = []struct {
	strategy InstallationStrategy
	command  string
}{
	{StrategyApt, "apt-get"},
	{StrategyDnf, "dnf"},
	{StrategyBrew, "brew"},
}

// Detect inspects the host for a supported system package manager.
func Detect() (*Platform, error) {
	p := &Platform{
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		Strategy: StrategyNone,
	}

	for _, c := range candidates {
		if _, err := lookPath(c.command); err == nil {
			p.Strategy = c.strategy
			p.Command = c.command
			return p, nil
		}
	}

	return p, fmt.Errorf("%w (tried apt-get, dnf, brew)", ErrNoPackageManager)
}

// String returns a string representation of the platform.
func (p *Platform) String() string {
	return fmt.Sprintf("%s/%s (strategy: %s)", p.OS, p.Arch, p.Strategy)
}
