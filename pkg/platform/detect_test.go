// pkg/platform/detect_test.go
package platform

import (
	"errors"
	"fmt"
	"testing"
)

// withCommands replaces lookPath so only the named commands resolve.
func withCommands(t *testing.T, available ...string) {
	t.Helper()
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })

	lookPath = func(cmd string) (string, error) {
		for _, a := range available {
			if a == cmd {
				return "/usr/bin/" + cmd, nil
			}
		}
		return "", fmt.Errorf("%s not found", cmd)
	}
}

func TestDetectPriority(t *testing.T) {
	testCases := []struct {
		name      string
		available []string
		want      InstallationStrategy
	}{
		{"apt only", []string{"apt-get"}, StrategyApt},
		{"dnf only", []string{"dnf"}, StrategyDnf},
		{"brew only", []string{"brew"}, StrategyBrew},
		// First match wins when several managers coexist.
		{"apt beats dnf", []string{"dnf", "apt-get"}, StrategyApt},
		{"dnf beats brew", []string{"brew", "dnf"}, StrategyDnf},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			withCommands(t, tc.available...)

			p, err := Detect()
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if p.Strategy != tc.want {
				t.Errorf("Strategy = %s, want %s", p.Strategy, tc.want)
			}
			if p.Command == "" {
				t.Error("expected a command to invoke")
			}
		})
	}
}

func TestDetectNone(t *testing.T) {
	withCommands(t)

	p, err := Detect()
	if err == nil {
		t.Fatal("expected error when no package manager is present")
	}
	if !errors.Is(err, ErrNoPackageManager) {
		t.Errorf("expected ErrNoPackageManager, got %v", err)
	}
	if p.Strategy != StrategyNone {
		t.Errorf("Strategy = %s, want %s", p.Strategy, StrategyNone)
	}
}
