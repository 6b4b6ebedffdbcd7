// pkg/sysmgr/sysmgr_test.go
package sysmgr

import (
	"errors"
	"testing"

	"github.com/mapnik-tools/mapnikdeps/pkg/platform"
)

func TestNewPerStrategy(t *testing.T) {
	testCases := []struct {
		strategy platform.InstallationStrategy
		wantName string
	}{
		{platform.StrategyApt, "apt"},
		{platform.StrategyDnf, "dnf"},
		{platform.StrategyBrew, "brew"},
	}

	for _, tc := range testCases {
		t.Run(string(tc.strategy), func(t *testing.T) {
			m, err := New(&platform.Platform{Strategy: tc.strategy, Command: "pm"}, nil)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if m.Name() != tc.wantName {
				t.Errorf("Name = %q, want %q", m.Name(), tc.wantName)
			}
		})
	}
}

func TestNewNoneDetected(t *testing.T) {
	_, err := New(&platform.Platform{Strategy: platform.StrategyNone}, nil)
	if err == nil {
		t.Fatal("expected error for StrategyNone")
	}
	if !errors.Is(err, platform.ErrNoPackageManager) {
		t.Errorf("expected ErrNoPackageManager, got %v", err)
	}
}
