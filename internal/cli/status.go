// internal/cli/status.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mapnik-tools/mapnikdeps/pkg/deps"
	"github.com/mapnik-tools/mapnikdeps/pkg/env"
	"github.com/mapnik-tools/mapnikdeps/pkg/pkgconfig"
	"github.com/mapnik-tools/mapnikdeps/pkg/platform"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the dependency chain looks like on this host",
	Long: `Probe each dependency in the Mapnik chain and report whether the
installed version meets the minimum. Read-only: nothing is installed
or built.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	plat, err := detectPlatform()
	if err != nil {
		fmt.Printf("Platform: %s\n", platform.StrategyNone)
	} else {
		fmt.Printf("Platform: %s\n", plat)
	}

	prober := pkgconfig.NewProber(logger)
	environment := env.New(config.Prefix)

	for _, dep := range deps.Graph() {
		if dep.PkgConfigName == "" {
			if environment.HasHeader(dep.HeaderProbe) {
				fmt.Printf("✓ %-10s headers present\n", dep.Name)
			} else {
				fmt.Printf("✗ %-10s not installed (would build %s)\n", dep.Name, dep.PinnedVersion)
			}
			continue
		}

		probe := prober.ProbeWithMinimum(dep.PkgConfigName, dep.MinVersion)
		switch {
		case probe.SatisfiesMinimum:
			fmt.Printf("✓ %-10s %s (minimum %s)\n", dep.Name, probe.Version, dep.MinVersion)
		case probe.Found:
			fmt.Printf("✗ %-10s %s below minimum %s (would build %s)\n",
				dep.Name, probe.Version, dep.MinVersion, dep.PinnedVersion)
		default:
			fmt.Printf("✗ %-10s not installed (would build %s)\n", dep.Name, dep.PinnedVersion)
		}
	}

	if lib := environment.FindSharedLibrary("mapnik"); lib != nil {
		fmt.Printf("\nlibmapnik: %s\n", lib.Path)
	} else {
		fmt.Println("\nlibmapnik: not found on the library search path")
	}

	return nil
}
