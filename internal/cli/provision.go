// internal/cli/provision.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mapnik-tools/mapnikdeps/pkg/env"
	"github.com/mapnik-tools/mapnikdeps/pkg/features"
	"github.com/mapnik-tools/mapnikdeps/pkg/orchestrator"
	"github.com/mapnik-tools/mapnikdeps/pkg/pkgconfig"
	"github.com/mapnik-tools/mapnikdeps/pkg/platform"
	"github.com/mapnik-tools/mapnikdeps/pkg/source"
	"github.com/mapnik-tools/mapnikdeps/pkg/sysmgr"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Resolve and install the Mapnik dependency chain",
	Long: `Resolve the full Mapnik dependency chain on this host.

The system package manager is tried first. When it cannot provide
libmapnik at an acceptable version, the chain Boost, PROJ, HarfBuzz,
GDAL, Mapnik is built from source at pinned versions, in order, into
the configured prefix.

Examples:
  mapnikdeps provision
  mapnikdeps provision --prefix=/opt/mapnik
  MAPNIKDEPS_PREFIX=/opt/mapnik mapnikdeps provision --debug`,
	Args: cobra.NoArgs,
	RunE: runProvision,
}

func runProvision(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	logger := newLogger()

	plat, err := detectPlatform()
	if err != nil {
		if errors.Is(err, platform.ErrNoPackageManager) {
			fmt.Fprintln(os.Stderr, "no supported package manager found (tried apt-get, dnf, brew)")
		}
		return err
	}

	fmt.Printf("Platform: %s\n", plat)
	fmt.Printf("Install prefix: %s\n", config.Prefix)

	mgr, err := sysmgr.New(plat, logger)
	if err != nil {
		return fmt.Errorf("initializing package manager: %w", err)
	}

	prober := pkgconfig.NewProber(logger)
	orch := orchestrator.New(orchestrator.Options{
		Platform:  plat,
		Installer: mgr,
		Prober:    prober,
		Builder: source.NewBuilder(source.Options{
			Prefix:  config.Prefix,
			WorkDir: config.WorkDir,
			Jobs:    config.Jobs,
			Logger:  logger,
		}),
		Resolver: features.NewResolver(prober, logger),
		Finder:   env.New(config.Prefix),
		Logger:   logger,
		Progress: os.Stdout,
	})

	report, err := orch.Run(ctx)
	if err != nil {
		var buildErr *orchestrator.BuildFailedError
		if errors.As(err, &buildErr) {
			printBuildFailure(buildErr)
		}
		return err
	}

	fmt.Println("\n✓ Mapnik build environment ready")
	if len(report.PCFiles) > 0 {
		fmt.Println("Package metadata files:")
		for _, pc := range report.PCFiles {
			fmt.Printf("  %s\n", pc)
		}
	}

	return nil
}

// printBuildFailure emits the failed dependency's diagnostics: a header
// naming the dependency and step, then the trailing build log.
func printBuildFailure(buildErr *orchestrator.BuildFailedError) {
	fmt.Fprintf(os.Stderr, "\n==== %s: %s step failed ====\n", buildErr.Dependency, buildErr.Outcome.FailedStep)
	if buildErr.Outcome.FailedCommand != "" {
		fmt.Fprintf(os.Stderr, "command: %s\n", buildErr.Outcome.FailedCommand)
	}
	fmt.Fprintf(os.Stderr, "log: %s (last %d lines follow)\n\n", buildErr.Outcome.LogPath, source.TailLines)
	for _, line := range source.Tail(buildErr.Outcome.LogPath, source.TailLines) {
		fmt.Fprintln(os.Stderr, line)
	}
}

// detectPlatform honors a configured strategy override before falling
// back to auto-detection.
func detectPlatform() (*platform.Platform, error) {
	if config.Strategy == "" {
		return platform.Detect()
	}

	commands := map[platform.InstallationStrategy]string{
		platform.StrategyApt:  "apt-get",
		platform.StrategyDnf:  "dnf",
		platform.StrategyBrew: "brew",
	}
	strategy := platform.InstallationStrategy(config.Strategy)
	command, ok := commands[strategy]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (expected apt, dnf or brew)", config.Strategy)
	}

	plat, err := platform.Detect()
	if err != nil {
		return nil, err
	}
	plat.Strategy = strategy
	plat.Command = command
	return plat, nil
}

func newLogger() *log.Logger {
	if config.Debug {
		return log.New(os.Stdout, "[mapnikdeps] ", log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}
