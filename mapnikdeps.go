// mapnikdeps.go
package mapnikdeps

import (
	"context"
	"log"

	"github.com/mapnik-tools/mapnikdeps/pkg/core"
	"github.com/mapnik-tools/mapnikdeps/pkg/deps"
	"github.com/mapnik-tools/mapnikdeps/pkg/env"
	"github.com/mapnik-tools/mapnikdeps/pkg/features"
	"github.com/mapnik-tools/mapnikdeps/pkg/orchestrator"
	"github.com/mapnik-tools/mapnikdeps/pkg/pkgconfig"
	"github.com/mapnik-tools/mapnikdeps/pkg/platform"
	"github.com/mapnik-tools/mapnikdeps/pkg/source"
	"github.com/mapnik-tools/mapnikdeps/pkg/sysmgr"
)

// Re-export the main types for convenience
type (
	Config               = core.Config
	Dependency           = deps.Dependency
	ProbeResult          = pkgconfig.ProbeResult
	FlagSet              = features.FlagSet
	BuildOutcome         = source.Outcome
	InstallationStrategy = platform.InstallationStrategy
	Report               = orchestrator.Report
	BuildFailedError     = orchestrator.BuildFailedError
)

// Re-export the installation strategies
const (
	StrategyApt  = platform.StrategyApt
	StrategyDnf  = platform.StrategyDnf
	StrategyBrew = platform.StrategyBrew
	StrategyNone = platform.StrategyNone
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return core.DefaultConfig()
}

// Provision resolves the full Mapnik dependency chain with the default
// collaborators: the detected system package manager, a pkg-config
// prober, and a source builder rooted at the configured prefix.
//
// The returned Report reflects the final state of every dependency even
// when err is non-nil.
func Provision(ctx context.Context, cfg *Config, logger *log.Logger) (*Report, error) {
	if cfg == nil {
		cfg = core.DefaultConfig()
	}

	plat, err := platform.Detect()
	if err != nil {
		return nil, err
	}

	mgr, err := sysmgr.New(plat, logger)
	if err != nil {
		return nil, err
	}

	prober := pkgconfig.NewProber(logger)
	orch := orchestrator.New(orchestrator.Options{
		Platform:  plat,
		Installer: mgr,
		Prober:    prober,
		Builder: source.NewBuilder(source.Options{
			Prefix:  cfg.Prefix,
			WorkDir: cfg.WorkDir,
			Jobs:    cfg.Jobs,
			Logger:  logger,
		}),
		Resolver: features.NewResolver(prober, logger),
		Finder:   env.New(cfg.Prefix),
		Logger:   logger,
	})

	return orch.Run(ctx)
}
