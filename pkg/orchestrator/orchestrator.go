// pkg/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/mapnik-tools/mapnikdeps/pkg/deps"
	"github.com/mapnik-tools/mapnikdeps/pkg/env"
	"github.com/mapnik-tools/mapnikdeps/pkg/features"
	"github.com/mapnik-tools/mapnikdeps/pkg/pkgconfig"
	"github.com/mapnik-tools/mapnikdeps/pkg/platform"
	"github.com/mapnik-tools/mapnikdeps/pkg/source"
)

// Prober answers availability queries. Results are never cached by the
// orchestrator: an earlier step may have just installed the library.
type Prober interface {
	Probe(name string) pkgconfig.ProbeResult
	ProbeWithMinimum(name, minimum string) pkgconfig.ProbeResult
	PCFileDir(name string) (string, error)
}

// Builder executes one from-source build.
type Builder interface {
	Build(ctx context.Context, dep deps.Dependency, flags features.FlagSet) source.Outcome
}

// Resolver derives feature flags for a dependent immediately before its
// build action runs.
type Resolver interface {
	For(name string) features.FlagSet
}

// Installer performs system-package installations.
type Installer interface {
	Name() string
	Refresh(ctx context.Context) error
	Install(ctx context.Context, packages ...string) error
}

// Finder locates installed artifacts on the library and header search
// paths. Satisfied by *env.Environment.
type Finder interface {
	FindSharedLibrary(name string) *env.Library
	HasHeader(header string) bool
}

// Options wires the orchestrator's collaborators.
type Options struct {
	Platform  *platform.Platform
	Installer Installer
	Prober    Prober
	Builder   Builder
	Resolver  Resolver
	Finder    Finder
	Logger    *log.Logger
	Progress  io.Writer // human-readable progress, nil discards
}

// Orchestrator drives the run: try the system-package path first, fall
// back to walking the dependency graph in order and building whatever a
// fresh probe reports missing. Strictly sequential; no retries.
type Orchestrator struct {
	graph     []deps.Dependency
	platform  *platform.Platform
	installer Installer
	prober    Prober
	builder   Builder
	resolver  Resolver
	finder    Finder
	logger    *log.Logger
	progress  io.Writer
}

// New creates an orchestrator over the fixed dependency graph.
func New(opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	return &Orchestrator{
		graph:     deps.Graph(),
		platform:  opts.Platform,
		installer: opts.Installer,
		prober:    opts.Prober,
		builder:   opts.Builder,
		resolver:  opts.Resolver,
		finder:    opts.Finder,
		logger:    opts.Logger,
		progress:  opts.Progress,
	}
}

// Run executes the state machine:
//
//	Start -> DetectPlatform -> TrySystemPackages -> {Satisfied | NeedsSourceBuild}
//	      -> BuildChain -> Done | Failed
//
// The returned Report reflects the final state of every node even when err
// is non-nil.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	report := &Report{Strategy: o.platform.Strategy}
	for _, dep := range o.graph {
		report.Nodes = append(report.Nodes, Node{Dep: dep})
	}

	if o.trySystemPackages(ctx, report) {
		fmt.Fprintf(o.progress, "✓ %s satisfied via %s packages\n", o.terminal().Name, o.installer.Name())
		o.collectPCFiles(report)
		return report, nil
	}

	fmt.Fprintf(o.progress, "%s unavailable via %s, building dependency chain from source\n",
		o.terminal().Name, o.installer.Name())

	if err := o.buildChain(ctx, report); err != nil {
		return report, err
	}

	if lib := o.finder.FindSharedLibrary(o.terminal().Name); lib == nil {
		return report, fmt.Errorf("lib%s shared object not found on the library search path after build", o.terminal().Name)
	}

	o.collectPCFiles(report)
	return report, nil
}

// trySystemPackages probes the terminal dependency and, when missing,
// attempts one system-package install of it. Returns true when the system
// path satisfies the requirement; every node is then marked satisfied and
// no source build runs.
func (o *Orchestrator) trySystemPackages(ctx context.Context, report *Report) bool {
	terminal := o.terminal()

	probe := o.prober.ProbeWithMinimum(terminal.PkgConfigName, terminal.MinVersion)
	if probe.SatisfiesMinimum {
		o.markAllSatisfied(report, probe)
		return true
	}

	packages := terminal.SystemPackages[o.platform.Strategy]
	fmt.Fprintf(o.progress, "installing %v via %s\n", packages, o.installer.Name())

	if err := o.installer.Refresh(ctx); err != nil {
		o.logger.Printf("package index refresh failed: %v", err)
	}
	if err := o.installer.Install(ctx, packages...); err != nil {
		o.logger.Printf("system install of %s failed: %v", terminal.Name, err)
		return false
	}

	// Fresh probe: the install may have succeeded yet delivered a version
	// below the minimum.
	probe = o.prober.ProbeWithMinimum(terminal.PkgConfigName, terminal.MinVersion)
	if !probe.SatisfiesMinimum {
		o.logger.Printf("system %s %s does not meet minimum %s", terminal.Name, probe.Version, terminal.MinVersion)
		return false
	}

	o.markAllSatisfied(report, probe)
	return true
}

// buildChain walks the graph in its fixed topological order. Each node
// independently decides via a fresh probe whether it personally needs a
// source build; a satisfied prerequisite never forces rebuilding its
// dependents.
func (o *Orchestrator) buildChain(ctx context.Context, report *Report) error {
	for i := range report.Nodes {
		node := &report.Nodes[i]
		dep := node.Dep

		satisfied, probe := o.probeDependency(dep)
		node.Probe = probe
		if satisfied {
			node.State = StateSatisfiedBySystem
			fmt.Fprintf(o.progress, "✓ %s %s already installed\n", dep.Name, probe.Version)
			continue
		}

		node.State = StateBuildScheduled
		fmt.Fprintf(o.progress, "building %s %s from source...\n", dep.Name, dep.PinnedVersion)

		flags := o.resolver.For(dep.Name)
		outcome := o.builder.Build(ctx, dep, flags)
		if !outcome.Success {
			node.State = StateFailed
			return &BuildFailedError{Dependency: dep.Name, Outcome: outcome}
		}

		node.State = StateBuilt
		fmt.Fprintf(o.progress, "✓ %s %s installed\n", dep.Name, dep.PinnedVersion)
	}
	return nil
}

// probeDependency performs the fresh availability check for one node.
// Libraries without a pkg-config entry (boost) are probed by header
// presence instead.
func (o *Orchestrator) probeDependency(dep deps.Dependency) (bool, pkgconfig.ProbeResult) {
	if dep.PkgConfigName == "" {
		found := o.finder.HasHeader(dep.HeaderProbe)
		return found, pkgconfig.ProbeResult{Name: dep.Name, Found: found, SatisfiesMinimum: found}
	}

	probe := o.prober.ProbeWithMinimum(dep.PkgConfigName, dep.MinVersion)
	return probe.SatisfiesMinimum, probe
}

func (o *Orchestrator) markAllSatisfied(report *Report, terminalProbe pkgconfig.ProbeResult) {
	for i := range report.Nodes {
		report.Nodes[i].State = StateSatisfiedBySystem
	}
	report.Nodes[len(report.Nodes)-1].Probe = terminalProbe
}

// collectPCFiles records where each resolved dependency's .pc file lives,
// for the success diagnostics a downstream build can consume.
func (o *Orchestrator) collectPCFiles(report *Report) {
	for _, node := range report.Nodes {
		if node.Dep.PkgConfigName == "" {
			continue
		}
		if node.State != StateSatisfiedBySystem && node.State != StateBuilt {
			continue
		}
		if dir, err := o.prober.PCFileDir(node.Dep.PkgConfigName); err == nil && dir != "" {
			report.PCFiles = append(report.PCFiles, dir+"/"+node.Dep.PkgConfigName+".pc")
		}
	}
}

func (o *Orchestrator) terminal() deps.Dependency {
	return o.graph[len(o.graph)-1]
}
