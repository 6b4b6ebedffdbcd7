// pkg/orchestrator/orchestrator_test.go
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mapnik-tools/mapnikdeps/pkg/deps"
	"github.com/mapnik-tools/mapnikdeps/pkg/env"
	"github.com/mapnik-tools/mapnikdeps/pkg/features"
	"github.com/mapnik-tools/mapnikdeps/pkg/pkgconfig"
	"github.com/mapnik-tools/mapnikdeps/pkg/platform"
	"github.com/mapnik-tools/mapnikdeps/pkg/source"
	"github.com/mapnik-tools/mapnikdeps/pkg/vercmp"
)

// host simulates the mutable state of one machine: which libraries the
// metadata registry reports, which headers and shared objects exist, and
// an ordered event log shared by every fake.
type host struct {
	installed map[string]string // pkg-config name -> version
	headers   map[string]bool
	libs      map[string]bool
	events    []string
}

func newHost() *host {
	return &host{
		installed: map[string]string{},
		headers:   map[string]bool{},
		libs:      map[string]bool{},
	}
}

func (h *host) record(format string, args ...any) {
	h.events = append(h.events, fmt.Sprintf(format, args...))
}

type fakeProber struct{ h *host }

func (p *fakeProber) Probe(name string) pkgconfig.ProbeResult {
	version, ok := p.h.installed[name]
	return pkgconfig.ProbeResult{Name: name, Found: ok, Version: version}
}

func (p *fakeProber) ProbeWithMinimum(name, minimum string) pkgconfig.ProbeResult {
	p.h.record("probe:%s", name)
	result := p.Probe(name)
	if result.Found {
		result.SatisfiesMinimum = vercmp.AtLeast(result.Version, minimum)
	}
	return result
}

func (p *fakeProber) PCFileDir(name string) (string, error) {
	if _, ok := p.h.installed[name]; !ok {
		return "", fmt.Errorf("package %s not found", name)
	}
	return "/usr/lib/pkgconfig", nil
}

type fakeInstaller struct {
	h           *host
	failInstall bool
	provides    map[string]string // registry entries added on success
}

func (f *fakeInstaller) Name() string                      { return "apt" }
func (f *fakeInstaller) Refresh(ctx context.Context) error { return nil }

func (f *fakeInstaller) Install(ctx context.Context, packages ...string) error {
	f.h.record("install:%s", strings.Join(packages, ","))
	if f.failInstall {
		return errors.New("E: unable to locate package")
	}
	for name, version := range f.provides {
		f.h.installed[name] = version
	}
	return nil
}

type fakeBuilder struct {
	h      *host
	failOn string
}

func (b *fakeBuilder) Build(ctx context.Context, dep deps.Dependency, flags features.FlagSet) source.Outcome {
	b.h.record("build:%s", dep.Name)
	if dep.Name == b.failOn {
		return source.Outcome{
			Dependency:    dep.Name,
			LogPath:       "/tmp/" + dep.Name + ".log",
			FailedStep:    "compile",
			FailedCommand: "cmake --build",
		}
	}

	// A successful build installs the library and registers it.
	if dep.PkgConfigName != "" {
		b.h.installed[dep.PkgConfigName] = dep.PinnedVersion
	}
	if dep.HeaderProbe != "" {
		b.h.headers[dep.HeaderProbe] = true
	}
	b.h.libs[dep.Name] = true
	return source.Outcome{Dependency: dep.Name, Success: true}
}

type fakeFinder struct{ h *host }

func (f *fakeFinder) FindSharedLibrary(name string) *env.Library {
	if f.h.libs[name] {
		return &env.Library{Name: name, Path: "/usr/local/lib/lib" + name + ".so"}
	}
	return nil
}

func (f *fakeFinder) HasHeader(header string) bool {
	f.h.record("header:%s", header)
	return f.h.headers[header]
}

func newOrchestrator(h *host, failInstall bool, provides map[string]string, failBuild string) *Orchestrator {
	prober := &fakeProber{h: h}
	return New(Options{
		Platform:  &platform.Platform{OS: "linux", Strategy: platform.StrategyApt, Command: "apt-get"},
		Installer: &fakeInstaller{h: h, failInstall: failInstall, provides: provides},
		Prober:    prober,
		Builder:   &fakeBuilder{h: h, failOn: failBuild},
		Resolver:  features.NewResolver(prober, nil),
		Finder:    &fakeFinder{h: h},
	})
}

func builds(h *host) []string {
	var out []string
	for _, e := range h.events {
		if strings.HasPrefix(e, "build:") {
			out = append(out, strings.TrimPrefix(e, "build:"))
		}
	}
	return out
}

// Scenario A: the terminal dependency is already available at an
// acceptable version, so the run finishes without any source build.
func TestRunTerminalAlreadySatisfied(t *testing.T) {
	h := newHost()
	h.installed["libmapnik"] = "4.0.2"

	report, err := newOrchestrator(h, false, nil, "").Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := builds(h); len(got) != 0 {
		t.Errorf("expected no source builds, got %v", got)
	}
	for _, node := range report.Nodes {
		if node.State != StateSatisfiedBySystem {
			t.Errorf("%s state = %s, want satisfied-by-system", node.Dep.Name, node.State)
		}
	}
	if len(report.PCFiles) == 0 {
		t.Error("expected .pc locations in the report")
	}
}

// The system install path succeeding also short-circuits the build chain.
func TestRunSystemInstallSucceeds(t *testing.T) {
	h := newHost()

	report, err := newOrchestrator(h, false, map[string]string{"libmapnik": "4.0.2"}, "").Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := builds(h); len(got) != 0 {
		t.Errorf("expected no source builds, got %v", got)
	}
	if report.Nodes[len(report.Nodes)-1].State != StateSatisfiedBySystem {
		t.Error("terminal node not satisfied")
	}
}

// A system install that delivers a version below the minimum must not be
// accepted; the run falls through to the source path.
func TestRunSystemInstallTooOld(t *testing.T) {
	h := newHost()

	_, err := newOrchestrator(h, false, map[string]string{"libmapnik": "3.1.0"}, "").Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := builds(h)
	if len(got) == 0 || got[len(got)-1] != "mapnik" {
		t.Errorf("expected a source build of mapnik, got %v", got)
	}
}

// Scenario B: the system package install fails, so the whole chain is
// built in order, each node probed before it is built.
func TestRunFullSourceChain(t *testing.T) {
	h := newHost()

	report, err := newOrchestrator(h, true, nil, "").Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"boost", "proj", "harfbuzz", "gdal", "mapnik"}
	if got := builds(h); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("build order = %v, want %v", got, want)
	}

	// Every dependency's availability probe precedes its build.
	for _, dep := range want {
		probe := "probe:" + dep
		if dep == "boost" {
			probe = "header:boost/version.hpp"
		} else if dep == "mapnik" {
			probe = "probe:libmapnik"
		}
		probeAt, buildAt := -1, -1
		for i, e := range h.events {
			if e == probe && probeAt == -1 {
				probeAt = i
			}
			if e == "build:"+dep {
				buildAt = i
			}
		}
		if probeAt == -1 || buildAt == -1 || probeAt > buildAt {
			t.Errorf("%s: probe at %d, build at %d", dep, probeAt, buildAt)
		}
	}

	for _, node := range report.Nodes {
		if node.State != StateBuilt {
			t.Errorf("%s state = %s, want built", node.Dep.Name, node.State)
		}
	}
}

// A satisfied prerequisite does not force rebuilding its dependents, and
// vice versa: only what a fresh probe reports missing gets built.
func TestRunPartialChain(t *testing.T) {
	h := newHost()
	h.headers["boost/version.hpp"] = true
	h.installed["proj"] = "9.3.1"
	h.installed["harfbuzz"] = "8.3.0"
	h.installed["gdal"] = "3.8.3"

	report, err := newOrchestrator(h, true, nil, "").Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := builds(h); strings.Join(got, ",") != "mapnik" {
		t.Errorf("expected only mapnik to be built, got %v", got)
	}
	if report.Nodes[0].State != StateSatisfiedBySystem {
		t.Errorf("boost state = %s", report.Nodes[0].State)
	}
}

// Scenario C: a system harfbuzz below the minimum forces a private source
// build even though a copy exists.
func TestRunHarfBuzzBelowMinimum(t *testing.T) {
	h := newHost()
	h.headers["boost/version.hpp"] = true
	h.installed["proj"] = "9.3.1"
	h.installed["harfbuzz"] = "7.0.0"
	h.installed["gdal"] = "3.8.3"

	_, err := newOrchestrator(h, true, nil, "").Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"harfbuzz", "mapnik"}
	if got := builds(h); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("builds = %v, want %v", got, want)
	}
}

// Scenario D: a failing build halts the run immediately; later
// dependencies are never started.
func TestRunBuildFailureShortCircuits(t *testing.T) {
	h := newHost()

	report, err := newOrchestrator(h, true, nil, "proj").Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	var buildErr *BuildFailedError
	if !errors.As(err, &buildErr) {
		t.Fatalf("expected BuildFailedError, got %T: %v", err, err)
	}
	if buildErr.Dependency != "proj" {
		t.Errorf("failed dependency = %s, want proj", buildErr.Dependency)
	}

	if got := builds(h); strings.Join(got, ",") != "boost,proj" {
		t.Errorf("builds = %v, want boost then proj only", got)
	}

	states := map[string]NodeState{}
	for _, node := range report.Nodes {
		states[node.Dep.Name] = node.State
	}
	if states["proj"] != StateFailed {
		t.Errorf("proj state = %s, want failed", states["proj"])
	}
	if states["gdal"] != StateUnresolved || states["mapnik"] != StateUnresolved {
		t.Error("dependencies after the failure must stay unresolved")
	}
}

// The run fails loudly when the chain completes but the terminal shared
// object is still missing from the search path.
func TestRunMissingSharedObject(t *testing.T) {
	h := newHost()
	h.headers["boost/version.hpp"] = true
	h.installed["proj"] = "9.3.1"
	h.installed["harfbuzz"] = "8.3.0"
	h.installed["gdal"] = "3.8.3"
	h.installed["libmapnik"] = "4.0.2" // registry entry without the library

	// Probe satisfied via system: short-circuit, no library check.
	if _, err := newOrchestrator(h, true, nil, "").Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Now force the source path with a builder that "forgets" the lib.
	h2 := newHost()
	o := newOrchestrator(h2, true, nil, "")
	o.builder = &forgetfulBuilder{h: h2}
	if _, err := o.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing shared object")
	}
}

type forgetfulBuilder struct{ h *host }

func (b *forgetfulBuilder) Build(ctx context.Context, dep deps.Dependency, flags features.FlagSet) source.Outcome {
	b.h.record("build:%s", dep.Name)
	if dep.PkgConfigName != "" {
		b.h.installed[dep.PkgConfigName] = dep.PinnedVersion
	}
	if dep.HeaderProbe != "" {
		b.h.headers[dep.HeaderProbe] = true
	}
	// Registry updated but no shared object appears on the search path.
	return source.Outcome{Dependency: dep.Name, Success: true}
}
