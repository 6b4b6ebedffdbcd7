// pkg/orchestrator/state.go
package orchestrator

import (
	"fmt"
	"strings"

	"github.com/mapnik-tools/mapnikdeps/pkg/deps"
	"github.com/mapnik-tools/mapnikdeps/pkg/pkgconfig"
	"github.com/mapnik-tools/mapnikdeps/pkg/platform"
	"github.com/mapnik-tools/mapnikdeps/pkg/source"
)

// NodeState tracks one dependency through resolution. Later graph entries
// may assume every earlier node is SatisfiedBySystem or Built; the explicit
// state makes that invariant checkable.
type NodeState int

const (
	// StateUnresolved means the dependency has not been probed yet
	StateUnresolved NodeState = iota
	// StateSatisfiedBySystem means an acceptable system copy exists
	StateSatisfiedBySystem
	// StateBuildScheduled means a source build was chosen and is pending
	StateBuildScheduled
	// StateBuilt means the source build completed and was installed
	StateBuilt
	// StateFailed means the source build failed; the run halts here
	StateFailed
)

func (s NodeState) String() string {
	switch s {
	case StateSatisfiedBySystem:
		return "satisfied-by-system"
	case StateBuildScheduled:
		return "build-scheduled"
	case StateBuilt:
		return "built"
	case StateFailed:
		return "failed"
	default:
		return "unresolved"
	}
}

// Node is one dependency's resolution record.
type Node struct {
	Dep   deps.Dependency
	State NodeState
	Probe pkgconfig.ProbeResult
}

// Report summarizes a run for diagnostics: the chosen strategy, the final
// state of every node, and the package-metadata files now visible to a
// downstream native-extension build.
type Report struct {
	Strategy platform.InstallationStrategy
	Nodes    []Node
	PCFiles  []string
}

// BuildFailedError is returned when a dependency's source build fails.
// The whole run halts: the next dependency in the graph assumes this one
// is installed, so there is no partial-success mode.
type BuildFailedError struct {
	Dependency string
	Outcome    source.Outcome
}

func (e *BuildFailedError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "building %s from source failed at step %q", e.Dependency, e.Outcome.FailedStep)
	if e.Outcome.FailedCommand != "" {
		fmt.Fprintf(&sb, " (%s)", e.Outcome.FailedCommand)
	}
	return sb.String()
}
