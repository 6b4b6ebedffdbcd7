// pkg/pkgconfig/pkgconfig.go
package pkgconfig

import (
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"

	"github.com/mapnik-tools/mapnikdeps/pkg/vercmp"
)

// ProbeResult is the outcome of querying pkg-config for a library.
//
// Results are always computed fresh; callers must not cache them across
// orchestration steps, since an earlier step may have just installed the
// library being probed.
type ProbeResult struct {
	Name             string // pkg-config module name queried
	Found            bool   // true if the library is registered
	Version          string // reported version, empty when not found
	SatisfiesMinimum bool   // set by ProbeWithMinimum
}

// Prober queries the pkg-config metadata registry for installed libraries.
//
// Probing is read-only: PKG_CONFIG_PATH and any other environment the user
// set is passed through to pkg-config untouched.
type Prober struct {
	logger *log.Logger

	// run executes pkg-config and returns its stdout. Overridable in tests.
	run func(args ...string) ([]byte, error)
}

// NewProber creates a prober. A nil logger discards debug output.
func NewProber(logger *log.Logger) *Prober {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Prober{
		logger: logger,
		run: func(args ...string) ([]byte, error) {
			return exec.Command("pkg-config", args...).Output()
		},
	}
}

// Probe queries pkg-config for the named library.
func (p *Prober) Probe(name string) ProbeResult {
	result := ProbeResult{Name: name}

	out, err := p.run("--modversion", name)
	if err != nil {
		p.logger.Printf("pkg-config: %s not found", name)
		return result
	}

	result.Found = true
	result.Version = strings.TrimSpace(string(out))
	p.logger.Printf("pkg-config: %s %s", name, result.Version)
	return result
}

// ProbeWithMinimum queries the library and checks its version against the
// given minimum. An absent library or an unparsable version never satisfies
// the minimum.
func (p *Prober) ProbeWithMinimum(name, minimum string) ProbeResult {
	result := p.Probe(name)
	if !result.Found {
		return result
	}

	result.SatisfiesMinimum = vercmp.AtLeast(result.Version, minimum)
	if !result.SatisfiesMinimum {
		p.logger.Printf("pkg-config: %s %s does not meet minimum %s", name, result.Version, minimum)
	}
	return result
}

// Variable returns a pkg-config variable for the named library, such as
// prefix, plugins_dir or fonts_dir.
func (p *Prober) Variable(name, variable string) (string, error) {
	out, err := p.run("--variable="+variable, name)
	if err != nil {
		return "", fmt.Errorf("querying %s variable %s: %w", name, variable, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// PCFileDir returns the directory holding the .pc file for the named
// library. Used for diagnostics after a successful run.
func (p *Prober) PCFileDir(name string) (string, error) {
	return p.Variable(name, "pcfiledir")
}
