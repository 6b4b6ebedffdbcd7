// pkg/features/resolver.go
package features

import (
	"fmt"
	"io"
	"log"
	"sort"

	"github.com/mapnik-tools/mapnikdeps/pkg/pkgconfig"
)

// Capability names for optional sibling libraries.
const (
	CapGEOS    = "geos"    // geometry operations engine
	CapZlib    = "zlib"    // lossless compression
	CapGeoTIFF = "geotiff" // geotagged raster helper
	CapJSONC   = "json-c"  // structured data parser
	CapCairo   = "cairo"   // vector surface rendering

	// CapSystemHarfBuzz records whether the system text-shaping library is
	// new enough to link against. When false a private pinned copy is
	// built instead; Mapnik's headers assume the newer layout.
	CapSystemHarfBuzz = "system-harfbuzz"
)

// HarfBuzzMinimum is the lowest system harfbuzz accepted by Mapnik.
const HarfBuzzMinimum = "8.3.0"

// FlagSet maps capability names to enabled/disabled. Derived once per
// dependent immediately before its build action runs, then discarded.
type FlagSet map[string]bool

// Prober is the availability query the resolver consumes.
type Prober interface {
	Probe(name string) pkgconfig.ProbeResult
	ProbeWithMinimum(name, minimum string) pkgconfig.ProbeResult
}

// Resolver derives feature flags for dependents from fresh sibling probes.
type Resolver struct {
	prober Prober
	logger *log.Logger
}

// NewResolver creates a resolver. A nil logger discards debug output.
func NewResolver(prober Prober, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Resolver{prober: prober, logger: logger}
}

// For derives the flag set for the named dependent. Dependencies without
// optional capabilities get an empty, well-formed set.
func (r *Resolver) For(name string) FlagSet {
	flags := FlagSet{}

	switch name {
	case "gdal":
		flags[CapGEOS] = r.prober.Probe("geos").Found
		flags[CapZlib] = r.prober.Probe("zlib").Found
		flags[CapGeoTIFF] = r.prober.Probe("geotiff").Found
		flags[CapJSONC] = r.prober.Probe("json-c").Found
	case "mapnik":
		flags[CapCairo] = r.prober.Probe("cairo").Found
		flags[CapSystemHarfBuzz] = r.prober.ProbeWithMinimum("harfbuzz", HarfBuzzMinimum).SatisfiesMinimum
	}

	for capability, on := range flags {
		r.logger.Printf("feature %s/%s: %v", name, capability, on)
	}
	return flags
}

// CMakeArgs translates a flag set into configure arguments for the named
// dependent. Capabilities with no build toggle contribute nothing; a
// disabled capability degrades the build rather than failing it.
func CMakeArgs(name string, flags FlagSet) []string {
	var args []string

	switch name {
	case "gdal":
		args = append(args, onOff("GDAL_USE_GEOS", flags[CapGEOS]))
		args = append(args, onOff("GDAL_USE_ZLIB", flags[CapZlib]))
		args = append(args, onOff("GDAL_USE_GEOTIFF", flags[CapGeoTIFF]))
		args = append(args, onOff("GDAL_USE_JSONC", flags[CapJSONC]))
		// GDAL carries vendored copies of these two; fall back to them
		// when no system copy exists so the GTiff driver still builds.
		if !flags[CapGeoTIFF] {
			args = append(args, "-DGDAL_USE_GEOTIFF_INTERNAL=ON")
		}
		if !flags[CapZlib] {
			args = append(args, "-DGDAL_USE_ZLIB_INTERNAL=ON")
		}
	case "mapnik":
		args = append(args, onOff("USE_CAIRO", flags[CapCairo]))
		// CapSystemHarfBuzz has no toggle: when the system copy is too
		// old the orchestrator has already installed a private pinned
		// copy into the prefix, which configure then finds first.
	}

	sort.Strings(args)
	return args
}

func onOff(option string, enabled bool) string {
	if enabled {
		return fmt.Sprintf("-D%s=ON", option)
	}
	return fmt.Sprintf("-D%s=OFF", option)
}
