// pkg/features/resolver_test.go
package features

import (
	"strings"
	"testing"

	"github.com/mapnik-tools/mapnikdeps/pkg/pkgconfig"
	"github.com/mapnik-tools/mapnikdeps/pkg/vercmp"
)

type stubProber struct {
	installed map[string]string // name -> version
}

func (s *stubProber) Probe(name string) pkgconfig.ProbeResult {
	version, ok := s.installed[name]
	return pkgconfig.ProbeResult{Name: name, Found: ok, Version: version}
}

func (s *stubProber) ProbeWithMinimum(name, minimum string) pkgconfig.ProbeResult {
	result := s.Probe(name)
	if result.Found {
		result.SatisfiesMinimum = vercmp.AtLeast(result.Version, minimum)
	}
	return result
}

func TestForAllSiblingsAbsent(t *testing.T) {
	r := NewResolver(&stubProber{}, nil)

	for _, dep := range []string{"gdal", "mapnik"} {
		flags := r.For(dep)
		for capability, on := range flags {
			if on {
				t.Errorf("%s: capability %s enabled with nothing installed", dep, capability)
			}
		}

		// The flag set must still be well-formed for the build request.
		args := CMakeArgs(dep, flags)
		for _, arg := range args {
			if !strings.HasPrefix(arg, "-D") {
				t.Errorf("malformed configure argument %q", arg)
			}
		}
	}
}

func TestForGDALSiblings(t *testing.T) {
	r := NewResolver(&stubProber{installed: map[string]string{
		"geos": "3.12.1",
		"zlib": "1.3",
	}}, nil)

	flags := r.For("gdal")
	if !flags[CapGEOS] || !flags[CapZlib] {
		t.Error("expected geos and zlib capabilities enabled")
	}
	if flags[CapGeoTIFF] || flags[CapJSONC] {
		t.Error("expected geotiff and json-c capabilities disabled")
	}

	args := CMakeArgs("gdal", flags)
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-DGDAL_USE_GEOS=ON") {
		t.Errorf("expected geos enabled in %q", joined)
	}
	if !strings.Contains(joined, "-DGDAL_USE_JSONC=OFF") {
		t.Errorf("expected json-c disabled in %q", joined)
	}
	if !strings.Contains(joined, "-DGDAL_USE_GEOTIFF_INTERNAL=ON") {
		t.Errorf("expected internal geotiff fallback in %q", joined)
	}
}

func TestHarfBuzzVersionGate(t *testing.T) {
	// A system copy below the minimum must not be linked; the flag stays
	// off so the orchestrator schedules a private build.
	old := NewResolver(&stubProber{installed: map[string]string{
		"harfbuzz": "7.0.0",
	}}, nil)
	if old.For("mapnik")[CapSystemHarfBuzz] {
		t.Error("harfbuzz 7.0.0 must not satisfy the 8.3.0 minimum")
	}

	current := NewResolver(&stubProber{installed: map[string]string{
		"harfbuzz": "8.3.0",
	}}, nil)
	if !current.For("mapnik")[CapSystemHarfBuzz] {
		t.Error("harfbuzz 8.3.0 must satisfy the minimum")
	}
}

func TestCMakeArgsUnknownDependent(t *testing.T) {
	if args := CMakeArgs("proj", FlagSet{}); len(args) != 0 {
		t.Errorf("expected no feature arguments for proj, got %v", args)
	}
}
