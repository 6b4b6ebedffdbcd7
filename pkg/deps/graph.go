// pkg/deps/graph.go
package deps

import (
	"github.com/mapnik-tools/mapnikdeps/pkg/platform"
)

// BuildSystem selects the source-build procedure for a dependency.
type BuildSystem string

const (
	// BuildCMake configures with cmake and builds out-of-tree
	BuildCMake BuildSystem = "cmake"
	// BuildBoost runs bootstrap.sh followed by b2
	BuildBoost BuildSystem = "b2"
)

// SourceSpec describes how to acquire and build a dependency from source.
// Exactly one of ArchiveURL or GitURL is set; both pin an exact version,
// never a moving target.
type SourceSpec struct {
	ArchiveURL string // release tarball (.tar.gz or .tar.xz)
	SourceDir  string // directory name the archive unpacks to

	GitURL     string // repository for tag checkout
	GitTag     string // exact tag, e.g. v4.0.2
	Submodules bool   // fetch submodules after checkout

	BuildSystem   BuildSystem
	ConfigureArgs []string // base configure arguments; feature flags are appended
}

// Dependency is one library in the build graph.
type Dependency struct {
	// Name identifies the dependency in logs and diagnostics.
	Name string

	// PkgConfigName is the pkg-config module used to probe the installed
	// version. Empty for libraries that do not register with pkg-config
	// (boost); those are probed by header presence instead.
	PkgConfigName string

	// HeaderProbe is a header path, relative to an include directory,
	// whose presence marks the library as installed. Only consulted when
	// PkgConfigName is empty.
	HeaderProbe string

	// PinnedVersion is the exact version built from source.
	PinnedVersion string

	// MinVersion is the lowest system-provided version accepted instead
	// of a source build.
	MinVersion string

	// Prereqs names dependencies that must be resolved before this one.
	Prereqs []string

	// Optional marks dependencies whose absence degrades the final build
	// rather than blocking it. Once a source build has been scheduled the
	// distinction disappears: a failed build is fatal either way, because
	// later graph entries assume this one is installed.
	Optional bool

	// SystemPackages maps each installation strategy to the packages that
	// satisfy this dependency from the vendor repository.
	SystemPackages map[platform.InstallationStrategy][]string

	Source SourceSpec
}

// Graph returns the fixed dependency chain for the Mapnik toolkit, in
// topological order. The terminal entry is mapnik itself; every earlier
// entry must be resolved (system package or source build) before any later
// entry is configured, because configure steps locate prerequisites through
// the pkg-config search path and the dynamic-library cache.
func Graph() []Dependency {
	return []Dependency{
		{
			Name:          "boost",
			HeaderProbe:   "boost/version.hpp",
			PinnedVersion: "1.83.0",
			MinVersion:    "1.73.0",
			SystemPackages: map[platform.InstallationStrategy][]string{
				platform.StrategyApt:  {"libboost-all-dev"},
				platform.StrategyDnf:  {"boost-devel"},
				platform.StrategyBrew: {"boost"},
			},
			Source: SourceSpec{
				ArchiveURL:  "https://archives.boost.io/release/1.83.0/source/boost_1_83_0.tar.gz",
				SourceDir:   "boost_1_83_0",
				BuildSystem: BuildBoost,
				ConfigureArgs: []string{
					"--with-libraries=regex,filesystem,system,program_options",
				},
			},
		},
		{
			Name:          "proj",
			PkgConfigName: "proj",
			PinnedVersion: "9.3.1",
			MinVersion:    "7.2.0",
			Prereqs:       []string{"boost"},
			SystemPackages: map[platform.InstallationStrategy][]string{
				platform.StrategyApt:  {"libproj-dev", "proj-bin"},
				platform.StrategyDnf:  {"proj-devel"},
				platform.StrategyBrew: {"proj"},
			},
			Source: SourceSpec{
				ArchiveURL:  "https://download.osgeo.org/proj/proj-9.3.1.tar.gz",
				SourceDir:   "proj-9.3.1",
				BuildSystem: BuildCMake,
				ConfigureArgs: []string{
					"-DBUILD_TESTING=OFF",
					"-DBUILD_APPS=OFF",
					"-DENABLE_CURL=OFF",
				},
			},
		},
		{
			// Mapnik's text placement headers assume the layout introduced
			// in harfbuzz 8.3; an older system copy is never linked, a
			// private pinned copy is built instead.
			Name:          "harfbuzz",
			PkgConfigName: "harfbuzz",
			PinnedVersion: "8.3.0",
			MinVersion:    "8.3.0",
			Prereqs:       []string{"boost"},
			Optional:      true,
			SystemPackages: map[platform.InstallationStrategy][]string{
				platform.StrategyApt:  {"libharfbuzz-dev"},
				platform.StrategyDnf:  {"harfbuzz-devel"},
				platform.StrategyBrew: {"harfbuzz"},
			},
			Source: SourceSpec{
				ArchiveURL:  "https://github.com/harfbuzz/harfbuzz/releases/download/8.3.0/harfbuzz-8.3.0.tar.xz",
				SourceDir:   "harfbuzz-8.3.0",
				BuildSystem: BuildCMake,
				ConfigureArgs: []string{
					"-DHB_HAVE_FREETYPE=ON",
					"-DHB_BUILD_SUBSET=OFF",
				},
			},
		},
		{
			Name:          "gdal",
			PkgConfigName: "gdal",
			PinnedVersion: "3.8.3",
			MinVersion:    "3.4.0",
			Prereqs:       []string{"proj"},
			SystemPackages: map[platform.InstallationStrategy][]string{
				platform.StrategyApt:  {"libgdal-dev", "gdal-bin"},
				platform.StrategyDnf:  {"gdal-devel"},
				platform.StrategyBrew: {"gdal"},
			},
			Source: SourceSpec{
				ArchiveURL:  "https://github.com/OSGeo/gdal/releases/download/v3.8.3/gdal-3.8.3.tar.gz",
				SourceDir:   "gdal-3.8.3",
				BuildSystem: BuildCMake,
				ConfigureArgs: []string{
					"-DBUILD_TESTING=OFF",
					"-DBUILD_PYTHON_BINDINGS=OFF",
				},
			},
		},
		{
			Name:          "mapnik",
			PkgConfigName: "libmapnik",
			PinnedVersion: "4.0.2",
			MinVersion:    "4.0.0",
			Prereqs:       []string{"boost", "proj", "harfbuzz", "gdal"},
			SystemPackages: map[platform.InstallationStrategy][]string{
				platform.StrategyApt:  {"libmapnik-dev", "mapnik-utils"},
				platform.StrategyDnf:  {"mapnik-devel", "mapnik-utils"},
				platform.StrategyBrew: {"mapnik"},
			},
			Source: SourceSpec{
				GitURL:      "https://github.com/mapnik/mapnik.git",
				GitTag:      "v4.0.2",
				Submodules:  true,
				BuildSystem: BuildCMake,
				ConfigureArgs: []string{
					"-DBUILD_TESTING=OFF",
					"-DBUILD_DEMO_VIEWER=OFF",
					"-DBUILD_BENCHMARK=OFF",
				},
			},
		},
	}
}

// Terminal returns the final dependency in the graph, whose availability
// decides whether the whole chain must be built.
func Terminal() Dependency {
	g := Graph()
	return g[len(g)-1]
}

// ByName looks up a dependency in the graph.
func ByName(name string) (Dependency, bool) {
	for _, d := range Graph() {
		if d.Name == name {
			return d, true
		}
	}
	return Dependency{}, false
}
