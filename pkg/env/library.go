// pkg/env/library.go
package env

import (
	"os"
	"path/filepath"
	"runtime"
)

// Library is a shared object found on the library search path.
type Library struct {
	Name string // bare name, e.g. "mapnik"
	Path string // full path to the shared object
}

// Environment describes where installed artifacts are looked up: the
// configured install prefix first, then the standard system locations the
// dynamic loader searches.
type Environment struct {
	Prefix     string
	ExtraPaths []string
}

// New creates an environment rooted at the given install prefix.
func New(prefix string) *Environment {
	return &Environment{Prefix: prefix}
}

// LibraryPaths returns the search directories in priority order.
func (e *Environment) LibraryPaths() []string {
	paths := []string{
		filepath.Join(e.Prefix, "lib"),
		filepath.Join(e.Prefix, "lib64"),
	}
	paths = append(paths, e.ExtraPaths...)
	paths = append(paths,
		"/usr/local/lib",
		"/usr/lib",
		"/usr/lib64",
		"/usr/lib/x86_64-linux-gnu",
		"/usr/lib/aarch64-linux-gnu",
	)
	return paths
}

// IncludePaths returns the header search directories in priority order.
func (e *Environment) IncludePaths() []string {
	return []string{
		filepath.Join(e.Prefix, "include"),
		"/usr/local/include",
		"/usr/include",
	}
}

// FindSharedLibrary searches for lib<name> with the platform's shared
// library extension, including versioned names like libmapnik.so.4.0.
func (e *Environment) FindSharedLibrary(name string) *Library {
	for _, dir := range e.LibraryPaths() {
		for _, ext := range sharedExtensions() {
			filename := "lib" + name + ext

			fullPath := filepath.Join(dir, filename)
			if fileExists(fullPath) {
				return &Library{Name: name, Path: fullPath}
			}

			// Versioned: lib{name}{ext}.* (e.g. libmapnik.so.4.0)
			matches, _ := filepath.Glob(filepath.Join(dir, filename+"*"))
			if len(matches) > 0 {
				return &Library{Name: name, Path: matches[0]}
			}
		}
	}
	return nil
}

// HasHeader reports whether the header (a path relative to an include
// directory, e.g. "boost/version.hpp") exists on the search path.
func (e *Environment) HasHeader(header string) bool {
	for _, dir := range e.IncludePaths() {
		if fileExists(filepath.Join(dir, header)) {
			return true
		}
	}
	return false
}

func sharedExtensions() []string {
	if runtime.GOOS == "darwin" {
		return []string{".dylib", ".so"}
	}
	return []string{".so"}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
