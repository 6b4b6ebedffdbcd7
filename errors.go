// errors.go
package mapnikdeps

import (
	"errors"
	"fmt"

	"github.com/mapnik-tools/mapnikdeps/pkg/platform"
)

var (
	// ErrNoPackageManager indicates no supported package manager was found
	ErrNoPackageManager = platform.ErrNoPackageManager

	// ErrDependencyUnknown indicates the dependency name is not in the graph
	ErrDependencyUnknown = errors.New("unknown dependency")

	// ErrLibraryNotFound indicates the built library could not be located
	ErrLibraryNotFound = errors.New("shared library not found")

	// ErrSourceUnavailable indicates the source archive or repository
	// could not be fetched
	ErrSourceUnavailable = errors.New("source unavailable")
)

// Error wraps an error with additional context
type Error struct {
	Op         string // Operation that failed
	Dependency string // Dependency name if applicable
	Err        error  // Underlying error
}

func (e *Error) Error() string {
	if e.Dependency != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Dependency, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
