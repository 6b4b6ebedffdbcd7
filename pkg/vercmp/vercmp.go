// pkg/vercmp/vercmp.go
package vercmp

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Compare compares two dotted version strings numerically per component,
// returning:
//
//	-1 if a < b
//	 0 if a == b
//	 1 if a > b
//
// Shorter versions are treated as padded with trailing zero components, so
// "2.1" and "2.1.0" compare equal. An error is returned for versions with
// non-numeric components.
func Compare(a, b string) (int, error) {
	va, err := semver.NewVersion(a)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", a, err)
	}
	vb, err := semver.NewVersion(b)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", b, err)
	}
	return va.Compare(vb), nil
}

// AtLeast reports whether installed is greater than or equal to minimum.
//
// A malformed version string on either side makes the comparison fail
// safe: the minimum is reported as not met, so callers fall through to
// a source build instead of silently accepting an unparsable version.
func AtLeast(installed, minimum string) bool {
	c, err := Compare(installed, minimum)
	if err != nil {
		return false
	}
	return c >= 0
}
