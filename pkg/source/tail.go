// pkg/source/tail.go
package source

import (
	"os"
	"strings"
)

// TailLines is how much of a failed build log is surfaced in diagnostics.
const TailLines = 200

// Tail returns up to n trailing lines of the file at path. A missing or
// unreadable log yields an empty slice; the diagnostic header still names
// the failed dependency and step.
func Tail(path string, n int) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}
