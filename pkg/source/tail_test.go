// pkg/source/tail_test.go
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.log")

	var sb strings.Builder
	for i := 1; i <= 300; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		t.Fatal(err)
	}

	lines := Tail(path, 200)
	if len(lines) != 200 {
		t.Fatalf("got %d lines, want 200", len(lines))
	}
	if lines[0] != "line 101" {
		t.Errorf("first line = %q, want line 101", lines[0])
	}
	if lines[len(lines)-1] != "line 300" {
		t.Errorf("last line = %q, want line 300", lines[len(lines)-1])
	}
}

func TestTailShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.log")
	if err := os.WriteFile(path, []byte("only line\n"), 0644); err != nil {
		t.Fatal(err)
	}

	lines := Tail(path, 200)
	if len(lines) != 1 || lines[0] != "only line" {
		t.Errorf("unexpected tail %v", lines)
	}
}

func TestTailMissingFile(t *testing.T) {
	if lines := Tail(filepath.Join(t.TempDir(), "nope.log"), 200); lines != nil {
		t.Errorf("expected nil for missing file, got %v", lines)
	}
}
