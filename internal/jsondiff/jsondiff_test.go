package jsondiff

import (
	"strings"
	"testing"
)

func TestEqual(t *testing.T) {
	if !Equal(`{"a":1}`, `{"a":1}`) {
		t.Errorf("Equal() = false for identical strings")
	}
	if Equal(`{"a":1}`, `{"a":2}`) {
		t.Errorf("Equal() = true for differing strings")
	}
}

func TestDiffHighlightsChangedLine(t *testing.T) {
	want := "line1\nline2\nline3\n"
	got := "line1\nCHANGED\nline3\n"

	d := Diff(want, got)
	if d == "" {
		t.Fatalf("Diff() = empty string for differing input")
	}
	if !strings.Contains(d, "CHANGED") {
		t.Errorf("Diff() = %q, want it to mention the changed line", d)
	}
}
