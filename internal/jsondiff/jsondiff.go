// Package jsondiff is a test-only helper for asserting idempotence of the
// orchestrator's JSON output: reprocessing the same workbook should produce
// a byte-identical payload. When it doesn't, Diff renders a unified diff so
// the failure is readable instead of a wall of escaped JSON.
package jsondiff

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Equal reports whether want and got are identical, ignoring nothing: JSON
// output is expected to match byte-for-byte.
func Equal(want, got string) bool {
	return want == got
}

// Diff renders a unified diff between want and got for use in test failure
// messages.
func Diff(want, got string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "jsondiff: failed to render diff: " + err.Error()
	}
	return text
}
