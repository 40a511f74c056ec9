// Package xlsxsource is the default workbook-I/O adapter: it reads sheet
// names and rows of cells out of a real .xlsx/.xls file via excelize.
package xlsxsource

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Source loads a workbook's sheets into row matrices of optional strings.
// Cells that excelize reports as "" are left as "" rather than coerced to
// some sentinel: the normalize/sheet packages treat "" and "absent" alike.
type Source struct{}

// New returns a Source.
func New() *Source { return &Source{} }

// Load opens path and reads every sheet's rows. The returned data map is
// keyed by the names in the returned sheet list; a sheet that cannot be read
// has no entry.
func (Source) Load(path string) (sheets []string, data map[string][][]string, err error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("xlsxsource: open %q: %w", path, err)
	}
	defer f.Close()

	sheets = f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("xlsxsource: %q has no sheets", path)
	}

	data = make(map[string][][]string, len(sheets))
	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			continue // unreadable sheets are skipped, not fatal
		}
		data[name] = normalizeRows(rows)
	}
	return sheets, data, nil
}

// normalizeRows pads ragged rows so every row in the matrix has the same
// column count as the widest row.
func normalizeRows(rows [][]string) [][]string {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		if len(row) == width {
			out[i] = row
			continue
		}
		padded := make([]string, width)
		copy(padded, row)
		out[i] = padded
	}
	return out
}

// PickSheet returns the first sheet whose name contains one of
// prioritySubstrings (case-sensitive, in priority order), falling back to
// the first sheet in the workbook.
func PickSheet(sheets []string, prioritySubstrings []string) string {
	for _, want := range prioritySubstrings {
		for _, name := range sheets {
			if want != "" && strings.Contains(name, want) {
				return name
			}
		}
	}
	return sheets[0]
}
