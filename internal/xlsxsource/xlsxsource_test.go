package xlsxsource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildFixture(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	f.NewSheet("Sheet1")
	f.SetSheetRow("Sheet1", "A1", &[]interface{}{"a", "b"})

	f.NewSheet("инвойс спецификация")
	f.SetSheetRow("инвойс спецификация", "A1", &[]interface{}{"Model", "No.", "TNVED"})
	f.SetSheetRow("инвойс спецификация", "A2", &[]interface{}{"Widget", 1})

	f.DeleteSheet("Sheet1")
	f.NewSheet("Sheet1")
	f.SetSheetRow("Sheet1", "A1", &[]interface{}{"a", "b"})

	path := filepath.Join(t.TempDir(), "fixture.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestLoadAndPickSheet(t *testing.T) {
	path := buildFixture(t)
	src := New()

	sheets, data, err := src.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sheets) != 2 {
		t.Fatalf("sheets = %v, want 2 entries", sheets)
	}

	rows, ok := data["инвойс спецификация"]
	if !ok {
		t.Fatalf("missing sheet data for инвойс спецификация")
	}
	if len(rows) != 2 || rows[0][0] != "Model" {
		t.Errorf("rows = %v, want header row starting with Model", rows)
	}

	picked := PickSheet(sheets, []string{"инвойс"})
	if picked != "инвойс спецификация" {
		t.Errorf("PickSheet = %q, want priority sheet", picked)
	}

	fallback := PickSheet(sheets, []string{"nope"})
	if fallback != sheets[0] {
		t.Errorf("PickSheet fallback = %q, want %q", fallback, sheets[0])
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, _, err := New().Load(filepath.Join(os.TempDir(), "does-not-exist.xlsx")); err == nil {
		t.Errorf("Load(missing file) = nil error, want error")
	}
}
