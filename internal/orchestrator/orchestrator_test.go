package orchestrator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/agladsoft/unzipping-ingestor/internal/catalog"
	"github.com/agladsoft/unzipping-ingestor/internal/normalize"
)

type fakeSource struct {
	sheets []string
	rows   map[string][][]string
}

func (f fakeSource) Load(path string) ([]string, map[string][][]string, error) {
	return f.sheets, f.rows, nil
}

func testCatalog() *catalog.Catalog {
	fields := map[catalog.Field]map[string]bool{
		catalog.FieldNumberPP:         {normalize.Tight("No."): true},
		catalog.FieldModel:            {normalize.Tight("Model"): true},
		catalog.FieldTnvedCode:        {normalize.Tight("TNVED"): true},
		catalog.FieldCountryOfOrigin:  {normalize.Tight("Origin"): true},
		catalog.FieldGoodsDescription: {normalize.Tight("Description"): true},
	}
	roles := map[catalog.Role]map[string]bool{
		catalog.RoleSeller:             {normalize.Tight("Seller"): true},
		catalog.RoleBuyer:              {normalize.Tight("Buyer"): true},
		catalog.RoleDestinationStation: {normalize.Tight("Station"): true},
	}
	return catalog.New(fields, roles, []catalog.StationAlias{{Substring: "NAHODKA", Canonical: "Находка-Восточная"}}, nil, nil)
}

func TestProcessFileWritesJSONAndRoutesDone(t *testing.T) {
	root := t.TempDir()
	workbookPath := filepath.Join(root, "invoice.xlsx")
	if err := os.WriteFile(workbookPath, []byte("fake"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	src := fakeSource{
		sheets: []string{"Sheet1"},
		rows: map[string][][]string{
			"Sheet1": {
				{"Seller", "ООО Ромашка"},
				{"Buyer", "ТОО Алем"},
				{"Station", "NAHODKA"},
				{"No.", "Model", "TNVED", "Origin", "Description"},
				{"1", "Widget", "6403510000", "CN", "Plastic widget"},
			},
		},
	}

	o := New(root, testCatalog(), nil, nil, nil)
	o.Source = src

	if err := o.ProcessFile(context.Background(), workbookPath, ""); err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}

	jsonPath := filepath.Join(root, "json", "invoice.json")
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", jsonPath, err)
	}

	var items []map[string]string
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0]["tnved_code"] != "6403510000" {
		t.Errorf("tnved_code = %q, want 6403510000", items[0]["tnved_code"])
	}
	if items[0][string(catalog.RoleDestinationStation)] != "Находка-Восточная" {
		t.Errorf("destination_station = %q, want normalized station", items[0][string(catalog.RoleDestinationStation)])
	}

	if _, err := os.Stat(filepath.Join(root, "done_excel", "invoice.xlsx")); err != nil {
		t.Errorf("source not routed to done_excel: %v", err)
	}
}

func TestProcessFileRoutesErrorsWhenNoLineItems(t *testing.T) {
	root := t.TempDir()
	workbookPath := filepath.Join(root, "empty.xlsx")
	if err := os.WriteFile(workbookPath, []byte("fake"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	src := fakeSource{
		sheets: []string{"Sheet1"},
		rows: map[string][][]string{
			"Sheet1": {{"nothing", "useful"}},
		},
	}

	o := New(root, testCatalog(), nil, nil, nil)
	o.Source = src

	if err := o.ProcessFile(context.Background(), workbookPath, ""); err == nil {
		t.Fatalf("ProcessFile() = nil error, want error for a workbook with no items")
	}

	if _, err := os.Stat(filepath.Join(root, "errors_excel", "empty.xlsx")); err != nil {
		t.Errorf("source not routed to errors_excel: %v", err)
	}
}

func TestUniqueJSONPathAppendsSuffixOnSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "report.json")
	if err := os.WriteFile(existing, []byte("12345"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	path, err := uniqueJSONPath(dir, "report", 3)
	if err != nil {
		t.Fatalf("uniqueJSONPath: %v", err)
	}
	if path != filepath.Join(dir, "report_1.json") {
		t.Errorf("uniqueJSONPath() = %q, want report_1.json", path)
	}

	samePath, err := uniqueJSONPath(dir, "report", 5)
	if err != nil {
		t.Fatalf("uniqueJSONPath: %v", err)
	}
	if samePath != existing {
		t.Errorf("uniqueJSONPath() = %q, want overwrite of existing same-size file", samePath)
	}
}
