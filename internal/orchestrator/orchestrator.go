// Package orchestrator drives one workbook through the full pipeline: sheet
// selection, decoding, identity enrichment, JSON emission, and file routing
// to the done/errors buckets.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/agladsoft/unzipping-ingestor/internal/catalog"
	"github.com/agladsoft/unzipping-ingestor/internal/ingesterr"
	"github.com/agladsoft/unzipping-ingestor/internal/sheet"
	"github.com/agladsoft/unzipping-ingestor/internal/xlsxsource"
)

// Source is the external "workbook row/cell reading" collaborator.
type Source interface {
	Load(path string) (sheets []string, data map[string][][]string, err error)
}

// Orchestrator wires together one workbook's full processing pipeline.
type Orchestrator struct {
	Root     string // filesystem root: json/, done_excel/, errors_excel/ live under here
	Catalog  *catalog.Catalog
	Source   Source
	Gate     StabilityGate
	Enricher *Enricher
	Logger   *slog.Logger

	now func() time.Time
}

// New builds an Orchestrator with sensible defaults for collaborators left
// nil (excelize-backed Source, a no-op stability gate).
func New(root string, cat *catalog.Catalog, enricher *Enricher, gate StabilityGate, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		Root:     root,
		Catalog:  cat,
		Source:   xlsxsource.New(),
		Gate:     gate,
		Enricher: enricher,
		Logger:   logger,
		now:      time.Now,
	}
}

var containerNumberPattern = regexp.MustCompile(`[A-Z]{4}\d{7}`)

// ProcessFile runs the full pipeline for one workbook. archiveName is the
// enclosing archive's file name, or "" for a loose workbook.
func (o *Orchestrator) ProcessFile(ctx context.Context, path, archiveName string) error {
	if o.Gate != nil {
		stable, err := o.Gate.WaitUntilStable(path)
		if err != nil {
			return ingesterr.Wrap(ingesterr.ErrDecode, "stability check", err)
		}
		if !stable {
			return ingesterr.Wrap(ingesterr.ErrDecode, "file still being written: "+path, nil)
		}
	}

	sheets, data, err := o.Source.Load(path)
	if err != nil {
		o.routeError(path)
		return ingesterr.Wrap(ingesterr.ErrDecode, "load workbook", err)
	}

	sheetName := xlsxsource.PickSheet(sheets, o.Catalog.PrioritySheetNames)
	rows := dropBlankRows(data[sheetName])

	header := seedHeader(path, archiveName, o.now())
	record, err := sheet.NewDecoder(o.Catalog).Decode(rows, header)
	if err != nil {
		o.routeError(path)
		return err
	}
	if len(record.LineItems) == 0 {
		o.routeError(path)
		return ingesterr.Wrap(ingesterr.ErrTnvedMissing, "no line items decoded from "+path, nil)
	}

	if o.Enricher != nil {
		o.Enricher.EnrichHeader(ctx, record.Header, flattenRows(rows))
	}
	if station, ok := record.Header[string(catalog.RoleDestinationStation)]; ok {
		record.Header[string(catalog.RoleDestinationStation)] = o.Catalog.NormalizeStation(station)
	}

	for _, item := range record.LineItems {
		for k, v := range record.Header {
			item[k] = v
		}
	}

	if err := o.writeJSON(path, record.LineItems); err != nil {
		o.routeError(path)
		return ingesterr.Wrap(ingesterr.ErrDecode, "write json", err)
	}

	o.routeDone(path)
	return nil
}

func seedHeader(path, archiveName string, parsedAt time.Time) map[string]string {
	header := map[string]string{
		"source_file":   filepath.Base(path),
		"parsed_at":     parsedAt.UTC().Format(time.RFC3339),
		"input_archive": archiveName,
	}
	if m := containerNumberPattern.FindString(filepath.Base(path)); m != "" {
		header[string(catalog.RoleContainerNumber)] = m
	}
	return header
}

func dropBlankRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if !allBlank(row) {
			out = append(out, row)
		}
	}
	return out
}

func allBlank(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}

func flattenRows(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		for _, cell := range row {
			b.WriteString(cell)
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// writeJSON implements §4.8 step 5's collision rule: same-size existing file
// is overwritten, otherwise the smallest unused _N suffix is appended.
func (o *Orchestrator) writeJSON(sourcePath string, items []map[string]string) error {
	jsonDir := filepath.Join(o.Root, "json")
	if err := os.MkdirAll(jsonDir, 0o755); err != nil {
		return err
	}

	payload, err := json.MarshalIndent(items, "", "    ")
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	dest, err := uniqueJSONPath(jsonDir, base, int64(len(payload)))
	if err != nil {
		return err
	}
	return os.WriteFile(dest, payload, 0o644)
}

func uniqueJSONPath(dir, base string, newSize int64) (string, error) {
	candidate := filepath.Join(dir, base+".json")
	info, err := os.Stat(candidate)
	if os.IsNotExist(err) {
		return candidate, nil
	}
	if err != nil {
		return "", err
	}
	if info.Size() == newSize {
		return candidate, nil
	}

	for n := 1; ; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d.json", base, n))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
}

func (o *Orchestrator) routeDone(path string) {
	o.copyTo(path, filepath.Join(o.Root, "done_excel"))
}

func (o *Orchestrator) routeError(path string) {
	o.copyTo(path, filepath.Join(o.Root, "errors_excel"))
}

func (o *Orchestrator) copyTo(path, destDir string) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		o.Logger.Error("orchestrator: create dest dir failed", "dir", destDir, "error", err)
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		o.Logger.Error("orchestrator: read source for routing failed", "path", path, "error", err)
		return
	}
	dest := filepath.Join(destDir, filepath.Base(path))
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		o.Logger.Error("orchestrator: write routed copy failed", "dest", dest, "error", err)
	}
}
