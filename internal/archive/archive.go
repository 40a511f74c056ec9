// Package archive implements ArchiveExtractor: it walks the input queue
// directory, recursively unpacks zip/rar archives into a scratch area, hands
// .xls/.xlsx members to a dispatcher, and moves processed sources into a
// done/ subdirectory.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nwaples/rardecode"
)

// Dispatcher hands a discovered .xls/.xlsx path to the rest of the pipeline.
type Dispatcher func(path string) error

// Extractor drives one scan pass over an input directory.
type Extractor struct {
	inputDir   string
	scratchDir string
	dispatch   Dispatcher
	logger     *slog.Logger
}

// New builds an Extractor. scratchDir is cleared and recreated by Scan.
func New(inputDir, scratchDir string, dispatch Dispatcher, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{inputDir: inputDir, scratchDir: scratchDir, dispatch: dispatch, logger: logger}
}

// Scan runs one non-recursive pass over inputDir, recursing into archives it
// finds as it goes.
func (e *Extractor) Scan() error {
	if err := os.RemoveAll(e.scratchDir); err != nil {
		return fmt.Errorf("archive: clear scratch dir: %w", err)
	}
	if err := os.MkdirAll(e.scratchDir, 0o755); err != nil {
		return fmt.Errorf("archive: create scratch dir: %w", err)
	}

	entries, err := os.ReadDir(e.inputDir)
	if err != nil {
		return fmt.Errorf("archive: read input dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(e.inputDir, entry.Name())
		if err := e.processEntry(path); err != nil {
			e.logger.Error("archive: process entry failed", "path", path, "error", err)
			continue
		}
		if err := e.moveToDone(path); err != nil {
			e.logger.Error("archive: move to done failed", "path", path, "error", err)
		}
	}
	return nil
}

func (e *Extractor) processEntry(path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xls":
		return e.dispatch(path)
	case ".zip":
		return e.extractZip(path)
	case ".rar":
		return e.extractRar(path)
	default:
		e.logger.Warn("archive: unsupported file type skipped", "path", path, "ext", ext)
		return nil
	}
}

func (e *Extractor) extractZip(path string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("archive: open zip %q: %w", path, err)
	}
	defer r.Close()

	destRoot := filepath.Join(e.scratchDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		dest := filepath.Join(destRoot, f.Name)
		if err := extractZipEntry(f, dest); err != nil {
			return fmt.Errorf("archive: extract %q from %q: %w", f.Name, path, err)
		}
		if err := e.processEntry(dest); err != nil {
			e.logger.Error("archive: process extracted entry failed", "path", dest, "error", err)
		}
	}
	return nil
}

func extractZipEntry(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

func (e *Extractor) extractRar(path string) error {
	r, err := rardecode.OpenReader(path, "")
	if err != nil {
		return fmt.Errorf("archive: open rar %q: %w", path, err)
	}
	defer r.Close()

	destRoot := filepath.Join(e.scratchDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("archive: read rar %q: %w", path, err)
		}
		if header.IsDir {
			continue
		}

		dest := filepath.Join(destRoot, header.Name)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		out, err := os.Create(dest)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, r); err != nil {
			out.Close()
			return err
		}
		out.Close()

		if err := e.processEntry(dest); err != nil {
			e.logger.Error("archive: process extracted entry failed", "path", dest, "error", err)
		}
	}
	return nil
}

func (e *Extractor) moveToDone(path string) error {
	doneDir := filepath.Join(filepath.Dir(path), "done")
	if err := os.MkdirAll(doneDir, 0o755); err != nil {
		return fmt.Errorf("archive: create done dir: %w", err)
	}
	dest := filepath.Join(doneDir, filepath.Base(path))
	return os.Rename(path, dest)
}
