package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pavelanni/docent/internal/logtext"
	"github.com/pavelanni/docent/internal/model"
)

// PageMarker frames the text of page n (1-based) in a multi-page document.
func PageMarker(n int) string {
	return fmt.Sprintf("--- Page %d ---", n)
}

func (e *Extractor) extractPDF(ctx context.Context, path string) (Result, error) {
	tmpDir, err := os.MkdirTemp(e.cfg.TempDir, "docent-pages-*")
	if err != nil {
		return Result{}, &model.ExtractionError{Path: path, Stage: "render", Err: err}
	}
	defer e.removeAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 [-l max] -png <in.pdf> <tmp/page>
	args := []string{"-r", strconv.Itoa(e.cfg.DPI)}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, "-png", path, prefix)
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...)
	if err != nil {
		return Result{}, &model.ExtractionError{
			Path:  path,
			Stage: "render",
			Err:   fmt.Errorf("pdftoppm: %w: %s", err, logtext.Truncate(strings.TrimSpace(string(errb)), logtext.ErrorLimit)),
		}
	}

	rasters, err := listRasters(tmpDir)
	if err != nil {
		return Result{}, &model.ExtractionError{Path: path, Stage: "render", Err: err}
	}
	sortByPageNumber(rasters)
	if e.cfg.MaxPages > 0 && len(rasters) > e.cfg.MaxPages {
		e.logger.Warn("page limit reached", "path", path, "pages", len(rasters), "max_pages", e.cfg.MaxPages)
		rasters = rasters[:e.cfg.MaxPages]
	}
	if len(rasters) == 0 {
		return Result{}, &model.ExtractionError{Path: path, Stage: "render", Err: errors.New("no pages rendered")}
	}

	var b strings.Builder
	var warns []string
	for i, raster := range rasters {
		page := i + 1
		txt, err := e.recognizePage(ctx, raster, tmpDir)
		if err != nil {
			e.logger.Warn("page recognition failed", "path", path, "page", page, "error", err)
			warns = append(warns, fmt.Sprintf("page %d: %v", page, err))
		}
		b.WriteString("\n" + PageMarker(page) + "\n")
		b.WriteString(txt)
	}
	return Result{Text: b.String(), Pages: len(rasters), Warnings: warns}, nil
}

// recognizePage OCRs a single rendered page and removes its raster on every
// exit path.
func (e *Extractor) recognizePage(ctx context.Context, raster, workDir string) (string, error) {
	defer func() {
		if err := os.Remove(raster); err != nil && !os.IsNotExist(err) {
			e.logger.Warn("failed to remove page raster", "path", raster, "error", err)
		}
	}()
	return e.recognize(ctx, raster, workDir)
}

// listRasters returns the page images pdftoppm wrote into dir. They are
// named page-1.png, page-2.png, ... zero-padded to the page count width.
func listRasters(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list rendered pages: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "page-") || !strings.HasSuffix(name, ".png") {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func sortByPageNumber(paths []string) {
	num := func(p string) int {
		base := strings.TrimSuffix(filepath.Base(p), ".png")
		i := strings.LastIndex(base, "-")
		n, err := strconv.Atoi(base[i+1:])
		if err != nil {
			return 0
		}
		return n
	}
	sort.SliceStable(paths, func(i, j int) bool { return num(paths[i]) < num(paths[j]) })
}
