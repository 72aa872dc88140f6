// Package ocr turns uploaded images and PDFs into plain text using the
// tesseract and pdftoppm command-line tools.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pavelanni/docent/internal/config"
	"github.com/pavelanni/docent/internal/model"
)

// Kind is the detected type of an input file.
type Kind string

const (
	KindPDF     Kind = "pdf"
	KindImage   Kind = "image"
	KindUnknown Kind = ""
)

var imageExts = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
	"tif":  {},
	"tiff": {},
	"bmp":  {},
	"webp": {},
}

// TIFF byte-order headers; http.DetectContentType does not know TIFF.
var tiffMagic = [][]byte{
	[]byte("II*\x00"),
	[]byte("MM\x00*"),
}

// Result is the outcome of a successful extraction.
type Result struct {
	Text     string
	Pages    int
	Kind     Kind
	Duration time.Duration
	Warnings []string
}

// Extractor runs OCR over images and multi-page PDFs.
type Extractor struct {
	cfg    config.OCR
	runner Runner
	logger *slog.Logger
}

// New creates an Extractor. Empty tool names fall back to the binaries on PATH.
func New(cfg config.OCR, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner returns a copy of e that executes commands through r.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	c := *e
	c.runner = r
	return &c
}

// Extract detects the file kind and returns its text.
// Per-page recognition failures inside a PDF degrade to an empty page;
// anything that prevents extraction as a whole is a *model.ExtractionError.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	kind, err := DetectKind(path)
	if err != nil {
		return Result{}, &model.ExtractionError{Path: path, Stage: "open", Err: err}
	}
	e.logger.Debug("starting extraction", "path", path, "kind", kind)

	var res Result
	switch kind {
	case KindPDF:
		res, err = e.extractPDF(ctx, path)
	case KindImage:
		res, err = e.extractImage(ctx, path)
	default:
		err = &model.ExtractionError{Path: path, Stage: "kind", Err: errors.New("unsupported file type")}
	}
	res.Kind = kind
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Error("extraction failed", "path", path, "kind", kind, "error", err)
		return res, err
	}
	e.logger.Info("extraction done",
		"path", path,
		"kind", kind,
		"pages", res.Pages,
		"chars", len(res.Text),
		"warnings", len(res.Warnings),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// DetectKind classifies a file by extension, sniffing its first bytes when
// the extension is missing or unknown.
func DetectKind(path string) (Kind, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "pdf" {
		return KindPDF, nil
	}
	if _, ok := imageExts[ext]; ok {
		return KindImage, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return KindUnknown, fmt.Errorf("read header: %w", err)
	}
	head = head[:n]
	for _, m := range tiffMagic {
		if bytes.HasPrefix(head, m) {
			return KindImage, nil
		}
	}
	ct := http.DetectContentType(head)
	switch {
	case ct == "application/pdf":
		return KindPDF, nil
	case strings.HasPrefix(ct, "image/"):
		return KindImage, nil
	}
	return KindUnknown, nil
}
