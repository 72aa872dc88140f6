package ocr

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pavelanni/docent/internal/logtext"
	"github.com/pavelanni/docent/internal/model"
)

func (e *Extractor) extractImage(ctx context.Context, path string) (Result, error) {
	workDir, err := os.MkdirTemp(e.cfg.TempDir, "docent-img-*")
	if err != nil {
		return Result{}, &model.ExtractionError{Path: path, Stage: "open", Err: err}
	}
	defer e.removeAll(workDir)

	txt, err := e.recognize(ctx, path, workDir)
	if err != nil {
		return Result{}, &model.ExtractionError{Path: path, Stage: "recognize", Err: err}
	}
	return Result{Text: txt, Pages: 1}, nil
}

// recognize converts src to grayscale inside workDir and runs one tesseract
// pass over it. The grayscale copy is removed before returning.
func (e *Extractor) recognize(ctx context.Context, src, workDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	gray := filepath.Join(workDir, base+"-gray.png")
	if err := writeGrayscale(src, gray); err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(gray); err != nil && !os.IsNotExist(err) {
			e.logger.Warn("failed to remove grayscale image", "path", gray, "error", err)
		}
	}()

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, gray, "stdout", "-l", e.cfg.Lang)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, logtext.Truncate(strings.TrimSpace(string(errb)), logtext.ErrorLimit))
	}
	return Normalize(string(out)), nil
}

// writeGrayscale decodes src (PNG, JPEG, GIF, TIFF, BMP or WebP) and writes an 8-bit
// grayscale PNG to dst.
func writeGrayscale(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create grayscale image: %w", err)
	}
	if err := png.Encode(out, gray); err != nil {
		out.Close()
		return fmt.Errorf("encode grayscale image: %w", err)
	}
	return out.Close()
}

func (e *Extractor) removeAll(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		e.logger.Warn("failed to remove temp dir", "path", dir, "error", err)
	}
}
