package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Pdftoppm rasterizes PDF pages to PNG images via the pdftoppm binary.
type Pdftoppm struct {
	Binary string // binary name or absolute path; empty means "pdftoppm"
	runner Runner
}

// NewPdftoppm creates a pdftoppm-backed rasterizer.
func NewPdftoppm(binary string) *Pdftoppm {
	if binary == "" {
		binary = "pdftoppm"
	}
	return &Pdftoppm{Binary: binary, runner: execRunner{}}
}

// Render writes the PDF to a scratch directory, renders up to maxPages
// pages at the given DPI, and returns the page images in page order. The
// scratch directory is removed on every exit path, success or failure.
func (p *Pdftoppm) Render(ctx context.Context, pdfBytes []byte, maxPages, dpi int) ([][]byte, error) {
	if dpi <= 0 {
		dpi = 200
	}

	tmpDir, err := os.MkdirTemp("", "docproc-raster-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(pdfPath, pdfBytes, 0o600); err != nil {
		return nil, fmt.Errorf("write scratch pdf: %w", err)
	}

	// pdftoppm -r <dpi> -png [-f 1 -l <maxPages>] <in.pdf> <tmp/page>
	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", fmt.Sprintf("%d", dpi), "-png"}
	if maxPages > 0 {
		args = append(args, "-f", "1", "-l", fmt.Sprintf("%d", maxPages))
	}
	args = append(args, pdfPath, prefix)

	if _, errb, err := p.runner.Run(ctx, p.Binary, args...); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w (stderr: %s)", err, truncate(string(errb), 512))
	}

	// pdftoppm names output page-1.png, page-2.png, ... (zero-padded for
	// larger documents, so a lexical sort preserves page order).
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if maxPages > 0 && len(matches) > maxPages {
		matches = matches[:maxPages]
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no images")
	}

	pages := make([][]byte, 0, len(matches))
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			return nil, fmt.Errorf("read rendered page %s: %w", filepath.Base(m), err)
		}
		pages = append(pages, data)
	}
	return pages, nil
}
