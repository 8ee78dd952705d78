package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Tesseract runs the tesseract binary as the OCR engine.
type Tesseract struct {
	Binary string // binary name or absolute path; empty means "tesseract"
	runner Runner
}

// NewTesseract creates a tesseract-backed OCR engine.
func NewTesseract(binary string) *Tesseract {
	if binary == "" {
		binary = "tesseract"
	}
	return &Tesseract{Binary: binary, runner: execRunner{}}
}

// Recognize writes imageBytes to a scratch file and OCRs it. The scratch
// directory is removed on every exit path.
func (t *Tesseract) Recognize(ctx context.Context, imageBytes []byte, language string) (string, error) {
	if language == "" {
		language = "eng"
	}

	tmpDir, err := os.MkdirTemp("", "docproc-ocr-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	imgPath := filepath.Join(tmpDir, "page.png")
	if err := os.WriteFile(imgPath, imageBytes, 0o600); err != nil {
		return "", fmt.Errorf("write scratch image: %w", err)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := t.runner.Run(ctx, t.Binary, imgPath, "stdout", "-l", language)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (stderr: %s)", err, truncate(string(errb), 512))
	}
	return string(out), nil
}
