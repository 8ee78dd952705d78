package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Engine is the black-box OCR collaborator: image bytes in, text out.
type Engine interface {
	Recognize(ctx context.Context, imageBytes []byte, language string) (string, error)
}

// Rasterizer renders PDF pages to images for OCR.
type Rasterizer interface {
	Render(ctx context.Context, pdfBytes []byte, maxPages, dpi int) ([][]byte, error)
}

// OCRConfig bounds the OCR path.
type OCRConfig struct {
	Language string // OCR language, default "eng"
	MaxPages int    // page cap for rasterization, default 10
	DPI      int    // rasterization DPI, default 200
}

func (c *OCRConfig) sanitize() {
	if c.Language == "" {
		c.Language = "eng"
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 10
	}
	if c.DPI <= 0 {
		c.DPI = 200
	}
}

// ocrStrategy rasterizes PDFs page by page (or takes image bytes directly)
// and feeds them through the OCR engine. A single page's failure is recorded
// inline and the remaining pages still contribute.
type ocrStrategy struct {
	rasterizer Rasterizer
	engine     Engine
	cfg        OCRConfig
	logger     *slog.Logger
}

// NewOCRStrategy builds the OCR extraction strategy. A nil engine disables
// the strategy (Supports always false), which pushes the chain to salvage.
func NewOCRStrategy(rasterizer Rasterizer, engine Engine, cfg OCRConfig, logger *slog.Logger) Strategy {
	cfg.sanitize()
	if logger == nil {
		logger = slog.Default()
	}
	return &ocrStrategy{rasterizer: rasterizer, engine: engine, cfg: cfg, logger: logger}
}

func (s *ocrStrategy) Name() string { return "ocr" }
func (s *ocrStrategy) Gated() bool  { return true }

func (s *ocrStrategy) Supports(mimeType string) bool {
	if s.engine == nil {
		return false
	}
	if mimeType == MimePDF {
		return s.rasterizer != nil
	}
	return Supported(mimeType)
}

func (s *ocrStrategy) Extract(ctx context.Context, data []byte, mimeType string) (string, error) {
	if mimeType != MimePDF {
		text, err := s.engine.Recognize(ctx, data, s.cfg.Language)
		if err != nil {
			return "", fmt.Errorf("image ocr: %w", err)
		}
		return text, nil
	}

	pages, err := s.rasterizer.Render(ctx, data, s.cfg.MaxPages, s.cfg.DPI)
	if err != nil {
		return "", fmt.Errorf("rasterize pdf: %w", err)
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("rasterizer produced no pages")
	}

	var b strings.Builder
	for i, page := range pages {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		text, err := s.engine.Recognize(ctx, page, s.cfg.Language)
		if err != nil {
			// One bad page must not sink the document.
			s.logger.Warn("page ocr failed", "page", i+1, "error", err)
			text = fmt.Sprintf("[OCR failed for page %d]", i+1)
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.TrimSpace(text))
	}
	return b.String(), nil
}
