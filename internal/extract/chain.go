// Package extract implements the multi-strategy text extraction chain:
// direct PDF text, OCR rasterization, and heuristic byte salvage, escalated
// by a quality gate.
package extract

import (
	"context"
	"log/slog"
	"strings"

	"github.com/openrecords/docproc/internal/quality"
)

// FallbackText is returned when every strategy comes up empty. Downstream
// components rely on raw text never being empty at a terminal state.
const FallbackText = "document text could not be extracted"

// MIME types the chain accepts.
const (
	MimePDF  = "application/pdf"
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeTIFF = "image/tiff"
)

// Supported reports whether the pipeline can process the MIME type at all.
func Supported(mimeType string) bool {
	switch mimeType {
	case MimePDF, MimePNG, MimeJPEG, MimeTIFF:
		return true
	}
	return false
}

// Strategy is one extraction technique. Gated strategies are subject to the
// quality gate; an ungated strategy's non-empty output is accepted as-is
// (last-resort salvage).
type Strategy interface {
	Name() string
	Supports(mimeType string) bool
	Gated() bool
	Extract(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Result is the outcome of running the chain.
type Result struct {
	Text     string
	Method   string // name of the strategy that produced Text, or "none"
	Degraded bool   // true when the text came from salvage or the placeholder
}

// Chain tries strategies in order until one yields acceptable text.
type Chain struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewChain builds a chain over the given strategies, tried in order.
func NewChain(logger *slog.Logger, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{strategies: strategies, logger: logger}
}

// DefaultChain wires the standard ordering: direct PDF text, then OCR,
// then byte salvage.
func DefaultChain(logger *slog.Logger, rasterizer Rasterizer, engine Engine, cfg OCRConfig) *Chain {
	return NewChain(logger,
		NewPDFTextStrategy(),
		NewOCRStrategy(rasterizer, engine, cfg, logger),
		NewSalvageStrategy(),
	)
}

// Extract runs the chain. It never fails for "no text found": when all
// strategies strike out it returns the placeholder. Only a cancelled
// context cuts the chain short, and even then the placeholder is returned.
func (c *Chain) Extract(ctx context.Context, data []byte, mimeType string) Result {
	for _, s := range c.strategies {
		if !s.Supports(mimeType) {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		text, err := s.Extract(ctx, data, mimeType)
		if err != nil {
			c.logger.Warn("extraction strategy failed", "strategy", s.Name(), "error", err)
			continue
		}

		if s.Gated() {
			q := quality.Assess(text)
			if q.Acceptable {
				c.logger.Info("extraction strategy accepted",
					"strategy", s.Name(), "chars", q.Length, "readable_ratio", q.ReadableRatio)
				return Result{Text: text, Method: s.Name()}
			}
			c.logger.Info("extraction strategy below quality gate, escalating",
				"strategy", s.Name(), "chars", q.Length,
				"readable_ratio", q.ReadableRatio, "avg_token_len", q.AvgTokenLen)
			continue
		}

		if strings.TrimSpace(text) != "" {
			c.logger.Info("ungated strategy produced text", "strategy", s.Name(), "chars", len(text))
			return Result{Text: text, Method: s.Name(), Degraded: true}
		}
	}

	c.logger.Warn("all extraction strategies exhausted", "mime_type", mimeType)
	return Result{Text: FallbackText, Method: "none", Degraded: true}
}
