package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

// maxTextBytes caps the embedded text layer read from a PDF.
const maxTextBytes = 100 * 1024

// pdfTextStrategy reads the embedded text layer of a PDF. It is the
// cheapest strategy and runs first; scanned PDFs produce little or garbled
// text here and the quality gate escalates to OCR.
type pdfTextStrategy struct{}

// NewPDFTextStrategy returns the direct-text extraction strategy.
func NewPDFTextStrategy() Strategy { return pdfTextStrategy{} }

func (pdfTextStrategy) Name() string                  { return "pdf-text" }
func (pdfTextStrategy) Gated() bool                   { return true }
func (pdfTextStrategy) Supports(mimeType string) bool { return mimeType == MimePDF }

func (pdfTextStrategy) Extract(_ context.Context, data []byte, _ string) (text string, err error) {
	// The pdf library panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("panic during PDF text extraction: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open PDF reader: %w", err)
	}

	plainText, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract plain text: %w", err)
	}
	raw, err := io.ReadAll(io.LimitReader(plainText, int64(maxTextBytes)))
	if err != nil {
		return "", fmt.Errorf("read plain text: %w", err)
	}

	return CleanPDFText(string(raw)), nil
}

var (
	controlRe       = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f-\x9f]`)
	spaceRunRe      = regexp.MustCompile(`[ \t]+`)
	blankRunRe      = regexp.MustCompile(`\n{3,}`)
	spacedCapsRe    = regexp.MustCompile(`\b(?:[A-Z] )+[A-Z]\b`)
	caseBoundaryRe  = regexp.MustCompile(`([a-z])([A-Z])`)
)

// CleanPDFText normalizes text pulled from a PDF text layer: strips control
// characters, collapses whitespace runs, rejoins spaced-capital artifacts
// ("A B C" -> "ABC"), and inserts sentence breaks at unpunctuated
// lower/upper case boundaries.
func CleanPDFText(s string) string {
	s = norm.NFC.String(s)
	s = controlRe.ReplaceAllString(s, "")
	s = spacedCapsRe.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ReplaceAll(m, " ", "")
	})
	s = caseBoundaryRe.ReplaceAllString(s, "$1. $2")
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// PageCount returns the PDF's page count, at least 1, swallowing library
// panics the same way extraction does.
func PageCount(data []byte) (n int) {
	n = 1
	defer func() { recover() }()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return n
	}
	if pages := reader.NumPage(); pages > 1 {
		n = pages
	}
	return n
}

// IsPDF sniffs the PDF magic bytes.
func IsPDF(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == "%PDF"
}
