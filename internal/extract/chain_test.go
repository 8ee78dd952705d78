package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodProse = "This is a perfectly ordinary paragraph of document text with plenty of readable words inside it."

// stubStrategy lets tests script one link in the chain.
type stubStrategy struct {
	name  string
	gated bool
	mimes []string
	text  string
	err   error
	calls int
}

func (s *stubStrategy) Name() string { return s.name }
func (s *stubStrategy) Gated() bool  { return s.gated }

func (s *stubStrategy) Supports(mimeType string) bool {
	if len(s.mimes) == 0 {
		return true
	}
	for _, m := range s.mimes {
		if m == mimeType {
			return true
		}
	}
	return false
}

func (s *stubStrategy) Extract(_ context.Context, _ []byte, _ string) (string, error) {
	s.calls++
	return s.text, s.err
}

// fakeEngine counts Recognize calls and replays scripted page texts.
type fakeEngine struct {
	calls    int
	pages    []string
	pageErrs map[int]error
}

func (f *fakeEngine) Recognize(_ context.Context, _ []byte, _ string) (string, error) {
	idx := f.calls
	f.calls++
	if err, ok := f.pageErrs[idx]; ok {
		return "", err
	}
	if idx < len(f.pages) {
		return f.pages[idx], nil
	}
	return "", errors.New("no scripted page")
}

type fakeRasterizer struct {
	pages int
	err   error
	calls int
}

func (f *fakeRasterizer) Render(_ context.Context, _ []byte, maxPages, _ int) ([][]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	n := f.pages
	if n > maxPages {
		n = maxPages
	}
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte{0x89, 'P', 'N', 'G'}
	}
	return out, nil
}

func TestChain_AcceptableDirectTextSkipsOCR(t *testing.T) {
	direct := &stubStrategy{name: "pdf-text", gated: true, mimes: []string{MimePDF},
		text: strings.Repeat("Hello World ", 10)}
	engine := &fakeEngine{pages: []string{"ocr text"}}
	ocr := NewOCRStrategy(&fakeRasterizer{pages: 1}, engine, OCRConfig{}, nil)

	chain := NewChain(nil, direct, ocr, NewSalvageStrategy())
	res := chain.Extract(context.Background(), []byte("%PDF-fake"), MimePDF)

	assert.Equal(t, "pdf-text", res.Method)
	assert.Contains(t, res.Text, "Hello World")
	assert.False(t, res.Degraded)
	assert.Equal(t, 0, engine.calls, "OCR engine must not be invoked when direct text passes the gate")
}

func TestChain_ScannedPDFEscalatesToOCR(t *testing.T) {
	// No text layer: direct extraction yields nothing usable.
	direct := &stubStrategy{name: "pdf-text", gated: true, mimes: []string{MimePDF}, text: ""}
	engine := &fakeEngine{pages: []string{
		"First page of the scanned report with readable words throughout.",
		"Second page continues the narrative with more readable content.",
	}}
	raster := &fakeRasterizer{pages: 2}
	ocr := NewOCRStrategy(raster, engine, OCRConfig{}, nil)

	chain := NewChain(nil, direct, ocr, NewSalvageStrategy())
	res := chain.Extract(context.Background(), []byte("%PDF-fake"), MimePDF)

	assert.Equal(t, "ocr", res.Method)
	assert.Equal(t, 1, raster.calls)
	assert.Equal(t, 2, engine.calls)
	assert.Contains(t, res.Text, "First page of the scanned report")
	assert.Contains(t, res.Text, "Second page continues")
	// Pages are joined with a blank-line separator, in page order.
	first := strings.Index(res.Text, "First page")
	second := strings.Index(res.Text, "Second page")
	require.Less(t, first, second)
	assert.Contains(t, res.Text, "\n\n")
}

func TestChain_PageFailureRecordedInline(t *testing.T) {
	engine := &fakeEngine{
		pages:    []string{"Readable opening page with plenty of ordinary sentence material here.", "", "Readable closing page with plenty of ordinary sentence material here."},
		pageErrs: map[int]error{1: errors.New("engine crashed")},
	}
	ocr := NewOCRStrategy(&fakeRasterizer{pages: 3}, engine, OCRConfig{}, nil)

	text, err := ocr.Extract(context.Background(), []byte("%PDF"), MimePDF)
	require.NoError(t, err)
	assert.Equal(t, 3, engine.calls, "remaining pages still processed after one fails")
	assert.Contains(t, text, "[OCR failed for page 2]")
	assert.Contains(t, text, "Readable closing page")
}

func TestChain_PageCapLimitsRasterization(t *testing.T) {
	engine := &fakeEngine{pages: make([]string, 10)}
	for i := range engine.pages {
		engine.pages[i] = "Page text with enough readable words to be counted properly here."
	}
	raster := &fakeRasterizer{pages: 50}
	ocr := NewOCRStrategy(raster, engine, OCRConfig{MaxPages: 3}, nil)

	_, err := ocr.Extract(context.Background(), []byte("%PDF"), MimePDF)
	require.NoError(t, err)
	assert.Equal(t, 3, engine.calls)
}

func TestChain_FallsBackToSalvage(t *testing.T) {
	direct := &stubStrategy{name: "pdf-text", gated: true, mimes: []string{MimePDF}, text: ""}
	// OCR unavailable: nil engine disables the strategy entirely.
	ocr := NewOCRStrategy(nil, nil, OCRConfig{}, nil)

	chain := NewChain(nil, direct, ocr, NewSalvageStrategy())
	data := []byte("\x00\x01garbage John Smith wrote this on 2023-04-01 contact john@corp.example\x02")
	res := chain.Extract(context.Background(), data, MimePDF)

	assert.Equal(t, "salvage", res.Method)
	assert.True(t, res.Degraded)
	assert.Contains(t, res.Text, "john@corp.example")
	assert.Contains(t, res.Text, "2023-04-01")
	assert.Contains(t, res.Text, "John Smith")
}

func TestChain_PlaceholderWhenEverythingFails(t *testing.T) {
	direct := &stubStrategy{name: "pdf-text", gated: true, mimes: []string{MimePDF}, err: errors.New("broken")}
	chain := NewChain(nil, direct, NewSalvageStrategy())

	res := chain.Extract(context.Background(), []byte{0x00, 0x01, 0x02}, MimePDF)
	assert.Equal(t, FallbackText, res.Text)
	assert.Equal(t, "none", res.Method)
	assert.True(t, res.Degraded)
}

func TestChain_ImageGoesStraightToOCR(t *testing.T) {
	engine := &fakeEngine{pages: []string{goodProse}}
	ocr := NewOCRStrategy(&fakeRasterizer{}, engine, OCRConfig{}, nil)

	chain := NewChain(nil, NewPDFTextStrategy(), ocr, NewSalvageStrategy())
	res := chain.Extract(context.Background(), []byte{0x89, 'P', 'N', 'G'}, MimePNG)

	assert.Equal(t, "ocr", res.Method)
	assert.Equal(t, goodProse, res.Text)
	assert.Equal(t, 1, engine.calls)
}

func TestCleanPDFText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "spaced capitals rejoined",
			in:   "I N V O I C E for services",
			want: "INVOICE for services",
		},
		{
			name: "sentence break inserted at case boundary",
			in:   "end of sentenceNext sentence begins",
			want: "end of sentence. Next sentence begins",
		},
		{
			name: "control characters stripped and whitespace collapsed",
			in:   "hello\x00\x01   world\t\tagain",
			want: "hello world again",
		},
		{
			name: "blank line runs squashed",
			in:   "para one\n\n\n\n\npara two",
			want: "para one\n\npara two",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanPDFText(tc.in))
		})
	}
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(MimePDF))
	assert.True(t, Supported(MimeJPEG))
	assert.False(t, Supported("application/zip"))
	assert.False(t, Supported(""))
}
