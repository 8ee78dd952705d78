package extract

import "context"

// scannedThreshold is the chars-per-page floor below which a PDF is
// treated as a scan with no usable text layer.
const scannedThreshold = 50

// Analysis is a cheap pre-pass over an uploaded document, used for logging
// and strategy expectations before the chain runs.
type Analysis struct {
	PageCount     int
	TextLayerLen  int
	LikelyScanned bool
}

// Analyze inspects the document without committing to a strategy. For
// non-PDF inputs it reports a single scanned page, since images always go
// through OCR.
func Analyze(data []byte, mimeType string) Analysis {
	if mimeType != MimePDF || !IsPDF(data) {
		return Analysis{PageCount: 1, LikelyScanned: true}
	}

	a := Analysis{PageCount: PageCount(data)}
	if a.PageCount <= 0 {
		a.PageCount = 1
		a.LikelyScanned = true
		return a
	}
	text, err := pdfTextStrategy{}.Extract(context.Background(), data, mimeType)
	if err != nil {
		a.LikelyScanned = true
		return a
	}
	a.TextLayerLen = len(text)
	a.LikelyScanned = a.TextLayerLen/a.PageCount < scannedThreshold
	return a
}
