// Package quality scores extracted text samples to decide whether an
// extraction strategy produced real content or noise.
package quality

import (
	"strings"
	"unicode"
)

const (
	minTrimmedLength = 50
	minReadableRatio = 0.6
	minAvgTokenLen   = 2.5
)

// Result carries the acceptability verdict and the metrics behind it.
type Result struct {
	Acceptable    bool
	Length        int
	ReadableRatio float64
	AvgTokenLen   float64
	HasBinary     bool
}

// Assess scores a text sample. All criteria must hold for the sample to be
// acceptable: trimmed length above 50 chars, readable-character ratio above
// 0.6, mean token length above 2.5 (tokens are whitespace-split words longer
// than 2 chars), and no control or non-printable high bytes. Pure function.
func Assess(text string) Result {
	trimmed := strings.TrimSpace(text)
	r := Result{Length: len(trimmed)}
	if r.Length == 0 {
		return r
	}

	var readable, total int
	for _, c := range trimmed {
		total++
		if isBinary(c) {
			r.HasBinary = true
		}
		if isReadable(c) {
			readable++
		}
	}
	r.ReadableRatio = float64(readable) / float64(total)
	r.AvgTokenLen = avgTokenLength(trimmed)

	r.Acceptable = r.Length > minTrimmedLength &&
		r.ReadableRatio > minReadableRatio &&
		r.AvgTokenLen > minAvgTokenLen &&
		!r.HasBinary
	return r
}

// isBinary reports control characters (other than common whitespace) and
// the DEL/C1 range that signal a garbled binary extraction.
func isBinary(c rune) bool {
	if c == '\t' || c == '\n' || c == '\r' {
		return false
	}
	return c < 0x20 || (c >= 0x7F && c <= 0x9F)
}

func isReadable(c rune) bool {
	if unicode.IsLetter(c) || unicode.IsDigit(c) || unicode.IsSpace(c) {
		return true
	}
	return strings.ContainsRune(`.,;:!?'"()-/@#$%&*+=[]`, c)
}

// avgTokenLength averages the length of whitespace-split tokens longer than
// two characters. Garbled extractions tend to shatter into short fragments.
func avgTokenLength(s string) float64 {
	var sum, n int
	for _, tok := range strings.Fields(s) {
		if len(tok) > 2 {
			sum += len(tok)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}
