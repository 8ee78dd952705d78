package structify

import (
	"regexp"
	"strings"
)

const (
	maxLocalDates     = 5
	maxLocalAddresses = 3
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`(?:\+?\d{1,3}[ .\-]?)?(?:\(\d{2,4}\)[ .\-]?)?\d{2,4}[ .\-]\d{2,4}[ .\-]?\d{0,4}`)
	idRe    = regexp.MustCompile(`\b[A-Z]{1,3}[\- ]?\d{5,12}\b|\b\d{3}[\- ]\d{2}[\- ]\d{4}\b`)
	dateRe  = regexp.MustCompile(`\b\d{4}[\-/]\d{1,2}[\-/]\d{1,2}\b|\b\d{1,2}[\-/.]\d{1,2}[\-/.]\d{2,4}\b|\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4}\b`)
	addrRe  = regexp.MustCompile(`(?i)\b\d{1,5}\s+[A-Za-z][A-Za-z ]{2,40}\b(?:Street|St\.?|Avenue|Ave\.?|Road|Rd\.?|Drive|Dr\.?|Lane|Ln\.?|Boulevard|Blvd\.?|Way|Court|Ct\.?|Place|Pl\.?)\b`)
)

// localFallbackNote marks records produced without the AI service.
const localFallbackNote = "heuristic extraction (AI unavailable)"

// localExtract builds a structured record from regex-detected fragments.
// It backs the pipeline whenever the AI structuring service is unreachable
// or unconfigured, so an ai-method job always yields a record.
func localExtract(rawText string, sub SubjectInfo) *Record {
	rec := &Record{Note: localFallbackNote}
	rec.pin(sub)

	if m := emailRe.FindString(rawText); m != "" {
		rec.ContactInfo.Emails = []string{m}
	}
	if m := findPhone(rawText); m != "" {
		rec.ContactInfo.PhoneNumbers = []string{m}
	}
	if m := idRe.FindString(rawText); m != "" {
		rec.IDNumbers = []string{m}
	}

	rec.KeyDates = dedupe(dateRe.FindAllString(rawText, maxLocalDates))
	rec.Addresses = dedupe(addrRe.FindAllString(rawText, maxLocalAddresses))

	rec.Summary = summarize(rawText)
	return rec
}

// findPhone requires a minimum digit count so the loose separator pattern
// does not latch onto dates or amounts.
func findPhone(s string) string {
	for _, cand := range phoneRe.FindAllString(s, 10) {
		digits := 0
		for _, c := range cand {
			if c >= '0' && c <= '9' {
				digits++
			}
		}
		if digits >= 7 && !dateRe.MatchString(cand) {
			return strings.TrimSpace(cand)
		}
	}
	return ""
}

func summarize(rawText string) string {
	text := strings.Join(strings.Fields(rawText), " ")
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	if text == "" {
		return "no readable document text"
	}
	return "Document excerpt: " + text
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
