package extract

import (
	"context"
	"regexp"
	"strings"
)

// Patterns for fragments worth pulling out of an otherwise unreadable
// buffer. Loose on purpose: salvage runs only when everything else failed.
var (
	salvageNameRe   = regexp.MustCompile(`\b[A-Z][a-z]{1,20}(?: [A-Z][a-z]{1,20}){1,3}\b`)
	salvageDateRe   = regexp.MustCompile(`\b\d{4}[\-/]\d{1,2}[\-/]\d{1,2}\b|\b\d{1,2}[\-/.]\d{1,2}[\-/.]\d{2,4}\b`)
	salvageEmailRe  = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	salvagePhraseRe = regexp.MustCompile(`\b[a-zA-Z]{3,}(?: [a-zA-Z]{3,}){2,}\b`)
)

const maxSalvageMatches = 50

// salvageStrategy scans the raw byte buffer as text and keeps anything
// shaped like a name, date, email, or multi-word phrase. It is the last
// resort and is not subject to the quality gate.
type salvageStrategy struct{}

// NewSalvageStrategy returns the heuristic byte-salvage strategy.
func NewSalvageStrategy() Strategy { return salvageStrategy{} }

func (salvageStrategy) Name() string         { return "salvage" }
func (salvageStrategy) Gated() bool          { return false }
func (salvageStrategy) Supports(string) bool { return true }

func (salvageStrategy) Extract(_ context.Context, data []byte, _ string) (string, error) {
	raw := string(data)

	seen := make(map[string]struct{})
	var fragments []string
	keep := func(matches []string) {
		for _, m := range matches {
			m = strings.TrimSpace(m)
			if _, dup := seen[m]; dup || m == "" {
				continue
			}
			seen[m] = struct{}{}
			fragments = append(fragments, m)
		}
	}

	keep(salvageEmailRe.FindAllString(raw, maxSalvageMatches))
	keep(salvageDateRe.FindAllString(raw, maxSalvageMatches))
	keep(salvageNameRe.FindAllString(raw, maxSalvageMatches))
	keep(salvagePhraseRe.FindAllString(raw, maxSalvageMatches))

	return strings.Join(fragments, "\n"), nil
}
