package structify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/openrecords/docproc/internal/retry"
)

// maxPromptTextChars bounds the document text sent with the prompt so a
// large document cannot blow the request size limit.
const maxPromptTextChars = 3000

// Adapter produces a structured Record from raw extracted text. It never
// returns an error: AI failures degrade to the local extractor and parse
// failures degrade to a raw-response record.
type Adapter struct {
	gen         Generator
	logger      *slog.Logger
	RetryConfig retry.Config
}

// NewAdapter creates an adapter around the given generator. A nil generator
// enables mock mode: every Structure call takes the deterministic local
// fallback path.
func NewAdapter(gen Generator, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		gen:         gen,
		logger:      logger,
		RetryConfig: retry.AIServiceConfig,
	}
}

// Enabled reports whether a real AI backend is configured.
func (a *Adapter) Enabled() bool { return a.gen != nil }

// Structure sends a bounded prefix of rawText to the AI structuring service
// and parses the reply leniently. On any service failure it falls back to
// regex-based local extraction; on a parse failure it returns a degraded
// record carrying the raw response. The subject's date of birth and age
// always overwrite whatever the service extracted.
func (a *Adapter) Structure(ctx context.Context, rawText string, sub SubjectInfo) *Record {
	if a.gen == nil {
		a.logger.Debug("ai structuring disabled, using local extractor")
		return localExtract(rawText, sub)
	}

	prompt := buildPrompt(truncate(rawText, maxPromptTextChars), sub)

	response, err := retry.Do(ctx, a.RetryConfig, func(ctx context.Context) (string, error) {
		return a.gen.Generate(ctx, prompt)
	})
	if err != nil {
		a.logger.Warn("ai structuring call failed, using local extractor", "error", err)
		rec := localExtract(rawText, sub)
		rec.Note = fmt.Sprintf("%s: %v", localFallbackNote, err)
		return rec
	}

	rec, ok := parseResponse(response)
	if !ok {
		a.logger.Warn("ai response not parseable", "response_len", len(response))
		rec = &Record{
			Error:       "could not parse structured data from AI response",
			RawResponse: response,
		}
	}
	rec.pin(sub)
	return rec
}

// parseResponse digs a JSON object out of the response text and decodes it.
func parseResponse(response string) (*Record, bool) {
	obj, found := ExtractJSONObject(response)
	if !found {
		return nil, false
	}
	var rec Record
	if err := json.Unmarshal([]byte(obj), &rec); err != nil {
		return nil, false
	}
	// Parsed records never carry degrade markers from the model itself.
	rec.Error = ""
	rec.RawResponse = ""
	return &rec, true
}

func buildPrompt(text string, sub SubjectInfo) string {
	return fmt.Sprintf(`You are a document analyst. Extract structured information from the document text below and return ONLY JSON matching this exact schema:
{"personalInfo": {"fullName": "...", "dateOfBirth": "%s", "age": %d}, "contactInfo": {"emails": [], "phoneNumbers": []}, "addresses": [], "idNumbers": [], "keyDates": [], "summary": "..."}

Rules:
- dateOfBirth is already known to be %s; copy it verbatim and do not substitute dates found in the document.
- emails and phoneNumbers: every distinct value visible in the text.
- addresses: complete postal addresses, one string each.
- idNumbers: identification-like numbers (license, passport, SSN-shaped, account numbers).
- keyDates: significant dates mentioned in the document, ISO-8601 where possible.
- summary: 2-3 sentences describing what this document is.
- If a field has no values, use an empty array. Never output null.

Document text:
%s`, sub.DateOfBirth, sub.Age, sub.DateOfBirth, text)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
