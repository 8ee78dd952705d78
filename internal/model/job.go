// Package model defines the job record and its lifecycle states.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/openrecords/docproc/internal/structify"
)

// Status is the lifecycle state of a processing job. Transitions are
// one-way: processing -> completed or processing -> failed.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Method selects the processing pipeline for a job.
type Method string

const (
	MethodStandard Method = "standard"
	MethodAI       Method = "ai"
)

// Subject is the person the uploaded document is about, supplied by the
// caller at submission and never modified afterwards.
type Subject struct {
	FirstName   string `json:"firstName" firestore:"firstName"`
	LastName    string `json:"lastName" firestore:"lastName"`
	DateOfBirth string `json:"dateOfBirth" firestore:"dateOfBirth"` // YYYY-MM-DD
}

// Job is one document's processing lifecycle instance.
type Job struct {
	ID       string  `json:"id" firestore:"id"`
	FileRef  string  `json:"fileRef" firestore:"fileRef"`
	FileName string  `json:"fileName" firestore:"fileName"`
	MimeType string  `json:"mimeType" firestore:"mimeType"`
	Subject  Subject `json:"subject" firestore:"subject"`
	Method   Method  `json:"processingMethod" firestore:"processingMethod"`
	Status   Status  `json:"status" firestore:"status"`

	// RawText is set when the job reaches a terminal state; it is never
	// empty on a completed job (a placeholder is written instead).
	RawText string `json:"rawText,omitempty" firestore:"rawText"`

	// Structured is present only for Method == MethodAI.
	Structured *structify.Record `json:"structuredData,omitempty" firestore:"structuredData"`

	FullName string `json:"fullName,omitempty" firestore:"fullName"`
	Age      int    `json:"age,omitempty" firestore:"age"`

	ErrorMessage string `json:"errorMessage,omitempty" firestore:"errorMessage"`

	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
	CompletedAt time.Time `json:"completedAt,omitempty" firestore:"completedAt"`
}

// Summary is the trimmed job view returned by list operations.
type Summary struct {
	ID        string    `json:"id"`
	FileName  string    `json:"fileName"`
	Method    Method    `json:"processingMethod"`
	Status    Status    `json:"status"`
	FullName  string    `json:"fullName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summarize converts a job into its list representation.
func (j *Job) Summarize() Summary {
	return Summary{
		ID:        j.ID,
		FileName:  j.FileName,
		Method:    j.Method,
		Status:    j.Status,
		FullName:  j.FullName,
		CreatedAt: j.CreatedAt,
	}
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// FullName joins the subject's names with a single space.
func (s Subject) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Validate checks the caller-supplied subject fields.
func (s Subject) Validate() error {
	if strings.TrimSpace(s.FirstName) == "" {
		return &ValidationError{Field: "firstName", Reason: "required"}
	}
	if strings.TrimSpace(s.LastName) == "" {
		return &ValidationError{Field: "lastName", Reason: "required"}
	}
	if s.DateOfBirth != "" {
		if _, err := time.Parse("2006-01-02", s.DateOfBirth); err != nil {
			return &ValidationError{Field: "dateOfBirth", Reason: "must be YYYY-MM-DD"}
		}
	}
	return nil
}

// ParseMethod validates a processing method string, defaulting to standard.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodAI:
		return MethodAI, nil
	case MethodStandard, "":
		return MethodStandard, nil
	default:
		return "", &ValidationError{Field: "processingMethod", Reason: fmt.Sprintf("unknown method %q", s)}
	}
}

// AgeAt computes full years between a YYYY-MM-DD birth date and now.
// The birthday itself counts: born 2000-06-15 is 24 on 2024-06-15.
// Returns 0 for an empty or unparseable date.
func AgeAt(dateOfBirth string, now time.Time) int {
	dob, err := time.Parse("2006-01-02", dateOfBirth)
	if err != nil {
		return 0
	}
	age := now.Year() - dob.Year()
	anniversary := time.Date(now.Year(), dob.Month(), dob.Day(), 0, 0, 0, 0, time.UTC)
	if time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Before(anniversary) {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age
}
