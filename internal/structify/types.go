// Package structify turns raw extracted text into a structured record,
// either through an AI structuring service or a deterministic local
// fallback.
package structify

// SubjectInfo carries the caller-supplied identity fields. DateOfBirth and
// Age always win over anything the AI service claims to have found in the
// document.
type SubjectInfo struct {
	FullName    string
	DateOfBirth string // YYYY-MM-DD
	Age         int
}

// PersonalInfo is the identity portion of a structured record.
type PersonalInfo struct {
	FullName    string `json:"fullName" firestore:"fullName"`
	DateOfBirth string `json:"dateOfBirth" firestore:"dateOfBirth"`
	Age         int    `json:"age" firestore:"age"`
}

// ContactInfo holds contact details found in the document.
type ContactInfo struct {
	Emails       []string `json:"emails,omitempty" firestore:"emails"`
	PhoneNumbers []string `json:"phoneNumbers,omitempty" firestore:"phoneNumbers"`
}

// Record is the structured output schema. Note, Error and RawResponse are
// degrade markers: a caller can always tell a genuine AI answer from a
// fallback or a parse failure.
type Record struct {
	PersonalInfo PersonalInfo `json:"personalInfo" firestore:"personalInfo"`
	ContactInfo  ContactInfo  `json:"contactInfo" firestore:"contactInfo"`
	Addresses    []string     `json:"addresses,omitempty" firestore:"addresses"`
	IDNumbers    []string     `json:"idNumbers,omitempty" firestore:"idNumbers"`
	KeyDates     []string     `json:"keyDates,omitempty" firestore:"keyDates"`
	Summary      string       `json:"summary,omitempty" firestore:"summary"`

	Note        string `json:"note,omitempty" firestore:"note"`
	Error       string `json:"error,omitempty" firestore:"error"`
	RawResponse string `json:"rawResponse,omitempty" firestore:"rawResponse"`
}

// pin overwrites the identity fields with the caller-supplied values. The
// service's extracted date of birth, if any, is never trusted.
func (r *Record) pin(sub SubjectInfo) {
	r.PersonalInfo.FullName = sub.FullName
	r.PersonalInfo.DateOfBirth = sub.DateOfBirth
	r.PersonalInfo.Age = sub.Age
}
