package model

import (
	"testing"
	"time"
)

func TestAgeAt(t *testing.T) {
	tests := []struct {
		name string
		dob  string
		now  time.Time
		want int
	}{
		{"day before birthday", "2000-06-15", time.Date(2024, 6, 14, 23, 0, 0, 0, time.UTC), 23},
		{"on birthday", "2000-06-15", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), 24},
		{"day after birthday", "2000-06-15", time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC), 24},
		{"end of year", "1990-01-01", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), 34},
		{"future date of birth", "2030-01-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0},
		{"empty", "", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0},
		{"unparseable", "15/06/2000", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeAt(tt.dob, tt.now); got != tt.want {
				t.Errorf("AgeAt(%q, %v) = %d, want %d", tt.dob, tt.now, got, tt.want)
			}
		})
	}
}

func TestSubjectValidate(t *testing.T) {
	tests := []struct {
		name      string
		subject   Subject
		wantField string
	}{
		{"valid", Subject{FirstName: "Jane", LastName: "Doe", DateOfBirth: "1990-03-01"}, ""},
		{"valid without dob", Subject{FirstName: "Jane", LastName: "Doe"}, ""},
		{"missing first name", Subject{LastName: "Doe"}, "firstName"},
		{"whitespace first name", Subject{FirstName: "  ", LastName: "Doe"}, "firstName"},
		{"missing last name", Subject{FirstName: "Jane"}, "lastName"},
		{"bad dob format", Subject{FirstName: "Jane", LastName: "Doe", DateOfBirth: "01-03-1990"}, "dateOfBirth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.subject.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Validate() field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"standard", MethodStandard, false},
		{"ai", MethodAI, false},
		{"AI", MethodAI, false},
		{" ai ", MethodAI, false},
		{"", MethodStandard, false},
		{"turbo", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMethod(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMethod(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMethod(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSubjectFullName(t *testing.T) {
	if got := (Subject{FirstName: "Jane", LastName: "Doe"}).FullName(); got != "Jane Doe" {
		t.Errorf("FullName() = %q", got)
	}
	if got := (Subject{FirstName: "Cher"}).FullName(); got != "Cher" {
		t.Errorf("FullName() = %q", got)
	}
}

func TestTerminal(t *testing.T) {
	for status, want := range map[Status]bool{
		StatusProcessing: false,
		StatusCompleted:  true,
		StatusFailed:     true,
	} {
		j := Job{Status: status}
		if j.Terminal() != want {
			t.Errorf("Terminal() with status %q = %v, want %v", status, j.Terminal(), want)
		}
	}
}
