//go:build ignore
// +build ignore

// Seeds a running server with a few demo document jobs over the public
// API, then polls them to a terminal state.
//
//	go run scripts/seed-documents.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"time"
)

type seedDoc struct {
	fileName    string
	contentType string
	body        string
	firstName   string
	lastName    string
	dateOfBirth string
	method      string
}

var seedDocs = []seedDoc{
	{
		fileName:    "enrollment-letter.txt.pdf",
		contentType: "application/pdf",
		body: "Enrollment confirmation for Alice Example, student number 100234. " +
			"Classes begin on 2026-09-07 and conclude on 2026-12-18. " +
			"Contact admissions@example.edu or (555) 010-7788 with questions.",
		firstName:   "Alice",
		lastName:    "Example",
		dateOfBirth: "1999-02-11",
		method:      "standard",
	},
	{
		fileName:    "benefits-statement.pdf",
		contentType: "application/pdf",
		body: "Annual benefits statement prepared for Bob Sample. " +
			"Coverage period 2026-01-01 through 2026-12-31. " +
			"Mailing address: 742 Evergreen Terrace, Springfield. " +
			"Member services: members@example.org, phone (555) 010-2244.",
		firstName:   "Bob",
		lastName:    "Sample",
		dateOfBirth: "1985-11-30",
		method:      "ai",
	},
}

func main() {
	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	log.Printf("seeding %d documents against %s", len(seedDocs), apiURL)

	ids := make([]string, 0, len(seedDocs))
	for _, doc := range seedDocs {
		id, err := submit(apiURL, doc)
		if err != nil {
			log.Fatalf("submit %s: %v", doc.fileName, err)
		}
		log.Printf("submitted %s as job %s (%s)", doc.fileName, id, doc.method)
		ids = append(ids, id)
	}

	for _, id := range ids {
		status, err := waitTerminal(apiURL, id, 30*time.Second)
		if err != nil {
			log.Fatalf("poll %s: %v", id, err)
		}
		log.Printf("job %s finished with status %s", id, status)
	}
}

func submit(apiURL string, doc seedDoc) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, doc.fileName))
	h.Set("Content-Type", doc.contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := part.Write([]byte(doc.body)); err != nil {
		return "", err
	}

	fields := map[string]string{
		"firstName":        doc.firstName,
		"lastName":         doc.lastName,
		"dateOfBirth":      doc.dateOfBirth,
		"processingMethod": doc.method,
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	resp, err := http.Post(apiURL+"/v1/documents", mw.FormDataContentType(), &buf)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func waitTerminal(apiURL, id string, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(apiURL + "/v1/jobs/" + id)
		if err != nil {
			return "", err
		}
		var job struct {
			Status string `json:"status"`
		}
		err = json.NewDecoder(resp.Body).Decode(&job)
		resp.Body.Close()
		if err != nil {
			return "", err
		}
		if job.Status == "completed" || job.Status == "failed" {
			return job.Status, nil
		}
		time.Sleep(250 * time.Millisecond)
	}
	return "", fmt.Errorf("job %s still processing after %s", id, timeout)
}
