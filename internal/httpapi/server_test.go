package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrecords/docproc/internal/blob"
	"github.com/openrecords/docproc/internal/extract"
	"github.com/openrecords/docproc/internal/job"
	"github.com/openrecords/docproc/internal/model"
	"github.com/openrecords/docproc/internal/store"
	"github.com/openrecords/docproc/internal/structify"
)

const samplePDFText = "Certificate of attendance issued to Jane Doe confirming participation " +
	"in the records management seminar held during the spring term."

type fixedStrategy struct{ text string }

func (fixedStrategy) Name() string         { return "fixed" }
func (fixedStrategy) Supports(string) bool { return true }
func (fixedStrategy) Gated() bool          { return true }
func (s fixedStrategy) Extract(context.Context, []byte, string) (string, error) {
	return s.text, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	manager := job.NewManager(
		store.NewMemoryStore(),
		blob.LocalFS{Root: t.TempDir()},
		extract.NewChain(logger, fixedStrategy{text: samplePDFText}),
		structify.NewAdapter(nil, logger),
		logger,
		job.Options{Workers: 1, QueueSize: 4},
	)
	t.Cleanup(manager.Close)

	ts := httptest.NewServer(Server{Jobs: manager, Logger: logger}.Router())
	t.Cleanup(ts.Close)
	return ts
}

type uploadOpts struct {
	fileName    string
	contentType string
	fields      map[string]string
	omitFile    bool
}

func postDocument(t *testing.T, ts *httptest.Server, opts uploadOpts) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if !opts.omitFile {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename="%s"`, opts.fileName)}
		h["Content-Type"] = []string{opts.contentType}
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 body"))
		require.NoError(t, err)
	}
	for k, v := range opts.fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/v1/documents", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	return resp
}

func defaultFields() map[string]string {
	return map[string]string{
		"firstName":   "Jane",
		"lastName":    "Doe",
		"dateOfBirth": "2000-06-15",
	}
}

func decodeJob(t *testing.T, r io.Reader) model.Job {
	t.Helper()
	var j model.Job
	require.NoError(t, json.NewDecoder(r).Decode(&j))
	return j
}

func TestSubmitAndPoll(t *testing.T) {
	ts := newTestServer(t)

	resp := postDocument(t, ts, uploadOpts{
		fileName:    "cert.pdf",
		contentType: "application/pdf",
		fields:      defaultFields(),
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	created := decodeJob(t, resp.Body)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.StatusProcessing, created.Status)
	assert.Equal(t, model.MethodStandard, created.Method)

	var polled model.Job
	require.Eventually(t, func() bool {
		r, err := http.Get(ts.URL + "/v1/jobs/" + created.ID)
		if err != nil {
			return false
		}
		defer r.Body.Close()
		if r.StatusCode != http.StatusOK {
			return false
		}
		if err := json.NewDecoder(r.Body).Decode(&polled); err != nil {
			return false
		}
		return polled.Terminal()
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, model.StatusCompleted, polled.Status)
	assert.Equal(t, samplePDFText, polled.RawText)
	assert.Equal(t, "Jane Doe", polled.FullName)
}

func TestSubmitAIJobReturnsStructuredData(t *testing.T) {
	ts := newTestServer(t)

	fields := defaultFields()
	fields["processingMethod"] = "ai"
	resp := postDocument(t, ts, uploadOpts{
		fileName:    "cert.pdf",
		contentType: "application/pdf",
		fields:      fields,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	created := decodeJob(t, resp.Body)

	var polled model.Job
	require.Eventually(t, func() bool {
		r, err := http.Get(ts.URL + "/v1/jobs/" + created.ID)
		if err != nil {
			return false
		}
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&polled); err != nil {
			return false
		}
		return polled.Terminal()
	}, 2*time.Second, 10*time.Millisecond)

	require.NotNil(t, polled.Structured)
	assert.Equal(t, "Jane Doe", polled.Structured.PersonalInfo.FullName)
}

func TestSubmitValidation(t *testing.T) {
	ts := newTestServer(t)

	// Missing file part.
	resp := postDocument(t, ts, uploadOpts{omitFile: true, fields: defaultFields()})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unsupported type.
	resp = postDocument(t, ts, uploadOpts{
		fileName:    "archive.zip",
		contentType: "application/zip",
		fields:      defaultFields(),
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	// Missing subject name.
	fields := defaultFields()
	delete(fields, "firstName")
	resp = postDocument(t, ts, uploadOpts{
		fileName:    "cert.pdf",
		contentType: "application/pdf",
		fields:      fields,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errBody map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
	assert.Contains(t, errBody["error"], "firstName")

	// Unknown processing method.
	fields = defaultFields()
	fields["processingMethod"] = "turbo"
	resp = postDocument(t, ts, uploadOpts{
		fileName:    "cert.pdf",
		contentType: "application/pdf",
		fields:      fields,
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetUnknownJob(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/jobs/does-not-exist")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListJobs(t *testing.T) {
	ts := newTestServer(t)

	resp := postDocument(t, ts, uploadOpts{
		fileName:    "cert.pdf",
		contentType: "application/pdf",
		fields:      defaultFields(),
	})
	created := decodeJob(t, resp.Body)
	resp.Body.Close()

	r, err := http.Get(ts.URL + "/v1/jobs")
	require.NoError(t, err)
	defer r.Body.Close()
	require.Equal(t, http.StatusOK, r.StatusCode)

	var listing struct {
		Jobs []model.Summary `json:"jobs"`
	}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&listing))
	require.Len(t, listing.Jobs, 1)
	assert.Equal(t, created.ID, listing.Jobs[0].ID)
	assert.Equal(t, "cert.pdf", listing.Jobs[0].FileName)
}

func TestDeleteJob(t *testing.T) {
	ts := newTestServer(t)

	resp := postDocument(t, ts, uploadOpts{
		fileName:    "cert.pdf",
		contentType: "application/pdf",
		fields:      defaultFields(),
	})
	created := decodeJob(t, resp.Body)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/v1/jobs/"+created.ID, nil)
	require.NoError(t, err)
	r, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusNoContent, r.StatusCode)

	r, err = http.DefaultClient.Do(req.Clone(context.Background()))
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusNotFound, r.StatusCode)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDetectMimeType(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		fileName    string
		want        string
	}{
		{"declared pdf", "application/pdf", "doc.bin", "application/pdf"},
		{"jpg alias normalized", "image/jpg", "photo.jpg", extract.MimeJPEG},
		{"extension fallback", "", "scan.png", extract.MimePNG},
		{"octet-stream falls back to extension", "application/octet-stream", "doc.pdf", "application/pdf"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := &multipart.FileHeader{Filename: tc.fileName}
			h.Header = make(map[string][]string)
			if tc.contentType != "" {
				h.Header.Set("Content-Type", tc.contentType)
			}
			assert.Equal(t, tc.want, detectMimeType(h))
		})
	}
}
