// Package httpapi exposes the document pipeline over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/openrecords/docproc/internal/extract"
	"github.com/openrecords/docproc/internal/job"
	"github.com/openrecords/docproc/internal/model"
)

const maxMultipartMemory = 32 << 20

// Server routes HTTP requests to the job manager.
type Server struct {
	Jobs   *job.Manager
	Logger *slog.Logger
}

// Router builds the chi handler tree.
func (s Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/documents", s.handleSubmit)
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Delete("/jobs/{id}", s.handleDeleteJob)
	})

	return r
}

// handleSubmit accepts a multipart upload and returns the new job in the
// processing state. Processing itself happens on the worker pool; callers
// poll GET /v1/jobs/{id} for the outcome.
func (s Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		s.writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart form: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, fmt.Errorf("missing 'file' part: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}

	method, err := model.ParseMethod(r.FormValue("processingMethod"))
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}

	sub := job.Submission{
		FileName: header.Filename,
		MimeType: detectMimeType(header),
		Data:     data,
		Subject: model.Subject{
			FirstName:   r.FormValue("firstName"),
			LastName:    r.FormValue("lastName"),
			DateOfBirth: r.FormValue("dateOfBirth"),
		},
		Method: method,
	}

	created, err := s.Jobs.Submit(r.Context(), sub)
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, created)
}

func (s Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	found, err := s.Jobs.GetResult(r.Context(), id)
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (s Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.Jobs.ListJobs(r.Context())
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": summaries})
}

func (s Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, err := s.Jobs.DeleteJob(r.Context(), id)
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	if !deleted {
		s.writeErr(w, http.StatusNotFound, fmt.Errorf("job %s not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// detectMimeType prefers the part's declared content type, falling back to
// the file extension.
func detectMimeType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		if parsed, _, err := mime.ParseMediaType(ct); err == nil {
			return normalizeMime(parsed)
		}
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		if parsed, _, err := mime.ParseMediaType(byExt); err == nil {
			return normalizeMime(parsed)
		}
	}
	return "application/octet-stream"
}

func normalizeMime(mt string) string {
	if mt == "image/jpg" {
		return extract.MimeJPEG
	}
	return mt
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s Server) writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"error": err.Error()})
}

// writeDomainErr maps pipeline errors onto HTTP status codes.
func (s Server) writeDomainErr(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		s.writeErr(w, http.StatusBadRequest, err)
	case errors.Is(err, model.ErrUnsupportedMediaType):
		s.writeErr(w, http.StatusUnsupportedMediaType, err)
	case errors.Is(err, model.ErrNotFound):
		s.writeErr(w, http.StatusNotFound, err)
	default:
		if s.Logger != nil {
			s.Logger.Error("request failed", "error", err)
		}
		s.writeErr(w, http.StatusInternalServerError, err)
	}
}
