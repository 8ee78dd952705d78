// Package job owns the processing lifecycle: accept a document, persist
// the job record, run extraction (and optional AI structuring) on a
// bounded worker pool, and expose the results for polling.
package job

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/openrecords/docproc/internal/blob"
	"github.com/openrecords/docproc/internal/extract"
	"github.com/openrecords/docproc/internal/model"
	"github.com/openrecords/docproc/internal/store"
	"github.com/openrecords/docproc/internal/structify"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 16
	processTimeout   = 5 * time.Minute
	maxUploadBytes   = 20 << 20
)

// Options tunes the worker pool.
type Options struct {
	Workers   int // concurrent processing goroutines
	QueueSize int // pending tasks before Submit blocks
}

// Submission is a caller's upload request.
type Submission struct {
	FileName string
	MimeType string
	Data     []byte
	Subject  model.Subject
	Method   model.Method
}

// Manager coordinates submissions, the worker pool, and persistence.
type Manager struct {
	store  store.Store
	blobs  blob.Store
	chain  *extract.Chain
	ai     *structify.Adapter
	logger *slog.Logger
	now    func() time.Time

	tasks chan string
	pool  *errgroup.Group
}

// NewManager starts the worker pool. Callers must Close the manager to
// drain in-flight work.
func NewManager(st store.Store, blobs blob.Store, chain *extract.Chain, ai *structify.Adapter, logger *slog.Logger, opts Options) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if ai == nil {
		ai = structify.NewAdapter(nil, logger)
	}

	m := &Manager{
		store:  st,
		blobs:  blobs,
		chain:  chain,
		ai:     ai,
		logger: logger,
		now:    time.Now,
		tasks:  make(chan string, opts.QueueSize),
		pool:   &errgroup.Group{},
	}
	for i := 0; i < opts.Workers; i++ {
		m.pool.Go(m.worker)
	}
	return m
}

// Close stops accepting work and waits for in-flight jobs to finish.
func (m *Manager) Close() {
	close(m.tasks)
	_ = m.pool.Wait()
}

// Submit validates the upload, stores the document and the job record,
// queues processing, and returns the job immediately in the processing
// state. It blocks only when the task queue is full.
func (m *Manager) Submit(ctx context.Context, sub Submission) (*model.Job, error) {
	if len(sub.Data) == 0 {
		return nil, &model.ValidationError{Field: "file", Reason: "empty upload"}
	}
	if len(sub.Data) > maxUploadBytes {
		return nil, &model.ValidationError{Field: "file", Reason: fmt.Sprintf("exceeds %d byte limit", maxUploadBytes)}
	}
	if !extract.Supported(sub.MimeType) {
		return nil, model.ErrUnsupportedMediaType
	}
	if err := sub.Subject.Validate(); err != nil {
		return nil, err
	}
	if sub.Method == "" {
		sub.Method = model.MethodStandard
	}

	id := uuid.NewString()
	key := path.Join("uploads", id, sanitizeFileName(sub.FileName))
	ref, err := m.blobs.Put(ctx, key, sub.Data, sub.MimeType)
	if err != nil {
		return nil, &model.StorageError{Op: "store document", Err: err}
	}

	job := &model.Job{
		ID:        id,
		FileRef:   ref,
		FileName:  sub.FileName,
		MimeType:  sub.MimeType,
		Subject:   sub.Subject,
		Method:    sub.Method,
		Status:    model.StatusProcessing,
		CreatedAt: m.now().UTC(),
	}
	if err := m.store.Insert(ctx, job); err != nil {
		if delErr := m.blobs.Delete(ctx, ref); delErr != nil {
			m.logger.Warn("orphaned blob after failed insert", "ref", ref, "error", delErr)
		}
		return nil, &model.StorageError{Op: "insert job", Err: err}
	}

	m.tasks <- id
	m.logger.Info("job accepted", "job_id", id, "file", sub.FileName, "method", job.Method)
	return job, nil
}

// GetResult returns the current state of a job.
func (m *Manager) GetResult(ctx context.Context, id string) (*model.Job, error) {
	return m.store.Get(ctx, id)
}

// ListJobs returns summaries of all jobs, newest first.
func (m *Manager) ListJobs(ctx context.Context) ([]model.Summary, error) {
	jobs, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Summary, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Summarize())
	}
	return out, nil
}

// DeleteJob removes the job record and its stored document. It reports
// false when no record existed.
func (m *Manager) DeleteJob(ctx context.Context, id string) (bool, error) {
	job, err := m.store.Get(ctx, id)
	if err != nil {
		if err == model.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	if err := m.blobs.Delete(ctx, job.FileRef); err != nil {
		m.logger.Warn("blob delete failed", "job_id", id, "ref", job.FileRef, "error", err)
	}
	return m.store.Delete(ctx, id)
}

func (m *Manager) worker() error {
	for id := range m.tasks {
		m.process(id)
	}
	return nil
}

// process runs one job to a terminal state. Extraction itself cannot fail
// the job: the chain degrades to a placeholder instead. Only missing
// documents, storage failures, and panics do.
func (m *Manager) process(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("panic while processing job", "job_id", id, "panic", r)
			m.markFailed(ctx, id, fmt.Sprintf("internal error: %v", r))
		}
	}()

	job, err := m.store.Get(ctx, id)
	if err != nil {
		m.logger.Error("queued job not found in store", "job_id", id, "error", err)
		return
	}

	data, err := m.blobs.Get(ctx, job.FileRef)
	if err != nil {
		m.markFailed(ctx, id, "stored document unavailable: "+err.Error())
		return
	}

	analysis := extract.Analyze(data, job.MimeType)
	m.logger.Info("document analyzed",
		"job_id", id, "pages", analysis.PageCount,
		"text_layer_chars", analysis.TextLayerLen, "likely_scanned", analysis.LikelyScanned)

	res := m.chain.Extract(ctx, data, job.MimeType)
	job.RawText = res.Text

	if job.Method == model.MethodAI {
		job.Structured = m.ai.Structure(ctx, res.Text, structify.SubjectInfo{
			FullName:    job.Subject.FullName(),
			DateOfBirth: job.Subject.DateOfBirth,
			Age:         model.AgeAt(job.Subject.DateOfBirth, m.now()),
		})
	}

	job.FullName = job.Subject.FullName()
	job.Age = model.AgeAt(job.Subject.DateOfBirth, m.now())
	job.Status = model.StatusCompleted
	job.CompletedAt = m.now().UTC()

	if err := m.store.Update(ctx, job); err != nil {
		m.logger.Error("failed to persist completed job", "job_id", id, "error", err)
		m.markFailed(ctx, id, "failed to persist result: "+err.Error())
		return
	}
	m.logger.Info("job completed",
		"job_id", id, "extraction_method", res.Method, "degraded", res.Degraded,
		"text_chars", len(res.Text), "structured", job.Structured != nil)
}

// markFailed writes the terminal failed state. A failure here is logged
// and swallowed: the job stays visibly stuck in processing rather than
// taking the worker down.
func (m *Manager) markFailed(ctx context.Context, id, msg string) {
	job, err := m.store.Get(ctx, id)
	if err != nil {
		m.logger.Error("cannot load job to mark failed", "job_id", id, "error", err)
		return
	}
	if job.Terminal() {
		return
	}
	job.Status = model.StatusFailed
	job.ErrorMessage = msg
	job.CompletedAt = m.now().UTC()
	if err := m.store.Update(ctx, job); err != nil {
		m.logger.Error("cannot mark job failed", "job_id", id, "error", err)
	}
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." {
		name = "document"
	}
	return name
}
