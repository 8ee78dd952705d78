package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrecords/docproc/internal/model"
	"github.com/openrecords/docproc/internal/structify"
)

func sampleJob(id string, createdAt time.Time) *model.Job {
	return &model.Job{
		ID:       id,
		FileRef:  "uploads/" + id + ".pdf",
		FileName: "record.pdf",
		MimeType: "application/pdf",
		Subject: model.Subject{
			FirstName:   "Jane",
			LastName:    "Doe",
			DateOfBirth: "1990-03-01",
		},
		Method:    model.MethodStandard,
		Status:    model.StatusProcessing,
		CreatedAt: createdAt,
	}
}

// exerciseStore runs the behavior shared by every Store implementation.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	older := sampleJob("job-older", base)
	newer := sampleJob("job-newer", base.Add(time.Minute))
	require.NoError(t, s.Insert(ctx, older))
	require.NoError(t, s.Insert(ctx, newer))

	got, err := s.Get(ctx, "job-older")
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.Subject.FirstName)
	assert.Equal(t, model.StatusProcessing, got.Status)

	_, err = s.Get(ctx, "no-such-job")
	assert.ErrorIs(t, err, model.ErrNotFound)

	// Terminal update with structured data round-trips.
	got.Status = model.StatusCompleted
	got.RawText = "extracted text"
	got.FullName = "Jane Doe"
	got.Age = 35
	got.CompletedAt = base.Add(2 * time.Minute)
	got.Structured = &structify.Record{
		PersonalInfo: structify.PersonalInfo{FullName: "Jane Doe", DateOfBirth: "1990-03-01", Age: 35},
		Summary:      "a short summary",
	}
	require.NoError(t, s.Update(ctx, got))

	updated, err := s.Get(ctx, "job-older")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, updated.Status)
	assert.Equal(t, "extracted text", updated.RawText)
	require.NotNil(t, updated.Structured)
	assert.Equal(t, "Jane Doe", updated.Structured.PersonalInfo.FullName)
	assert.Equal(t, base.Add(2*time.Minute), updated.CompletedAt)

	// Newest first.
	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "job-newer", list[0].ID)
	assert.Equal(t, "job-older", list[1].ID)

	// First delete removes, second reports absence.
	deleted, err := s.Delete(ctx, "job-newer")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = s.Delete(ctx, "job-newer")
	require.NoError(t, err)
	assert.False(t, deleted)

	err = s.Update(ctx, sampleJob("never-inserted", base))
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	job := sampleJob("copy-check", time.Now().UTC())
	require.NoError(t, s.Insert(ctx, job))

	got, err := s.Get(ctx, "copy-check")
	require.NoError(t, err)
	got.Status = model.StatusFailed

	again, err := s.Get(ctx, "copy-check")
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, again.Status)
}
