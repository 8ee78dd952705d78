// Package store persists job records. Three implementations are provided:
// an in-memory map for tests and single-process deployments, a SQLite file
// for durable single-node deployments, and Firestore for hosted ones.
package store

import (
	"context"

	"github.com/openrecords/docproc/internal/model"
)

//go:generate mockgen -source=store.go -destination=store_mock.go -package=store

// Store defines the persistence operations used by the job manager.
type Store interface {
	// Insert adds a new job record.
	Insert(ctx context.Context, job *model.Job) error
	// Get returns the job with the given ID, or model.ErrNotFound.
	Get(ctx context.Context, id string) (*model.Job, error)
	// Update replaces the stored record for job.ID.
	Update(ctx context.Context, job *model.Job) error
	// List returns all jobs, newest first.
	List(ctx context.Context) ([]*model.Job, error)
	// Delete removes a job, reporting whether a record existed.
	Delete(ctx context.Context, id string) (bool, error)
}
