package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/openrecords/docproc/internal/model"
)

const jobsCollection = "jobs"

// FirestoreStore implements Store on a Firestore collection.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) Insert(ctx context.Context, job *model.Job) error {
	if _, err := s.client.Collection(jobsCollection).Doc(job.ID).Set(ctx, job); err != nil {
		return &model.StorageError{Op: "insert", Err: err}
	}
	return nil
}

func (s *FirestoreStore) Get(ctx context.Context, id string) (*model.Job, error) {
	doc, err := s.client.Collection(jobsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, model.ErrNotFound
	}
	var job model.Job
	if err := doc.DataTo(&job); err != nil {
		return nil, fmt.Errorf("parse job %s: %w", id, err)
	}
	return &job, nil
}

func (s *FirestoreStore) Update(ctx context.Context, job *model.Job) error {
	if _, err := s.client.Collection(jobsCollection).Doc(job.ID).Set(ctx, job); err != nil {
		return &model.StorageError{Op: "update", Err: err}
	}
	return nil
}

func (s *FirestoreStore) List(ctx context.Context) ([]*model.Job, error) {
	iter := s.client.Collection(jobsCollection).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var out []*model.Job
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, &model.StorageError{Op: "list", Err: err}
		}
		var job model.Job
		if err := doc.DataTo(&job); err != nil {
			return nil, fmt.Errorf("parse job %s: %w", doc.Ref.ID, err)
		}
		out = append(out, &job)
	}
	return out, nil
}

func (s *FirestoreStore) Delete(ctx context.Context, id string) (bool, error) {
	ref := s.client.Collection(jobsCollection).Doc(id)
	if _, err := ref.Get(ctx); err != nil {
		return false, nil
	}
	if _, err := ref.Delete(ctx); err != nil {
		return false, &model.StorageError{Op: "delete", Err: err}
	}
	return true, nil
}
