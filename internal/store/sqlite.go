package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/openrecords/docproc/internal/model"
	"github.com/openrecords/docproc/internal/structify"
)

// SQLiteStore is a file-backed Store using the pure-Go sqlite driver.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the job database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  file_ref TEXT NOT NULL,
  file_name TEXT NOT NULL,
  mime_type TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  date_of_birth TEXT NOT NULL DEFAULT '',
  method TEXT NOT NULL,
  status TEXT NOT NULL,
  raw_text TEXT NOT NULL DEFAULT '',
  structured_json TEXT,
  full_name TEXT NOT NULL DEFAULT '',
  age INTEGER NOT NULL DEFAULT 0,
  error_message TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL,
  completed_at INTEGER NOT NULL DEFAULT 0
);
`); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Insert(ctx context.Context, job *model.Job) error {
	structured, err := marshalStructured(job.Structured)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, file_ref, file_name, mime_type, first_name, last_name, date_of_birth,
                       method, status, raw_text, structured_json, full_name, age, error_message,
                       created_at, completed_at)
     VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.FileRef, job.FileName, job.MimeType,
		job.Subject.FirstName, job.Subject.LastName, job.Subject.DateOfBirth,
		string(job.Method), string(job.Status), job.RawText, structured,
		job.FullName, job.Age, job.ErrorMessage,
		job.CreatedAt.UnixMilli(), completedMillis(job.CompletedAt),
	)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Job, error) {
	row := s.db.QueryRowContext(ctx, selectJobs+` WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (s *SQLiteStore) Update(ctx context.Context, job *model.Job) error {
	structured, err := marshalStructured(job.Structured)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs
        SET status = ?, raw_text = ?, structured_json = ?, full_name = ?, age = ?,
            error_message = ?, completed_at = ?
      WHERE id = ?`,
		string(job.Status), job.RawText, structured, job.FullName, job.Age,
		job.ErrorMessage, completedMillis(job.CompletedAt), job.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]*model.Job, error) {
	rows, err := s.db.QueryContext(ctx, selectJobs+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const selectJobs = `SELECT id, file_ref, file_name, mime_type, first_name, last_name, date_of_birth,
       method, status, raw_text, structured_json, full_name, age, error_message,
       created_at, completed_at
  FROM jobs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var (
		job                    model.Job
		method, status         string
		structured             sql.NullString
		createdMs, completedMs int64
	)
	if err := row.Scan(
		&job.ID, &job.FileRef, &job.FileName, &job.MimeType,
		&job.Subject.FirstName, &job.Subject.LastName, &job.Subject.DateOfBirth,
		&method, &status, &job.RawText, &structured,
		&job.FullName, &job.Age, &job.ErrorMessage,
		&createdMs, &completedMs,
	); err != nil {
		return nil, err
	}
	job.Method = model.Method(method)
	job.Status = model.Status(status)
	job.CreatedAt = time.UnixMilli(createdMs).UTC()
	if completedMs > 0 {
		job.CompletedAt = time.UnixMilli(completedMs).UTC()
	}
	if structured.Valid && structured.String != "" {
		var rec structify.Record
		if err := json.Unmarshal([]byte(structured.String), &rec); err != nil {
			return nil, fmt.Errorf("decode structured data for job %s: %w", job.ID, err)
		}
		job.Structured = &rec
	}
	return &job, nil
}

func marshalStructured(rec *structify.Record) (any, error) {
	if rec == nil {
		return nil, nil
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode structured data: %w", err)
	}
	return string(b), nil
}

func completedMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
