package blob

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// GCS stores blobs in a Google Cloud Storage bucket. References are
// gs://bucket/key URLs.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS creates a GCS-backed blob store writing into bucket.
func NewGCS(client *storage.Client, bucket string) *GCS {
	return &GCS{client: client, bucket: bucket}
}

func (g *GCS) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("write gs://%s/%s: %w", g.bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("write gs://%s/%s: %w", g.bucket, key, err)
	}
	return fmt.Sprintf("gs://%s/%s", g.bucket, key), nil
}

func (g *GCS) Get(ctx context.Context, ref string) ([]byte, error) {
	key, err := g.objectKey(ref)
	if err != nil {
		return nil, err
	}
	r, err := g.client.Bucket(g.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open gs://%s/%s: %w", g.bucket, key, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (g *GCS) Delete(ctx context.Context, ref string) error {
	key, err := g.objectKey(ref)
	if err != nil {
		return err
	}
	err = g.client.Bucket(g.bucket).Object(key).Delete(ctx)
	if err == storage.ErrObjectNotExist {
		return nil
	}
	return err
}

func (g *GCS) objectKey(ref string) (string, error) {
	prefix := "gs://" + g.bucket + "/"
	if !strings.HasPrefix(ref, prefix) {
		return "", fmt.Errorf("reference %q is not in bucket %s", ref, g.bucket)
	}
	return strings.TrimPrefix(ref, prefix), nil
}
