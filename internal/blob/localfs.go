package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// LocalFS stores blobs as files under Root. The reference it returns is
// the cleaned path relative to Root.
type LocalFS struct {
	Root string
}

func (l LocalFS) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	clean := sanitize(key)
	abs := filepath.Join(l.Root, clean)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", err
	}
	return clean, nil
}

func (l LocalFS) Get(_ context.Context, ref string) ([]byte, error) {
	return os.ReadFile(filepath.Join(l.Root, sanitize(ref)))
}

func (l LocalFS) Delete(_ context.Context, ref string) error {
	err := os.Remove(filepath.Join(l.Root, sanitize(ref)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// sanitize keeps references inside Root.
func sanitize(key string) string {
	clean := filepath.Clean("/" + key)
	return strings.TrimPrefix(clean, "/")
}
