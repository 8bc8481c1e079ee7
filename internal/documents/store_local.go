package documents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore writes documents below a directory served at publicURL.
type LocalStore struct {
	dir       string
	publicURL string
}

func NewLocal(dir, publicURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}
	return &LocalStore{dir: dir, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (s *LocalStore) Upload(ctx context.Context, f File, pathHint string) (*Stored, error) {
	data, mime, err := prepare(f)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := objectName(pathHint, mime)
	target := filepath.Join(s.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o640); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return newStored(f, name, s.publicURL+"/"+name, mime, len(data), time.Now()), nil
}
