package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalStore keeps images on the local filesystem. The HTTP server serves
// BaseDir under PublicURL.
type LocalStore struct {
	BaseDir   string
	PublicURL string
	MaxBytes  int64
	Log       *zap.Logger
}

func NewLocalStore(baseDir, publicURL string, maxBytes int64, log *zap.Logger) *LocalStore {
	return &LocalStore{
		BaseDir:   baseDir,
		PublicURL: strings.TrimRight(publicURL, "/"),
		MaxBytes:  maxBytes,
		Log:       log,
	}
}

func (s *LocalStore) Store(_ context.Context, directory string, data []byte) (string, error) {
	_, ext, err := Validate(data, s.MaxBytes)
	if err != nil {
		return "", err
	}
	key, err := objectKey(directory, ext)
	if err != nil {
		return "", err
	}

	target := filepath.Join(s.BaseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	url := s.PublicURL + "/" + key
	s.Log.Info("Image stored", zap.String("url", url))
	return url, nil
}

func (s *LocalStore) Delete(_ context.Context, url string) error {
	key, ok := keyFromURL(s.PublicURL, url)
	if !ok {
		return nil
	}
	err := os.Remove(filepath.Join(s.BaseDir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	s.Log.Info("Image deleted", zap.String("url", url))
	return nil
}

var _ ImageStore = (*LocalStore)(nil)
