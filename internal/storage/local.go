// Package storage writes uploaded bytes to the local filesystem.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/userfile-api/internal/platform/logger"
)

// LocalStore writes files beneath two directories: permanent user uploads
// and temporary image intake files.
type LocalStore struct {
	uploadDir string
	tempDir   string
	logger    *slog.Logger
}

// NewLocalStore creates both directories if they are missing.
func NewLocalStore(uploadDir, tempDir string, logger *slog.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, dir := range []string{uploadDir, tempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
		}
	}
	return &LocalStore{
		uploadDir: uploadDir,
		tempDir:   tempDir,
		logger:    logger.With(slog.String("component", "local_storage")),
	}, nil
}

// UniqueName returns a random UUIDv4 name that keeps originalName's extension.
func UniqueName(originalName string) string {
	return uuid.NewString() + filepath.Ext(filepath.Base(originalName))
}

// SafeBaseName strips any directory components a client put in a filename.
func SafeBaseName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	switch base {
	case ".", "..", "/", "":
		return "file"
	}
	return base
}

// SaveUpload writes r under a generated unique name in the upload directory
// and returns the path and the generated name.
func (s *LocalStore) SaveUpload(ctx context.Context, originalName string, r io.Reader) (string, string, error) {
	name := UniqueName(SafeBaseName(originalName))
	path := filepath.Join(s.uploadDir, name)

	n, err := writeFile(path, r)
	if err != nil {
		return "", "", err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("upload written",
		slog.String("path", path),
		slog.Int64("size", n))
	return path, name, nil
}

// SaveTemp writes r to <temp_dir>/<id>_<filename>.
func (s *LocalStore) SaveTemp(ctx context.Context, id, filename string, r io.Reader) (string, error) {
	path := filepath.Join(s.tempDir, id+"_"+SafeBaseName(filename))

	n, err := writeFile(path, r)
	if err != nil {
		return "", err
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("temp file written",
		slog.String("path", path),
		slog.Int64("size", n))
	return path, nil
}

// Remove deletes a file written by this store. A missing file is not an error.
func (s *LocalStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// writeFile writes through a temporary sibling and renames it into place,
// so readers never observe a partial file.
func writeFile(path string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".partial-*")
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, r)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpName, path)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	return n, nil
}
