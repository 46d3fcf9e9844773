package filestore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dshalev/slide-explainer/internal/common"
)

// Store keeps uploaded presentations on local disk, one file per job id.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New ensures the uploads directory exists and returns a store over it.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("uploads directory is required: %w", common.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory %s: %w", dir, common.ErrStorage)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Path is the canonical location of a job's presentation.
func (s *Store) Path(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+".pptx")
}

// Save writes the presentation bytes and returns the path they live at.
func (s *Store) Save(id uuid.UUID, data []byte) (string, error) {
	path := s.Path(id)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Error("failed to write upload", "job_id", id, "path", path, "error", err)
		return "", fmt.Errorf("write upload %s: %w", path, common.ErrStorage)
	}
	s.logger.Info("upload stored", "job_id", id, "path", path, "bytes", len(data))
	return path, nil
}

// Remove deletes a stored presentation. A missing file is not an error.
func (s *Store) Remove(id uuid.UUID) error {
	path := s.Path(id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Error("failed to remove upload", "job_id", id, "path", path, "error", err)
		return fmt.Errorf("remove upload %s: %w", path, common.ErrStorage)
	}
	return nil
}
