package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"complaintdesk/backend/internal/models"
)

// FileStore keeps complaints as one indented JSON array on disk.
// Writes go to a temp file in the same directory and are renamed over the target,
// so a crash mid-write leaves the previous version intact.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates the parent directory of path if needed.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("storage: empty file path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("storage: create data dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// LoadAll reads the file. A missing or blank file is an empty store;
// undecodable content yields ErrCorruptStore.
func (s *FileStore) LoadAll(ctx context.Context) ([]models.Complaint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Complaint{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Complaint{}, nil
	}

	var complaints []models.Complaint
	if err := json.Unmarshal(data, &complaints); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptStore, s.path, err)
	}
	if complaints == nil {
		complaints = []models.Complaint{}
	}
	return complaints, nil
}

// SaveAll atomically replaces the file with complaints.
func (s *FileStore) SaveAll(ctx context.Context, complaints []models.Complaint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if complaints == nil {
		complaints = []models.Complaint{}
	}

	data, err := json.MarshalIndent(complaints, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode complaints: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return WriteFileAtomic(s.path, data)
}

// Ping checks that the data directory is still there.
func (s *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := os.Stat(filepath.Dir(s.path))
	return err
}

func (s *FileStore) Close(context.Context) error { return nil }

// WriteFileAtomic replaces path with data via a synced temp file in the same directory.
func WriteFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("storage: write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("storage: sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("storage: replace %s: %w", path, err)
	}
	return nil
}
