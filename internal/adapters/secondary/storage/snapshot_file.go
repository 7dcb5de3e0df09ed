// Package storage provides file-based persistence for PRD snapshots.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"prd-manager/internal/domain/ports"
)

const (
	// TempSuffix marks a snapshot that is still being written
	TempSuffix = ".tmp"
	// BackupSuffix prefixes the rotation number of a backup file
	BackupSuffix = ".bak."

	maxBackupCount = 10
)

// FileStoreConfig contains configuration for the snapshot file store
type FileStoreConfig struct {
	Path        string
	BackupCount int
	Logger      *slog.Logger
}

// SnapshotFileStore keeps a single snapshot file plus a ring of numbered
// backups next to it.
type SnapshotFileStore struct {
	path        string
	backupCount int
	logger      *slog.Logger
	mutex       sync.Mutex
}

var _ ports.SnapshotStore = (*SnapshotFileStore)(nil)

// NewSnapshotFileStore creates the store and its parent directory
func NewSnapshotFileStore(config FileStoreConfig) (*SnapshotFileStore, error) {
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if strings.TrimSpace(config.Path) == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}

	path, err := filepath.Abs(filepath.Clean(config.Path))
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &SnapshotFileStore{
		path:        path,
		backupCount: max(0, min(maxBackupCount, config.BackupCount)),
		logger:      config.Logger,
	}, nil
}

// Location returns the absolute snapshot path
func (s *SnapshotFileStore) Location() string {
	return s.path
}

// Load reads the snapshot. A missing file is reported as not found.
func (s *SnapshotFileStore) Load(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Debug("snapshot not found", slog.String("path", s.path))
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read snapshot: %w", err)
	}

	s.logger.Debug("snapshot loaded",
		slog.String("path", s.path),
		slog.Int("bytes", len(data)))
	return string(data), true, nil
}

// Save rotates backups and atomically replaces the snapshot
func (s *SnapshotFileStore) Save(ctx context.Context, data string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	tempFile := s.path + TempSuffix
	if err := os.WriteFile(tempFile, []byte(data), 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := s.rotateBackups(); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to create backup: %w", err)
	}

	if err := os.Rename(tempFile, s.path); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to move temp file: %w", err)
	}

	s.logger.Debug("snapshot saved",
		slog.String("path", s.path),
		slog.Int("bytes", len(data)))
	return nil
}

// HealthCheck verifies the snapshot directory is writable
func (s *SnapshotFileStore) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	testFile := filepath.Join(filepath.Dir(s.path), ".health_check")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("storage not writable: %w", err)
	}

	if err := os.Remove(testFile); err != nil {
		return fmt.Errorf("failed to clean up health check file: %w", err)
	}

	return nil
}

// rotateBackups shifts .bak.N to .bak.N+1, dropping the oldest, then copies
// the current snapshot to .bak.1.
func (s *SnapshotFileStore) rotateBackups() error {
	if s.backupCount == 0 {
		return nil
	}
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	_ = os.Remove(s.backupPath(s.backupCount))
	for n := s.backupCount - 1; n >= 1; n-- {
		from := s.backupPath(n)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		if err := os.Rename(from, s.backupPath(n+1)); err != nil {
			return err
		}
	}

	return copyFile(s.path, s.backupPath(1))
}

func (s *SnapshotFileStore) backupPath(n int) string {
	return s.path + BackupSuffix + strconv.Itoa(n)
}

func copyFile(src, dst string) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
