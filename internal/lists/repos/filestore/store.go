// Package filestore keeps list files as plain text files in one directory.
// A file's version token is the hex SHA-256 of its content.
package filestore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/haukened/rr-listsync/internal/lists/common/log"
	"github.com/haukened/rr-listsync/internal/lists/domain"
	"github.com/haukened/rr-listsync/internal/lists/services/coordinator"
)

// Store is a versioned list store on the local filesystem. Writes are
// compare-and-swap on the content hash and land atomically via rename.
type Store struct {
	mu     sync.Mutex
	root   string
	logger log.Logger
}

// New returns a Store rooted at dir, creating the directory when needed.
func New(dir string, logger log.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("store root must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store root %s: %w", dir, err)
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Store{root: dir, logger: logger}, nil
}

// Read returns the lines of the named list and its version. A missing list
// reads as empty with the empty version.
func (s *Store) Read(ctx context.Context, name string) ([]string, domain.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", &domain.StoreUnavailableError{Op: "read", Path: name, Err: err}
	}
	full, err := s.path(name)
	if err != nil {
		return nil, "", err
	}
	data, version, err := readVersioned(full)
	if err != nil {
		return nil, "", &domain.StoreUnavailableError{Op: "read", Path: name, Err: err}
	}
	return splitLines(data), version, nil
}

// Write replaces the named list when its current version equals expected.
func (s *Store) Write(ctx context.Context, name string, lines []string, expected domain.Version, message string) (domain.Version, error) {
	if err := ctx.Err(); err != nil {
		return "", &domain.StoreUnavailableError{Op: "write", Path: name, Err: err}
	}
	full, err := s.path(name)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, actual, err := readVersioned(full)
	if err != nil {
		return "", &domain.StoreUnavailableError{Op: "write", Path: name, Err: err}
	}
	if actual != expected {
		return "", &domain.WriteConflictError{Path: name, Expected: expected, Actual: actual}
	}

	data := joinLines(lines)
	if err := writeAtomic(full, data); err != nil {
		return "", &domain.StoreUnavailableError{Op: "write", Path: name, Err: err}
	}
	next := versionOf(data)
	s.logger.Info(map[string]any{"list": name, "from": string(actual), "to": string(next), "message": message}, "file_written")
	return next, nil
}

// path resolves a list name inside the root. Names are bare file names.
func (s *Store) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid list name %q", name)
	}
	return filepath.Join(s.root, name), nil
}

func readVersioned(path string) ([]byte, domain.Version, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return data, versionOf(data), nil
}

func versionOf(data []byte) domain.Version {
	sum := sha256.Sum256(data)
	return domain.Version(hex.EncodeToString(sum[:]))
}

func writeAtomic(path string, data []byte) error {
	dir, base := filepath.Split(path)
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return err
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// splitLines splits on LF, dropping a single trailing newline and any CR.
func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	text := strings.TrimSuffix(string(data), "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func joinLines(lines []string) []byte {
	if len(lines) == 0 {
		return nil
	}
	var b bytes.Buffer
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.Bytes()
}

var _ coordinator.ListStore = (*Store)(nil)
