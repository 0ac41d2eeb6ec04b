// Package cas implements the file-system-backed cache store.
package cas

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/smelt/internal/core/domain"
	"go.trai.ch/smelt/internal/core/ports"
	"go.trai.ch/zerr"
)

// LockFileName is the reserved lock file inside the cache root. Purge never
// deletes it.
const LockFileName = "smelt.lock"

const manifestDir = "manifests"

var _ ports.CacheStore = (*Store)(nil)

// Store is a durable key -> entry store rooted at a directory. One entry is
// persisted per cache key as a manifest JSON file named after the key's
// fingerprint. The on-disk area is partitioned by key, so concurrent commits
// to different keys need no coordination; commits to the same key are
// last-writer-wins, which is safe because the payload for a key is
// deterministic given the key.
type Store struct {
	root     string
	lockPath string
}

// Open acquires the exclusive lock file in root and returns a store handle.
// A lock left behind by a dead process is reclaimed; otherwise Open fails
// with domain.ErrCacheUnavailable.
func Open(root string) (*Store, error) {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create cache root"), "root", root)
	}

	lockPath := filepath.Join(root, LockFileName)
	for attempt := 0; ; attempt++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644) //nolint:gosec // Path is derived from cleaned root
		if err == nil {
			_, _ = f.WriteString(strconv.Itoa(os.Getpid()))
			_ = f.Close()
			return &Store{root: root, lockPath: lockPath}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, zerr.With(zerr.Wrap(err, "failed to create lock file"), "root", root)
		}
		if attempt > 0 || !staleLock(lockPath) {
			return nil, zerr.With(zerr.Wrap(domain.ErrCacheUnavailable, "cache root is locked by another process"), "root", root)
		}
		_ = os.Remove(lockPath)
	}
}

// staleLock reports whether the lock's recorded process is no longer alive.
// An unreadable or malformed lock counts as held.
func staleLock(path string) bool {
	data, err := os.ReadFile(path) //nolint:gosec // Path is derived from cleaned root
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 || pid == os.Getpid() {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return true
	}
	// Signal 0 probes liveness without delivering anything. EPERM still
	// means the process exists.
	sigErr := proc.Signal(syscall.Signal(0))
	return sigErr != nil && !errors.Is(sigErr, syscall.EPERM)
}

// Close releases the cache lock.
func (s *Store) Close() error {
	if err := os.Remove(s.lockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.Wrap(err, "failed to release cache lock")
	}
	return nil
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	return s.root
}

// entryPath derives the manifest location for a key deterministically.
func (s *Store) entryPath(key domain.CacheKey) string {
	sum := xxhash.Sum64String(key.String())
	return filepath.Join(s.root, manifestDir, fmt.Sprintf("%016x.json", sum))
}

// Lookup retrieves the entry for a key, or nil on a miss. An unreadable
// manifest is reported as an error, not a silent miss.
func (s *Store) Lookup(key domain.CacheKey) (*domain.CacheEntry, error) {
	data, err := os.ReadFile(s.entryPath(key)) //nolint:gosec // Path is derived from cleaned root
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read cache entry"), "key", key.String())
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to unmarshal cache entry"), "key", key.String())
	}

	// Guard against fingerprint collisions between distinct keys.
	if entry.Key != key.String() {
		return nil, nil
	}
	return &entry, nil
}

// Commit persists an entry under the key using a temp file and an atomic
// rename, so a reader never observes a partial manifest.
func (s *Store) Commit(key domain.CacheKey, entry domain.CacheEntry) error {
	entry.Key = key.String()

	data, err := json.Marshal(entry)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to marshal cache entry"), "key", key.String())
	}

	path := s.entryPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return zerr.Wrap(err, "failed to create manifest directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".commit-*")
	if err != nil {
		return zerr.Wrap(err, "failed to create temp manifest")
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return zerr.Wrap(err, "failed to write temp manifest")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return zerr.Wrap(err, "failed to close temp manifest")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return zerr.With(zerr.Wrap(err, "failed to commit cache entry"), "key", key.String())
	}
	return nil
}

// Purge recursively deletes cache content under root, keeping the files
// named in protected. Individual deletion failures are collected as warnings
// and the purge continues; partial cleanup is acceptable, total failure is
// not. A directory is left in place when it still holds a protected or
// undeletable file.
func Purge(root string, protected []string) []domain.Warning {
	keep := make(map[string]bool, len(protected))
	for _, name := range protected {
		keep[name] = true
	}

	var warnings []domain.Warning
	purgeDir(root, keep, &warnings)
	return warnings
}

func purgeDir(dir string, keep map[string]bool, warnings *[]domain.Warning) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			*warnings = append(*warnings, domain.Warning{Op: "purge", Path: dir, Err: err})
		}
		return
	}

	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if keep[e.Name()] {
			continue
		}
		if e.IsDir() {
			purgeDir(path, keep, warnings)
			// Fails while the directory still holds protected or
			// undeletable files, which is exactly when it must survive.
			_ = os.Remove(path)
			continue
		}
		if err := os.Remove(path); err != nil {
			*warnings = append(*warnings, domain.Warning{Op: "purge", Path: path, Err: err})
		}
	}
}
