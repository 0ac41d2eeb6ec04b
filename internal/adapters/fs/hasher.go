// Package fs implements filesystem-facing adapters: content hashing and
// directory scanning.
package fs

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/smelt/internal/core/domain"
	"go.trai.ch/smelt/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

var _ ports.Hasher = (*Hasher)(nil)

// fileHashRecord is a process-wide memoization entry. It is reused only while
// the file's metadata still matches.
type fileHashRecord struct {
	modTime time.Time
	size    int64
	sum     string
}

// ProcessCache is the process-wide file-hash memoization table, shared across
// all logical runs within the process lifetime. Created once, never reset
// mid-process, safe for concurrent reads and writes. Entries are revalidated
// against (modtime, size) on every lookup.
type ProcessCache struct {
	entries sync.Map // absolute path -> fileHashRecord
}

// NewProcessCache creates an empty process-wide hash cache.
func NewProcessCache() *ProcessCache {
	return &ProcessCache{}
}

func (c *ProcessCache) lookup(path string, info iofs.FileInfo) (string, bool) {
	v, ok := c.entries.Load(path)
	if !ok {
		return "", false
	}
	rec := v.(fileHashRecord)
	if !rec.modTime.Equal(info.ModTime()) || rec.size != info.Size() {
		return "", false
	}
	return rec.sum, true
}

func (c *ProcessCache) store(path string, info iofs.FileInfo, sum string) {
	c.entries.Store(path, fileHashRecord{
		modTime: info.ModTime(),
		size:    info.Size(),
		sum:     sum,
	})
}

// Hasher computes content fingerprints for one logical run. The run-scoped
// table never revalidates: files are assumed immutable for the duration of a
// run. The process-wide table is shared across runs and revalidated against
// file metadata.
type Hasher struct {
	proc  *ProcessCache
	run   sync.Map // absolute path -> fingerprint
	group singleflight.Group
	reads atomic.Int64
}

// NewHasher creates a Hasher for one logical run, backed by the given
// process-wide cache.
func NewHasher(proc *ProcessCache) *Hasher {
	return &Hasher{proc: proc}
}

// HashBytes computes the fingerprint of raw content.
func (h *Hasher) HashBytes(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// HashFile computes the fingerprint of a file's content. The run-scoped
// cache is consulted first; on a miss the process-wide cache is checked
// against the file's current metadata before the content is re-read.
func (h *Hasher) HashFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to resolve path"), "path", path)
	}

	if sum, ok := h.run.Load(abs); ok {
		return sum.(string), nil
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return "", zerr.With(zerr.Wrap(domain.ErrNotFound, "cannot hash file"), "path", abs)
		}
		return "", zerr.With(zerr.Wrap(err, "failed to stat file"), "path", abs)
	}

	if sum, ok := h.proc.lookup(abs, info); ok {
		h.run.Store(abs, sum)
		return sum, nil
	}

	// Concurrent workers asking for the same uncached file share one read.
	v, err, _ := h.group.Do(abs, func() (any, error) {
		data, err := os.ReadFile(abs) //nolint:gosec // Path is controlled by caller
		if err != nil {
			return "", zerr.With(zerr.Wrap(err, "failed to read file"), "path", abs)
		}
		h.reads.Add(1)
		sum := h.HashBytes(data)
		h.proc.store(abs, info, sum)
		h.run.Store(abs, sum)
		return sum, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// HashArtifact computes the fingerprint of an artifact, delegating to byte
// or file hashing based on how the artifact is backed. The result is
// memoized on the artifact.
func (h *Hasher) HashArtifact(a *domain.Artifact) (string, error) {
	return a.Fingerprint(func(a *domain.Artifact) (string, error) {
		if a.FileBacked() {
			return h.HashFile(a.Path)
		}
		return h.HashBytes(a.Content), nil
	})
}

// FileReads returns the number of actual file reads performed. Used by tests
// to observe memoization.
func (h *Hasher) FileReads() int64 {
	return h.reads.Load()
}
