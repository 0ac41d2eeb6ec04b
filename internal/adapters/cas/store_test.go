package cas_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/smelt/internal/adapters/cas"
	"go.trai.ch/smelt/internal/core/domain"
)

func TestOpen_ExclusiveLock(t *testing.T) {
	root := filepath.Join(t.TempDir(), "cache")

	first, err := cas.Open(root)
	require.NoError(t, err)

	_, err = cas.Open(root)
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)

	require.NoError(t, first.Close())

	second, err := cas.Open(root)
	require.NoError(t, err, "the lock must be reacquirable after Close")
	require.NoError(t, second.Close())
}

func TestOpen_ReclaimsStaleLock(t *testing.T) {
	root := t.TempDir()

	// A process that has already exited stands in for a crashed run.
	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())
	deadPid := cmd.Process.Pid
	require.NoError(t, os.WriteFile(filepath.Join(root, cas.LockFileName),
		[]byte(strconv.Itoa(deadPid)), 0o644))

	store, err := cas.Open(root)
	require.NoError(t, err, "a lock held by a dead process must be reclaimed")
	require.NoError(t, store.Close())
}

func TestOpen_MalformedLockCountsAsHeld(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, cas.LockFileName),
		[]byte("not a pid"), 0o644))

	_, err := cas.Open(root)
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)
}

func TestLookup_MissIsNilNil(t *testing.T) {
	store, err := cas.Open(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	entry, err := store.Lookup(domain.CacheKey{Segments: []string{"bundle", "css", "a"}})
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestCommitLookup_Roundtrip(t *testing.T) {
	store, err := cas.Open(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	key := domain.CacheKey{Segments: []string{"bundle", "css", "Article1"}, Variance: "s:abc"}
	in := domain.CacheEntry{
		Success:   true,
		Payload:   []byte("body{}"),
		Timestamp: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Commit(key, in))

	out, err := store.Lookup(key)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, key.String(), out.Key)
	assert.True(t, out.Success)
	assert.Equal(t, []byte("body{}"), out.Payload)

	// A key with different variance must not resolve to the same entry.
	other, err := store.Lookup(domain.CacheKey{Segments: key.Segments, Variance: "s:def"})
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestCommit_LastWriterWins(t *testing.T) {
	store, err := cas.Open(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	key := domain.CacheKey{Segments: []string{"minify", "app"}}
	require.NoError(t, store.Commit(key, domain.CacheEntry{Success: false}))
	require.NoError(t, store.Commit(key, domain.CacheEntry{Success: true}))

	out, err := store.Lookup(key)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, out.Success)
}

func TestLookup_CorruptManifestIsError(t *testing.T) {
	root := t.TempDir()
	store, err := cas.Open(root)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	key := domain.CacheKey{Segments: []string{"bundle", "css", "x"}}
	require.NoError(t, store.Commit(key, domain.CacheEntry{Success: true}))

	manifests, err := filepath.Glob(filepath.Join(root, "manifests", "*.json"))
	require.NoError(t, err)
	require.Len(t, manifests, 1)
	require.NoError(t, os.WriteFile(manifests[0], []byte("{not json"), 0o644))

	_, err = store.Lookup(key)
	assert.Error(t, err, "a damaged manifest must surface, not read as a miss")
}

func TestPurge_ProtectsLockFile(t *testing.T) {
	root := t.TempDir()
	store, err := cas.Open(root)
	require.NoError(t, err)

	key := domain.CacheKey{Segments: []string{"bundle", "css", "a"}}
	require.NoError(t, store.Commit(key, domain.CacheEntry{Success: true}))

	warnings := cas.Purge(root, []string{cas.LockFileName})
	assert.Empty(t, warnings)

	_, err = os.Stat(filepath.Join(root, cas.LockFileName))
	assert.NoError(t, err, "the lock file must survive a purge")

	_, err = os.Stat(filepath.Join(root, "manifests"))
	assert.True(t, os.IsNotExist(err), "emptied directories are removed")

	require.NoError(t, store.Close())
}

func TestPurge_KeepsDirectoriesHoldingProtectedFiles(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "keep.me"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "drop.me"), []byte("x"), 0o644))

	warnings := cas.Purge(root, []string{"keep.me"})
	assert.Empty(t, warnings)

	_, err := os.Stat(filepath.Join(nested, "keep.me"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(nested, "drop.me"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(nested)
	assert.NoError(t, err, "a directory holding a protected file survives")
}

func TestPurge_MissingRootIsQuiet(t *testing.T) {
	warnings := cas.Purge(filepath.Join(t.TempDir(), "never-created"), nil)
	assert.Empty(t, warnings)
}
