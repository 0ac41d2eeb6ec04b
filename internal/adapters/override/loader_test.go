package override_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/smelt/internal/adapters/override"
	"go.trai.ch/smelt/internal/core/domain"
)

func TestLoad_AbsentFileAndNoArgs(t *testing.T) {
	f, err := override.Load(filepath.Join(t.TempDir(), override.DeclarationFileName), nil, nil, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, f, "nothing restricted means no filter")
}

func TestLoad_ExplicitListsWithoutFile(t *testing.T) {
	f, err := override.Load(filepath.Join(t.TempDir(), override.DeclarationFileName),
		[]string{"en"}, nil, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.False(t, f.SkipAll())
}

func TestLoad_MergesFileAndExplicitLists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, override.DeclarationFileName)
	content := `Overrides:
  locales: "de; fr"
  outputs: "Article2"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	f, err := override.Load(path, []string{"en"}, nil, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, f)

	// Declared "de" survives the merge alongside the explicit "en".
	assert.False(t, f.IgnoreArtifact(&domain.Artifact{
		Name:   "a",
		Pivots: []domain.Pivot{{Locale: "de-DE"}},
	}))
	assert.False(t, f.IgnoreArtifact(&domain.Artifact{
		Name:   "b",
		Pivots: []domain.Pivot{{Locale: "en-US"}},
	}))
	assert.True(t, f.IgnoreArtifact(&domain.Artifact{
		Name:   "c",
		Pivots: []domain.Pivot{{Locale: "it-IT"}},
	}))

	assert.True(t, f.IgnoreFileSet(domain.FileSet{Output: "Article1.css"}))
	assert.False(t, f.IgnoreFileSet(domain.FileSet{Output: "Article2.css"}))
}

func TestLoad_SkipAll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, override.DeclarationFileName)
	require.NoError(t, os.WriteFile(path, []byte("Overrides:\n  skipAll: true\n"), 0o644))

	f, err := override.Load(path, nil, nil, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.True(t, f.SkipAll())
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, override.DeclarationFileName)
	require.NoError(t, os.WriteFile(path, []byte("Overrides: [not a mapping"), 0o644))

	_, err := override.Load(path, nil, nil, nil, nil)
	assert.Error(t, err)
}
