package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/smelt/internal/core/domain"
)

func TestNewOverrideFilter_NoneWhenEmpty(t *testing.T) {
	f := domain.NewOverrideFilter(nil, nil, nil, nil, false)
	assert.Nil(t, f, "an all-accepting filter must be represented as absence")

	f = domain.NewOverrideFilter([]string{"  ", ""}, nil, nil, nil, false)
	assert.Nil(t, f, "blank entries must not count as restrictions")
}

func TestNewOverrideFilter_SkipAllAlone(t *testing.T) {
	f := domain.NewOverrideFilter(nil, nil, nil, nil, true)
	require.NotNil(t, f)
	assert.True(t, f.SkipAll())
}

func TestIgnoreFileSet_OutputAllowList(t *testing.T) {
	fileSet := domain.FileSet{Output: "Article1.css", Kind: "css"}

	deny := domain.NewOverrideFilter(nil, nil, []string{"Article2"}, nil, false)
	require.NotNil(t, deny)
	assert.True(t, deny.IgnoreFileSet(fileSet))

	allow := domain.NewOverrideFilter(nil, nil, []string{"Article1"}, nil, false)
	require.NotNil(t, allow)
	assert.False(t, allow.IgnoreFileSet(fileSet))
}

func TestIgnoreFileSet_BareTokenCaseInsensitive(t *testing.T) {
	// A bare token without a dot matches case-insensitively, but only when
	// the output carries more than one dot.
	f := domain.NewOverrideFilter(nil, nil, []string{"article1"}, nil, false)
	require.NotNil(t, f)

	assert.False(t, f.IgnoreFileSet(domain.FileSet{Output: "Article1.en-US.css"}))
	assert.True(t, f.IgnoreFileSet(domain.FileSet{Output: "Article1.css"}))
}

func TestIgnoreFileSet_ExtensionSuffix(t *testing.T) {
	f := domain.NewOverrideFilter(nil, nil, nil, []string{".css"}, false)
	require.NotNil(t, f)

	assert.False(t, f.IgnoreFileSet(domain.FileSet{Output: "Article1.css"}))
	assert.True(t, f.IgnoreFileSet(domain.FileSet{Output: "app.js"}))
}

func TestIgnoreArtifact_PivotRules(t *testing.T) {
	f := domain.NewOverrideFilter([]string{"en"}, nil, nil, nil, false)
	require.NotNil(t, f)

	kept := &domain.Artifact{Name: "a", Pivots: []domain.Pivot{{Locale: "en-US", Theme: "default"}}}
	assert.False(t, f.IgnoreArtifact(kept))

	dropped := &domain.Artifact{Name: "b", Pivots: []domain.Pivot{{Locale: "de-DE", Theme: "default"}}}
	assert.True(t, f.IgnoreArtifact(dropped))

	mixed := &domain.Artifact{Name: "c", Pivots: []domain.Pivot{
		{Locale: "de-DE", Theme: "default"},
		{Locale: "en-GB", Theme: "default"},
	}}
	assert.False(t, f.IgnoreArtifact(mixed), "one accepted pivot keeps the artifact")

	unpivoted := &domain.Artifact{Name: "d"}
	assert.False(t, f.IgnoreArtifact(unpivoted), "an artifact with no pivots is never ignored")
}

func TestIgnoreArtifact_ThemeAllowList(t *testing.T) {
	f := domain.NewOverrideFilter(nil, []string{"dark"}, nil, nil, false)
	require.NotNil(t, f)

	assert.True(t, f.IgnoreArtifact(&domain.Artifact{Name: "a", Pivots: []domain.Pivot{{Locale: "en", Theme: "light"}}}))
	assert.False(t, f.IgnoreArtifact(&domain.Artifact{Name: "b", Pivots: []domain.Pivot{{Locale: "en", Theme: "dark"}}}))
}

func TestFingerprint_Deterministic(t *testing.T) {
	a := domain.NewOverrideFilter([]string{"en"}, []string{"dark"}, nil, nil, false)
	b := domain.NewOverrideFilter([]string{"en"}, []string{"dark"}, nil, nil, false)
	c := domain.NewOverrideFilter([]string{"en"}, nil, []string{"dark"}, nil, false)

	require.NotNil(t, a)
	require.NotNil(t, b)
	require.NotNil(t, c)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint(),
		"the same tokens in different lists must not collide")
}
