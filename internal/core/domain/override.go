package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// OverrideFilter is a run-scoped allow/deny filter over locales, themes,
// output names, and output extensions. It lets a caller rebuild a subset of
// a large locale x theme x output matrix; its fingerprint is folded into
// every cache key computed while it is active so that filtered runs never
// collide with unrestricted runs.
//
// An all-accepting filter is represented as absence: NewOverrideFilter
// returns nil when nothing is restricted, so downstream code can test for
// "no override active" cheaply and an absent filter leaves keys untouched.
type OverrideFilter struct {
	skipAll     bool
	locales     []string
	themes      []string
	outputs     []string
	extensions  []string
	fingerprint string
}

// NewOverrideFilter builds a filter from allow-lists. All list entries are
// matched as substrings except extensions, which match as suffixes. Returns
// nil when every list is empty and skipAll is unset.
func NewOverrideFilter(locales, themes, outputs, extensions []string, skipAll bool) *OverrideFilter {
	locales = canonicalize(locales)
	themes = canonicalize(themes)
	outputs = canonicalize(outputs)
	extensions = canonicalize(extensions)

	if !skipAll && len(locales) == 0 && len(themes) == 0 && len(outputs) == 0 && len(extensions) == 0 {
		return nil
	}

	f := &OverrideFilter{
		skipAll:    skipAll,
		locales:    locales,
		themes:     themes,
		outputs:    outputs,
		extensions: extensions,
	}
	f.fingerprint = f.computeFingerprint()
	return f
}

func canonicalize(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// computeFingerprint hashes the canonical serialized filter state. The
// serialization is frozen at construction; the filter is immutable after.
func (f *OverrideFilter) computeFingerprint() string {
	h := xxhash.New()
	for _, list := range [][]string{f.locales, f.themes, f.outputs, f.extensions} {
		for _, s := range list {
			_, _ = h.WriteString(s)
			_, _ = h.Write([]byte{0})
		}
		_, _ = h.Write([]byte{0})
	}
	if f.skipAll {
		_, _ = h.Write([]byte{1})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// Fingerprint returns the frozen fingerprint of the filter configuration.
func (f *OverrideFilter) Fingerprint() string {
	return f.fingerprint
}

// SkipAll reports whether the filter requests skipping all processing.
func (f *OverrideFilter) SkipAll() bool {
	return f.skipAll
}

// IgnoreArtifact reports whether the artifact should be skipped: true iff it
// carries at least one pivot and every pivot is rejected. An artifact with no
// pivots is never ignored by this rule.
func (f *OverrideFilter) IgnoreArtifact(a *Artifact) bool {
	if len(a.Pivots) == 0 {
		return false
	}
	for _, p := range a.Pivots {
		if !f.rejectPivot(p) {
			return false
		}
	}
	return true
}

// rejectPivot reports whether a pivot fails either configured allow-list.
func (f *OverrideFilter) rejectPivot(p Pivot) bool {
	if len(f.locales) > 0 && !containsAny(p.Locale, f.locales) {
		return true
	}
	if len(f.themes) > 0 && !containsAny(p.Theme, f.themes) {
		return true
	}
	return false
}

// IgnoreFileSet reports whether the file set's output fails the output
// allow-list or the extension suffix test.
func (f *OverrideFilter) IgnoreFileSet(fs FileSet) bool {
	if len(f.outputs) > 0 && !f.outputAllowed(fs.Output) {
		return true
	}
	if len(f.extensions) > 0 && !suffixAny(fs.Output, f.extensions) {
		return true
	}
	return false
}

// outputAllowed applies the output-name match. A token matches as a plain
// substring; a bare token without a dot additionally matches case-insensitively,
// but only against outputs carrying more than one dot, which keeps short
// extension-like tokens from matching everything.
func (f *OverrideFilter) outputAllowed(output string) bool {
	for _, token := range f.outputs {
		if strings.Contains(output, token) {
			return true
		}
		if !strings.Contains(token, ".") && strings.Count(output, ".") > 1 &&
			strings.Contains(strings.ToLower(output), strings.ToLower(token)) {
			return true
		}
	}
	return false
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func suffixAny(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(strings.ToLower(s), strings.ToLower(suf)) {
			return true
		}
	}
	return false
}
