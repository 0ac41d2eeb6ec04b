// Package domain holds the value objects of the smelt build engine.
package domain

import (
	"strings"
	"sync"
)

// Pivot is a locale/theme combination an artifact was produced for.
type Pivot struct {
	Locale string
	Theme  string
}

// String returns the canonical "locale/theme" form of the pivot.
func (p Pivot) String() string {
	return p.Locale + "/" + p.Theme
}

// Artifact is a named piece of content flowing through the pipeline.
// It is backed either by raw bytes or by a file on disk, and is immutable
// once created. Its content fingerprint is computed lazily and memoized.
type Artifact struct {
	// Name is the logical path of the artifact, e.g. "bundle/css/Article1".
	Name string
	// Path is the backing file, when the artifact is file-backed.
	Path string
	// Content is the raw content, when the artifact is byte-backed.
	Content []byte
	// Pivots are the locale/theme combinations this artifact belongs to.
	Pivots []Pivot

	once  sync.Once
	fp    string
	fpErr error
}

// FileBacked reports whether the artifact content lives in a file rather than memory.
func (a *Artifact) FileBacked() bool {
	return a.Content == nil && a.Path != ""
}

// Fingerprint returns the memoized content fingerprint, invoking compute
// exactly once per artifact. Safe for concurrent use.
func (a *Artifact) Fingerprint(compute func(*Artifact) (string, error)) (string, error) {
	a.once.Do(func() {
		a.fp, a.fpErr = compute(a)
	})
	return a.fp, a.fpErr
}

// FileSet describes one named output and the inputs that produce it.
type FileSet struct {
	// Output is the output file name including its extension, e.g. "Article1.css".
	Output string
	// Kind is the asset kind, "css" or "js".
	Kind string
	// Inputs are the source files, relative to the pipeline root.
	Inputs []string
}

// BaseName returns the output name without its final extension.
func (f FileSet) BaseName() string {
	if i := strings.LastIndex(f.Output, "."); i >= 0 {
		return f.Output[:i]
	}
	return f.Output
}
