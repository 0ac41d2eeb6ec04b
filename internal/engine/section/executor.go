package section

import (
	"encoding/json"
	"strings"
	"time"

	"go.trai.ch/smelt/internal/core/domain"
	"go.trai.ch/zerr"
)

// WorkFunc is the unit of work executed inside a section. It receives a
// context scoped under the section's key, so further nested sections compose
// hierarchical keys. It returns whether the work succeeded.
type WorkFunc func(c *Context) (bool, error)

// Variance carries the inputs a section's cache key varies over, besides its
// identifying path: a settings object serialized deterministically, and/or a
// content artifact.
type Variance struct {
	Settings any
	Artifact *domain.Artifact
}

// Result describes the outcome of one section run: whether the work (or the
// replayed cache entry) reported success, whether the cache carried the
// section, and the payload attached by the work or recovered from the entry.
type Result struct {
	Success bool
	Skipped bool
	Payload []byte
}

// RunSection executes one cacheable section, discarding the payload.
func (c *Context) RunSection(id []string, v Variance, skippable bool, work WorkFunc) (bool, error) {
	res, err := c.RunSectionResult(id, v, skippable, work)
	return res.Success, err
}

// RunSectionResult executes one cacheable section.
//
// The composite key is built from the identifying path under the current
// section, the hash of the serialized settings object, the content
// fingerprint of the input artifact, and the active override filter's
// fingerprint. When skippable and the store reports a hit, the work is not
// invoked and the cached entry is replayed, payload included; a near-zero
// measure marks the skip. Otherwise the work runs with a nested
// section-scoped context, results are committed on success only, and the
// measure is closed on every exit path, failures included.
func (c *Context) RunSectionResult(id []string, v Variance, skippable bool, work WorkFunc) (res Result, err error) {
	key, err := c.composeKey(id, v)
	if err != nil {
		return Result{}, err
	}
	name := key.String()

	m := c.openMeasure(strings.Join(id, domain.KeyDelimiter))
	start := time.Now()
	vertex := c.tracer.Record(name)
	defer func() {
		m.Elapsed = time.Since(start)
		m.Failed = err != nil || (!res.Success && !m.Skipped)
		c.closeMeasure()
		vertex.Complete(err)
	}()

	if skippable {
		entry, lookupErr := c.store.Lookup(key)
		if lookupErr != nil {
			// A broken entry is a miss, not a run failure; say so and rerun.
			c.log.Warn("cache entry unreadable, re-executing: " + name)
		} else if entry != nil {
			m.Skipped = true
			vertex.Cached()
			return Result{Success: entry.Success, Skipped: true, Payload: entry.Payload}, nil
		}
	}

	child := &Context{
		store:  c.store,
		hasher: c.hasher,
		filter: c.filter,
		log:    c.log,
		buf:    c.buf,
		tracer: c.tracer,
		state:  c.state,
		path:   key.Segments,
	}

	ok, workErr := work(child)
	if workErr != nil {
		return Result{}, zerr.With(zerr.Wrap(workErr, "section work failed"), "section", name)
	}
	if !ok {
		return Result{}, nil
	}

	if skippable {
		entry := domain.CacheEntry{
			Success:   true,
			Payload:   child.attached,
			Timestamp: time.Now(),
		}
		if commitErr := c.store.Commit(key, entry); commitErr != nil {
			return Result{}, zerr.With(zerr.Wrap(commitErr, "failed to commit section result"), "section", name)
		}
	}

	return Result{Success: true, Payload: child.attached}, nil
}

// Group opens a non-cacheable grouping section: it namespaces and measures
// its children but has no caching semantics of its own.
func (c *Context) Group(id []string, work WorkFunc) (bool, error) {
	return c.RunSection(id, Variance{}, false, work)
}

// composeKey builds the composite cache key for a section. Two invocations
// produce the same key iff the path, the settings hash, the artifact
// fingerprint, and the override fingerprint are all equal.
func (c *Context) composeKey(id []string, v Variance) (domain.CacheKey, error) {
	key := domain.CacheKey{Segments: c.path}.Child(id...)

	var parts []string
	if v.Settings != nil {
		data, err := json.Marshal(v.Settings)
		if err != nil {
			return domain.CacheKey{}, zerr.Wrap(err, "failed to serialize settings object")
		}
		parts = append(parts, "s:"+c.hasher.HashBytes(data))
	}
	if v.Artifact != nil {
		fp, err := c.hasher.HashArtifact(v.Artifact)
		if err != nil {
			return domain.CacheKey{}, zerr.With(zerr.Wrap(err, "failed to fingerprint artifact"), "artifact", v.Artifact.Name)
		}
		parts = append(parts, "a:"+fp)
	}
	if c.filter != nil {
		parts = append(parts, "o:"+c.filter.Fingerprint())
	}

	key.Variance = strings.Join(parts, "+")
	return key, nil
}

// openMeasure creates a measure nested under the innermost open section.
func (c *Context) openMeasure(id string) *domain.Measure {
	m := &domain.Measure{ID: id}
	if n := len(c.state.open); n > 0 {
		parent := c.state.open[n-1]
		parent.Children = append(parent.Children, m)
	} else {
		c.state.measures = append(c.state.measures, m)
	}
	c.state.open = append(c.state.open, m)
	return m
}

func (c *Context) closeMeasure() {
	c.state.open = c.state.open[:len(c.state.open)-1]
}
