// Package section implements the sectioned caching executor: the central
// primitive that decides whether a unit of work can be skipped because an
// equivalent result was already produced.
package section

import (
	"go.trai.ch/smelt/internal/adapters/logger"
	"go.trai.ch/smelt/internal/core/domain"
	"go.trai.ch/smelt/internal/core/ports"
)

// state is the mutable per-worker accumulator: the measure list and the
// stack of currently open measures. A state is owned by exactly one worker
// until merge time.
type state struct {
	measures []*domain.Measure
	open     []*domain.Measure
}

// Context is the execution context of one worker. It shares the durable
// collaborators (cache store, hasher, override filter, tracer) with its
// parent but owns its own log sink and measure accumulator. The current
// cache section is carried as an explicit path, so nested sections compose
// hierarchical keys instead of thread-ambient state.
type Context struct {
	store  ports.CacheStore
	hasher ports.Hasher
	filter *domain.OverrideFilter
	log    ports.Logger
	buf    *logger.Buffer
	tracer ports.Tracer
	state  *state
	path   []string

	// attached is the payload the current section's work reported for
	// caching, if any. Local to one RunSection invocation.
	attached []byte
}

// NewContext creates the root context of a run.
func NewContext(store ports.CacheStore, hasher ports.Hasher, filter *domain.OverrideFilter, log ports.Logger, tracer ports.Tracer) *Context {
	return &Context{
		store:  store,
		hasher: hasher,
		filter: filter,
		log:    log,
		tracer: tracer,
		state:  &state{},
	}
}

// Fork clones the context for one parallel work item: shared durable
// references, fresh log buffer and measure accumulator.
func (c *Context) Fork() *Context {
	buf := logger.NewBuffer()
	return &Context{
		store:  c.store,
		hasher: c.hasher,
		filter: c.filter,
		log:    buf,
		buf:    buf,
		tracer: c.tracer,
		state:  &state{},
		path:   c.path,
	}
}

// Merge transfers a forked child's buffered log lines and measures into
// this context. The caller must serialize concurrent merges.
func (c *Context) Merge(child *Context) {
	if child.buf != nil {
		child.buf.FlushTo(c.log)
	}
	c.state.measures = append(c.state.measures, child.state.measures...)
}

// Logger returns the context's log sink. For forked contexts this is the
// worker's private buffer.
func (c *Context) Logger() ports.Logger {
	return c.log
}

// Filter returns the active override filter, or nil when no override is active.
func (c *Context) Filter() *domain.OverrideFilter {
	return c.filter
}

// Hasher returns the run's content hasher.
func (c *Context) Hasher() ports.Hasher {
	return c.hasher
}

// Measures returns the closed top-level measures accumulated so far.
func (c *Context) Measures() []*domain.Measure {
	return c.state.measures
}

// Attach reports a payload worth caching for the currently running section.
// It is committed together with the section's success entry.
func (c *Context) Attach(payload []byte) {
	c.attached = payload
}
