// Package parallel fans work items out across a bounded worker pool, giving
// each item an isolated execution context and merging per-item logs and
// measures back into the parent in a well-defined order.
package parallel

import (
	"context"
	"errors"
	"time"

	"go.trai.ch/smelt/internal/core/domain"
	"go.trai.ch/smelt/internal/engine/section"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// DefaultMergeTimeout bounds the wait for the log/measure merge lock.
// Exceeding it is fatal to the run: silently dropping a worker's logs would
// defeat observability of the whole run.
const DefaultMergeTimeout = 10 * time.Second

// Options configures a ForEach batch.
type Options struct {
	// Workers bounds the pool size. Values < 1 run the batch serially.
	Workers int
	// MergeTimeout overrides DefaultMergeTimeout when positive.
	MergeTimeout time.Duration
	// MergeGate overrides the internal merge critical section when non-nil.
	// Must have capacity 1. Used for testing contention.
	MergeGate chan struct{}
}

// ForEach executes work for every item on a bounded worker pool.
//
// Items are first passed through prefilter sequentially; an item it rejects
// is dropped before a worker slot is spent on it. Every surviving item gets
// a context forked from parent, and after its work completes the forked
// context is merged back under a single critical section, so one worker's
// buffered log lines always land contiguously. Per-item failures are
// collected and joined; they do not stop the other items. A merge-lock
// timeout aborts the batch with domain.ErrMergeTimeout.
func ForEach[T any](
	ctx context.Context,
	parent *section.Context,
	name func(T) string,
	items []T,
	work func(c *section.Context, item T) (bool, error),
	prefilter func(T) bool,
	opts Options,
) error {
	survivors := make([]T, 0, len(items))
	for _, item := range items {
		if prefilter != nil && !prefilter(item) {
			continue
		}
		survivors = append(survivors, item)
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	timeout := opts.MergeTimeout
	if timeout <= 0 {
		timeout = DefaultMergeTimeout
	}

	mergeLock := opts.MergeGate
	if mergeLock == nil {
		mergeLock = make(chan struct{}, 1)
	}
	var itemErrs error // guarded by mergeLock

	var g errgroup.Group
	g.SetLimit(workers)

	var dispatchErr error
	for _, item := range survivors {
		if err := ctx.Err(); err != nil {
			dispatchErr = err
			break
		}
		fork := parent.Fork()
		g.Go(func() error {
			ok, err := work(fork, item)
			if err == nil && !ok {
				err = zerr.With(zerr.Wrap(domain.ErrSectionFailed, "work item failed"), "item", name(item))
			}

			select {
			case mergeLock <- struct{}{}:
			default:
				// Contended; wait, but only up to the bound.
				select {
				case mergeLock <- struct{}{}:
				case <-time.After(timeout):
					return zerr.With(zerr.Wrap(domain.ErrMergeTimeout, "could not merge worker results"), "item", name(item))
				}
			}
			defer func() { <-mergeLock }()

			parent.Merge(fork)
			if err != nil {
				itemErrs = errors.Join(itemErrs, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Fatal condition (merge timeout); item errors still matter.
		return errors.Join(err, itemErrs, dispatchErr)
	}
	return errors.Join(itemErrs, dispatchErr)
}
