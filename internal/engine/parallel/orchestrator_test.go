package parallel_test

import (
	"context"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/smelt/internal/adapters/cas"
	"go.trai.ch/smelt/internal/adapters/fs"
	"go.trai.ch/smelt/internal/adapters/logger"
	"go.trai.ch/smelt/internal/adapters/telemetry"
	"go.trai.ch/smelt/internal/core/domain"
	"go.trai.ch/smelt/internal/engine/parallel"
	"go.trai.ch/smelt/internal/engine/section"
)

func newRootContext(t *testing.T) (*section.Context, *logger.Buffer) {
	t.Helper()
	store, err := cas.Open(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	buf := logger.NewBuffer()
	return section.NewContext(store, fs.NewHasher(fs.NewProcessCache()), nil, buf, telemetry.NewNoOpTracer()), buf
}

func TestForEach_RunsAllItems(t *testing.T) {
	root, _ := newRootContext(t)

	var ran atomic.Int64
	err := parallel.ForEach(context.Background(), root,
		func(i int) string { return strconv.Itoa(i) },
		[]int{1, 2, 3, 4, 5},
		func(c *section.Context, item int) (bool, error) {
			ran.Add(1)
			return true, nil
		},
		nil,
		parallel.Options{Workers: 3},
	)
	require.NoError(t, err)
	assert.EqualValues(t, 5, ran.Load())
}

func TestForEach_OneFailureDoesNotStopOthers(t *testing.T) {
	store, err := cas.Open(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	hasher := fs.NewHasher(fs.NewProcessCache())

	work := func(c *section.Context, item int) (bool, error) {
		return c.RunSection([]string{"item", strconv.Itoa(item)}, section.Variance{}, true, func(s *section.Context) (bool, error) {
			return item != 3, nil
		})
	}
	name := func(i int) string { return strconv.Itoa(i) }
	items := []int{1, 2, 3, 4, 5}

	root := section.NewContext(store, hasher, nil, logger.NewBuffer(), telemetry.NewNoOpTracer())
	err = parallel.ForEach(context.Background(), root, name, items, work, nil, parallel.Options{Workers: 4})
	require.ErrorIs(t, err, domain.ErrSectionFailed)

	// Every item produced a measure in the parent, failure included.
	assert.Len(t, root.Measures(), 5)

	// The four successes were committed: a second batch over the same store
	// skips them and re-runs only the failed item.
	retry := section.NewContext(store, hasher, nil, logger.NewBuffer(), telemetry.NewNoOpTracer())
	err = parallel.ForEach(context.Background(), retry, name, items, work, nil, parallel.Options{Workers: 4})
	require.ErrorIs(t, err, domain.ErrSectionFailed)

	skipped := 0
	for _, m := range retry.Measures() {
		if m.Skipped {
			skipped++
		}
	}
	assert.Equal(t, 4, skipped)
}

func TestForEach_PrefilterDropsBeforeDispatch(t *testing.T) {
	root, _ := newRootContext(t)

	var ran atomic.Int64
	err := parallel.ForEach(context.Background(), root,
		func(i int) string { return strconv.Itoa(i) },
		[]int{1, 2, 3, 4},
		func(c *section.Context, item int) (bool, error) {
			ran.Add(1)
			return true, nil
		},
		func(item int) bool { return item%2 == 0 },
		parallel.Options{Workers: 2},
	)
	require.NoError(t, err)
	assert.EqualValues(t, 2, ran.Load(), "rejected items never reach a worker")
	assert.Empty(t, root.Measures(), "dropped items leave no trace")
}

func TestForEach_WorkerLogsStayContiguous(t *testing.T) {
	root, buf := newRootContext(t)

	items := []int{0, 1, 2, 3}
	err := parallel.ForEach(context.Background(), root,
		func(i int) string { return strconv.Itoa(i) },
		items,
		func(c *section.Context, item int) (bool, error) {
			prefix := "item" + strconv.Itoa(item)
			c.Logger().Info(prefix + " first")
			c.Logger().Info(prefix + " second")
			return true, nil
		},
		nil,
		parallel.Options{Workers: 4},
	)
	require.NoError(t, err)

	lines := buf.Lines()
	require.Len(t, lines, 8)
	for i := 0; i < len(lines); i += 2 {
		prefix := lines[i].Message[:len(lines[i].Message)-len(" first")]
		assert.Equal(t, prefix+" first", lines[i].Message)
		assert.Equal(t, prefix+" second", lines[i+1].Message, "one worker's lines must land as a block")
	}
}

func TestForEach_MergeTimeoutIsFatal(t *testing.T) {
	root, _ := newRootContext(t)

	// Hold the merge gate for the whole batch, so no worker can ever enter
	// the critical section.
	gate := make(chan struct{}, 1)
	gate <- struct{}{}

	err := parallel.ForEach(context.Background(), root,
		func(i int) string { return strconv.Itoa(i) },
		[]int{1},
		func(c *section.Context, item int) (bool, error) {
			c.Logger().Info("worked")
			return true, nil
		},
		nil,
		parallel.Options{Workers: 1, MergeTimeout: 20 * time.Millisecond, MergeGate: gate},
	)

	require.ErrorIs(t, err, domain.ErrMergeTimeout)
	assert.Empty(t, root.Measures(), "an unmerged worker must leave no partial state behind")
}

func TestForEach_CanceledContextStopsDispatch(t *testing.T) {
	root, _ := newRootContext(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Int64
	err := parallel.ForEach(ctx, root,
		func(i int) string { return strconv.Itoa(i) },
		[]int{1, 2, 3},
		func(c *section.Context, item int) (bool, error) {
			ran.Add(1)
			return true, nil
		},
		nil,
		parallel.Options{Workers: 2},
	)
	require.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, ran.Load())
}

func TestForEach_SerialWhenWorkersBelowOne(t *testing.T) {
	root, _ := newRootContext(t)

	var ran atomic.Int64
	err := parallel.ForEach(context.Background(), root,
		func(i int) string { return strconv.Itoa(i) },
		[]int{1, 2, 3},
		func(c *section.Context, item int) (bool, error) {
			ran.Add(1)
			return true, nil
		},
		nil,
		parallel.Options{},
	)
	require.NoError(t, err)
	assert.EqualValues(t, 3, ran.Load())
}
