package fs

import (
	"context"

	"github.com/grindlemire/graft"
)

// ProcessCacheNodeID is the unique identifier for the process-wide hash cache node.
const ProcessCacheNodeID graft.ID = "adapter.fs.process_cache"

func init() {
	// The process-wide cache is the one piece of state that outlives a run.
	graft.Register(graft.Node[*ProcessCache]{
		ID:        ProcessCacheNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*ProcessCache, error) {
			return NewProcessCache(), nil
		},
	})
}
