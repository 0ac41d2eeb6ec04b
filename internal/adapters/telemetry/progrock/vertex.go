package progrock

import (
	"fmt"

	"github.com/vito/progrock"
)

// Vertex wraps *progrock.VertexRecorder behind ports.Vertex.
type Vertex struct {
	vertex *progrock.VertexRecorder
}

// Log records a log line on the vertex's output stream.
func (v *Vertex) Log(msg string) {
	_, _ = fmt.Fprintln(v.vertex.Stdout(), msg)
}

// Cached marks the vertex as a cache hit.
func (v *Vertex) Cached() {
	v.vertex.Cached()
}

// Complete marks the vertex as finished, successfully or with an error.
func (v *Vertex) Complete(err error) {
	v.vertex.Done(err)
}
