package domain

import "time"

// Measure records the elapsed time of one section, with nested child
// records for sections opened inside it. A measure is created when the
// section begins and closed on every exit path, failures included.
type Measure struct {
	ID       string
	Elapsed  time.Duration
	Skipped  bool
	Failed   bool
	Children []*Measure
}

// Count returns the number of measures in the tree rooted at m, m included.
func (m *Measure) Count() int {
	n := 1
	for _, c := range m.Children {
		n += c.Count()
	}
	return n
}

// Warning is the acknowledged result of a best-effort operation that
// partially failed, such as a purge that could not delete every file.
type Warning struct {
	Op   string
	Path string
	Err  error
}
