package logger

import (
	"log/slog"
	"sync"

	"go.trai.ch/smelt/internal/core/ports"
)

var _ ports.Logger = (*Buffer)(nil)

// Line is one buffered log record.
type Line struct {
	Level   slog.Level
	Message string
	Err     error
}

// Buffer is an in-memory log sink owned by one worker context. Lines keep
// their original order and are replayed into the parent sink at merge time,
// so a worker's output stays contiguous and attributable.
type Buffer struct {
	mu    sync.Mutex
	lines []Line
}

// NewBuffer creates an empty log buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Info buffers an informational message.
func (b *Buffer) Info(msg string) {
	b.append(Line{Level: slog.LevelInfo, Message: msg})
}

// Warn buffers a warning message.
func (b *Buffer) Warn(msg string) {
	b.append(Line{Level: slog.LevelWarn, Message: msg})
}

// Error buffers an error.
func (b *Buffer) Error(err error) {
	b.append(Line{Level: slog.LevelError, Err: err})
}

func (b *Buffer) append(l Line) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, l)
}

// Lines returns a copy of the buffered lines in append order.
func (b *Buffer) Lines() []Line {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Line, len(b.lines))
	copy(out, b.lines)
	return out
}

// FlushTo replays all buffered lines into dst in order and empties the
// buffer. The caller serializes concurrent flushes into the same dst.
func (b *Buffer) FlushTo(dst ports.Logger) {
	b.mu.Lock()
	lines := b.lines
	b.lines = nil
	b.mu.Unlock()

	for _, l := range lines {
		switch l.Level {
		case slog.LevelWarn:
			dst.Warn(l.Message)
		case slog.LevelError:
			dst.Error(l.Err)
		default:
			dst.Info(l.Message)
		}
	}
}
