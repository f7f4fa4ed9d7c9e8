package audit

import (
	"context"
	"log/slog"
	"sync"
)

// Sink receives drained audit records. Write is called from the emitter's
// worker goroutine, never from the request path.
type Sink interface {
	Write(ctx context.Context, rec *Record) error
	Close() error
}

// SlogSink writes each record through a structured logger. With a JSON
// handler the record appears as a nested object under the "record" key.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink writing to logger. A nil logger uses the
// process default.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default().With("component", "audit.sink")
	}
	return &SlogSink{logger: logger}
}

// Write implements Sink.
func (s *SlogSink) Write(ctx context.Context, rec *Record) error {
	s.logger.LogAttrs(ctx, slog.LevelInfo, EventSecurityDecision,
		slog.String("trace_id", rec.TraceID),
		slog.String("action", rec.Action),
		slog.Bool("allowed", rec.Allowed),
		slog.Any("record", rec),
	)
	return nil
}

// Close implements Sink.
func (s *SlogSink) Close() error { return nil }

// MemorySink keeps the most recent records in a bounded ring. Intended
// for tests and for embedders that surface audit data through their own
// channels.
type MemorySink struct {
	mu      sync.Mutex
	records []*Record
	max     int
}

// NewMemorySink creates a sink retaining at most max records; older
// records are evicted first. max below one keeps an unbounded log.
func NewMemorySink(max int) *MemorySink {
	return &MemorySink{max: max}
}

// Write implements Sink.
func (s *MemorySink) Write(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	if s.max > 0 && len(s.records) > s.max {
		overflow := len(s.records) - s.max
		s.records = append([]*Record{}, s.records[overflow:]...)
	}
	return nil
}

// Records returns a copy of the retained records, oldest first.
func (s *MemorySink) Records() []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of retained records.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Close implements Sink.
func (s *MemorySink) Close() error { return nil }
