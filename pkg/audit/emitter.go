package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// EmitterConfig configures the async emitter.
type EmitterConfig struct {
	// Buffer is the capacity of the record channel.
	// Default: 256
	Buffer int

	// WriteTimeout bounds each sink write.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultEmitterConfig returns the default emitter configuration.
func DefaultEmitterConfig() *EmitterConfig {
	return &EmitterConfig{
		Buffer:       256,
		WriteTimeout: 5 * time.Second,
	}
}

// Emitter decouples audit writes from the request path. Emit enqueues and
// returns immediately; a worker goroutine drains the queue into the sink.
// Close drains whatever is queued before releasing the sink.
type Emitter struct {
	sink   Sink
	config *EmitterConfig
	ch     chan *Record
	done   chan struct{}
	wg     sync.WaitGroup
	logger *slog.Logger

	dropped   atomic.Uint64
	closeOnce sync.Once
	closeErr  error
}

// NewEmitter creates an emitter draining into sink and starts its worker.
func NewEmitter(sink Sink, config *EmitterConfig) *Emitter {
	if config == nil {
		config = DefaultEmitterConfig()
	}
	if config.Buffer < 1 {
		config.Buffer = DefaultEmitterConfig().Buffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultEmitterConfig().WriteTimeout
	}

	e := &Emitter{
		sink:   sink,
		config: config,
		ch:     make(chan *Record, config.Buffer),
		done:   make(chan struct{}),
		logger: slog.Default().With("component", "audit.emitter"),
	}

	e.wg.Add(1)
	go e.worker()

	return e
}

// Emit enqueues rec for asynchronous writing and reports whether it was
// accepted. A full buffer drops the record: audit must never hold up an
// inspection.
func (e *Emitter) Emit(rec *Record) bool {
	select {
	case <-e.done:
		e.dropped.Add(1)
		return false
	default:
	}

	select {
	case e.ch <- rec:
		return true
	default:
		n := e.dropped.Add(1)
		e.logger.Warn("audit buffer full, dropping record",
			"trace_id", rec.TraceID,
			"dropped_total", n,
		)
		return false
	}
}

// Dropped returns the number of records dropped since construction.
func (e *Emitter) Dropped() uint64 {
	return e.dropped.Load()
}

// Close drains queued records into the sink, then closes the sink. Safe
// to call more than once.
func (e *Emitter) Close() error {
	e.closeOnce.Do(func() {
		close(e.done)
		e.wg.Wait()
		e.closeErr = e.sink.Close()
	})
	return e.closeErr
}

func (e *Emitter) worker() {
	defer e.wg.Done()

	for {
		select {
		case rec := <-e.ch:
			e.write(rec)

		case <-e.done:
			// Drain whatever is queued before exiting.
			for {
				select {
				case rec := <-e.ch:
					e.write(rec)
				default:
					return
				}
			}
		}
	}
}

func (e *Emitter) write(rec *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), e.config.WriteTimeout)
	defer cancel()

	if err := e.sink.Write(ctx, rec); err != nil {
		e.logger.Error("failed to write audit record",
			"trace_id", rec.TraceID,
			"error", err,
		)
	}
}
