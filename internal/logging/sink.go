// Package logging supplies the LogRecord Sink contract and two concrete
// sinks: a stdlib-log-backed line sink (default) and a
// modernc.org/sqlite-backed persistent sink. Only the Sink interface and
// the LogRecord schema it carries are contractual; whatever analytics
// pipeline ultimately consumes the stream is an external collaborator.
package logging

import (
	"fmt"
	"log"

	"github.com/orbsim/orbsim/internal/domain"
)

// Sink consumes LogRecords emitted by a running simulation. Write must not
// block the scheduler for long; logging is best-effort, and a
// back-pressured sink may drop entries rather than stall an epoch.
type Sink interface {
	Write(rec domain.LogRecord)
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(domain.LogRecord)

// Write implements Sink.
func (f SinkFunc) Write(rec domain.LogRecord) { f(rec) }

// LineSink is the default Sink: one line per record via the standard log
// package.
type LineSink struct {
	logger *log.Logger
}

// NewLineSink builds a LineSink writing through the given *log.Logger, or
// the standard logger if l is nil.
func NewLineSink(l *log.Logger) *LineSink {
	if l == nil {
		l = log.Default()
	}
	return &LineSink{logger: l}
}

// Write implements Sink.
func (s *LineSink) Write(rec domain.LogRecord) {
	s.logger.Printf("[sim] t=%.3f node=%d level=%s event=%s payload=%v",
		rec.SimTime, rec.NodeID, rec.Level, rec.EventKind, rec.Payload)
}

// AsyncSink wraps another Sink with a bounded channel and a single consumer
// goroutine, so Write never blocks the scheduler beyond a channel send;
// once the buffer is full, records are dropped rather than stalling the
// caller.
type AsyncSink struct {
	inner   Sink
	records chan domain.LogRecord
	dropped func(rec domain.LogRecord)
	done    chan struct{}
}

// NewAsyncSink builds an AsyncSink with the given buffer depth, draining
// into inner on a background goroutine. onDrop, if non-nil, is invoked
// (synchronously, on the caller's goroutine) whenever the buffer is full.
func NewAsyncSink(inner Sink, bufferDepth int, onDrop func(rec domain.LogRecord)) *AsyncSink {
	if bufferDepth <= 0 {
		bufferDepth = 1024
	}
	s := &AsyncSink{inner: inner, records: make(chan domain.LogRecord, bufferDepth), dropped: onDrop, done: make(chan struct{})}
	go s.drain()
	return s
}

func (s *AsyncSink) drain() {
	defer close(s.done)
	for rec := range s.records {
		s.inner.Write(rec)
	}
}

// Write implements Sink; it never blocks.
func (s *AsyncSink) Write(rec domain.LogRecord) {
	select {
	case s.records <- rec:
	default:
		if s.dropped != nil {
			s.dropped(rec)
		}
	}
}

// Close stops accepting new records and waits for the drain goroutine to
// finish flushing whatever was already buffered.
func (s *AsyncSink) Close() {
	close(s.records)
	<-s.done
}

// NewFromHandler builds the Sink named by a scenario's simlogsetup.loghandler
// key: "line" (default) or "sqlite" (requires dbPath). Unknown handler
// names fall back to a line sink rather than failing the run.
func NewFromHandler(handler, dbPath string) (Sink, func() error, error) {
	switch handler {
	case "", "line":
		return NewLineSink(nil), func() error { return nil }, nil
	case "sqlite":
		sink, err := NewSQLiteSink(dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite log sink: %w", err)
		}
		return sink, sink.Close, nil
	default:
		return NewLineSink(nil), func() error { return nil }, nil
	}
}
