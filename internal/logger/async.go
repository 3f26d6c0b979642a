package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Closer allows flushing and stopping the async handler.
type Closer interface {
	Close()
}

// nopCloser is a no-op Closer for synchronous mode.
type nopCloser struct{}

func (nopCloser) Close() {}

// queued is a record together with the handler that must write it.
type queued struct {
	handler slog.Handler
	rec     slog.Record
}

// asyncState is shared by an AsyncHandler and every handler derived from it.
type asyncState struct {
	ch      chan queued
	wg      sync.WaitGroup
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// AsyncHandler hands records to a worker pool through a buffered channel.
// Records are dropped, not blocked on, when the buffer is full or the
// handler is closed.
type AsyncHandler struct {
	inner slog.Handler
	state *asyncState
}

// NewAsyncHandler creates an AsyncHandler with the given channel capacity and worker count.
func NewAsyncHandler(inner slog.Handler, chanSize, workers int) *AsyncHandler {
	if workers < 1 {
		workers = 1
	}
	st := &asyncState{ch: make(chan queued, chanSize)}
	h := &AsyncHandler{inner: inner, state: st}
	for range workers {
		st.wg.Add(1)
		go st.drain()
	}
	return h
}

func (st *asyncState) drain() {
	defer st.wg.Done()
	for q := range st.ch {
		_ = q.handler.Handle(context.Background(), q.rec)
	}
}

// Enabled delegates to the inner handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues the record, attaching the request ID from ctx if present.
func (h *AsyncHandler) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	if id := RequestID(ctx); id != "" {
		rec = rec.Clone()
		rec.AddAttrs(slog.String("request_id", id))
	}

	h.state.mu.RLock()
	defer h.state.mu.RUnlock()
	if h.state.closed {
		h.state.dropped.Add(1)
		return nil
	}
	select {
	case h.state.ch <- queued{handler: h.inner, rec: rec}:
	default:
		h.state.dropped.Add(1)
	}
	return nil
}

// WithAttrs returns a handler sharing the same queue around a new inner handler.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), state: h.state}
}

// WithGroup returns a handler sharing the same queue around a new inner handler.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), state: h.state}
}

// DroppedCount returns the number of dropped records.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.state.dropped.Load()
}

// Close stops accepting records and waits for queued ones to drain.
// Calling Close more than once is safe.
func (h *AsyncHandler) Close() {
	h.state.mu.Lock()
	if h.state.closed {
		h.state.mu.Unlock()
		return
	}
	h.state.closed = true
	close(h.state.ch)
	h.state.mu.Unlock()

	h.state.wg.Wait()
}
