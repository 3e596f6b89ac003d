package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// swappableHandler is a slog.Handler whose target can be replaced while
// loggers built on it stay valid. The manager starts on a stderr-only
// handler and swaps in the fanout once the log file location is known.
type swappableHandler struct {
	target atomic.Pointer[slog.Handler]
}

func newSwappableHandler(initial slog.Handler) *swappableHandler {
	h := &swappableHandler{}
	h.target.Store(&initial)
	return h
}

// swap replaces the underlying handler. Safe to call concurrently with
// logging.
func (h *swappableHandler) swap(next slog.Handler) {
	h.target.Store(&next)
}

func (h *swappableHandler) current() slog.Handler {
	return *h.target.Load()
}

func (h *swappableHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.current().Enabled(ctx, level)
}

func (h *swappableHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.current().Handle(ctx, r)
}

func (h *swappableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return newSwappableHandler(h.current().WithAttrs(attrs))
}

func (h *swappableHandler) WithGroup(name string) slog.Handler {
	return newSwappableHandler(h.current().WithGroup(name))
}
