package main

import (
	"context"
	"log/slog"
)

type auditWriter interface {
	Close(context.Context) error
	Dropped() int64
}

type poolCloser interface {
	Close()
}

// resources holds what main opens after configuration loads. release
// drains the audit writer before closing the pool it writes through.
type resources struct {
	audit     auditWriter
	pool      poolCloser
	shutdowns []func(context.Context) error
}

func (r *resources) release(ctx context.Context) {
	if r.audit != nil {
		if err := r.audit.Close(ctx); err != nil {
			slog.Error("audit writer did not drain", "error", err, "dropped", r.audit.Dropped())
		}
	}
	if r.pool != nil {
		r.pool.Close()
	}
	for _, shutdown := range r.shutdowns {
		if err := shutdown(ctx); err != nil {
			slog.Error("metrics shutdown error", "error", err)
		}
	}
}
