package service

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// OperationEvent records one service operation after it finishes: a
// permission resolution or a workflow write. Attrs carry operation detail
// such as the delivery id and target stage. A degraded permission lookup
// surfaces here even though Resolve itself never returns the error.
type OperationEvent struct {
	Op      string
	Elapsed time.Duration
	Err     error
	Attrs   map[string]any
}

// OperationObserver consumes operation events. Services take observers as
// optional trailing constructor arguments; passing none disables logging.
type OperationObserver interface {
	Observe(ctx context.Context, e OperationEvent)
}

// NoopObserver discards every event.
type NoopObserver struct{}

func (NoopObserver) Observe(context.Context, OperationEvent) {}

type slogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver logs one text line per operation to w, at error level when
// the operation failed. The CLI points this at stderr when log_use_cases is
// set in the config.
func NewSlogObserver(w io.Writer) OperationObserver {
	if w == nil {
		return NoopObserver{}
	}
	return &slogObserver{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

func (o *slogObserver) Observe(ctx context.Context, e OperationEvent) {
	args := make([]any, 0, 4+len(e.Attrs)*2)
	args = append(args, "elapsed_ms", e.Elapsed.Milliseconds())
	for k, v := range e.Attrs {
		args = append(args, k, v)
	}
	if e.Err != nil {
		args = append(args, "error", e.Err.Error())
		o.logger.ErrorContext(ctx, e.Op, args...)
		return
	}
	o.logger.InfoContext(ctx, e.Op, args...)
}

// observerOrNoop picks the first non-nil observer from a variadic list.
func observerOrNoop(observers []OperationObserver) OperationObserver {
	for _, obs := range observers {
		if obs != nil {
			return obs
		}
	}
	return NoopObserver{}
}
