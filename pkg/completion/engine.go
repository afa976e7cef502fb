package completion

import (
	"context"
	"errors"
	"log/slog"
)

// Engine binds a suggestion source to a Tracker. It is safe for concurrent
// use; only the latest request's result is ever returned.
type Engine struct {
	fetch   Fetcher
	tracker Tracker
	logger  *slog.Logger
}

// NewEngine creates an engine over fetch. A nil logger discards output.
func NewEngine(fetch Fetcher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{fetch: fetch, logger: logger}
}

// Complete computes a completion for req. Backend failures are logged at
// debug level and reported as no completion.
func (e *Engine) Complete(ctx context.Context, req Request) (Result, bool) {
	return e.tracker.Run(ctx, req, e.logged())
}

// Begin issues a ticket for callers that run the fetch themselves, such as
// UI loops that deliver results as messages.
func (e *Engine) Begin(ctx context.Context) *Ticket {
	return e.tracker.Begin(ctx)
}

// CompleteWith computes a completion under an existing ticket. The result is
// dropped when the ticket is no longer current.
func (e *Engine) CompleteWith(tk *Ticket, req Request) (Result, bool) {
	res, ok := Complete(tk.Context(), req, e.logged())
	if !ok || !tk.Current() {
		return Result{}, false
	}
	return res, true
}

func (e *Engine) logged() Fetcher {
	if e.fetch == nil {
		return nil
	}
	return func(ctx context.Context, prefix string) ([]Suggestion, error) {
		s, err := e.fetch(ctx, prefix)
		if err != nil && !errors.Is(err, context.Canceled) {
			e.logger.Debug("completion fetch failed", "prefix", prefix, "error", err)
		}
		return s, err
	}
}
