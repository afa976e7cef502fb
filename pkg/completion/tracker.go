package completion

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Tracker enforces last-request-wins across overlapping completion requests.
// Each request takes a Ticket; issuing a new ticket cancels the previous
// one, and results computed under a stale ticket are dropped.
type Tracker struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc

	group singleflight.Group
}

// Ticket identifies one completion request.
type Ticket struct {
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc
	t      *Tracker
}

// Begin issues a new ticket and supersedes all earlier ones.
func (t *Tracker) Begin(parent context.Context) *Ticket {
	ctx, cancel := context.WithCancel(parent)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
	t.gen++
	t.cancel = cancel

	return &Ticket{gen: t.gen, ctx: ctx, cancel: cancel, t: t}
}

// Generation returns the number of the most recently issued ticket.
func (t *Tracker) Generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}

// Gen returns the ticket's generation number.
func (k *Ticket) Gen() uint64 { return k.gen }

// Context is cancelled once a newer ticket is issued or Done is called.
func (k *Ticket) Context() context.Context { return k.ctx }

// Current reports whether no newer ticket has been issued.
func (k *Ticket) Current() bool {
	return k.t.Generation() == k.gen
}

// Done releases the ticket's context.
func (k *Ticket) Done() { k.cancel() }

// Run completes req under a fresh ticket. The result is discarded when a
// newer request was started before this one finished.
func (t *Tracker) Run(ctx context.Context, req Request, fetch Fetcher) (Result, bool) {
	tk := t.Begin(ctx)
	defer tk.Done()

	res, ok := Complete(tk.Context(), req, t.coalesce(fetch))
	if !ok || !tk.Current() {
		return Result{}, false
	}
	return res, true
}

// coalesce shares one backend call between requests for the same prefix
// that are in flight at the same time. A superseded caller stops waiting but
// the shared call runs to completion for the others.
func (t *Tracker) coalesce(fetch Fetcher) Fetcher {
	if fetch == nil {
		return nil
	}
	return func(ctx context.Context, prefix string) ([]Suggestion, error) {
		ch := t.group.DoChan(prefix, func() (any, error) {
			return fetch(context.WithoutCancel(ctx), prefix)
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
			s, _ := res.Val.([]Suggestion)
			return s, nil
		}
	}
}
