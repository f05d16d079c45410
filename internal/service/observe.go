package service

import (
	"context"
	"sync"

	"repwise/repwise-app/internal/localdb"
)

// observe is the reactive half of the read API duality. It emits the fetch
// result once immediately, then again whenever any of the given tables
// changes. Emissions are coalesced: a slow consumer sees the latest state,
// never a backlog of stale ones. The returned cancel func must be called to
// release the subscription.
func observe[T any](ctx context.Context, hub *localdb.Hub, tables []string, fetch func(context.Context) (T, error)) (<-chan T, func(), error) {
	// Fail fast if the initial fetch is broken, so callers get the error on
	// the spot instead of a silent dead stream.
	initial, err := fetch(ctx)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan T, 1)
	trigger := make(chan struct{}, 1)
	stop := make(chan struct{})

	unsubscribe := hub.Subscribe(tables, func(string) {
		select {
		case trigger <- struct{}{}:
		default:
		}
	})

	emit := func(v T) bool {
		// Drop a stale pending emission before queueing the fresh one.
		select {
		case <-out:
		default:
		}
		select {
		case out <- v:
			return true
		case <-stop:
			return false
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(out)
		if !emit(initial) {
			return
		}
		for {
			select {
			case <-trigger:
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
			v, err := fetch(ctx)
			if err != nil {
				// A failed re-query skips the emission; the next change
				// retries. The stream itself stays alive.
				continue
			}
			if !emit(v) {
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			unsubscribe()
			close(stop)
		})
	}
	return out, cancel, nil
}
