package localdb

import "sync"

// Hub fans out post-commit table change notifications. Subscribers receive
// one callback per affected table per committed batch, in commit order; a
// subscriber that reacts to its own write sees that write's effect when it
// re-queries from the callback, because notifications only fire after the
// transaction is durable.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscription
}

type subscription struct {
	tables map[string]struct{} // empty means all tables
	fn     func(table string)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]*subscription)}
}

// Subscribe registers fn for changes on the given tables (all tables when
// none are named) and returns an unsubscribe func. The callback runs on the
// writer's goroutine; long work belongs elsewhere.
func (h *Hub) Subscribe(tables []string, fn func(table string)) (unsubscribe func()) {
	set := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		set[t] = struct{}{}
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = &subscription{tables: set, fn: fn}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Notify delivers one callback per (subscriber, table) pair.
func (h *Hub) Notify(tables ...string) {
	h.mu.Lock()
	subs := make([]*subscription, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, table := range tables {
		for _, s := range subs {
			if len(s.tables) > 0 {
				if _, ok := s.tables[table]; !ok {
					continue
				}
			}
			s.fn(table)
		}
	}
}
