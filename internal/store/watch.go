package store

import (
	"context"
	"sync"
)

// watchHub fans progress records out to in-process subscribers. Each
// subscriber channel holds at most one record; a slow reader only ever sees
// the latest state. A nil record means the learner was reset.
type watchHub struct {
	mu     sync.Mutex
	subs   map[string]map[chan *ProgressRecord]struct{}
	closed bool
}

func newWatchHub() *watchHub {
	return &watchHub{subs: make(map[string]map[chan *ProgressRecord]struct{})}
}

func (h *watchHub) subscribe(ctx context.Context, key string, initial *ProgressRecord) <-chan *ProgressRecord {
	ch := make(chan *ProgressRecord, 1)
	ch <- initial

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch
	}
	if h.subs[key] == nil {
		h.subs[key] = make(map[chan *ProgressRecord]struct{})
	}
	h.subs[key][ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[key][ch]; ok {
			delete(h.subs[key], ch)
			if len(h.subs[key]) == 0 {
				delete(h.subs, key)
			}
			close(ch)
		}
	}()
	return ch
}

func (h *watchHub) watched(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[key]) > 0
}

func (h *watchHub) publish(key string, rec *ProgressRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[key] {
		// Replace any unread record with the newer one.
		select {
		case ch <- rec:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- rec:
			default:
			}
		}
	}
}

func (h *watchHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for key, set := range h.subs {
		for ch := range set {
			close(ch)
		}
		delete(h.subs, key)
	}
}
