package httpclient

import (
	"context"
	"sync"
)

type inflightCall struct {
	id     uint64
	cancel context.CancelFunc
}

// inflight tracks keyed requests. Starting a request under a key cancels
// the one already running under it.
type inflight struct {
	mu    sync.Mutex
	seq   uint64
	calls map[string]inflightCall
}

func newInflight() *inflight {
	return &inflight{calls: make(map[string]inflightCall)}
}

func (f *inflight) begin(ctx context.Context, key string) (context.Context, func()) {

	if key == "" {
		return ctx, func() {}
	}

	ctx, cancel := context.WithCancel(ctx)

	f.mu.Lock()
	if prev, ok := f.calls[key]; ok {
		prev.cancel()
	}
	f.seq++
	id := f.seq
	f.calls[key] = inflightCall{id: id, cancel: cancel}
	f.mu.Unlock()

	done := func() {
		f.mu.Lock()
		if cur, ok := f.calls[key]; ok && cur.id == id {
			delete(f.calls, key)
		}
		f.mu.Unlock()
		cancel()
	}

	return ctx, done
}

func (f *inflight) cancel(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	call, ok := f.calls[key]
	if ok {
		call.cancel()
		delete(f.calls, key)
	}

	return ok
}
