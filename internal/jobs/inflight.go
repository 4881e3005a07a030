package jobs

import (
	"sync"

	"github.com/sevigo/pr-warden/internal/core"
)

// inflight tracks which pull requests have a review running. A delivery for a
// busy key does not wait: it is parked as the pending rerun (latest wins) and
// the running worker picks it up when its pass ends.
type inflight struct {
	mu sync.Mutex
	// pending holds one entry per running key; a nil value means no rerun
	// has been requested.
	pending map[string]*core.PullRequestEvent
}

func newInflight() *inflight {
	return &inflight{pending: make(map[string]*core.PullRequestEvent)}
}

// begin claims key for the caller. When key is already running, event replaces
// any earlier pending rerun and begin reports false.
func (f *inflight) begin(key string, event *core.PullRequestEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, running := f.pending[key]; running {
		f.pending[key] = event
		return false
	}
	f.pending[key] = nil
	return true
}

// next hands the pending rerun to the owner of key. With nothing pending the
// key is released and next returns nil.
func (f *inflight) next(key string) *core.PullRequestEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	event := f.pending[key]
	if event == nil {
		delete(f.pending, key)
		return nil
	}
	f.pending[key] = nil
	return event
}

// abandon releases key, dropping any pending rerun.
func (f *inflight) abandon(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, key)
}

func (f *inflight) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}
