package notifier

import "sync"

// InFlightGuard prevents two goroutines from dispatching the same
// notification concurrently. The send cache only records completed sends;
// this guard covers the window while a dispatch is still running.
type InFlightGuard struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewInFlightGuard creates an empty guard.
func NewInFlightGuard() *InFlightGuard {
	return &InFlightGuard{keys: make(map[string]struct{})}
}

// TryAcquire claims the key for the caller. Returns false when another
// dispatch already holds it.
func (g *InFlightGuard) TryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.keys[key]; held {
		return false
	}
	g.keys[key] = struct{}{}
	return true
}

// Release frees the key. Safe to call for a key that was never acquired.
func (g *InFlightGuard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
}
