// ABOUTME: Bounded, time-windowed set of recently handled event IDs
// ABOUTME: Seen is an atomic check-and-mark; old entries are pruned lazily

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// Defaults used by the Matrix bridge.
const (
	DefaultWindow   = 10 * time.Minute
	DefaultCapacity = 4096
)

type entry struct {
	key string
	at  time.Time
}

// Filter reports whether an event ID was already handled within the window.
// Entries are kept in arrival order, so pruning only ever looks at the front.
type Filter struct {
	mu       sync.Mutex
	index    map[string]*list.Element
	order    *list.List
	window   time.Duration
	capacity int
	now      func() time.Time
}

// New creates a Filter. Non-positive arguments fall back to the defaults.
func New(window time.Duration, capacity int) *Filter {
	if window <= 0 {
		window = DefaultWindow
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Filter{
		index:    make(map[string]*list.Element),
		order:    list.New(),
		window:   window,
		capacity: capacity,
		now:      time.Now,
	}
}

// Seen returns true if key was marked within the window. Otherwise it marks
// key and returns false.
func (f *Filter) Seen(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	f.pruneLocked(now)

	if _, ok := f.index[key]; ok {
		return true
	}

	for f.order.Len() >= f.capacity {
		f.removeLocked(f.order.Front())
	}
	f.index[key] = f.order.PushBack(entry{key: key, at: now})
	return false
}

// Len returns the number of remembered keys, expired ones included until
// the next Seen call prunes them.
func (f *Filter) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.order.Len()
}

func (f *Filter) pruneLocked(now time.Time) {
	for e := f.order.Front(); e != nil; e = f.order.Front() {
		if now.Sub(e.Value.(entry).at) < f.window {
			return
		}
		f.removeLocked(e)
	}
}

func (f *Filter) removeLocked(e *list.Element) {
	f.order.Remove(e)
	delete(f.index, e.Value.(entry).key)
}
