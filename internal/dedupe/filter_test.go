// ABOUTME: Tests for the event ID filter
// ABOUTME: Validates the window, capacity eviction, and concurrent check-and-mark

package dedupe

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestFilter(window time.Duration, capacity int) (*Filter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
	f := New(window, capacity)
	f.now = clock.now
	return f, clock
}

func TestFilter_FirstSightingIsNew(t *testing.T) {
	f, _ := newTestFilter(time.Minute, 10)

	assert.False(t, f.Seen("$event1"))
	assert.True(t, f.Seen("$event1"))
	assert.True(t, f.Seen("$event1"))
	assert.False(t, f.Seen("$event2"))
	assert.Equal(t, 2, f.Len())
}

func TestFilter_ForgetsAfterWindow(t *testing.T) {
	f, clock := newTestFilter(time.Minute, 10)

	f.Seen("$old")
	clock.advance(30 * time.Second)
	f.Seen("$newer")
	assert.True(t, f.Seen("$old"))

	clock.advance(31 * time.Second)
	// $old is past the window, $newer is not.
	assert.False(t, f.Seen("$old"))
	assert.True(t, f.Seen("$newer"))
}

func TestFilter_DuplicateDoesNotExtendWindow(t *testing.T) {
	f, clock := newTestFilter(time.Minute, 10)

	f.Seen("$e")
	clock.advance(50 * time.Second)
	assert.True(t, f.Seen("$e"))
	clock.advance(11 * time.Second)
	assert.False(t, f.Seen("$e"))
}

func TestFilter_CapacityEvictsOldest(t *testing.T) {
	f, _ := newTestFilter(time.Hour, 3)

	f.Seen("a")
	f.Seen("b")
	f.Seen("c")
	f.Seen("d")

	assert.Equal(t, 3, f.Len())
	assert.True(t, f.Seen("d"))
	assert.True(t, f.Seen("c"))
	assert.True(t, f.Seen("b"))
	// "a" was evicted, so it is new again (and evicts "b").
	assert.False(t, f.Seen("a"))
	assert.False(t, f.Seen("b"))
}

func TestFilter_Defaults(t *testing.T) {
	f := New(0, -1)
	assert.Equal(t, DefaultWindow, f.window)
	assert.Equal(t, DefaultCapacity, f.capacity)
}

func TestFilter_ConcurrentSeenIsAtomic(t *testing.T) {
	f := New(time.Minute, 1000)

	var fresh atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !f.Seen("$same") {
				fresh.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), fresh.Load())
}

func TestFilter_ConcurrentDistinctKeys(t *testing.T) {
	f := New(time.Minute, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				assert.False(t, f.Seen(fmt.Sprintf("$%d-%d", i, j)))
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 200, f.Len())
}
