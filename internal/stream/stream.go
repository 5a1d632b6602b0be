// Package stream provides a current-value stream: a single-writer,
// multi-reader state holder where every subscriber sees the latest
// value. Slow subscribers are conflated (intermediate values dropped),
// never blocked on, so the observer tick loop cannot stall on a
// consumer.
package stream

import "sync"

// Value holds the latest value of type T and fans updates out to
// subscribers. The zero value is not usable; construct with New.
type Value[T any] struct {
	mu   sync.Mutex
	cur  T
	subs map[int]chan T
	next int
}

// New creates a stream seeded with an initial value.
func New[T any](initial T) *Value[T] {
	return &Value[T]{
		cur:  initial,
		subs: make(map[int]chan T),
	}
}

// Get returns the latest value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur
}

// Set publishes a new value to all subscribers. A subscriber that has
// not drained its channel loses the older value, keeping delivery
// non-blocking.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cur = x
	for _, ch := range v.subs {
		select {
		case ch <- x:
		default:
			// Conflate: replace the stale pending value.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- x:
			default:
			}
		}
	}
}

// Subscribe registers a consumer. The channel is primed with the
// current value so late subscribers start from known state. The cancel
// function removes the subscription; the channel is never closed, so a
// racing Set cannot panic.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.next
	v.next++
	ch := make(chan T, 1)
	ch <- v.cur
	v.subs[id] = ch

	cancel := func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.subs, id)
	}
	return ch, cancel
}
