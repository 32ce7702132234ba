// Package arena provides dense, append-only storage addressed by 1-based
// indices. Index 0 is reserved as "none" so that zero-valued ID fields read
// as absent.
package arena

import (
	"fmt"

	"fortio.org/safecast"
)

// ID is any dense identifier backed by uint32.
type ID interface{ ~uint32 }

type Arena[K ID, T any] struct {
	data []T
}

// New creates an arena whose backing slice is allocated with capHint capacity.
func New[K ID, T any](capHint int) *Arena[K, T] {
	if capHint < 0 {
		capHint = 0
	}
	return &Arena[K, T]{data: make([]T, 0, capHint)}
}

// Allocate stores value and returns its index (1-based).
func (a *Arena[K, T]) Allocate(value T) K {
	a.data = append(a.data, value)
	n, err := safecast.Conv[uint32](len(a.data))
	if err != nil {
		panic(fmt.Errorf("arena overflow: %w", err))
	}
	return K(n)
}

// Get returns a pointer to the element or nil for the zero index.
func (a *Arena[K, T]) Get(id K) *T {
	if id == 0 || int(id) > len(a.data) {
		return nil
	}
	return &a.data[id-1]
}

// Len reports the number of allocated elements.
func (a *Arena[K, T]) Len() int {
	if a == nil {
		return 0
	}
	return len(a.data)
}

// Slice is read-only; element i has ID i+1.
func (a *Arena[K, T]) Slice() []T {
	return a.data
}

// Each walks elements in allocation order.
func (a *Arena[K, T]) Each(fn func(K, *T)) {
	for i := range a.data {
		fn(K(uint32(i)+1), &a.data[i])
	}
}

// Reset drops all elements but keeps the backing capacity.
func (a *Arena[K, T]) Reset() {
	clear(a.data)
	a.data = a.data[:0]
}

// Counter hands out increasing IDs starting after an initial value.
type Counter[K ID] struct {
	next uint32
}

// NewCounter creates a counter whose first ID is start+1.
func NewCounter[K ID](start K) *Counter[K] {
	return &Counter[K]{next: uint32(start)}
}

// Next returns a fresh ID.
func (c *Counter[K]) Next() K {
	if c.next == ^uint32(0) {
		panic("arena counter overflow")
	}
	c.next++
	return K(c.next)
}

// Peek returns the last ID handed out.
func (c *Counter[K]) Peek() K {
	return K(c.next)
}

// Index converts a slice length or position into an ID-sized value.
func Index[K ID](n int) K {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("index overflow: %w", err))
	}
	return K(v)
}
