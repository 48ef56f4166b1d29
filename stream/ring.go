package stream

import (
	"sort"
	"sync"
)

// SortingRingBuffer is a bounded window that keeps its contents sorted
// on insert. When full, Add evicts the minimum to make room.
type SortingRingBuffer[T any] struct {
	mu   sync.Mutex
	buf  []T
	size int
	cmp  func(a, b T) int
}

func NewSortingRingBuffer[T any](size int, cmp func(a, b T) int) *SortingRingBuffer[T] {
	return &SortingRingBuffer[T]{
		buf:  make([]T, 0, size),
		size: size,
		cmp:  cmp,
	}
}

// Add inserts value at its sorted position, evicting the minimum first
// if the buffer is full.
func (rb *SortingRingBuffer[T]) Add(value T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if len(rb.buf) == rb.size {
		copy(rb.buf, rb.buf[1:])
		rb.buf = rb.buf[:len(rb.buf)-1]
	}
	i := sort.Search(len(rb.buf), func(i int) bool {
		return rb.cmp(rb.buf[i], value) > 0
	})
	rb.buf = append(rb.buf, value)
	copy(rb.buf[i+1:], rb.buf[i:])
	rb.buf[i] = value
}

// PopFirst removes and returns the minimum. It panics on an empty
// buffer, same as indexing would.
func (rb *SortingRingBuffer[T]) PopFirst() T {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	v := rb.buf[0]
	copy(rb.buf, rb.buf[1:])
	rb.buf = rb.buf[:len(rb.buf)-1]
	return v
}

func (rb *SortingRingBuffer[T]) First() T {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.buf[0]
}

func (rb *SortingRingBuffer[T]) Last() T {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.buf[len(rb.buf)-1]
}

func (rb *SortingRingBuffer[T]) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return len(rb.buf)
}

func (rb *SortingRingBuffer[T]) Full() bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return len(rb.buf) == rb.size
}

// Get returns a copy of the window in sorted order.
func (rb *SortingRingBuffer[T]) Get() []T {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	out := make([]T, len(rb.buf))
	copy(out, rb.buf)
	return out
}
