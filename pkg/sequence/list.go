package sequence

import (
	"errors"
	"fmt"
	"iter"
)

var (
	ErrIndexOutOfRange = errors.New("sequence: index out of range")
	ErrInvalidCapacity = errors.New("sequence: capacity must be positive")
)

// List is a growable, indexable sequence that owns its elements.
// When an element leaves the list through Delete, RemoveIf or Clear the
// dispose function (if any) is called with it. Remove hands ownership back to
// the caller instead.
//
// Indices are not stable: removing an element shifts every later element one
// slot to the left.
type List[T any] struct {
	items   []T
	dispose func(T)
}

// NewList creates an empty list with room for capacity elements before it
// has to grow. It panics if capacity is not positive.
func NewList[T any](capacity int, dispose func(T)) *List[T] {
	if capacity <= 0 {
		panic(fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity))
	}
	return &List[T]{
		items:   make([]T, 0, capacity),
		dispose: dispose,
	}
}

func (l *List[T]) Len() int {
	return len(l.items)
}

func (l *List[T]) Cap() int {
	return cap(l.items)
}

func (l *List[T]) Get(index int) T {
	l.check(index)
	return l.items[index]
}

func (l *List[T]) Set(index int, value T) {
	l.check(index)
	l.items[index] = value
}

// Add appends value, growing the backing array to 2n+1 when full.
func (l *List[T]) Add(value T) {
	if len(l.items) == cap(l.items) {
		grown := make([]T, len(l.items), 2*cap(l.items)+1)
		copy(grown, l.items)
		l.items = grown
	}
	l.items = append(l.items, value)
}

// Remove detaches the element at index and returns it without disposing it.
func (l *List[T]) Remove(index int) T {
	l.check(index)
	value := l.items[index]
	copy(l.items[index:], l.items[index+1:])
	var zero T
	l.items[len(l.items)-1] = zero // avoid memory leak
	l.items = l.items[:len(l.items)-1]
	return value
}

// Delete removes the element at index and disposes it.
func (l *List[T]) Delete(index int) {
	l.release(l.Remove(index))
}

// IndexOf returns the index of the first element matching, or -1.
func (l *List[T]) IndexOf(match func(T) bool) int {
	for i, v := range l.items {
		if match(v) {
			return i
		}
	}
	return -1
}

func (l *List[T]) Contains(match func(T) bool) bool {
	return l.IndexOf(match) >= 0
}

// RemoveIf deletes every element for which pred returns true, keeping the
// relative order of the survivors. It returns the number of deleted elements.
func (l *List[T]) RemoveIf(pred func(T) bool) int {
	kept := l.items[:0]
	var removed []T
	for _, v := range l.items {
		if pred(v) {
			removed = append(removed, v)
			continue
		}
		kept = append(kept, v)
	}
	var zero T
	for i := len(kept); i < len(l.items); i++ {
		l.items[i] = zero
	}
	l.items = kept
	for _, v := range removed {
		l.release(v)
	}
	return len(removed)
}

// All iterates over index/element pairs. The list must not be modified
// during iteration.
func (l *List[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, v := range l.items {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Values iterates over the elements in order.
func (l *List[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range l.items {
			if !yield(v) {
				return
			}
		}
	}
}

// Clear disposes every element and leaves the list empty.
func (l *List[T]) Clear() {
	items := l.items
	l.items = l.items[:0]
	for _, v := range items {
		l.release(v)
	}
	var zero T
	for i := range items {
		items[i] = zero
	}
}

func (l *List[T]) release(v T) {
	if l.dispose != nil {
		l.dispose(v)
	}
}

func (l *List[T]) check(index int) {
	if index < 0 || index >= len(l.items) {
		panic(fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, index, len(l.items)))
	}
}
