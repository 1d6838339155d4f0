// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import "code.hybscloud.com/atomix"

// Bounded is a fixed-capacity MPMC queue built from two independent
// index rings of the same lock-free algorithm (SCQ or LPRQ): one ring
// tracks free slots, the other tracks allocated (populated) slots. A
// separate value array holds the actual elements; the rings only ever
// move slot indices between each other.
//
// This mirrors the teacher's existing split between a ring-of-cycle-tags
// and a value array (the FAA cycle-tagged cell technique scqEngine
// generalizes), turned into a ring-of-rings so the same value array can
// be addressed by either the free list or the allocated list at any
// given time, matching zisc's LockFreeQueue composed over
// ScalableCircularRingBuffer/PortableRingBuffer.
//
// Bounded[T] implements [Producer], [Consumer], and [Drainer]: Drain
// folds in the same draining-flag idiom the teacher's FAA queues use so
// consumers can empty the backlog after producers stop without waiting
// on the allocated ring's threshold heuristic.
//
// Concurrent Enqueue/Dequeue calls are safe from any number of
// goroutines, subject to the usual lock-free caveat that correctness
// assumes the number of concurrently active callers does not exceed the
// queue's capacity — a caller-side invariant, not runtime enforced.
// Capacity is clamped to at least 1 (original_source's setCapacity does
// the same, clamping rather than rejecting); a capacity-1 queue still
// supports interleaved Enqueue/Dequeue from any number of goroutines
// without livelock, since a full free ring and a full allocated ring
// are never observed at once.
type Bounded[T any] struct {
	free      ringEngine
	allocated ringEngine
	slots     *slots[T]

	newEngine  func() ringEngine
	ringOffset uint64 // 1 for SCQ (cell array is 2x capacity), 0 for LPRQ
	alloc      Allocator
	capacity   uint64 // capacity, rounded to a power of 2
	draining   atomix.Bool
}

func newBounded[T any](capacity int, newEngine func() ringEngine, ringOffset uint64, alloc Allocator) *Bounded[T] {
	b := &Bounded[T]{
		newEngine:  newEngine,
		ringOffset: ringOffset,
		alloc:      alloc,
	}
	b.setCapacity(uint64(roundToPow2(capacity)))
	return b
}

// NewBoundedSCQ creates a Bounded queue using the SCQ ring algorithm and
// the package's DefaultAllocator for ring cell storage. Capacity is
// clamped to at least 1 and rounded up to a power of 2.
func NewBoundedSCQ[T any](capacity int) *Bounded[T] {
	return newBounded[T](capacity, func() ringEngine { return &scqEngine{} }, 1, defaultAllocator)
}

// NewBoundedLPRQ creates a Bounded queue using the LPRQ ring algorithm
// and the package's DefaultAllocator for ring cell storage. Capacity is
// clamped to at least 1 and rounded up to a power of 2.
func NewBoundedLPRQ[T any](capacity int) *Bounded[T] {
	return newBounded[T](capacity, func() ringEngine { return &lprqEngine{} }, 0, defaultAllocator)
}

// NewBoundedSCQWithAllocator is NewBoundedSCQ with a caller-supplied
// Allocator in place of the shared package-level DefaultAllocator (for
// example, a pool scoped to one subsystem rather than shared process-wide).
func NewBoundedSCQWithAllocator[T any](capacity int, alloc Allocator) *Bounded[T] {
	return newBounded[T](capacity, func() ringEngine { return &scqEngine{} }, 1, alloc)
}

// NewBoundedLPRQWithAllocator is NewBoundedLPRQ with a caller-supplied
// Allocator in place of the shared package-level DefaultAllocator.
func NewBoundedLPRQWithAllocator[T any](capacity int, alloc Allocator) *Bounded[T] {
	return newBounded[T](capacity, func() ringEngine { return &lprqEngine{} }, 0, alloc)
}

// setCapacity discards any previous ring engines (returning their cell
// storage to the Allocator first, if any) and builds fresh ones sized
// for capPow2.
func (b *Bounded[T]) setCapacity(capPow2 uint64) {
	if b.free != nil {
		b.free.Destroy()
		b.allocated.Destroy()
	}

	b.capacity = capPow2
	cells := capPow2 << b.ringOffset

	b.free = b.newEngine()
	b.allocated = b.newEngine()
	b.free.SetSize(cells, b.alloc)
	b.allocated.SetSize(cells, b.alloc)
	b.slots = newSlots[T](capPow2)
	b.draining.StoreRelease(false)

	b.free.Full()
	b.allocated.Clear()
}

// Cap returns the queue's capacity (rounded up to a power of 2).
func (b *Bounded[T]) Cap() int { return int(b.capacity) }

// CapMax returns the largest capacity the queue's index encoding can
// address: 2^62 for SCQ, 2^63 for LPRQ (spec's algorithm-dependent
// capacity_max()). A fixed property of the algorithm, not of this
// particular Bounded instance's current size.
func (b *Bounded[T]) CapMax() uint64 { return b.free.CapMax() }

// Size returns an estimate of the number of elements currently queued.
// An exact live count would require expensive cross-core
// synchronization, so callers needing precise
// counts should track them in application logic.
func (b *Bounded[T]) Size() int { return int(b.allocated.Distance()) }

// IsEmpty reports whether Size() == 0 at the time of the call.
func (b *Bounded[T]) IsEmpty() bool { return b.Size() == 0 }

// IsFull reports whether Size() has reached capacity at the time of the
// call.
func (b *Bounded[T]) IsFull() bool { return b.Size() >= b.Cap() }

// Enqueue adds *elem to the queue. Returns nil on success, or
// *OverflowError[T] carrying *elem back if the queue is full.
//
// Safe for concurrent use by any number of producers.
func (b *Bounded[T]) Enqueue(elem *T) error {
	index := b.free.Dequeue(true)
	for index == invalidIndex {
		index = b.free.Dequeue(true)
	}
	if index == overflowIndex {
		return &OverflowError[T]{Value: *elem}
	}
	b.slots.place(index, *elem)
	b.allocated.Enqueue(index, false)
	return nil
}

// Dequeue removes and returns an element from the queue. Returns
// (zero-value, ErrWouldBlock) if the queue is empty.
//
// Safe for concurrent use by any number of consumers.
func (b *Bounded[T]) Dequeue() (T, error) {
	index := b.allocated.Dequeue(b.draining.LoadAcquire())
	if index == invalidIndex || index == overflowIndex {
		var zero T
		return zero, ErrWouldBlock
	}
	v := b.slots.take(index)
	b.free.Enqueue(index, true)
	return v, nil
}

// Drain signals that no more enqueues will occur. After Drain, Dequeue
// skips the allocated ring's threshold check, letting consumers fully
// drain the backlog without waiting on producer activity.
//
// Drain is a hint — the caller must ensure no further Enqueue calls
// will be made after calling Drain.
func (b *Bounded[T]) Drain() {
	b.draining.StoreRelease(true)
}

// Get returns the value currently stored at physical slot index without
// removing it. Intended for diagnostics and tests, not for the
// concurrent hot path.
func (b *Bounded[T]) Get(index uint64) T { return b.slots.get(index) }

// GetMut returns a pointer to the value at physical slot index.
func (b *Bounded[T]) GetMut(index uint64) *T { return b.slots.getMut(index) }

// Data returns the queue's raw backing array, indexed by physical slot
// index rather than logical queue order.
func (b *Bounded[T]) Data() []T { return b.slots.raw() }

// Clear removes all elements, draining them without returning them to
// the caller. Not safe to call concurrently with Enqueue/Dequeue.
func (b *Bounded[T]) Clear() {
	for {
		if _, err := b.Dequeue(); err != nil {
			break
		}
	}
	b.allocated.Clear()
	b.free.Full()
}

// SetCapacity discards all queued elements and resizes the queue to a
// new capacity (clamped to at least 1, rounded up to a power of 2). Not
// safe to call concurrently with Enqueue/Dequeue or with other
// SetCapacity calls; this is a setup-time operation, not a live-resize
// primitive (the algorithms here do not support growth under concurrent
// access). The previous ring engines' cell storage is returned to the
// Allocator before the new ones are allocated.
func (b *Bounded[T]) SetCapacity(capacity int) {
	b.setCapacity(uint64(roundToPow2(capacity)))
}
