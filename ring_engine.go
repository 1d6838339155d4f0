// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import "math"

// Sentinel index values shared by both ring engines.
const (
	// invalidIndex means no value is available, or the operation was
	// cautiously aborted. On Enqueue this never traverses the caller
	// boundary: Bounded retries at the engine level (see spec's Open
	// Questions on the free.dequeue(true) transient path).
	invalidIndex uint64 = math.MaxUint64

	// overflowIndex means the engine is full. Only meaningful on the
	// "free" side of a Bounded queue.
	overflowIndex uint64 = math.MaxUint64 - 1

	// indexMask masks the extractable index payload out of a full word.
	indexMask uint64 = math.MaxUint64 >> 1
)

// ringEngine is the common trait both ring-buffer algorithms implement.
// A Bounded queue holds two independent instances of the same concrete
// engine type: one tracking free slots, one tracking allocated slots.
type ringEngine interface {
	// SetSize allocates backing storage for s cells via alloc (nil falls
	// back to a plain make). s must be a power of two (callers round up
	// before calling).
	SetSize(s uint64, alloc Allocator)

	// Size returns the number of cells this engine was sized for.
	Size() uint64

	// CapMax returns the largest capacity this algorithm's index
	// encoding can address. A fixed property of the algorithm, not of
	// any particular engine instance's current size.
	CapMax() uint64

	// Destroy returns this engine's cell storage to whatever Allocator
	// it was constructed with (see SetSize), if any. Safe to call on a
	// zero-value engine.
	Destroy()

	// Clear resets the engine to a freshly constructed, empty state.
	Clear()

	// Full resets the engine so every index in [0, capacity) is
	// available from Dequeue — i.e. the "free" side of a new queue.
	Full()

	// Distance returns an estimate of tail-head (items in flight).
	Distance() uint64

	// Enqueue publishes index into the ring. Returns false only if the
	// engine's own bookkeeping cannot be completed (never observed on
	// the allocated side per the façade's usage discipline).
	Enqueue(index uint64, nonempty bool) bool

	// Dequeue removes and returns an index from the ring. Returns
	// invalidIndex if empty, or overflowIndex if nonempty was asserted
	// against a provably empty ring.
	Dequeue(nonempty bool) uint64
}
