// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

// ringKind selects the ring-engine algorithm a Builder targets when
// BuildBounded[T] is used.
type ringKind int

const (
	ringSCQ ringKind = iota // default: BuildBounded uses SCQ unless LPRQ() was called
	ringLPRQ
)

// Options configures queue creation and algorithm selection.
type Options struct {
	// Ring-engine algorithm selection for BuildBounded[T]; defaults to
	// ringSCQ unless LPRQ() was called.
	ring ringKind

	// Capacity (rounds up to next power of 2, clamped to at least 1).
	capacity int
}

// Builder creates queues with fluent configuration.
//
// Builder provides a fluent API for configuring and creating a [Bounded]
// queue.
//
// Example:
//
//	q := lfq.BuildBounded[Request](lfq.New(4096))        // SCQ, default
//	q := lfq.BuildBounded[Request](lfq.New(4096).LPRQ()) // LPRQ
type Builder struct {
	opts Options
}

// New creates a queue builder with the given capacity.
//
// Capacity is clamped to at least 1 and rounds up to the next power of 2.
// For example, capacity=4 results in actual capacity=4, capacity=1000 results
// in actual capacity=1024, capacity=0 results in actual capacity=1.
//
// Example:
//
//	q := lfq.BuildBounded[int](lfq.New(1024).LPRQ())
func New(capacity int) *Builder {
	return &Builder{opts: Options{capacity: capacity}}
}

// SCQ selects the Scalable Circular Queue algorithm for BuildBounded[T].
// This is the default if neither SCQ() nor LPRQ() is called.
func (b *Builder) SCQ() *Builder {
	b.opts.ring = ringSCQ
	return b
}

// LPRQ selects the Lock-free Portable Ring Queue algorithm for
// BuildBounded[T].
func (b *Builder) LPRQ() *Builder {
	b.opts.ring = ringLPRQ
	return b
}

// BuildBounded creates a Bounded[T] two-ring queue using the algorithm
// selected by SCQ() or LPRQ() (defaults to SCQ() if neither was called).
//
// Example:
//
//	q := lfq.BuildBounded[Event](lfq.New(1024).LPRQ())
func BuildBounded[T any](b *Builder) *Bounded[T] {
	switch b.opts.ring {
	case ringLPRQ:
		return NewBoundedLPRQ[T](b.opts.capacity)
	default:
		return NewBoundedSCQ[T](b.opts.capacity)
	}
}

// roundToPow2 rounds n up to the next power of 2, clamping n <= 1 to 1.
func roundToPow2(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte

// padShort is padding to fill cache line after 8-byte field.
type padShort [64 - 8]byte
