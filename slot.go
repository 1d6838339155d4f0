// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

// slots is the value storage backing a Bounded queue: a plain array of
// T indexed by the physical slot index the ring engines hand out. The
// ring engines only ever move indices; slots holds the payload each
// index names, mirroring the split between zisc's RingBuffer (index
// only) and the array the owning LockFreeQueue keeps alongside it.
type slots[T any] struct {
	data []T
}

// newSlots allocates storage for n elements of T.
//
// The slot array intentionally never routes through an Allocator: T is
// an arbitrary caller type that may hold pointers, and carving a []T out
// of an Allocator-supplied []byte loses the field-level pointer/scalar
// map the garbage collector needs to trace it correctly. Allocator is
// wired into the two ring engines' cell arrays instead (scqEngine,
// lprqEngine), whose cells are fixed pointer-free atomic words.
func newSlots[T any](n uint64) *slots[T] {
	return &slots[T]{data: make([]T, n)}
}

func (s *slots[T]) place(index uint64, v T) {
	s.data[index] = v
}

// take returns the value at index and clears the slot so it does not
// keep a no-longer-reachable value alive for the garbage collector.
func (s *slots[T]) take(index uint64) T {
	v := s.data[index]
	var zero T
	s.data[index] = zero
	return v
}

func (s *slots[T]) get(index uint64) T {
	return s.data[index]
}

func (s *slots[T]) getMut(index uint64) *T {
	return &s.data[index]
}

func (s *slots[T]) raw() []T {
	return s.data
}
