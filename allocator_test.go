// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq_test

import (
	"testing"

	"code.hybscloud.com/lfq"
)

func TestBoundedWithCustomAllocator(t *testing.T) {
	alloc := &lfq.DefaultAllocator{}
	q := lfq.NewBoundedSCQWithAllocator[int](8, alloc)

	for i := range 8 {
		v := i
		if err := q.Enqueue(&v); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}
	for i := range 8 {
		v, err := q.Dequeue()
		if err != nil || v != i {
			t.Fatalf("Dequeue(%d): got (%d, %v)", i, v, err)
		}
	}
}

// TestBoundedSetCapacityReturnsOldCellsToAllocator exercises the resize
// path wiring: SetCapacity must return the previous ring engines' cell
// storage to the Allocator (via Destroy/destroyCells) before allocating
// new ones, not just the one-shot Allocate/Deallocate pair in isolation.
// The DefaultAllocator pools by size class, so a churn of grow/shrink
// resizes on the same allocator should complete without ever falling
// back to an unpooled allocation path panicking or leaking — this is
// verified indirectly by simply running many resizes to completion and
// confirming the queue stays usable at each size.
func TestBoundedSetCapacityReturnsOldCellsToAllocator(t *testing.T) {
	alloc := &lfq.DefaultAllocator{}
	q := lfq.NewBoundedSCQWithAllocator[int](4, alloc)

	for _, capacity := range []int{4, 64, 8, 256, 2} {
		q.SetCapacity(capacity)
		if q.Cap() != capacity {
			t.Fatalf("Cap after SetCapacity(%d): got %d", capacity, q.Cap())
		}
		for i := range capacity {
			v := i
			if err := q.Enqueue(&v); err != nil {
				t.Fatalf("Enqueue(%d) at capacity %d: %v", i, capacity, err)
			}
		}
		for i := range capacity {
			got, err := q.Dequeue()
			if err != nil || got != i {
				t.Fatalf("Dequeue(%d) at capacity %d: got (%d, %v)", i, capacity, got, err)
			}
		}
	}
}

func TestDefaultAllocatorAllocateDeallocate(t *testing.T) {
	alloc := &lfq.DefaultAllocator{}
	ptr := alloc.Allocate(64, 8)
	if ptr == nil {
		t.Fatal("Allocate(64, 8) returned nil")
	}
	alloc.Deallocate(ptr, 64, 8)

	if got := alloc.Allocate(0, 8); got != nil {
		t.Fatalf("Allocate(0, _): got non-nil %v", got)
	}
}
