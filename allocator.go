// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import (
	"sync"
	"unsafe"
)

// Allocator supplies and reclaims the backing storage a Bounded queue's
// ring engines need for their cells. The interface is deliberately
// narrow: the core never owns a full allocator subsystem, it only ever
// asks for one contiguous region and later gives it back via
// Bounded.SetCapacity's resize path (see allocateCells/destroyCells).
//
// Implementations must be safe for concurrent use; queue construction and
// SetCapacity may call into an Allocator from any goroutine.
type Allocator interface {
	// Allocate returns a pointer to at least size bytes, aligned to
	// alignment (a power of two).
	Allocate(size, alignment uintptr) unsafe.Pointer
	// Deallocate releases a region previously returned by Allocate with
	// the same size and alignment.
	Deallocate(ptr unsafe.Pointer, size, alignment uintptr)
}

// DefaultAllocator is a size-classed pooling allocator over Go's runtime
// allocator. Regions are pooled per rounded-up size class so repeated
// SetCapacity churn (growing and shrinking queues) does not hit the
// garbage collector on every call.
//
// Grounded on the size-classed sync.Pool-of-byte-buffers shape used for
// MemoryPool/OptimizedAllocator in the adjacent Orizon runtime allocator,
// narrowed from its tracked Alloc/Free/Realloc/Stats surface down to the
// two operations this package's Allocator interface requires.
type DefaultAllocator struct {
	pools sync.Map // size class (uintptr) -> *sync.Pool
}

var defaultAllocator = &DefaultAllocator{}

func (a *DefaultAllocator) poolFor(class uintptr) *sync.Pool {
	if v, ok := a.pools.Load(class); ok {
		return v.(*sync.Pool)
	}
	p := &sync.Pool{New: func() any {
		buf := make([]byte, class)
		return &buf
	}}
	v, _ := a.pools.LoadOrStore(class, p)
	return v.(*sync.Pool)
}

func sizeClass(size, alignment uintptr) uintptr {
	c := size
	if alignment > 1 {
		c = (c + alignment - 1) &^ (alignment - 1)
	}
	if c == 0 {
		c = alignment
	}
	return c
}

// Allocate implements Allocator.
func (a *DefaultAllocator) Allocate(size, alignment uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	class := sizeClass(size, alignment)
	buf := a.poolFor(class).Get().(*[]byte)
	if uintptr(len(*buf)) < class {
		*buf = make([]byte, class)
	}
	return unsafe.Pointer(&(*buf)[0])
}

// Deallocate implements Allocator. ptr must have come from Allocate with
// the same size and alignment.
func (a *DefaultAllocator) Deallocate(ptr unsafe.Pointer, size, alignment uintptr) {
	if ptr == nil {
		return
	}
	class := sizeClass(size, alignment)
	buf := (*[1 << 30]byte)(ptr)[:class:class]
	a.poolFor(class).Put(&buf)
}

// allocateCells returns an n-element slice of C, sourcing its backing
// array from alloc (or a plain make when alloc is nil). C must be a
// fixed, pointer-free cell type — this is only ever instantiated with
// scqCell/lprqCell, whose fields are atomix words and padding, so
// carving the slice out of an Allocator-supplied byte buffer carries no
// GC-tracing hazard. See slot.go for why the value array T is never
// routed through this path.
func allocateCells[C any](alloc Allocator, n uint64) []C {
	if alloc == nil || n == 0 {
		return make([]C, n)
	}
	var zero C
	elemSize := unsafe.Sizeof(zero)
	ptr := alloc.Allocate(elemSize*uintptr(n), unsafe.Alignof(zero))
	return unsafe.Slice((*C)(ptr), n)
}

// destroyCells returns cells' backing storage to alloc, mirroring
// allocateCells's size/alignment computation exactly so the region
// handed back matches what Allocate returned. No-op if alloc is nil
// (cells came from a plain make) or cells is empty.
func destroyCells[C any](cells []C, alloc Allocator) {
	if alloc == nil || len(cells) == 0 {
		return
	}
	var zero C
	elemSize := unsafe.Sizeof(zero)
	ptr := unsafe.Pointer(&cells[0])
	alloc.Deallocate(ptr, elemSize*uintptr(len(cells)), unsafe.Alignof(zero))
}
