// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import (
	"os"
	"sync"
	"sync/atomic"

	"code.hybscloud.com/atomix"
)

// unsafeMask is the MSB of a 64-bit word, used both to mark a cell's
// index field "unsafe" (a lagging consumer gave up on it) and as part of
// a thread's bottom sentinel.
const unsafeMask uint64 = 1 << 63

// lprqEngine is a single index ring implementing the Lock-free Portable
// Ring Queue algorithm (the CAS2-free LCRQ variant). A Bounded queue of
// capacity N holds two of these, each sized N (no doubling, unlike SCQ).
//
// Each cell is a pair (index, value): index carries a "node index" round
// counter plus an unsafe bit in its MSB; value is either invalidIndex,
// a thread-local "bottom" placeholder mid-publish, or a committed
// payload. Grounded on zisc's PortableRingBuffer (original_source's
// portable_ring_buffer-inl.hpp) and on the teacher's mpmc_compact.go
// round-tagged CAS technique, extended with the three-step bottom publish
// the original algorithm requires for its CAS2-free construction.
type lprqEngine struct {
	_     pad
	head  atomix.Uint64
	_     pad
	tail  atomix.Uint64
	_     pad
	cells []lprqCell
	size  uint64 // number of cells (N for a queue of capacity N)
	alloc Allocator
}

type lprqCell struct {
	index atomix.Uint64
	value atomix.Uint64
	_     [64 - 16]byte
}

func (e *lprqEngine) SetSize(s uint64, alloc Allocator) {
	e.cells = allocateCells[lprqCell](alloc, s)
	e.size = s
	e.alloc = alloc
	e.Clear()
}

func (e *lprqEngine) Size() uint64 { return e.size }

// CapMax returns 2^63: spec.md's capacity ceiling for the LPRQ algorithm,
// whose node-index field reserves only the top bit as the unsafe flag
// (see unsafeMask) rather than a whole cycle tag.
func (e *lprqEngine) CapMax() uint64 { return uint64(1) << 63 }

// Destroy returns the cell storage to the Allocator passed to SetSize.
func (e *lprqEngine) Destroy() {
	destroyCells(e.cells, e.alloc)
	e.cells = nil
}

// Clear resets head/tail and every cell to its round-0 empty state.
func (e *lprqEngine) Clear() {
	e.head.StoreRelease(0)
	e.tail.StoreRelease(0)
	n := e.size
	for i := uint64(0); i < n; i++ {
		idx := permuteIndex(i, n, 16)
		e.cells[idx].index.StoreRelease(i)
		e.cells[idx].value.StoreRelease(invalidIndex)
	}
}

// Full preloads the ring so the first n Dequeue calls each return a
// distinct index in [0, n).
func (e *lprqEngine) Full() {
	n := e.size
	e.head.StoreRelease(0)
	e.tail.StoreRelease(n)
	for i := uint64(0); i < n; i++ {
		idx := permuteIndex(i, n, 16)
		e.cells[idx].index.StoreRelease(i + n)
		e.cells[idx].value.StoreRelease(i)
	}
}

func (e *lprqEngine) Distance() uint64 {
	t := e.tail.LoadAcquire()
	h := e.head.LoadAcquire()
	if h < t {
		return t - h
	}
	return 0
}

func lprqNodeIndex(index uint64) uint64 { return index &^ unsafeMask }
func lprqIsUnsafe(index uint64) bool    { return index&unsafeMask == unsafeMask }
func lprqIsBottom(value uint64) bool    { return value != invalidIndex && lprqIsUnsafe(value) }
func lprqUnsafeFlag(index uint64) uint64 {
	return unsafeMask | (indexMask & index)
}

// threadBottomSeq and threadBottomPool supply the bottom sentinel. Go has
// no native goroutine-local storage, so each Enqueue call draws a fresh
// sentinel from the pool's New, which derives it from a process-wide
// counter, matching the algorithm's only requirement: the bottom value
// must be unique per concurrent enqueuer to distinguish "claimed by
// someone" from "committed", and must always carry unsafeMask so
// lprqIsBottom/lprqIsUnsafe recognize it.
var threadBottomSeq atomic.Uint64

var threadBottomPool = sync.Pool{
	New: func() any {
		seed := threadBottomSeq.Add(1)
		v := (seed ^ uint64(os.Getpid())) | unsafeMask
		return &v
	},
}

// threadLocalBottom returns a process-unique bottom sentinel for the
// calling goroutine's current enqueue attempt. Values are never put back
// into the pool, so every call gets a new one from New.
func threadLocalBottom() uint64 {
	p := threadBottomPool.Get().(*uint64)
	return *p
}

// Enqueue performs the three-step bottom publish: claim the cell's value
// with a bottom placeholder, commit the cell's node index for the next
// cycle, then publish the real payload.
func (e *lprqEngine) Enqueue(index uint64, nonempty bool) bool {
	bottom := threadLocalBottom()
	for {
		n := e.size
		tailTicket := e.tail.AddAcqRel(1) - 1
		tailIndex := permuteIndex(tailTicket, n, 16)
		cell := &e.cells[tailIndex]

		cellIndex := cell.index.LoadAcquire()
		cellValue := cell.value.LoadAcquire()

		if cellValue == invalidIndex &&
			lprqNodeIndex(cellIndex) <= tailTicket &&
			(!lprqIsUnsafe(cellIndex) || e.head.LoadAcquire() <= tailTicket) {
			if cell.value.CompareAndSwapAcqRel(cellValue, bottom) {
				if cell.index.CompareAndSwapAcqRel(cellIndex, tailTicket+n) {
					if cell.value.CompareAndSwapAcqRel(bottom, index) {
						return true
					}
					// Fails only when a consumer has already rewritten the
					// bottom placeholder to invalidIndex (see Dequeue); the
					// loop then retries with a fresh tail ticket.
				} else {
					cell.value.CompareAndSwapAcqRel(bottom, invalidIndex)
				}
			}
		}
	}
}

// Dequeue claims a head ticket and inspects the target cell, helping
// poison stale cells for producers that are lapping a slow consumer.
func (e *lprqEngine) Dequeue(nonempty bool) uint64 {
	if nonempty && e.Distance() == 0 {
		return overflowIndex
	}

	flag := true
	index := invalidIndex

	for flag {
		n := e.size
		headTicket := e.head.AddAcqRel(1) - 1
		headIndex := permuteIndex(headTicket, n, 16)
		cell := &e.cells[headIndex]

		attempt := 0
		var tt uint64

		for {
			cellIndex := cell.index.LoadAcquire()
			index = cell.value.LoadAcquire()
			isUnsafe := lprqIsUnsafe(cellIndex)
			nodeIndex := lprqNodeIndex(cellIndex)

			if headTicket+n < nodeIndex {
				break
			}

			if index != invalidIndex && !lprqIsBottom(index) {
				if headTicket+n == nodeIndex {
					cell.value.StoreRelease(invalidIndex)
					flag = false
					break
				}
				if isUnsafe {
					if cell.index.LoadAcquire() == cellIndex {
						break
					}
				} else if cell.index.CompareAndSwapAcqRel(cellIndex, lprqUnsafeFlag(nodeIndex)) {
					break
				}
				continue
			}

			const updateInterval = 1 << 8
			const amax = 4 * 1024
			if attempt%updateInterval == 0 {
				tt = e.tail.LoadAcquire()
			}
			t := lprqNodeIndex(tt)
			if isUnsafe || t < headTicket+1 || amax < attempt {
				if lprqIsBottom(index) {
					if !cell.value.CompareAndSwapAcqRel(index, invalidIndex) {
						continue
					}
				}
				if cell.index.CompareAndSwapAcqRel(cellIndex, lprqUnsafeFlag(headTicket+n)) {
					break
				}
				continue
			}
			attempt++
		}

		if flag && lprqNodeIndex(e.tail.LoadAcquire()) <= headTicket+1 {
			e.fixState()
			index = invalidIndex
			flag = false
		}
	}
	return index
}

// fixState realigns tail with head after a consumer observes the queue
// has gone empty, so future producers don't spin against a stale tail.
func (e *lprqEngine) fixState() {
	for {
		t := e.tail.LoadAcquire()
		h := e.head.LoadAcquire()
		if e.tail.LoadAcquire() != t {
			continue
		}
		if t < h {
			if e.tail.CompareAndSwapAcqRel(t, h) {
				return
			}
			continue
		}
		return
	}
}
