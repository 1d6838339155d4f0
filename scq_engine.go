// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// scqEngine is a single index ring implementing the Scalable Circular
// Queue algorithm (Nikolaev, DISC 2019). A Bounded queue of capacity N
// holds two of these, each sized 2N: one as the "free" ring, one as the
// "allocated" ring. Each cell packs a cycle tag and a payload index into
// one atomic word — cycle = entry | (2*size-1), payload = entry & (size-1).
//
// Grounded on the teacher's mpmc.go FAA cycle-tagged cell technique,
// generalized from a value queue (cell holds cycle+T) to an index ring
// (cell holds cycle+index), matching the split between index ring and
// value array in the original SCQ paper and in zisc's
// ScalableCircularRingBuffer.
type scqEngine struct {
	_         pad
	head      atomix.Uint64
	_         pad
	tail      atomix.Uint64
	_         pad
	threshold atomix.Int64
	_         pad
	cells     []scqCell
	size      uint64 // number of cells (2N for a queue of capacity N)
	alloc     Allocator
}

type scqCell struct {
	entry atomix.Uint64
	_     padShort
}

// SetSize allocates s cells and leaves the engine cleared (not full).
func (e *scqEngine) SetSize(s uint64, alloc Allocator) {
	e.cells = allocateCells[scqCell](alloc, s)
	e.size = s
	e.alloc = alloc
	e.Clear()
}

func (e *scqEngine) Size() uint64 { return e.size }

// CapMax returns 2^62: spec.md's capacity ceiling for the SCQ algorithm,
// where each cell packs a cycle tag into the index word's upper bits.
func (e *scqEngine) CapMax() uint64 { return uint64(1) << 62 }

// Destroy returns the cell storage to the Allocator passed to SetSize.
func (e *scqEngine) Destroy() {
	destroyCells(e.cells, e.alloc)
	e.cells = nil
}

// Clear resets head/tail/threshold and marks every cell invalid.
func (e *scqEngine) Clear() {
	e.head.StoreRelease(0)
	e.threshold.StoreRelease(-1)
	e.tail.StoreRelease(0)
	for i := range e.cells {
		e.cells[i].entry.StoreRelease(invalidIndex)
	}
}

// Full preloads the ring so the first half-size Dequeue calls each
// return a distinct index in [0, half), the SCQ "free all" state.
func (e *scqEngine) Full() {
	n := e.size
	half := n / 2

	e.head.StoreRelease(0)
	e.threshold.StoreRelease(scqThreshold3(half))
	e.tail.StoreRelease(half)

	for i := uint64(0); i < n; i++ {
		idx := permuteIndex(i, n, 8)
		var v uint64
		if i < half {
			v = permuteIndex(half+i, half, 8)
		} else {
			v = invalidIndex
		}
		e.cells[idx].entry.StoreRelease(v)
	}
}

func (e *scqEngine) Distance() uint64 {
	t := e.tail.LoadAcquire()
	h := e.head.LoadAcquire()
	if h < t {
		return t - h
	}
	return 0
}

func scqThreshold3(half uint64) int64 {
	return int64(3*half - 1)
}

// scqLess / scqGreaterEqual compare two ring positions using the paper's
// wraparound-safe signed-difference comparison.
func scqLess(lhs, rhs uint64) bool      { return int64(lhs-rhs) < 0 }
func scqGreaterEqual(lhs, rhs uint64) bool { return int64(lhs-rhs) >= 0 }
func scqGreater(lhs, rhs uint64) bool   { return int64(lhs-rhs) > 0 }

// Enqueue publishes index to the ring, FAA-claiming tail tickets until
// one lands on a cell whose cycle admits the new entry (a failed CAS on
// an admitting cell retries that same cell).
func (e *scqEngine) Enqueue(index uint64, nonempty bool) bool {
	sw := spin.Wait{}
	n := e.size

	var tailp, tailIndex, entry uint64
	retry := false
	for {
		if !retry {
			tailp = e.tail.AddAcqRel(1) - 1
			tailIndex = permuteIndex(tailp, n, 8)
			entry = e.cells[tailIndex].entry.LoadAcquire()
		}
		retry = false

		entryCycle := entry | (2*n - 1)
		tailCycle := (tailp << 1) | (2*n - 1)
		headCount := e.head.LoadAcquire()

		if scqLess(entryCycle, tailCycle) &&
			(entry == entryCycle || (entry == (entryCycle^n) && scqGreaterEqual(tailp, headCount))) {
			entryIndex := index ^ (n - 1)
			if !e.cells[tailIndex].entry.CompareAndSwapAcqRel(entry, tailCycle^entryIndex) {
				entry = e.cells[tailIndex].entry.LoadAcquire()
				retry = true
				sw.Once()
				continue
			}
			half := n / 2
			threshold3 := scqThreshold3(half)
			if !nonempty && e.threshold.LoadAcquire() != threshold3 {
				e.threshold.StoreRelease(threshold3)
			}
			return true
		}
		sw.Once()
	}
}

// Dequeue claims a head ticket and either returns its payload, helps
// repair a stale cell for future producers, or concedes via catchUp.
func (e *scqEngine) Dequeue(nonempty bool) uint64 {
	index := invalidIndex
	var headp, tailp uint64
	var headCycle, headIndex uint64
	attempt := 0
	flag := nonempty || e.threshold.LoadAcquire() >= 0
	again := false

	if nonempty && e.Distance() == 0 {
		return overflowIndex
	}

	sw := spin.Wait{}
	for flag {
		n := e.size
		if !again {
			headp = e.head.AddAcqRel(1) - 1
			headCycle = (headp << 1) | (2*n - 1)
			headIndex = permuteIndex(headp, n, 8)
			attempt = 0
		}
		again = false

		entry := e.cells[headIndex].entry.LoadAcquire()
		for {
			entryCycle := entry | (2*n - 1)
			flag = entryCycle != headCycle
			if !flag {
				e.fetchOr(headIndex, n-1)
				index = entry & (n - 1)
				break
			}

			var entryNew uint64
			done := false
			if (entry | n) != entryCycle {
				entryNew = entry &^ n
				if entry == entryNew {
					done = true
				}
			} else {
				const amask = (1 << 8) - 1
				const amax = 1 << 12
				if attempt&amask == 0 {
					tailp = e.tail.LoadAcquire()
				}
				attempt++
				again = attempt <= amax && scqGreaterEqual(tailp, headp+1)
				if again {
					done = true
				} else {
					entryNew = headCycle ^ ((^entry) & n)
				}
			}
			if done || !scqLess(entryCycle, headCycle) {
				break
			}
			if e.cells[headIndex].entry.CompareAndSwapAcqRel(entry, entryNew) {
				break
			}
			entry = e.cells[headIndex].entry.LoadAcquire()
		}

		if flag && !again && !nonempty {
			tailp = e.tail.LoadAcquire()
			flag = scqGreater(tailp, headp+1)
			if flag {
				flag = e.threshold.AddAcqRel(-1) > 0
				if !flag {
					index = invalidIndex
				}
			} else {
				e.catchUp(tailp, headp+1)
				e.threshold.AddAcqRel(-1)
				index = invalidIndex
			}
		}
		if flag {
			sw.Once()
		}
	}
	return index
}

// fetchOr ORs mask into a cell's entry via a CAS retry loop (atomix does
// not expose a bitwise fetch-or primitive).
func (e *scqEngine) fetchOr(cellIndex, mask uint64) {
	for {
		cur := e.cells[cellIndex].entry.LoadAcquire()
		if cur&mask == mask {
			return
		}
		if e.cells[cellIndex].entry.CompareAndSwapAcqRel(cur, cur|mask) {
			return
		}
	}
}

// catchUp realigns tail with head when a lagging consumer detects the
// queue has gone empty.
func (e *scqEngine) catchUp(tailp, headp uint64) {
	for {
		if e.tail.CompareAndSwapAcqRel(tailp, headp) {
			return
		}
		tailp = e.tail.LoadAcquire()
		headp = e.head.LoadAcquire()
		if scqGreaterEqual(tailp, headp) {
			return
		}
	}
}
