// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package lfq provides a bounded, lock-free MPMC queue built from two
// independent index rings of the same algorithm: a "free" ring tracks
// which slots are available, an "allocated" ring tracks which slots hold
// a value, and Enqueue/Dequeue move an index between them. This is the
// two-ring design from the original SCQ (Nikolaev, DISC 2019) and LPRQ
// papers, addressed via a separate value array rather than storing T
// directly in ring cells.
//
// # Quick Start
//
//	q := lfq.NewBoundedSCQ[Event](1024)   // Scalable Circular Queue ring
//	q := lfq.NewBoundedLPRQ[Event](1024)  // Lock-free Portable Ring Queue ring
//
//	ev := Event{ID: 1}
//	if err := q.Enqueue(&ev); err != nil {
//	    // queue is full
//	}
//
//	got, err := q.Dequeue()
//
// Builder API selects the algorithm from configuration:
//
//	q := lfq.BuildBounded[Event](lfq.New(1024))        // SCQ, default
//	q := lfq.BuildBounded[Event](lfq.New(1024).LPRQ()) // LPRQ
//
// # Algorithm Selection
//
// Both rings hold the same capacity/overflow/FIFO-within-slot contract:
//
//	SCQ:  2n ring cells, FAA-based cycle-tag cell publish. Better
//	      scalability under contention, costs more memory.
//	LPRQ: n ring cells, CAS-based three-step bottom publish. Half the
//	      ring memory, more CAS contention on a hot cell.
//
// CapMax reports the algorithm's addressable ceiling — 2^62 for SCQ,
// 2^63 for LPRQ — since SCQ's cell packs a cycle tag into the index
// word's upper bits where LPRQ only reserves the top "unsafe" bit.
//
// # Error Handling
//
// Enqueue returns a value-carrying *[OverflowError] on a full queue
// rather than the bare [ErrWouldBlock] a plain ring would return, so a
// rejected value is never silently dropped:
//
//	err := q.Enqueue(&ev)
//	var overflow *lfq.OverflowError[Event]
//	if errors.As(err, &overflow) {
//	    // overflow.Value is the rejected Event — nothing is lost
//	}
//
// OverflowError still unwraps to [ErrWouldBlock] (itself an alias for
// [code.hybscloud.com/iox]'s ErrWouldBlock), so [IsWouldBlock]/
// [IsSemantic]/[IsNonFailure] keep working unchanged:
//
//	backoff := iox.Backoff{}
//	for {
//	    err := q.Enqueue(&item)
//	    if err == nil {
//	        backoff.Reset()
//	        break
//	    }
//	    if !lfq.IsWouldBlock(err) {
//	        return err // unexpected error
//	    }
//	    backoff.Wait()
//	}
//
// Dequeue returns the bare [ErrWouldBlock] on an empty queue — there is
// no value to carry back.
//
// # Capacity
//
// Capacity is clamped to at least 1 and rounds up to the next power of 2:
//
//	q := lfq.NewBoundedSCQ[int](0)     // Actual capacity: 1
//	q := lfq.NewBoundedSCQ[int](3)     // Actual capacity: 4
//	q := lfq.NewBoundedSCQ[int](1000)  // Actual capacity: 1024
//
// A capacity-1 queue still supports interleaved Enqueue/Dequeue from any
// number of goroutines without livelock.
//
// [Bounded.SetCapacity] discards all queued elements and resizes to a
// new capacity; it is a setup-time operation, not a live-resize
// primitive — the algorithms here don't support growth under concurrent
// access. It returns the previous ring engines' cell storage to the
// configured [Allocator] (see [NewBoundedSCQWithAllocator] /
// [NewBoundedLPRQWithAllocator]) before allocating the new ones.
//
// Length is intentionally not provided because accurate counts in
// lock-free algorithms require expensive cross-core synchronization;
// [Bounded.Size] is an estimate. Track exact counts in application logic
// when needed.
//
// # Thread Safety
//
// Enqueue/Dequeue are safe for any number of concurrent producer and
// consumer goroutines, subject to the caveat that correctness assumes
// the number of concurrently active callers does not exceed the queue's
// capacity — a caller-side invariant, not runtime enforced.
//
// # Graceful Shutdown
//
// The SCQ ring engine includes a threshold mechanism to prevent livelock
// (LPRQ has none). This mechanism may cause Dequeue to return
// [ErrWouldBlock] even when items remain, waiting for producer activity
// to reset the threshold.
//
// For graceful shutdown scenarios where producers have finished but
// consumers need to drain remaining items, use [Bounded.Drain] (part of
// the [Drainer] interface):
//
//	prodWg.Wait()       // producer goroutines finish
//	q.Drain()           // no more enqueues will occur
//	// consumers can now drain all remaining items without threshold
//	// blocking
//
// Drain is a hint — the caller must ensure no further Enqueue calls will
// be made after calling it.
//
// # Race Detection
//
// Go's race detector is not designed for lock-free algorithm
// verification. It tracks explicit synchronization primitives (mutex,
// channels, WaitGroup) but cannot observe happens-before relationships
// established through atomic memory orderings (acquire-release
// semantics). Lock-free ring engines use sequence numbers with
// acquire-release semantics to protect non-atomic data fields —
// algorithmically correct, but the race detector may report false
// positives because it cannot track synchronization carried by atomic
// operations on separate variables.
//
// [RaceEnabled] lets tests skip concurrent stress cases under -race
// rather than chase these false positives; see bounded_test.go's
// linearizability tests for the pattern.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, and [code.hybscloud.com/spin] for CPU pause
// instructions during spin-wait retry loops.
package lfq
