// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import "math/bits"

// cacheLineSize is the assumed L1 cache line size in bytes, used by
// permuteIndex to spread adjacent logical indices across distinct cache
// lines. The teacher's own pad/padShort constants hardcode 64 rather
// than branching on GOARCH, so permuteIndex does the same.
const cacheLineSize = 64

// order returns floor(log2(n)) for a power-of-two n, or 0 for n <= 1.
func order(n uint64) uint64 {
	o := uint64(bits.Len64(n))
	if o > 0 {
		return o - 1
	}
	return 0
}

// permuteIndex remaps a logical ring position to a physical cell index so
// that consecutive logical positions land on different cache lines when a
// cell is smaller than one cache line.
//
// dataSize is the size in bytes of one engine cell (a single atomic word
// for SCQ, a cell pair for LPRQ). n is the ring size and must be a power
// of two.
func permuteIndex(index, n uint64, dataSize uint64) uint64 {
	o := order(n)

	var shift uint64
	if dataSize < cacheLineSize {
		shift = uint64(bits.Len64(cacheLineSize)) - uint64(bits.Len64(dataSize))
	}

	i := index
	if shift < o {
		upper := index << shift
		lower := (index & (n - 1)) >> (o - shift)
		i = upper | lower
	}
	return i & (n - 1)
}
