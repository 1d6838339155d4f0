// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import "testing"

// TestPermuteIndexIsBijection verifies permuteIndex maps [0,n) onto
// itself with no collisions, for every ring size the two engines use.
func TestPermuteIndexIsBijection(t *testing.T) {
	for _, n := range []uint64{2, 4, 8, 16, 64, 128, 256, 1024} {
		for _, dataSize := range []uint64{8, 16} {
			seen := make(map[uint64]bool, n)
			for i := uint64(0); i < n; i++ {
				p := permuteIndex(i, n, dataSize)
				if p >= n {
					t.Fatalf("n=%d dataSize=%d: permuteIndex(%d) = %d out of range", n, dataSize, i, p)
				}
				if seen[p] {
					t.Fatalf("n=%d dataSize=%d: permuteIndex(%d) = %d collides with an earlier index", n, dataSize, i, p)
				}
				seen[p] = true
			}
		}
	}
}

// TestPermuteIndexIdentityWhenCellFillsLine verifies that when a cell is
// at least one cache line wide, no permutation is needed.
func TestPermuteIndexIdentityWhenCellFillsLine(t *testing.T) {
	for i := uint64(0); i < 16; i++ {
		if got := permuteIndex(i, 16, cacheLineSize); got != i {
			t.Errorf("permuteIndex(%d, 16, cacheLineSize): got %d, want %d", i, got, i)
		}
	}
}
