// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

func TestOverflowErrorUnwrapsToWouldBlock(t *testing.T) {
	err := error(&lfq.OverflowError[int]{Value: 5})
	if !errors.Is(err, lfq.ErrWouldBlock) {
		t.Fatal("OverflowError should unwrap to ErrWouldBlock")
	}
	if !errors.Is(err, iox.ErrWouldBlock) {
		t.Fatal("OverflowError should unwrap to iox.ErrWouldBlock")
	}
	if !lfq.IsSemantic(err) {
		t.Fatal("OverflowError should be a semantic (non-failure) signal")
	}
	if err.Error() == "" {
		t.Fatal("OverflowError.Error() should not be empty")
	}
}

func TestOverflowErrorCarriesValue(t *testing.T) {
	var overflow *lfq.OverflowError[string]
	err := error(&lfq.OverflowError[string]{Value: "rejected"})
	if !errors.As(err, &overflow) {
		t.Fatal("errors.As should unwrap to *OverflowError[string]")
	}
	if overflow.Value != "rejected" {
		t.Fatalf("Value: got %q, want %q", overflow.Value, "rejected")
	}
}
