// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import "code.hybscloud.com/iox"

// OverflowError is returned by Bounded.Enqueue when the queue is full.
// Unlike a plain ErrWouldBlock, it carries the value the caller tried to
// enqueue back out, so nothing is lost to a rejected call.
//
// OverflowError wraps ErrWouldBlock (Unwrap), so existing callers doing
// lfq.IsWouldBlock(err) or iox.IsSemantic(err) still recognize it as a
// non-failure, retry-or-drop control signal rather than a hard error.
type OverflowError[T any] struct {
	// Value is the element that could not be enqueued.
	Value T
}

func (e *OverflowError[T]) Error() string {
	return "lfq: queue is full"
}

func (e *OverflowError[T]) Unwrap() error {
	return iox.ErrWouldBlock
}
