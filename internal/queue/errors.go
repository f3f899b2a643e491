// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import "errors"

// ErrWouldBlock indicates the operation cannot proceed immediately.
//
// For Enqueue: the queue is full (backpressure).
// For Dequeue: the queue is empty (no data available).
//
// ErrWouldBlock is a control-flow signal, not a failure: callers retry,
// typically with a Backoff, rather than propagating it.
var ErrWouldBlock = errors.New("queue: would block")

// IsWouldBlock reports whether err is (or wraps) ErrWouldBlock.
func IsWouldBlock(err error) bool {
	return errors.Is(err, ErrWouldBlock)
}
