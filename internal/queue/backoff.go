// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"runtime"
	"time"
)

// spinLimit is the number of Gosched-only rounds before Backoff starts
// sleeping. Kept small: a queue that is still full/empty after this many
// rounds is contended enough that yielding the OS thread stops helping.
const spinLimit = 8

// sleepCap bounds how long a single Wait call may sleep, so a Backoff
// stuck against a permanently-full or permanently-empty queue still polls
// often enough to notice a Drain or a new item promptly.
const sleepCap = 2 * time.Millisecond

// Backoff is a zero-value-usable retry helper for the ErrWouldBlock
// control-flow signal. Its Wait/Reset shape mirrors the well-known
// spin-then-yield-then-sleep backoff idiom used throughout this queue's
// own tests and examples.
type Backoff struct {
	rounds int
}

// Wait pauses for a duration that grows with repeated calls since the last
// Reset: a few rounds of runtime.Gosched, then short sleeps up to sleepCap.
func (b *Backoff) Wait() {
	b.rounds++
	if b.rounds <= spinLimit {
		runtime.Gosched()
		return
	}
	d := time.Duration(b.rounds-spinLimit) * 50 * time.Microsecond
	if d > sleepCap {
		d = sleepCap
	}
	time.Sleep(d)
}

// Reset clears accumulated backoff, to be called as soon as an operation
// succeeds so the next contention episode starts from the spin phase again.
func (b *Backoff) Reset() {
	b.rounds = 0
}
