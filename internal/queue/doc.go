// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package queue provides a bounded multi-producer multi-consumer FIFO used
// to carry items (and, one layer up in stagepipe, an end-of-stream marker)
// between adjacent pipeline stages.
//
// MPMC is adapted from the SCQ (Scalable Circular Queue) algorithm: FAA
// (fetch-and-add) producer/consumer position counters over 2n physical
// slots for capacity n, with per-slot cycle tagging for ABA safety and a
// threshold counter to bound livelock under a drained queue.
//
// # Basic usage
//
//	q := queue.NewMPMC[int](1024)
//
//	// Producer
//	v := 42
//	for q.Enqueue(&v) != nil {
//	    // ErrWouldBlock: queue full, retry with backoff
//	}
//
//	// Consumer
//	elem, err := q.Dequeue()
//	if err == nil {
//	    fmt.Println(elem)
//	}
//
// Enqueue and Dequeue never block on their own; callers that need blocking
// semantics retry on ErrWouldBlock using a Backoff, same as this package's
// own tests do.
//
// # Graceful shutdown
//
// Call Drain once all producers are known to have finished. After Drain,
// Dequeue skips its threshold check so consumers can pull every remaining
// item without waiting on producer activity that will never come.
package queue
