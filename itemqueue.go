// Copyright 2026 The stagepipe Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stagepipe

import (
	"context"

	"code.hybscloud.com/stagepipe/internal/queue"
)

// itemQueue is the blocking, EOS-carrying FIFO connecting two adjacent
// stages. It layers blocking semantics and an in-band end-of-stream
// marker over internal/queue.MPMC's non-blocking, item-only contract.
type itemQueue struct {
	q *queue.MPMC[entry]
}

func newItemQueue(capacity int) *itemQueue {
	if capacity < 2 {
		capacity = 2
	}
	return &itemQueue{q: queue.NewMPMC[entry](capacity)}
}

// enqueue blocks (retrying with backoff) until e is accepted, or ctx is
// done. It reports false only on ctx cancellation.
func (iq *itemQueue) enqueue(ctx context.Context, e entry) bool {
	var bo queue.Backoff
	for {
		if err := iq.q.Enqueue(&e); err == nil {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		default:
		}
		bo.Wait()
	}
}

// dequeue blocks (retrying with backoff) until an entry is available, or
// ctx is done. It reports false only on ctx cancellation.
func (iq *itemQueue) dequeue(ctx context.Context) (entry, bool) {
	var bo queue.Backoff
	for {
		e, err := iq.q.Dequeue()
		if err == nil {
			return e, true
		}
		select {
		case <-ctx.Done():
			return entry{}, false
		default:
		}
		bo.Wait()
	}
}

// closeWithEOS is the coordinator's one-time closure of a downstream
// queue: Drain lets any consumer blocked behind the livelock-prevention
// threshold proceed once producers are known to be finished, then exactly
// one EOS entry is placed so the first consumer to observe it can trigger
// the per-worker re-enqueue discipline described in the package
// documentation.
func (iq *itemQueue) closeWithEOS(ctx context.Context) {
	iq.q.Drain()
	iq.enqueue(ctx, entry{eos: true})
}
