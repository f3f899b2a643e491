// Copyright 2026 The stagepipe Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stagepipe

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// coordinator is the single task that owns the job-count vector and
// decides when to close each inter-stage queue. It is never replicated, so
// the close-exactly-once decision is race-free by construction.
//
// Indexing convention: source STOPs arrive with stageIndex -1, so jobs[0]
// is the source slot and queues[0] is the first inter-stage queue.
// Transform stage i's STOP decrements jobs[i+1] and, once that reaches
// zero, closes queues[i+1].
type coordinator struct {
	jobs    []int
	queues  []*itemQueue
	signals chan signal
	errs    chan<- error
	logger  zerolog.Logger
	ready   chan struct{}
	done    chan struct{}
}

func newCoordinator(jobs []int, queues []*itemQueue, signals chan signal, errs chan<- error, logger zerolog.Logger) *coordinator {
	return &coordinator{
		jobs:    jobs,
		queues:  queues,
		signals: signals,
		errs:    errs,
		logger:  logger,
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// run consumes signals until the job-count vector reaches all zero. ready
// is closed just before the loop begins, giving callers a readiness
// acknowledgement to wait on instead of busy-waiting to confirm the
// coordinator is alive before launching workers.
func (c *coordinator) run(ctx context.Context) {
	defer close(c.done)
	close(c.ready)

	for {
		sig, ok := <-c.signals
		if !ok {
			return
		}
		switch sig.kind {
		case signalStart:
			// No bookkeeping. Retained so an implementation can add a
			// liveness check here (e.g. wait for every worker to have
			// started before admitting items) without changing the protocol.
		case signalStop:
			idx := sig.stageIndex + 1
			if idx < 0 || idx >= len(c.jobs) {
				c.reportProtocolViolation("STOP signal out of range: stage_index=%d", sig.stageIndex)
				continue
			}
			c.jobs[idx]--
			if c.jobs[idx] == 0 && idx < len(c.queues) {
				// Closing a queue blocks until the EOS entry is accepted,
				// which can stall arbitrarily long behind a full queue.
				// Hand it to its own goroutine so this loop keeps consuming
				// signals for every other, unrelated stage in the meantime.
				queue := c.queues[idx]
				go queue.closeWithEOS(ctx)
			}
		default:
			c.reportProtocolViolation("unknown signal kind: %d", int(sig.kind))
		}
		if c.allZero() {
			return
		}
	}
}

// reportProtocolViolation logs an anomaly the coordinator does not expect
// to see (stagepipe's own worker wrappers are the only signal producers)
// and surfaces it to the pipeline as a *ProtocolError, non-blocking so a
// slow or absent reader never stalls the signal loop.
func (c *coordinator) reportProtocolViolation(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.logger.Warn().Msg("stagepipe: coordinator: " + msg)
	select {
	case c.errs <- &ProtocolError{Msg: msg}:
	default:
	}
}

func (c *coordinator) allZero() bool {
	for _, n := range c.jobs {
		if n != 0 {
			return false
		}
	}
	return true
}
