// Copyright 2026 The stagepipe Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stagepipe

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// traceBufferSize bounds the verbose trace channel. Entries are dropped
// under overload rather than applying backpressure to workers — tracing
// must never slow down the pipeline it is observing.
const traceBufferSize = 256

// traceSink fans lifecycle and item-passage events into a zerolog.Logger.
// A nil *traceSink is valid and its traceFunc is a no-op (verbose disabled).
type traceSink struct {
	events chan string
	done   chan struct{}
}

// newTraceSink starts the background goroutine that drains events into
// logger, returning nil when verbose is false.
func newTraceSink(ctx context.Context, verbose bool, logger zerolog.Logger) *traceSink {
	if !verbose {
		return nil
	}
	ts := &traceSink{
		events: make(chan string, traceBufferSize),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(ts.done)
		for {
			select {
			case e, ok := <-ts.events:
				if !ok {
					return
				}
				logger.Trace().Msg(e)
			case <-ctx.Done():
				// Drain whatever is already buffered, then exit; do not
				// block waiting for more once the pipeline is canceled.
				for {
					select {
					case e, ok := <-ts.events:
						if !ok {
							return
						}
						logger.Trace().Msg(e)
					default:
						return
					}
				}
			}
		}
	}()
	return ts
}

// fn returns the traceFunc workers call on every lifecycle/passage event. A
// nil receiver yields a no-op, so callers never need to check for verbose
// mode themselves.
func (ts *traceSink) fn() traceFunc {
	if ts == nil {
		return func(event, stage string, stageIndex, workerIndex int) {}
	}
	return func(event, stage string, stageIndex, workerIndex int) {
		msg := fmt.Sprintf("event=%s stage=%s index=%d worker=%d", event, stage, stageIndex, workerIndex)
		select {
		case ts.events <- msg:
		default:
			// Overloaded: drop, per the non-blocking trace contract.
		}
	}
}

// close stops accepting new events and waits for the drain goroutine to
// finish flushing whatever is already buffered.
func (ts *traceSink) close() {
	if ts == nil {
		return
	}
	close(ts.events)
	<-ts.done
}
