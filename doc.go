// Copyright 2026 The stagepipe Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package stagepipe runs a user-supplied chain of computations as a
// directed linear graph of stages, each stage executed by a configurable
// number of concurrent workers.
//
// Items flow from one or more source stages, through zero or more
// transform stages, into either a collector (the caller reads a result
// channel) or a single terminal sink stage. The graph is strictly linear:
// no branching, no merging, no cross-host distribution, no ordering
// guarantee once a stage runs more than one worker.
//
// # Quick start
//
//	p, err := stagepipe.New(
//	    []stagepipe.Stage{stagepipe.Source(generate, 1)},
//	    []stagepipe.Stage{
//	        stagepipe.Transform(double, 1),
//	        stagepipe.Transform(halve, 1),
//	    },
//	    nil, // no sink: caller collects the result stream
//	)
//	if err != nil {
//	    return err
//	}
//	out, err := p.Start(ctx)
//	if err != nil {
//	    return err
//	}
//	for item := range out {
//	    fmt.Println(item)
//	}
//	if err := p.Err(); err != nil {
//	    return err
//	}
//
// # Stage shapes
//
// A source produces items via an emit callback and returns when done. A
// transform either returns exactly one output per input (Transform) or
// emits zero or more outputs per input via a callback (FlatTransform) — the
// shape is fixed at construction, never inferred per call. A sink consumes
// items and produces no further output; when a sink is configured, Run
// replaces Start and no result channel is produced.
//
// # Concurrency model
//
// Each stage's workers run as independent goroutines over a bounded
// multi-producer multi-consumer queue (internal/queue) shared with its
// neighboring stage. A single coordinator goroutine tracks per-stage
// worker completion and closes each downstream queue, by injecting an
// end-of-stream marker, exactly once, as soon as every worker upstream of
// it has stopped. Workers that dequeue the marker re-enqueue it once before
// exiting, so every sibling worker on the same stage observes it exactly
// once without a broadcast primitive.
//
// Any uncaught error from a stage function cancels the pipeline's context,
// which every blocking queue operation inside stagepipe observes, so
// remaining workers unwind promptly; the first such error is retrievable
// via Err after the result channel (or Run) returns.
package stagepipe
