// Copyright 2026 The stagepipe Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stagepipe

import "context"

// traceFunc records one human-readable lifecycle or item-passage event.
// It is a no-op when verbose tracing is disabled.
type traceFunc func(event, stage string, stageIndex, workerIndex int)

// runSource drives one source worker: emit START, call the user function
// exactly once with an emit callback bound to the first inter-stage queue,
// emit STOP. Reports its stageIndex as -1, per the coordinator's indexing
// convention.
func runSource(ctx context.Context, s Stage, workerIndex int, out *itemQueue, signals chan<- signal, errs chan<- error, trace traceFunc) {
	signals <- signal{kind: signalStart, stageIndex: -1}
	trace("start", "source", -1, workerIndex)
	defer func() {
		trace("stop", "source", -1, workerIndex)
		signals <- signal{kind: signalStop, stageIndex: -1}
	}()

	emit := func(item any) {
		if out.enqueue(ctx, entry{item: item}) {
			trace("emit", "source", -1, workerIndex)
		}
	}

	if err := s.source(ctx, emit); err != nil {
		reportError(errs, &StageError{Kind: kindSource, StageIndex: -1, WorkerIndex: workerIndex, Err: err})
	}
}

// runTransform drives one transform worker (one-arg or flat shape, fixed
// at construction): loop dequeuing from queue i, invoking the user
// function, and enqueuing onto queue i+1, until EOS or ctx cancellation.
func runTransform(ctx context.Context, s Stage, stageIndex, workerIndex int, in, out *itemQueue, signals chan<- signal, errs chan<- error, trace traceFunc) {
	signals <- signal{kind: signalStart, stageIndex: stageIndex}
	trace("start", s.kind.String(), stageIndex, workerIndex)
	defer func() {
		trace("stop", s.kind.String(), stageIndex, workerIndex)
		signals <- signal{kind: signalStop, stageIndex: stageIndex}
	}()

	emit := func(item any) {
		if out.enqueue(ctx, entry{item: item}) {
			trace("emit", s.kind.String(), stageIndex, workerIndex)
		}
	}

	for {
		e, ok := in.dequeue(ctx)
		if !ok {
			return // ctx canceled: unwind without re-enqueuing EOS
		}
		if e.eos {
			in.enqueue(ctx, entry{eos: true})
			return
		}
		trace("process", s.kind.String(), stageIndex, workerIndex)

		switch s.kind {
		case kindTransform:
			result, err := s.transform(ctx, e.item)
			if err != nil {
				reportError(errs, &StageError{Kind: kindTransform, StageIndex: stageIndex, WorkerIndex: workerIndex, Err: err})
				return
			}
			out.enqueue(ctx, entry{item: result})
		case kindFlatTransform:
			if err := s.flatTransform(ctx, e.item, emit); err != nil {
				reportError(errs, &StageError{Kind: kindFlatTransform, StageIndex: stageIndex, WorkerIndex: workerIndex, Err: err})
				return
			}
		}
	}
}

// runSink drives one sink worker: identical to a transform worker except
// there is no downstream queue and the user function's return value is
// discarded.
func runSink(ctx context.Context, s Stage, stageIndex, workerIndex int, in *itemQueue, signals chan<- signal, errs chan<- error, trace traceFunc) {
	signals <- signal{kind: signalStart, stageIndex: stageIndex}
	trace("start", "sink", stageIndex, workerIndex)
	defer func() {
		trace("stop", "sink", stageIndex, workerIndex)
		signals <- signal{kind: signalStop, stageIndex: stageIndex}
	}()

	for {
		e, ok := in.dequeue(ctx)
		if !ok {
			return
		}
		if e.eos {
			in.enqueue(ctx, entry{eos: true})
			return
		}
		trace("process", "sink", stageIndex, workerIndex)
		if err := s.sink(ctx, e.item); err != nil {
			reportError(errs, &StageError{Kind: kindSink, StageIndex: stageIndex, WorkerIndex: workerIndex, Err: err})
			return
		}
	}
}

// reportError submits err without blocking: errs is sized to the total
// worker count at construction, so every worker can always report its one
// possible error.
func reportError(errs chan<- error, err error) {
	select {
	case errs <- err:
	default:
	}
}
