// Copyright 2026 The stagepipe Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stagepipe

import "context"

// SourceFunc produces items by calling emit zero or more times, returning
// once it has no more items to produce.
type SourceFunc func(ctx context.Context, emit func(item any)) error

// TransformFunc consumes exactly one item and produces exactly one output
// item.
type TransformFunc func(ctx context.Context, item any) (any, error)

// FlatTransformFunc consumes exactly one item and produces zero or more
// output items via emit.
type FlatTransformFunc func(ctx context.Context, item any, emit func(item any)) error

// SinkFunc consumes exactly one item and produces no output.
type SinkFunc func(ctx context.Context, item any) error

// stageKind distinguishes the four registration shapes a Stage may hold.
// The shape is fixed at construction; stagepipe never inspects function
// arity at call time.
type stageKind int

const (
	kindSource stageKind = iota
	kindTransform
	kindFlatTransform
	kindSink
)

func (k stageKind) String() string {
	switch k {
	case kindSource:
		return "source"
	case kindTransform:
		return "transform"
	case kindFlatTransform:
		return "flat-transform"
	case kindSink:
		return "sink"
	default:
		return "unknown"
	}
}

// signalKind is the lifecycle event a worker reports to the coordinator.
type signalKind int

const (
	signalStart signalKind = iota
	signalStop
)

// signal is the (kind, stage index) pair workers emit on entry and on
// clean exit. Source workers report stageIndex -1, per the indexing
// convention the coordinator uses to address jobs[0] and queues[0].
type signal struct {
	kind       signalKind
	stageIndex int
}

// entry is the in-band unit carried by an itemQueue: either a live item or
// the end-of-stream marker. Exactly one EOS travels through a queue per
// worker on that queue's consuming stage, per the re-enqueue discipline
// described in the package documentation.
type entry struct {
	item any
	eos  bool
}
