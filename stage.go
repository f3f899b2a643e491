// Copyright 2026 The stagepipe Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stagepipe

// Stage describes one position in a pipeline: a kind, a user function, and
// a worker count. Build one with Source, Transform, FlatTransform, or Sink
// — never by composing the zero value directly.
type Stage struct {
	kind          stageKind
	workers       int
	source        SourceFunc
	transform     TransformFunc
	flatTransform FlatTransformFunc
	sink          SinkFunc
}

// Source builds a source stage: fn is invoked once per worker, each
// invocation receiving its own emit callback onto the first inter-stage
// queue. workers must be >= 1.
func Source(fn SourceFunc, workers int) Stage {
	return Stage{kind: kindSource, workers: workers, source: fn}
}

// Transform builds a one-arg transform stage: fn consumes exactly one item
// and produces exactly one output item. workers must be >= 1.
func Transform(fn TransformFunc, workers int) Stage {
	return Stage{kind: kindTransform, workers: workers, transform: fn}
}

// FlatTransform builds a two-arg transform stage: fn consumes exactly one
// item and may emit zero or more output items via the callback. workers
// must be >= 1.
func FlatTransform(fn FlatTransformFunc, workers int) Stage {
	return Stage{kind: kindFlatTransform, workers: workers, flatTransform: fn}
}

// Sink builds a terminal sink stage: fn consumes exactly one item and
// produces no output. workers must be >= 1.
func Sink(fn SinkFunc, workers int) Stage {
	return Stage{kind: kindSink, workers: workers, sink: fn}
}
