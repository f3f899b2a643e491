// Copyright 2026 The stagepipe Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stagepipe

import (
	"runtime"

	"github.com/rs/zerolog"
)

// defaultQueueCapacity is the per-queue capacity used when WithQueueCapacity
// is not supplied. Bounded rather than unbounded, per the cooperative
// backpressure guidance: a queue this size gives a downstream stage room to
// absorb a burst without letting an unbounded source outrun memory.
const defaultQueueCapacity = 64

// options holds the values configurable via Option, applied at New.
type options struct {
	numJobs       int
	workerCeiling int
	verbose       bool
	logger        zerolog.Logger
	queueCapacity int
}

func defaultOptions() options {
	n := runtime.NumCPU()
	return options{
		numJobs:       n,
		workerCeiling: n,
		logger:        zerolog.Nop(),
		queueCapacity: defaultQueueCapacity,
	}
}

// Option configures a Pipeline at construction time.
type Option func(*options)

// WithNumJobs records a hint for how many workers are expected to run in
// parallel. Unlike a bounded worker pool, stagepipe always launches one
// goroutine per configured worker regardless of this value — a process-
// pool executor that caps concurrently *running* workers at n_jobs can
// deadlock a pipeline whose total worker count exceeds that cap, since
// workers block on queues waiting for siblings that never get scheduled.
// Go's goroutines make that trap unnecessary to reproduce; numJobs is
// recorded but not otherwise used.
func WithNumJobs(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.numJobs = n
		}
	}
}

// WithWorkerCeiling overrides the per-stage worker count ceiling enforced
// at New (default: runtime.NumCPU()). A stage requesting more workers than
// the ceiling is a ConfigError.
func WithWorkerCeiling(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workerCeiling = n
		}
	}
}

// WithVerbose enables the trace sink: one structured log event per
// lifecycle signal and per item passage.
func WithVerbose(v bool) Option {
	return func(o *options) { o.verbose = v }
}

// WithLogger supplies the zerolog.Logger trace events and pipeline-level
// diagnostics are written to. Defaults to a no-op logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithQueueCapacity overrides the capacity of every inter-stage queue
// (default 64). Must be a positive value; it is rounded up to the next
// power of 2, with a minimum of 2, same as code.hybscloud.com/lfq.
func WithQueueCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueCapacity = n
		}
	}
}
