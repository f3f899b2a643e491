// Copyright 2026 The stagepipe Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stagepipe

import (
	"context"
	"fmt"
)

// Pipeline runs a fixed chain of source, transform, and (optionally) sink
// stages, each backed by a configurable number of concurrent workers.
// Build one with New; it is not useful in its zero value.
type Pipeline struct {
	sources    []Stage
	transforms []Stage
	sink       *Stage
	opts       options

	errs    chan error
	errDone chan struct{}
	runErr  error
}

// New validates the stage chain and options, returning a *ConfigError for
// any problem: an empty source list, a stage built with the wrong
// constructor for its position, or a worker count outside
// [1, workerCeiling].
func New(sources []Stage, transforms []Stage, sink *Stage, opts ...Option) (*Pipeline, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if len(sources) == 0 {
		return nil, &ConfigError{Msg: "at least one source stage is required"}
	}
	for i, s := range sources {
		if s.kind != kindSource {
			return nil, &ConfigError{Msg: fmt.Sprintf("sources[%d]: not built with Source", i)}
		}
		if err := checkWorkers(s.workers, o.workerCeiling); err != nil {
			return nil, &ConfigError{Msg: fmt.Sprintf("sources[%d]: %v", i, err)}
		}
	}
	for i, s := range transforms {
		if s.kind != kindTransform && s.kind != kindFlatTransform {
			return nil, &ConfigError{Msg: fmt.Sprintf("transforms[%d]: not built with Transform or FlatTransform", i)}
		}
		if err := checkWorkers(s.workers, o.workerCeiling); err != nil {
			return nil, &ConfigError{Msg: fmt.Sprintf("transforms[%d]: %v", i, err)}
		}
	}
	if sink != nil {
		if sink.kind != kindSink {
			return nil, &ConfigError{Msg: "sink: not built with Sink"}
		}
		if err := checkWorkers(sink.workers, o.workerCeiling); err != nil {
			return nil, &ConfigError{Msg: fmt.Sprintf("sink: %v", err)}
		}
	}

	return &Pipeline{
		sources:    sources,
		transforms: transforms,
		sink:       sink,
		opts:       o,
		errDone:    make(chan struct{}),
	}, nil
}

func checkWorkers(workers, ceiling int) error {
	if workers < 1 {
		return fmt.Errorf("worker count %d is below 1", workers)
	}
	if workers > ceiling {
		return fmt.Errorf("worker count %d exceeds ceiling %d", workers, ceiling)
	}
	return nil
}

// Start launches the pipeline in collector mode: it must have been built
// with a nil sink. The returned channel yields every item to reach the end
// of the transform chain and is closed once every source and transform
// worker has exited cleanly, or as soon as the run's context is canceled
// (workers may still be unwinding at that point). Call Err after the
// channel is closed to learn whether it closed cleanly or was cut short by
// a stage error.
func (p *Pipeline) Start(ctx context.Context) (<-chan any, error) {
	if p.sink != nil {
		return nil, &ConfigError{Msg: "Start called on a pipeline configured with a sink; use Run"}
	}
	out := make(chan any, p.opts.queueCapacity)
	runCtx, cancel := context.WithCancel(ctx)
	queues, coord, trace := p.wire(runCtx)

	lastQueue := queues[len(queues)-1]
	go func() {
		defer close(out)
		for {
			e, ok := lastQueue.dequeue(runCtx)
			if !ok {
				return
			}
			if e.eos {
				return
			}
			select {
			case out <- e.item:
			case <-runCtx.Done():
				return
			}
		}
	}()

	p.launchWorkers(runCtx, queues, coord.signals, trace)
	p.superviseErrors(cancel, coord)
	return out, nil
}

// Run launches the pipeline in sink mode: it must have been built with a
// non-nil sink. It blocks until every worker has exited, then returns the
// first stage error observed (if any), equivalent to calling Start's
// collector-less counterpart and then Err.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.sink == nil {
		return &ConfigError{Msg: "Run called on a pipeline configured without a sink; use Start"}
	}
	runCtx, cancel := context.WithCancel(ctx)
	queues, coord, trace := p.wire(runCtx)

	p.launchWorkers(runCtx, queues, coord.signals, trace)
	p.superviseErrors(cancel, coord)

	<-p.errDone
	return p.runErr
}

// Err reports the first stage error observed during the pipeline's Start
// or Run, or nil if every worker exited cleanly. It blocks until that run
// has fully torn down, so it is meant to be called after a Start channel is
// drained (closed) or after Run returns — calling it concurrently with an
// in-progress run is valid but will block until completion.
func (p *Pipeline) Err() error {
	<-p.errDone
	return p.runErr
}

// wire allocates the k+1 inter-stage queues, the job-count vector, and the
// shared error channel, and starts the coordinator goroutine. k is
// len(p.transforms). The error channel is sized for one slot per worker
// plus one for a coordinator-reported protocol violation, so neither a
// worker nor the coordinator itself ever blocks trying to report a
// failure.
func (p *Pipeline) wire(ctx context.Context) ([]*itemQueue, *coordinator, traceFunc) {
	k := len(p.transforms)
	queues := make([]*itemQueue, k+1)
	for i := range queues {
		queues[i] = newItemQueue(p.opts.queueCapacity)
	}

	jobsLen := k + 1
	if p.sink != nil {
		jobsLen++
	}
	jobs := make([]int, jobsLen)
	for _, s := range p.sources {
		jobs[0] += s.workers
	}
	for i, s := range p.transforms {
		jobs[i+1] = s.workers
	}
	if p.sink != nil {
		jobs[jobsLen-1] = p.sink.workers
	}

	totalWorkers := jobs[0]
	for i := 1; i < len(jobs); i++ {
		totalWorkers += jobs[i]
	}
	signals := make(chan signal, totalWorkers)
	errs := make(chan error, totalWorkers+1)
	p.errs = errs

	ts := newTraceSink(ctx, p.opts.verbose, p.opts.logger)
	trace := ts.fn()

	coord := newCoordinator(jobs, queues, signals, errs, p.opts.logger)
	go coord.run(ctx)
	<-coord.ready

	go func() {
		<-coord.done
		ts.close()
	}()

	return queues, coord, trace
}

// launchWorkers starts one goroutine per configured worker across every
// source, transform, and (if configured) sink stage.
func (p *Pipeline) launchWorkers(ctx context.Context, queues []*itemQueue, signals chan signal, trace traceFunc) {
	errs := p.errs

	for _, s := range p.sources {
		for w := 0; w < s.workers; w++ {
			go runSource(ctx, s, w, queues[0], signals, errs, trace)
		}
	}
	for i, s := range p.transforms {
		for w := 0; w < s.workers; w++ {
			go runTransform(ctx, s, i, w, queues[i], queues[i+1], signals, errs, trace)
		}
	}
	if p.sink != nil {
		for w := 0; w < p.sink.workers; w++ {
			go runSink(ctx, *p.sink, len(p.transforms), w, queues[len(queues)-1], signals, errs, trace)
		}
	}
}

// superviseErrors watches errs for the first stage failure and cancels the
// run the instant one arrives — cancellation is what unblocks every other
// worker still parked on a full or empty queue, so it cannot wait for the
// coordinator to finish on its own. It then waits for the coordinator to
// observe every worker's STOP before closing errDone.
func (p *Pipeline) superviseErrors(cancel context.CancelFunc, coord *coordinator) {
	go func() {
		var errs []error
		for {
			select {
			case err, ok := <-p.errs:
				if !ok {
					p.finish(errs)
					return
				}
				errs = append(errs, err)
				cancel()
			case <-coord.done:
				p.drainRemaining(&errs)
				p.finish(errs)
				cancel()
				return
			}
		}
	}()
}

// drainRemaining collects any errors already queued once the coordinator
// has observed every worker's STOP, without blocking further.
func (p *Pipeline) drainRemaining(errs *[]error) {
	for {
		select {
		case err, ok := <-p.errs:
			if !ok {
				return
			}
			*errs = append(*errs, err)
		default:
			return
		}
	}
}

func (p *Pipeline) finish(errs []error) {
	if len(errs) > 0 {
		p.runErr = errs[0]
	}
	close(p.errDone)
}
