// Copyright 2026 The stagepipe Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stagepipe_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.hybscloud.com/stagepipe"
)

func intSource(values ...int) stagepipe.Stage {
	return stagepipe.Source(func(ctx context.Context, emit func(item any)) error {
		for _, v := range values {
			emit(v)
		}
		return nil
	}, 1)
}

func drain(t *testing.T, out <-chan any, timeout time.Duration) []any {
	t.Helper()
	var items []any
	deadline := time.After(timeout)
	for {
		select {
		case item, ok := <-out:
			if !ok {
				return items
			}
			items = append(items, item)
		case <-deadline:
			t.Fatal("timed out draining output channel")
		}
	}
}

// Scenario 1: single-thread happy path.
func TestSingleThreadHappyPath(t *testing.T) {
	source := intSource(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	double := stagepipe.Transform(func(ctx context.Context, item any) (any, error) {
		return item.(int) * 2, nil
	}, 1)
	half := stagepipe.Transform(func(ctx context.Context, item any) (any, error) {
		return item.(int) / 2, nil
	}, 1)

	p, err := stagepipe.New([]stagepipe.Stage{source}, []stagepipe.Stage{double, half}, nil, stagepipe.WithNumJobs(1))
	require.NoError(t, err)

	out, err := p.Start(context.Background())
	require.NoError(t, err)

	items := drain(t, out, 5*time.Second)
	require.NoError(t, p.Err())
	require.Len(t, items, 10)
	for i, item := range items {
		assert.Equal(t, i+1, item.(int))
	}
}

// Scenario 2: parallel workers on one stage.
func TestParallelWorkersOneStage(t *testing.T) {
	source := intSource(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	double := stagepipe.Transform(func(ctx context.Context, item any) (any, error) {
		return item.(int) * 2, nil
	}, 2)
	half := stagepipe.Transform(func(ctx context.Context, item any) (any, error) {
		return item.(int) / 2, nil
	}, 1)

	p, err := stagepipe.New([]stagepipe.Stage{source}, []stagepipe.Stage{double, half}, nil, stagepipe.WithNumJobs(4))
	require.NoError(t, err)

	out, err := p.Start(context.Background())
	require.NoError(t, err)

	items := drain(t, out, 5*time.Second)
	require.NoError(t, p.Err())
	require.Len(t, items, 10)
	assertSameMultiset(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, toInts(items))
}

// Scenario 3: parallel sources.
func TestParallelSources(t *testing.T) {
	source1 := intSource(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	source2 := intSource(11, 12, 13, 14, 15, 16, 17, 18, 19, 20)
	double := stagepipe.Transform(func(ctx context.Context, item any) (any, error) {
		return item.(int) * 2, nil
	}, 1)
	half := stagepipe.Transform(func(ctx context.Context, item any) (any, error) {
		return item.(int) / 2, nil
	}, 1)

	p, err := stagepipe.New([]stagepipe.Stage{source1, source2}, []stagepipe.Stage{double, half}, nil, stagepipe.WithNumJobs(4))
	require.NoError(t, err)

	out, err := p.Start(context.Background())
	require.NoError(t, err)

	items := drain(t, out, 5*time.Second)
	require.NoError(t, p.Err())
	require.Len(t, items, 20)
}

// Scenario 4: sink replaces collector.
func TestSinkReplacesCollector(t *testing.T) {
	source := intSource(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	double := stagepipe.Transform(func(ctx context.Context, item any) (any, error) {
		return item.(int) * 2, nil
	}, 1)

	var mu sync.Mutex
	var collected []int
	sink := stagepipe.Sink(func(ctx context.Context, item any) error {
		mu.Lock()
		collected = append(collected, item.(int))
		mu.Unlock()
		return nil
	}, 1)

	p, err := stagepipe.New([]stagepipe.Stage{source}, []stagepipe.Stage{double}, &sink)
	require.NoError(t, err)

	require.NoError(t, p.Run(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, collected, 10)
}

// Scenario 5: fan-out transform (two-arg / flat form).
func TestFanOutTransform(t *testing.T) {
	source := intSource(1, 2, 3, 4, 5)
	twice := stagepipe.FlatTransform(func(ctx context.Context, item any, emit func(any)) error {
		emit(item)
		emit(item)
		return nil
	}, 1)

	p, err := stagepipe.New([]stagepipe.Stage{source}, []stagepipe.Stage{twice}, nil)
	require.NoError(t, err)

	out, err := p.Start(context.Background())
	require.NoError(t, err)

	items := drain(t, out, 5*time.Second)
	require.NoError(t, p.Err())
	assert.Len(t, items, 10)
}

// Scenario 6: user-function error fails the pipeline fast.
func TestUserFunctionErrorFailsFast(t *testing.T) {
	source := intSource(1, 2, 3, 4, 5)
	boom := errors.New("boom on third item")
	var seen int
	var mu sync.Mutex
	failing := stagepipe.Transform(func(ctx context.Context, item any) (any, error) {
		mu.Lock()
		seen++
		n := seen
		mu.Unlock()
		if n == 3 {
			return nil, boom
		}
		return item, nil
	}, 1)

	p, err := stagepipe.New([]stagepipe.Stage{source}, []stagepipe.Stage{failing}, nil, stagepipe.WithNumJobs(1))
	require.NoError(t, err)

	out, err := p.Start(context.Background())
	require.NoError(t, err)

	drain(t, out, 5*time.Second)

	runErr := p.Err()
	require.Error(t, runErr)
	assert.True(t, stagepipe.IsStageError(runErr))
	assert.ErrorIs(t, runErr, boom)
}

// New rejects an empty source list.
func TestNewRejectsEmptySources(t *testing.T) {
	_, err := stagepipe.New(nil, nil, nil)
	require.Error(t, err)
	assert.True(t, stagepipe.IsConfigError(err))
}

// New rejects worker counts above the ceiling.
func TestNewRejectsWorkerCeiling(t *testing.T) {
	source := stagepipe.Source(func(ctx context.Context, emit func(item any)) error { return nil }, 1000)
	_, err := stagepipe.New([]stagepipe.Stage{source}, nil, nil, stagepipe.WithWorkerCeiling(4))
	require.Error(t, err)
	assert.True(t, stagepipe.IsConfigError(err))
}

// Start on a sink-configured pipeline is a config error, and vice versa.
func TestStartRunMismatchIsConfigError(t *testing.T) {
	source := intSource(1)
	sink := stagepipe.Sink(func(ctx context.Context, item any) error { return nil }, 1)

	p, err := stagepipe.New([]stagepipe.Stage{source}, nil, &sink)
	require.NoError(t, err)
	_, err = p.Start(context.Background())
	require.Error(t, err)
	assert.True(t, stagepipe.IsConfigError(err))

	p2, err := stagepipe.New([]stagepipe.Stage{source}, nil, nil)
	require.NoError(t, err)
	err = p2.Run(context.Background())
	require.Error(t, err)
	assert.True(t, stagepipe.IsConfigError(err))
}

// Invariant: count conservation across a chain of one-arg transforms.
func TestInvariantCountConservation(t *testing.T) {
	const n = 500
	values := make([]int, n)
	for i := range values {
		values[i] = i
	}
	source := intSource(values...)
	identity := stagepipe.Transform(func(ctx context.Context, item any) (any, error) {
		return item, nil
	}, 3)

	p, err := stagepipe.New([]stagepipe.Stage{source}, []stagepipe.Stage{identity}, nil)
	require.NoError(t, err)
	out, err := p.Start(context.Background())
	require.NoError(t, err)

	items := drain(t, out, 10*time.Second)
	require.NoError(t, p.Err())
	assert.Len(t, items, n)
}

// Invariant: independence from worker count — the output multiset does not
// depend on how many workers a pure transform stage uses.
func TestInvariantWorkerCountIndependence(t *testing.T) {
	values := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	square := func(ctx context.Context, item any) (any, error) {
		v := item.(int)
		return v * v, nil
	}

	for _, workers := range []int{1, 2, 4} {
		source := intSource(values...)
		transform := stagepipe.Transform(square, workers)
		p, err := stagepipe.New([]stagepipe.Stage{source}, []stagepipe.Stage{transform}, nil)
		require.NoError(t, err)
		out, err := p.Start(context.Background())
		require.NoError(t, err)
		items := drain(t, out, 5*time.Second)
		require.NoError(t, p.Err())
		expected := make([]int, len(values))
		for i, v := range values {
			expected[i] = v * v
		}
		assertSameMultiset(t, expected, toInts(items))
	}
}

// Invariant: termination — Start returns in bounded time for a finite source.
func TestInvariantTermination(t *testing.T) {
	source := intSource(1, 2, 3)
	p, err := stagepipe.New([]stagepipe.Stage{source}, nil, nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		out, err := p.Start(context.Background())
		require.NoError(t, err)
		drain(t, out, 5*time.Second)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not terminate in bounded time")
	}
}

func toInts(items []any) []int {
	out := make([]int, len(items))
	for i, item := range items {
		out[i] = item.(int)
	}
	return out
}

func assertSameMultiset(t *testing.T, want, got []int) {
	t.Helper()
	w := append([]int(nil), want...)
	g := append([]int(nil), got...)
	sort.Ints(w)
	sort.Ints(g)
	assert.Equal(t, w, g)
}
