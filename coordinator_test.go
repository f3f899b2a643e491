// Copyright 2026 The stagepipe Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stagepipe

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCoordinatorProtocolErrorOutOfRangeStop verifies a STOP signal whose
// stageIndex falls outside the job-count vector is surfaced as a
// *ProtocolError on the coordinator's error channel rather than only
// logged and dropped.
func TestCoordinatorProtocolErrorOutOfRangeStop(t *testing.T) {
	queues := []*itemQueue{newItemQueue(4)}
	signals := make(chan signal, 2)
	errs := make(chan error, 2)

	coord := newCoordinator([]int{1, 0}, queues, signals, errs, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go coord.run(ctx)
	<-coord.ready

	signals <- signal{kind: signalStop, stageIndex: 5}
	signals <- signal{kind: signalStop, stageIndex: -1}

	var err error
	select {
	case err = <-errs:
	case <-coord.done:
		t.Fatal("coordinator exited before reporting a protocol error")
	}

	require.Error(t, err)
	assert.True(t, IsProtocolError(err))

	select {
	case <-coord.done:
	case <-time.After(time.Second):
		t.Fatal("coordinator did not keep consuming signals after a protocol error")
	}
}

// TestCoordinatorProtocolErrorUnknownSignalKind verifies a signal whose
// kind is neither signalStart nor signalStop is reported the same way.
func TestCoordinatorProtocolErrorUnknownSignalKind(t *testing.T) {
	queues := []*itemQueue{newItemQueue(4)}
	signals := make(chan signal, 1)
	errs := make(chan error, 1)

	coord := newCoordinator([]int{1, 0}, queues, signals, errs, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go coord.run(ctx)
	<-coord.ready

	signals <- signal{kind: signalKind(99), stageIndex: -1}

	err := <-errs
	require.Error(t, err)
	assert.True(t, IsProtocolError(err))
}

// TestCoordinatorClosesQueueWithoutBlockingSignalLoop verifies that when a
// downstream queue is already full at the moment its last upstream worker
// reports STOP, the coordinator keeps consuming signals for other stages
// instead of blocking inside the EOS enqueue retry loop.
func TestCoordinatorClosesQueueWithoutBlockingSignalLoop(t *testing.T) {
	q0 := newItemQueue(2)
	q1 := newItemQueue(2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.True(t, q0.enqueue(ctx, entry{item: 1}))
	require.True(t, q0.enqueue(ctx, entry{item: 2}))

	signals := make(chan signal, 4)
	errs := make(chan error, 4)
	coord := newCoordinator([]int{1, 1, 0}, []*itemQueue{q0, q1}, signals, errs, zerolog.Nop())
	go coord.run(ctx)
	<-coord.ready

	signals <- signal{kind: signalStop, stageIndex: -1}
	signals <- signal{kind: signalStop, stageIndex: 0}

	// q1's closure does not depend on q0 draining, so it must complete even
	// though q0's own EOS enqueue is still retrying against a full queue in
	// its own goroutine.
	e, ok := q1.dequeue(ctx)
	require.True(t, ok)
	assert.True(t, e.eos)

	// Drain q0 so its closeWithEOS goroutine can finish placing the EOS it
	// owes and the test does not leak a retrying goroutine.
	first, ok := q0.dequeue(ctx)
	require.True(t, ok)
	assert.Equal(t, 1, first.item)
	second, ok := q0.dequeue(ctx)
	require.True(t, ok)
	assert.Equal(t, 2, second.item)
	third, ok := q0.dequeue(ctx)
	require.True(t, ok)
	assert.True(t, third.eos)
}
