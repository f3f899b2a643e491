// Copyright 2026 The stagepipe Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stagepipe

// CollectBatches reads out until it closes, grouping items into slices of
// at most batchSize and calling fn with each group in arrival order. The
// final batch may be shorter than batchSize. fn is called synchronously
// from CollectBatches's own goroutine (the caller's), never concurrently.
//
// This is a thin convenience over the channel Start returns, grounded in
// how the pipeline this library's ancestor replaces collected its output:
// one list, filled a batch at a time, rather than a new pipeline
// primitive — it does not change what Start delivers, only how a caller
// chooses to consume it.
func CollectBatches(out <-chan any, batchSize int, fn func(batch []any)) {
	if batchSize < 1 {
		batchSize = 1
	}
	batch := make([]any, 0, batchSize)
	for item := range out {
		batch = append(batch, item)
		if len(batch) == batchSize {
			fn(batch)
			batch = make([]any, 0, batchSize)
		}
	}
	if len(batch) > 0 {
		fn(batch)
	}
}
