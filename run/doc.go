// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package run drives a categorization run over a catalog CSV.
//
// A Runner reads ImageRecords from a start row, categorizes each image in
// order, writes the output row and flushes it before moving on. Batches only
// pace progress updates; the output is the same for any batch size.
//
// # Usage
//
//	runner, err := run.NewRunner(tax,
//	    run.WithProvider(provider),
//	    run.WithCheckpoints(checkpoints),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer runner.Release()
//
//	snap, err := runner.Run(ctx, run.Job{
//	    InputPath: "products.csv",
//	    Manual:    []core.CategoryPath{"Category > Food"},
//	})
//
// # Runs
//
// At most one run is active per Runner. Start dispatches a run onto a
// single-worker pool and returns immediately; Snapshot may be polled at any
// time. Stop is cooperative and takes effect before the next image.
//
// # Failures
//
// A failed fetch or AI call is a per-image failure: the row falls back to the
// manual selection and the run continues. Credential failures, unreadable
// input and invalid selections end the run before the current row is written.
package run
