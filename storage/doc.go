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


// Package storage provides the persistence abstraction for imagecat.
//
// Two repositories are defined here. A CheckpointRepository remembers how far a
// run got through an input file so an interrupted batch can resume. A
// SuggestionCache remembers what the vision model said about a URL so reruns of
// the same catalog do not pay for the same call twice.
//
// The badger subpackage implements both on top of a single Backend, which
// keeps checkpoints and cached suggestions under separate key prefixes.
//
// # Usage
//
// Open a persistent store:
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	checkpoints := badger.NewCheckpointRepository(backend)
//	cache := badger.NewSuggestionCache(backend)
//
// Tests use badger.NewMemoryRepositories, which opens an in-memory backend.
//
// # Thread Safety
//
// All repository implementations must be safe for concurrent use.
package storage
