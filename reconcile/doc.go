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


// Package reconcile merges manual and AI category sets into the final
// categories written for an image.
//
// Reconciliation is an ordered list of named rules. Each rule receives the
// original Input and the set produced by the rules before it, and returns a
// new set; later rules win on conflict. The default order is:
//
//  1. union: manual ∪ AI
//  2. orientation: drop every orientation path and derive one from dimensions
//  3. people: "No People" overrides, exclusive age/ethnicity keep one path
//  4. manual-priority: manual mockup and copy-space picks replace AI picks
//  5. harmonize: main and color families are de-duplicated
//
// The result is always sorted so that output is stable.
package reconcile
