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


// Package taxonomy holds the category tree images are tagged against.
//
// A Taxonomy is built from a list of root nodes. Roots name a family
// ("Colors", "PEOPLE", ...) and are not selectable themselves; every node
// below a root is a selectable core.CategoryPath. The built-in tree can be
// replaced by a TOML file (see Load).
package taxonomy
