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


package catalog

import "errors"

var (
	// ErrEmptyCSV indicates a file without a header row.
	ErrEmptyCSV = errors.New("csv file is empty")

	// ErrNoURLColumn indicates no column holding image URLs could be found.
	ErrNoURLColumn = errors.New("csv must have an image URL column")

	// ErrInvalidStartRow indicates a start row outside the data rows.
	ErrInvalidStartRow = errors.New("no rows to process or invalid start row")

	// ErrOutputLocked indicates another process is writing the same output file.
	ErrOutputLocked = errors.New("output file is locked by another process")
)
