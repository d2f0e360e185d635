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


// Package catalog reads image catalogs from CSV and writes categorized output.
//
// Input files may carry a UTF-8 or UTF-16 byte order mark and ragged rows.
// The image URL column is detected by header name first and by content
// second. Output rows are appended and flushed one at a time so an
// interrupted run keeps every row it finished.
package catalog
