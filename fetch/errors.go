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


package fetch

import "errors"

var (
	// ErrFetch indicates the image could not be retrieved.
	ErrFetch = errors.New("image fetch failed")

	// ErrNotImage indicates the response body is not an image.
	ErrNotImage = errors.New("response is not an image")

	// ErrTooLarge indicates the image exceeds the configured size limit.
	ErrTooLarge = errors.New("image exceeds size limit")

	// ErrDecode indicates the image bytes could not be decoded.
	ErrDecode = errors.New("image decode failed")
)
