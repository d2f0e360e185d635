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


package ai

import "github.com/poiesic/imagecat/taxonomy"

// Request describes one image to categorize.
type Request struct {
	// URL is the image source. It is sent to the service when Image is empty.
	URL string

	// Image holds encoded image bytes, typically a downscaled preview.
	Image []byte

	// MIMEType is the media type of Image.
	MIMEType string

	// Description is optional catalog text about the image.
	Description string

	// Taxonomy bounds the categories a suggestion may contain.
	Taxonomy *taxonomy.Taxonomy
}
