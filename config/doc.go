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


// Package config loads and persists the imagecat application settings.
//
// Settings live in a TOML file, by default ~/.image_categorizer/config.toml.
// Missing keys take their defaults and "~" in paths is expanded. At use time
// OPENAI_API_KEY, OPENAI_BASE_URL and IMAGECAT_MODEL take precedence over the
// file without being written back to it. A .env file is loaded into the
// environment first when present.
//
// The file also remembers the last run's input, output, batch size, start
// row and mock mode so the CLI and UI can offer them again.
package config
