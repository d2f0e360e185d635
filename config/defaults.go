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


package config

const (
	defaultConfigPath     = "~/.image_categorizer/config.toml"
	defaultDataDir        = "~/.image_categorizer"
	defaultLogDir         = "~/.image_categorizer/logs"
	defaultBaseURL        = "https://api.openai.com/v1"
	defaultModel          = "gpt-4o"
	defaultDetail         = "auto"
	defaultMaxTokens      = 300
	defaultAITimeout      = 30
	defaultBatchSize      = 5
	defaultMaxRetries     = 3
	defaultRetryDelay     = 1.0
	defaultRateLimitDelay = 1.0
	defaultAPITimeout     = 30
	defaultPreviewMaxDim  = 1024
	defaultBind           = "127.0.0.1:5000"
	defaultLogLevel       = "info"
	defaultLogFormat      = "auto"
)

// Default returns a Config populated with defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		AI: AI{
			BaseURL:        defaultBaseURL,
			Model:          defaultModel,
			Detail:         defaultDetail,
			MaxTokens:      defaultMaxTokens,
			TimeoutSeconds: defaultAITimeout,
		},
		Processing: Processing{
			BatchSize:           defaultBatchSize,
			MaxRetries:          defaultMaxRetries,
			RetryDelaySeconds:   defaultRetryDelay,
			RateLimitDelay:      defaultRateLimitDelay,
			APITimeout:          defaultAPITimeout,
			PreviewMaxDimension: defaultPreviewMaxDim,
			CacheSuggestions:    true,
		},
		Server: Server{
			Bind: defaultBind,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
