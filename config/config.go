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

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/imagecat/ai"
	"github.com/poiesic/imagecat/run"
)

// Paths contains directory and file locations.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	LogDir       string `toml:"log_dir"`
	TaxonomyFile string `toml:"taxonomy_file"`
}

// AI contains vision service connection settings.
type AI struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	Detail         string  `toml:"detail"`
	MaxTokens      int     `toml:"max_tokens"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Processing contains run tuning and the last run's choices.
type Processing struct {
	BatchSize           int     `toml:"batch_size"`
	StartRow            int     `toml:"start_row"`
	MockMode            bool    `toml:"mock_mode"`
	MaxRetries          int     `toml:"max_retries"`
	RetryDelaySeconds   float64 `toml:"retry_delay_seconds"`
	RateLimitDelay      float64 `toml:"rate_limit_delay"`
	APITimeout          int     `toml:"api_timeout"`
	PreviewMaxDimension int     `toml:"preview_max_dimension"`
	CacheSuggestions    bool    `toml:"cache_suggestions"`
	LastInputFile       string  `toml:"last_input_file"`
	LastOutputFile      string  `toml:"last_output_file"`
}

// Server contains HTTP API settings.
type Server struct {
	Bind string `toml:"bind"`
}

// Logging contains log output settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // auto, text or json
	File   bool   `toml:"file"`
}

// Config encapsulates all imagecat settings.
type Config struct {
	Paths      Paths      `toml:"paths"`
	AI         AI         `toml:"ai"`
	Processing Processing `toml:"processing"`
	Server     Server     `toml:"server"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads the configuration at path (or the default location when path is
// empty), applies defaults and environment overrides, and validates it.
// It also reports the resolved path and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// Save writes the configuration to path as TOML. The file may hold an API
// key so it is created readable by the owner only.
func (c *Config) Save(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmp := expanded + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, expanded); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Remember records the choices of a run so they are offered next time.
func (c *Config) Remember(job run.Job) {
	c.Processing.LastInputFile = job.InputPath
	c.Processing.LastOutputFile = job.OutputPath
	c.Processing.StartRow = job.StartRow
	if job.BatchSize != 0 {
		c.Processing.BatchSize = job.BatchSize
	}
	c.Processing.MockMode = job.Mode == run.ModeMock
}

// ResetSession restores the remembered run choices to their defaults while
// keeping credentials and connection settings.
func (c *Config) ResetSession() {
	def := Default()
	c.Processing.BatchSize = def.Processing.BatchSize
	c.Processing.StartRow = 0
	c.Processing.MockMode = false
	c.Processing.LastInputFile = ""
	c.Processing.LastOutputFile = ""
}

// AIConfig returns the vision service configuration. OPENAI_BASE_URL and
// IMAGECAT_MODEL override the file.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithHost(envOr("OPENAI_BASE_URL", c.AI.BaseURL)),
		ai.WithModel(envOr("IMAGECAT_MODEL", c.AI.Model)),
		ai.WithDetail(c.AI.Detail),
		ai.WithMaxTokens(c.AI.MaxTokens),
		ai.WithTemperature(c.AI.Temperature),
		ai.WithTimeout(time.Duration(c.AI.TimeoutSeconds)*time.Second),
	)
}

// Credentials returns the credential chain: the environment first, then the
// configured key.
func (c *Config) Credentials() ai.CredentialSource {
	sources := []ai.CredentialSource{ai.EnvCredential()}
	if c.AI.APIKey != "" {
		sources = append(sources, ai.StaticCredential(c.AI.APIKey))
	}
	return ai.ChainCredentials(sources...)
}

// RunConfig returns the runner tuning.
func (c *Config) RunConfig() *run.Config {
	cfg := run.DefaultConfig()
	cfg.BatchSize = c.Processing.BatchSize
	cfg.MaxRetries = c.Processing.MaxRetries
	cfg.RetryDelay = seconds(c.Processing.RetryDelaySeconds)
	cfg.RateLimitDelay = seconds(c.Processing.RateLimitDelay)
	cfg.APITimeout = time.Duration(c.Processing.APITimeout) * time.Second
	cfg.PreviewMaxDim = uint(c.Processing.PreviewMaxDimension)
	return cfg
}

// StorePath returns the BadgerDB directory for checkpoints and the cache.
func (c *Config) StorePath() string {
	return filepath.Join(c.Paths.DataDir, "store")
}

// LogFile returns the log file path, or "" when file logging is off.
func (c *Config) LogFile() string {
	if !c.Logging.File {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "imagecat.log")
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = defaultConfigPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
