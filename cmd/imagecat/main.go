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


package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/poiesic/imagecat/config"
	"github.com/poiesic/imagecat/logging"
	"github.com/urfave/cli/v2"
)

const (
	metaConfig     = "config"
	metaConfigPath = "config-path"
	metaLogCloser  = "log-closer"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "imagecat",
		Usage: "Categorize product images in a CSV catalog with a vision model",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the configuration file",
				EnvVars: []string{"IMAGECAT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error); defaults to the configured level",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format (auto, text, json); defaults to the configured format",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Dotenv file to load before reading credentials",
				Value: ".env",
			},
		},
		Before: setup,
		After:  teardown,
		Commands: []*cli.Command{
			processCommand(),
			applyCommand(),
			serveCommand(),
			categoriesCommand(),
			cacheCommand(),
		},
	}
}

// setup loads the environment and configuration, then installs the logger.
func setup(c *cli.Context) error {
	if err := config.LoadDotEnv(c.String("env-file")); err != nil {
		return err
	}

	cfg, path, exists, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	format := cfg.Logging.Format
	if c.IsSet("log-format") {
		format = c.String("log-format")
	}
	closer, err := logging.Init(logging.Options{
		Level:  level,
		Format: format,
		File:   cfg.LogFile(),
	})
	if err != nil {
		return err
	}

	if !exists {
		if err := cfg.Save(path); err != nil {
			slog.Warn("failed to create config file", "path", path, "err", err)
		} else {
			slog.Info("created config file", "path", path)
		}
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[metaConfig] = cfg
	c.App.Metadata[metaConfigPath] = path
	c.App.Metadata[metaLogCloser] = closer
	return nil
}

func teardown(c *cli.Context) error {
	if closer, ok := c.App.Metadata[metaLogCloser].(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func loadedConfig(c *cli.Context) (*config.Config, string) {
	cfg, _ := c.App.Metadata[metaConfig].(*config.Config)
	path, _ := c.App.Metadata[metaConfigPath].(string)
	return cfg, path
}
