// Copyright 2026 Blocksecure Labs
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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "chainseal.config"

const DefaultShutdownTimeout = "30s"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	BindAddr        string  `yaml:"bindAddr"                                       split_words:"true"`
	DatabasePath    string  `yaml:"databasePath"                                   split_words:"true"`
	Anchorer        string  `yaml:"anchorer"`
	ConfirmDelayMin string  `yaml:"confirmDelayMin"                                split_words:"true"`
	ConfirmDelayMax string  `yaml:"confirmDelayMax"                                split_words:"true"`
	ShutdownTimeout string  `yaml:"shutdownTimeout"                                split_words:"true"`
	ConfirmRate     float64 `yaml:"confirmRate"                                    split_words:"true"`
	InitialHeight   uint64  `yaml:"initialHeight"                                  split_words:"true"`
	ApiPort         uint    `yaml:"apiPort"         envconfig:"port"`
	MetricsPort     uint    `yaml:"metricsPort"                                    split_words:"true"`
	Tracing         bool    `yaml:"tracing"`
	TracingStdout   bool    `yaml:"tracingStdout"                                  split_words:"true"`
}

var globalConfig = &Config{
	BindAddr:        "0.0.0.0",
	DatabasePath:    ".chainseal",
	Anchorer:        "",
	ConfirmDelayMin: "2s",
	ConfirmDelayMax: "5s",
	ConfirmRate:     0.95,
	InitialHeight:   150000,
	ApiPort:         3000,
	MetricsPort:     12798,
	ShutdownTimeout: DefaultShutdownTimeout,
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.chainseal/chainseal.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(
				homeDir,
				".chainseal",
				"chainseal.yaml",
			)
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/chainseal/chainseal.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/chainseal/chainseal.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	// Process environment variables
	err := envconfig.Process("chainseal", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}

	// Validate duration values up front so a bad config fails at
	// startup rather than at first use
	for _, d := range []string{
		globalConfig.ConfirmDelayMin,
		globalConfig.ConfirmDelayMax,
		globalConfig.ShutdownTimeout,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return nil, fmt.Errorf("invalid duration value %q: %w", d, err)
		}
	}
	if globalConfig.ConfirmRate < 0 || globalConfig.ConfirmRate > 1 {
		return nil, fmt.Errorf(
			"invalid confirmRate: %f (must be within 0-1)",
			globalConfig.ConfirmRate,
		)
	}

	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}
