// Copyright 2025 Blink Labs Software
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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/scriptinfo/koios"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "scriptinfo.config"

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

const (
	DefaultNetwork        = "mainnet"
	DefaultRequestTimeout = 30 * time.Second
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Network        string        `yaml:"network"`
	KoiosUrl       string        `yaml:"koiosUrl"       envconfig:"KOIOS_URL"`
	KoiosToken     string        `yaml:"koiosToken"     envconfig:"KOIOS_TOKEN"`
	RequestTimeout time.Duration `yaml:"requestTimeout"                        split_words:"true"`
	CacheDir       string        `yaml:"cacheDir"                              split_words:"true"`
	MetricsFile    string        `yaml:"metricsFile"                           split_words:"true"`
	// Badger cache tuning
	CacheBlockCacheSize uint64 `yaml:"cacheBlockCacheSize" split_words:"true"`
	CacheIndexCacheSize uint64 `yaml:"cacheIndexCacheSize" split_words:"true"`
	CacheGc             bool   `yaml:"cacheGc"             split_words:"true"`
	// Tracing exports spans over OTLP/HTTP, or to stdout with TracingStdout
	Tracing       bool `yaml:"tracing"`
	TracingStdout bool `yaml:"tracingStdout" split_words:"true"`
}

var globalConfig = defaultConfig()

func defaultConfig() *Config {
	return &Config{
		Network:             DefaultNetwork,
		RequestTimeout:      DefaultRequestTimeout,
		CacheDir:            "",
		CacheBlockCacheSize: 64 << 20,
		CacheIndexCacheSize: 16 << 20,
		CacheGc:             true,
	}
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.scriptinfo/scriptinfo.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".scriptinfo", "scriptinfo.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/scriptinfo/scriptinfo.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/scriptinfo/scriptinfo.yaml"
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
	err := envconfig.Process("scriptinfo", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := globalConfig.Validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

// Validate checks the loaded values and fills in the Koios URL for the
// configured network when none was given
func (c *Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf(
			"%w: requestTimeout must be positive, got %s",
			ErrInvalidConfig,
			c.RequestTimeout,
		)
	}
	if c.KoiosUrl == "" {
		baseURL, err := koios.BaseURLForNetwork(c.Network)
		if err != nil {
			return fmt.Errorf(
				"%w: %w (set koiosUrl for custom networks)",
				ErrInvalidConfig,
				err,
			)
		}
		c.KoiosUrl = baseURL
	}
	return nil
}

func GetConfig() *Config {
	return globalConfig
}
