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

	"github.com/gagliardetto/solana-go"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/devrupt/soulbound/program/sbt"
)

type ctxKey string

const configContextKey ctxKey = "soulbound.config"

const (
	DefaultShutdownTimeout = "30s"
	DefaultProgramID       = "FV5sGyF543uGgyJdgfdsQhNGXrGkxY4wsBT5h4tcpjPN"
	// DefaultMaxNameLength is the metadata name limit. A real 46 character
	// CID does not fit the 32 byte default of the attestation program once
	// the name prefix is added.
	DefaultMaxNameLength = 64
)

var (
	ErrInvalidProgramID       = errors.New("invalid program id")
	ErrInvalidShutdownTimeout = errors.New("invalid shutdown timeout")
	ErrInvalidMaxNameLength   = errors.New("maxNameLength must be positive")
	ErrInvalidPort            = errors.New("port out of range")
)

var ErrInvalidMinContributions = fmt.Errorf(
	"minContributions must be at least %d",
	sbt.MinContributions,
)

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

type tempConfig struct {
	Config yaml.Node `yaml:"config,omitempty"`
}

type Config struct {
	DatabasePath     string `yaml:"databasePath"     split_words:"true"`
	BindAddr         string `yaml:"bindAddr"         split_words:"true"`
	ShutdownTimeout  string `yaml:"shutdownTimeout"  split_words:"true"`
	ProgramID        string `yaml:"programId"        envconfig:"PROGRAM_ID"`
	KeypairPath      string `yaml:"keypairPath"      split_words:"true"`
	GenesisFile      string `yaml:"genesisFile"      split_words:"true"`
	BadgerCacheSize  uint64 `yaml:"badgerCacheSize"  split_words:"true"`
	MinContributions uint64 `yaml:"minContributions" split_words:"true"`
	MaxNameLength    int    `yaml:"maxNameLength"    split_words:"true"`
	APIPort          uint   `yaml:"apiPort"          envconfig:"API_PORT"`
	MetricsPort      uint   `yaml:"metricsPort"      split_words:"true"`
	StrictCid        bool   `yaml:"strictCid"        split_words:"true"`
	Tracing          bool   `yaml:"tracing"`
	TracingStdout    bool   `yaml:"tracingStdout"    split_words:"true"`
}

// ShutdownTimeoutDuration returns the parsed shutdown timeout
func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidShutdownTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidShutdownTimeout, c.ShutdownTimeout)
	}
	return d, nil
}

// ProgramPublicKey returns the parsed soulbound program id
func (c *Config) ProgramPublicKey() (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(c.ProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %w", ErrInvalidProgramID, err)
	}
	return key, nil
}

// Validate checks the values that cannot be checked by type alone
func (c *Config) Validate() error {
	if _, err := c.ProgramPublicKey(); err != nil {
		return err
	}
	if _, err := c.ShutdownTimeoutDuration(); err != nil {
		return err
	}
	if c.MaxNameLength <= 0 {
		return ErrInvalidMaxNameLength
	}
	if c.MinContributions < sbt.MinContributions {
		return ErrInvalidMinContributions
	}
	for _, port := range []uint{c.APIPort, c.MetricsPort} {
		if port > 65535 {
			return fmt.Errorf("%w: %d", ErrInvalidPort, port)
		}
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		DatabasePath:     ".soulbound",
		BindAddr:         "0.0.0.0",
		ShutdownTimeout:  DefaultShutdownTimeout,
		ProgramID:        DefaultProgramID,
		KeypairPath:      defaultKeypairPath(),
		BadgerCacheSize:  1073741824,
		MinContributions: sbt.MinContributions,
		MaxNameLength:    DefaultMaxNameLength,
		APIPort:          8899,
		MetricsPort:      12799,
	}
}

func defaultKeypairPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "id.json"
	}
	return filepath.Join(homeDir, ".soulbound", "id.json")
}

var globalConfig = defaultConfig()

// LoadConfig reads configFile, or the first of ~/.soulbound/soulbound.yaml
// and /etc/soulbound/soulbound.yaml that exists, then applies SOULBOUND_*
// environment variables on top
func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".soulbound", "soulbound.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
		if configFile == "" {
			systemPath := "/etc/soulbound/soulbound.yaml"
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
		// Settings may be nested under a top level "config" key
		var tempCfg tempConfig
		if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		if tempCfg.Config.Kind != 0 {
			if err := tempCfg.Config.Decode(globalConfig); err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else if err := yaml.Unmarshal(buf, globalConfig); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process("soulbound", globalConfig); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := globalConfig.Validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}
