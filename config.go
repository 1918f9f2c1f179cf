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

package soulbound

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/devrupt/soulbound/program/metadata"
	"github.com/devrupt/soulbound/program/sbt"
)

type Config struct {
	promRegistry     prometheus.Registerer
	logger           *slog.Logger
	dataDir          string
	apiListenAddress string
	genesisFile      string
	programID        solana.PublicKey
	badgerCacheSize  uint64
	minContributions uint64
	maxNameLength    int
	shutdownTimeout  time.Duration
	apiEnabled       bool
	strictCid        bool
	tracing          bool
	tracingStdout    bool
}

func (n *Node) configValidate() error {
	if n.config.programID.IsZero() {
		return errors.New("program id must not be empty")
	}
	if n.config.minContributions < sbt.MinContributions {
		return fmt.Errorf(
			"min contributions must be at least %d",
			sbt.MinContributions,
		)
	}
	if n.config.maxNameLength <= 0 {
		return errors.New("max name length must be positive")
	}
	if n.config.apiEnabled && n.config.apiListenAddress == "" {
		return errors.New("API listen address must be set when the API is enabled")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new soulbound config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:           slog.New(slog.NewJSONHandler(io.Discard, nil)),
		programID:        sbt.DefaultProgramID,
		minContributions: sbt.MinContributions,
		maxNameLength:    metadata.DefaultMaxNameLength,
		shutdownTimeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBadgerCacheSize specifies the block cache size of the account store
func WithBadgerCacheSize(size uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.badgerCacheSize = size
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithAPIListenAddress enables the REST API on the given address
func WithAPIListenAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = address
		c.apiEnabled = address != ""
	}
}

// WithGenesisFile specifies a file of contributor states to load on startup
func WithGenesisFile(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.genesisFile = path
	}
}

// WithProgramID specifies the address the soulbound program is deployed at
func WithProgramID(programID solana.PublicKey) ConfigOptionFunc {
	return func(c *Config) {
		c.programID = programID
	}
}

// WithMinContributions specifies the contribution count required to mint a credential. This defaults to 1
func WithMinContributions(minContributions uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.minContributions = minContributions
	}
}

// WithMaxNameLength specifies the longest metadata name the attestation program accepts
func WithMaxNameLength(length int) ConfigOptionFunc {
	return func(c *Config) {
		c.maxNameLength = length
	}
}

// WithStrictCid rejects content identifiers that do not parse as a CID before a transaction is built
func WithStrictCid(strict bool) ConfigOptionFunc {
	return func(c *Config) {
		c.strictCid = strict
	}
}

// WithShutdownTimeout specifies how long a graceful shutdown may take. This defaults to 30s
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}
