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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devrupt/soulbound"
	"github.com/devrupt/soulbound/internal/config"
)

// NodeOptions converts the loaded configuration into node options
func NodeOptions(
	cfg *config.Config,
	logger *slog.Logger,
) ([]soulbound.ConfigOptionFunc, error) {
	programID, err := cfg.ProgramPublicKey()
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		return nil, err
	}
	return []soulbound.ConfigOptionFunc{
		soulbound.WithLogger(logger),
		soulbound.WithDatabasePath(cfg.DatabasePath),
		soulbound.WithBadgerCacheSize(cfg.BadgerCacheSize),
		soulbound.WithGenesisFile(cfg.GenesisFile),
		soulbound.WithProgramID(programID),
		soulbound.WithMinContributions(cfg.MinContributions),
		soulbound.WithMaxNameLength(cfg.MaxNameLength),
		soulbound.WithStrictCid(cfg.StrictCid),
		soulbound.WithShutdownTimeout(shutdownTimeout),
		soulbound.WithTracing(cfg.Tracing),
		soulbound.WithTracingStdout(cfg.TracingStdout),
	}, nil
}

// Open creates and opens a node without serving it. The caller must Stop it.
func Open(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (*soulbound.Node, error) {
	opts, err := NodeOptions(cfg, logger)
	if err != nil {
		return nil, err
	}
	n, err := soulbound.New(soulbound.NewConfig(opts...))
	if err != nil {
		return nil, err
	}
	if err := n.Open(ctx); err != nil {
		if stopErr := n.Stop(); stopErr != nil {
			err = errors.Join(err, stopErr)
		}
		return nil, err
	}
	return n, nil
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	opts, err := NodeOptions(cfg, logger)
	if err != nil {
		return err
	}
	shutdownTimeout, _ := cfg.ShutdownTimeoutDuration()
	if cfg.APIPort > 0 {
		opts = append(
			opts,
			soulbound.WithAPIListenAddress(
				fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.APIPort),
			),
		)
	}
	opts = append(
		opts,
		// Enable metrics with default prometheus registry
		soulbound.WithPrometheusRegistry(prometheus.DefaultRegisterer),
	)
	n, err := soulbound.New(soulbound.NewConfig(opts...))
	if err != nil {
		return err
	}
	// Metrics and debug listener
	var metricsServer *http.Server
	if cfg.MetricsPort > 0 {
		http.Handle("/metrics", promhttp.Handler())
		metricsAddr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort)
		logger.Info(
			"serving prometheus metrics on "+metricsAddr,
			"component", "node",
		)
		metricsServer = &http.Server{
			Addr:              metricsAddr,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				logger.Error(
					fmt.Sprintf("failed to start metrics listener: %s", err),
					"component", "node",
				)
				os.Exit(1)
			}
		}()
	}
	shutdownMetrics := func() {
		if metricsServer == nil {
			return
		}
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// Run node until signaled or failed
	//nolint:contextcheck
	err = n.Run(signalCtx)
	if signalCtx.Err() != nil {
		logger.Info("signal received, initiating graceful shutdown")
	}
	shutdownMetrics()
	if stopErr := n.Stop(); stopErr != nil {
		logger.Error("shutdown errors occurred", "error", stopErr)
		err = errors.Join(err, stopErr)
	}
	if err != nil {
		logger.Error("node error", "error", err)
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
