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
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/devrupt/soulbound/api"
	"github.com/devrupt/soulbound/database"
	"github.com/devrupt/soulbound/event"
	"github.com/devrupt/soulbound/issuer"
	"github.com/devrupt/soulbound/ledger"
	"github.com/devrupt/soulbound/program/associatedtoken"
	"github.com/devrupt/soulbound/program/metadata"
	"github.com/devrupt/soulbound/program/sbt"
	"github.com/devrupt/soulbound/program/system"
	"github.com/devrupt/soulbound/program/token"
)

type Node struct {
	eventBus      *event.EventBus
	db            *database.Database
	runtime       *ledger.Runtime
	issuer        *issuer.Issuer
	api           *api.Server
	shutdownFuncs []func(context.Context) error
	config        Config
	done          chan struct{}
	openOnce      sync.Once
	openErr       error
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	n := &Node{
		config:   cfg,
		eventBus: event.NewEventBus(cfg.promRegistry, cfg.logger),
		done:     make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return n, nil
}

// Open loads the database and the ledger runtime. Run calls it, but it can
// be used alone to work with the ledger without serving it.
func (n *Node) Open(ctx context.Context) error {
	n.openOnce.Do(func() {
		n.openErr = n.open(ctx)
	})
	return n.openErr
}

func (n *Node) open(ctx context.Context) error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(&database.Config{
		DataDir:       n.config.dataDir,
		Logger:        n.config.logger,
		PromRegistry:  n.config.promRegistry,
		BlobCacheSize: n.config.badgerCacheSize,
	})
	if err != nil {
		var tsErr database.CommitTimestampError
		if errors.As(err, &tsErr) {
			n.config.logger.Error(
				"account store and credential index are out of sync",
				"error", err,
			)
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	// Load ledger runtime
	rt, err := ledger.NewRuntime(ledger.RuntimeConfig{
		Database:     n.db,
		Logger:       n.config.logger,
		EventBus:     n.eventBus,
		PromRegistry: n.config.promRegistry,
		Programs: []ledger.Program{
			system.New(),
			token.New(),
			associatedtoken.New(),
			metadata.New(
				metadata.WithMaxNameLength(n.config.maxNameLength),
			),
			sbt.New(
				sbt.WithProgramID(n.config.programID),
				sbt.WithMinContributions(n.config.minContributions),
				sbt.WithEventBus(n.eventBus),
				sbt.WithLogger(n.config.logger),
				sbt.WithPromRegistry(n.config.promRegistry),
			),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to load ledger runtime: %w", err)
	}
	n.runtime = rt
	n.eventBus.SubscribeFunc(
		sbt.CredentialIssuedEventType,
		n.handleCredentialIssued,
	)
	n.issuer, err = issuer.New(issuer.Config{
		Runtime:   n.runtime,
		Logger:    n.config.logger,
		ProgramID: n.config.programID,
		StrictCid: n.config.strictCid,
	})
	if err != nil {
		return err
	}
	if n.config.genesisFile != "" {
		if err := n.loadGenesis(ctx); err != nil {
			return fmt.Errorf("failed to load genesis: %w", err)
		}
	}
	return nil
}

// Run opens the node, starts the API if configured, and blocks until ctx
// is done or Stop is called
func (n *Node) Run(ctx context.Context) error {
	if err := n.Open(ctx); err != nil {
		return err
	}
	if n.config.apiEnabled {
		n.api = api.New(
			api.Config{
				ListenAddress:   n.config.apiListenAddress,
				ShutdownTimeout: n.config.shutdownTimeout,
			},
			api.NewLedgerBackend(n.runtime, n.issuer),
			n.config.logger,
		)
		if err := n.api.Start(ctx); err != nil {
			return err
		}
	}
	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case <-n.done:
	}
	return nil
}

func (n *Node) handleCredentialIssued(evt event.Event) {
	data, ok := evt.Data.(sbt.CredentialIssuedEvent)
	if !ok {
		return
	}
	n.config.logger.Debug(
		"credential event",
		"component", "node",
		"owner", data.Owner.String(),
		"name", data.Name,
		"uri", data.URI,
	)
}

func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

// Runtime returns the ledger runtime, or nil before Open
func (n *Node) Runtime() *ledger.Runtime {
	return n.runtime
}

// Issuer returns the credential issuer, or nil before Open
func (n *Node) Issuer() *issuer.Issuer {
	return n.issuer
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	shutdownTimeout := 30 * time.Second
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("API shutdown: %w", stopErr))
		}
	}

	// Phase 2: Deliver pending events and release resources
	if n.eventBus != nil {
		n.eventBus.Stop()
	}
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	// Phase 3: Close database
	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}
