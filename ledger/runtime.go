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

package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/devrupt/soulbound/database"
	"github.com/devrupt/soulbound/database/models"
	"github.com/devrupt/soulbound/event"
)

type RuntimeConfig struct {
	Database     *database.Database
	Logger       *slog.Logger
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	Programs     []Program
}

// Receipt describes an executed transaction
type Receipt struct {
	Logs      []string
	Signature solana.Signature
}

// Runtime executes transactions against the account store. Transactions
// touching disjoint writable accounts run concurrently; transactions that
// share a writable account are serialized.
type Runtime struct {
	config   RuntimeConfig
	db       *database.Database
	logger   *slog.Logger
	programs map[solana.PublicKey]Program
	locks    *lockTable
	metrics  *runtimeMetrics
	tracer   trace.Tracer
}

func NewRuntime(cfg RuntimeConfig) (*Runtime, error) {
	if cfg.Database == nil {
		return nil, errors.New("runtime requires a database")
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	r := &Runtime{
		config:   cfg,
		db:       cfg.Database,
		logger:   cfg.Logger.With("component", "ledger"),
		programs: make(map[solana.PublicKey]Program),
		locks:    newLockTable(),
		metrics:  newRuntimeMetrics(cfg.PromRegistry),
		tracer:   otel.Tracer("github.com/devrupt/soulbound/ledger"),
	}
	for _, prog := range cfg.Programs {
		if err := r.RegisterProgram(prog); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RegisterProgram adds a program to the registry
func (r *Runtime) RegisterProgram(prog Program) error {
	id := prog.ProgramID()
	if _, ok := r.programs[id]; ok {
		return fmt.Errorf("program %s already registered", id)
	}
	r.programs[id] = prog
	return nil
}

// Database returns the backing database
func (r *Runtime) Database() *database.Database {
	return r.db
}

// Execute verifies and runs a transaction. Either every instruction
// succeeds and all effects commit together, or nothing persists. The
// returned receipt carries the program logs in both cases.
func (r *Runtime) Execute(ctx context.Context, tx *Transaction) (*Receipt, error) {
	ctx, span := r.tracer.Start(ctx, "ledger.Execute")
	defer span.End()
	start := time.Now()
	receipt := &Receipt{Signature: tx.Signature()}
	span.SetAttributes(
		attribute.String("signature", receipt.Signature.String()),
		attribute.Int("instructions", len(tx.Message.Instructions)),
	)
	if err := r.precheck(ctx, tx); err != nil {
		r.metrics.transactions.WithLabelValues(resultRejected).Inc()
		span.SetStatus(codes.Error, err.Error())
		return receipt, err
	}
	unlock := r.locks.Lock(tx.Message.WritableAccounts())
	defer unlock()
	state := &execState{signature: receipt.Signature}
	signers := make(map[solana.PublicKey]struct{})
	for _, signer := range tx.Message.Signers() {
		signers[signer] = struct{}{}
	}
	sig := receipt.Signature
	txn := r.db.Transaction(true)
	err := txn.Do(func(txn *database.Txn) error {
		processed, err := r.db.IsSignatureProcessed(sig[:], txn)
		if err != nil {
			return err
		}
		if processed {
			return ErrAlreadyProcessed
		}
		for idx := range tx.Message.Instructions {
			ix := &tx.Message.Instructions[idx]
			ic := &InvokeContext{
				ctx:         ctx,
				rt:          r,
				txn:         txn,
				state:       state,
				instruction: ix,
				signers:     signers,
				programID:   ix.ProgramID,
				depth:       1,
			}
			if err := r.process(ic); err != nil {
				r.metrics.instructionErrors.WithLabelValues(
					ix.ProgramID.String(),
				).Inc()
				return &InstructionError{
					Index:     idx,
					ProgramID: ix.ProgramID,
					Err:       err,
				}
			}
		}
		if err := r.db.SetSignatureProcessed(sig[:], txn); err != nil {
			return err
		}
		return r.db.SetTransaction(
			&models.Transaction{
				Signature:    sig[:],
				FeePayer:     tx.Message.FeePayer[:],
				Instructions: uint32(len(tx.Message.Instructions)), // #nosec G115
				Logs:         strings.Join(state.logs, "\n"),
				ProcessedAt:  time.Now(),
			},
			txn,
		)
	})
	receipt.Logs = state.logs
	r.metrics.executeSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			r.metrics.transactions.WithLabelValues(resultRejected).Inc()
		} else {
			r.metrics.transactions.WithLabelValues(resultFailed).Inc()
		}
		span.SetStatus(codes.Error, err.Error())
		r.logger.Debug(
			"transaction failed",
			"signature", sig.String(),
			"error", err,
			"logs", state.logs,
		)
		return receipt, err
	}
	r.metrics.transactions.WithLabelValues(resultCommitted).Inc()
	r.logger.Debug(
		"transaction committed",
		"signature", sig.String(),
		"logs", state.logs,
	)
	for _, fn := range state.afterCommit {
		fn()
	}
	if r.config.EventBus != nil {
		r.config.EventBus.Publish(
			TransactionEventType,
			event.NewEvent(
				TransactionEventType,
				TransactionEvent{
					Signature: sig,
					FeePayer:  tx.Message.FeePayer,
					Programs:  state.programs,
					Logs:      state.logs,
				},
			),
		)
	}
	return receipt, nil
}

func (r *Runtime) precheck(ctx context.Context, tx *Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(tx.Message.Instructions) == 0 {
		return ErrNoInstructions
	}
	return tx.Verify()
}

func (r *Runtime) process(ic *InvokeContext) error {
	ctx, span := r.tracer.Start(
		ic.ctx,
		"ledger.Process",
		trace.WithAttributes(
			attribute.String("program", ic.programID.String()),
			attribute.Int("depth", ic.depth),
		),
	)
	defer span.End()
	ic.ctx = ctx
	prog, ok := r.programs[ic.programID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, ic.programID)
	}
	ic.state.programs = append(ic.state.programs, ic.programID)
	ic.state.logs = append(
		ic.state.logs,
		fmt.Sprintf("Program %s invoke [%d]", ic.programID, ic.depth),
	)
	if err := prog.Process(ic); err != nil {
		ic.state.logs = append(
			ic.state.logs,
			fmt.Sprintf("Program %s failed: %s", ic.programID, err),
		)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	ic.state.logs = append(
		ic.state.logs,
		fmt.Sprintf("Program %s success", ic.programID),
	)
	return nil
}

// GetAccount returns the committed account at address
func (r *Runtime) GetAccount(
	ctx context.Context,
	address solana.PublicKey,
) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.loadAccount(address, nil)
}

// LoadAccounts writes accounts directly, bypassing program ownership
// rules. It is meant for genesis fixtures. Existing accounts are left
// alone unless overwrite is set.
func (r *Runtime) LoadAccounts(
	ctx context.Context,
	accounts []*Account,
	overwrite bool,
) error {
	keys := make([]solana.PublicKey, 0, len(accounts))
	for _, acct := range accounts {
		keys = append(keys, acct.Address)
	}
	unlock := r.locks.Lock(keys)
	defer unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := database.NewBlobOnlyTxn(r.db, true)
	return txn.Do(func(txn *database.Txn) error {
		for _, acct := range accounts {
			if !overwrite {
				exists, err := r.db.AccountExists(acct.Address[:], txn)
				if err != nil {
					return err
				}
				if exists {
					return fmt.Errorf(
						"%w: %s",
						ErrAccountAlreadyInUse,
						acct.Address,
					)
				}
			}
			if err := r.storeAccount(acct, txn); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateAccount replaces the account at address with the result of fn while
// holding the address lock. existing is nil when nothing is stored yet.
// Like LoadAccounts it bypasses program ownership rules.
func (r *Runtime) UpdateAccount(
	ctx context.Context,
	address solana.PublicKey,
	fn func(existing *Account) (*Account, error),
) error {
	unlock := r.locks.Lock([]solana.PublicKey{address})
	defer unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := database.NewBlobOnlyTxn(r.db, true)
	return txn.Do(func(txn *database.Txn) error {
		existing, err := r.loadAccount(address, txn)
		if err != nil {
			if !errors.Is(err, ErrAccountNotFound) {
				return err
			}
			existing = nil
		}
		acct, err := fn(existing)
		if err != nil {
			return err
		}
		if !acct.Address.Equals(address) {
			return fmt.Errorf(
				"update of %s returned account %s",
				address,
				acct.Address,
			)
		}
		return r.storeAccount(acct, txn)
	})
}

func (r *Runtime) loadAccount(
	address solana.PublicKey,
	txn *database.Txn,
) (*Account, error) {
	raw, err := r.db.GetAccount(address[:], txn)
	if err != nil {
		if errors.Is(err, database.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
		}
		return nil, err
	}
	return unmarshalAccount(address, raw)
}

func (r *Runtime) storeAccount(acct *Account, txn *database.Txn) error {
	raw, err := acct.marshal()
	if err != nil {
		return err
	}
	return r.db.SetAccount(acct.Address[:], raw, txn)
}
