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

package testutil

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/devrupt/soulbound/database"
	"github.com/devrupt/soulbound/event"
	"github.com/devrupt/soulbound/ledger"
	"github.com/devrupt/soulbound/program/associatedtoken"
	"github.com/devrupt/soulbound/program/metadata"
	"github.com/devrupt/soulbound/program/system"
	"github.com/devrupt/soulbound/program/token"
)

// Ledger is an in-memory database and runtime for tests
type Ledger struct {
	DB       *database.Database
	Runtime  *ledger.Runtime
	EventBus *event.EventBus
	Registry *prometheus.Registry
}

// NewLedger opens an in-memory ledger with the system, token, associated
// token, and metadata programs registered. Programs passed in are
// registered as well and replace a default with the same id.
func NewLedger(t *testing.T, programs ...ledger.Program) *Ledger {
	t.Helper()
	reg := prometheus.NewRegistry()
	db, err := database.New(&database.Config{PromRegistry: reg})
	require.NoError(t, err)
	eb := event.NewEventBus(reg, nil)
	t.Cleanup(func() {
		eb.Stop()
		require.NoError(t, db.Close())
	})
	registered := make(map[solana.PublicKey]struct{})
	for _, prog := range programs {
		registered[prog.ProgramID()] = struct{}{}
	}
	for _, prog := range []ledger.Program{
		system.New(),
		token.New(),
		associatedtoken.New(),
		metadata.New(),
	} {
		if _, ok := registered[prog.ProgramID()]; !ok {
			programs = append(programs, prog)
		}
	}
	rt, err := ledger.NewRuntime(ledger.RuntimeConfig{
		Database:     db,
		EventBus:     eb,
		PromRegistry: reg,
		Programs:     programs,
	})
	require.NoError(t, err)
	return &Ledger{
		DB:       db,
		Runtime:  rt,
		EventBus: eb,
		Registry: reg,
	}
}

// Execute signs the instructions with payer and signers and runs them as
// one transaction
func (l *Ledger) Execute(
	t *testing.T,
	payer solana.PrivateKey,
	signers []solana.PrivateKey,
	instructions ...solana.Instruction,
) (*ledger.Receipt, error) {
	t.Helper()
	tx, err := ledger.NewTransaction(payer.PublicKey(), instructions...)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(append([]solana.PrivateKey{payer}, signers...)...))
	return l.Runtime.Execute(context.Background(), tx)
}

// MustExecute is Execute that fails the test on error
func (l *Ledger) MustExecute(
	t *testing.T,
	payer solana.PrivateKey,
	signers []solana.PrivateKey,
	instructions ...solana.Instruction,
) *ledger.Receipt {
	t.Helper()
	receipt, err := l.Execute(t, payer, signers, instructions...)
	require.NoError(t, err, "logs: %v", receiptLogs(receipt))
	return receipt
}

// Account returns the committed account at key, failing the test if it
// does not exist
func (l *Ledger) Account(t *testing.T, key solana.PublicKey) *ledger.Account {
	t.Helper()
	acct, err := l.Runtime.GetAccount(context.Background(), key)
	require.NoError(t, err)
	return acct
}

// Exists reports whether key holds a committed account
func (l *Ledger) Exists(t *testing.T, key solana.PublicKey) bool {
	t.Helper()
	exists, err := l.DB.AccountExists(key[:], nil)
	require.NoError(t, err)
	return exists
}

func receiptLogs(receipt *ledger.Receipt) []string {
	if receipt == nil {
		return nil
	}
	return receipt.Logs
}
