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

package api

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/devrupt/soulbound/database/models"
	"github.com/devrupt/soulbound/issuer"
	"github.com/devrupt/soulbound/ledger"
)

type Backend interface {
	// SubmitTransaction executes a signed transaction. The receipt is
	// returned even when execution fails.
	SubmitTransaction(ctx context.Context, tx *ledger.Transaction) (*ledger.Receipt, error)

	// Transaction returns the record of a committed transaction
	Transaction(ctx context.Context, signature solana.Signature) (*models.Transaction, error)

	// Credential returns the credential view of owner
	Credential(ctx context.Context, owner solana.PublicKey) (*issuer.CredentialView, error)

	// Credentials returns a page of the credential index and its total size
	Credentials(ctx context.Context, limit int, offset int) ([]models.Credential, int64, error)

	// Account returns a committed ledger account
	Account(ctx context.Context, address solana.PublicKey) (*ledger.Account, error)
}

// LedgerBackend serves the API from a ledger runtime
type LedgerBackend struct {
	runtime *ledger.Runtime
	issuer  *issuer.Issuer
}

// NewLedgerBackend panics if either argument is nil
func NewLedgerBackend(
	runtime *ledger.Runtime,
	iss *issuer.Issuer,
) *LedgerBackend {
	if runtime == nil || iss == nil {
		panic("NewLedgerBackend: runtime and issuer must not be nil")
	}
	return &LedgerBackend{
		runtime: runtime,
		issuer:  iss,
	}
}

func (b *LedgerBackend) SubmitTransaction(
	ctx context.Context,
	tx *ledger.Transaction,
) (*ledger.Receipt, error) {
	return b.runtime.Execute(ctx, tx)
}

func (b *LedgerBackend) Transaction(
	ctx context.Context,
	signature solana.Signature,
) (*models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.runtime.Database().GetTransactionBySignature(signature[:], nil)
}

func (b *LedgerBackend) Credential(
	ctx context.Context,
	owner solana.PublicKey,
) (*issuer.CredentialView, error) {
	return b.issuer.Credential(ctx, owner)
}

func (b *LedgerBackend) Credentials(
	ctx context.Context,
	limit int,
	offset int,
) ([]models.Credential, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	db := b.runtime.Database()
	total, err := db.CountCredentials(nil)
	if err != nil {
		return nil, 0, err
	}
	creds, err := db.GetCredentials(limit, offset, nil)
	if err != nil {
		return nil, 0, err
	}
	return creds, total, nil
}

func (b *LedgerBackend) Account(
	ctx context.Context,
	address solana.PublicKey,
) (*ledger.Account, error) {
	return b.runtime.GetAccount(ctx, address)
}
