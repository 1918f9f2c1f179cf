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

// Package issuer is the client side of the soulbound program. It builds,
// signs, and submits MintSbt transactions and reads credentials back from
// the ledger.
package issuer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/ipfs/go-cid"

	"github.com/devrupt/soulbound/ledger"
	"github.com/devrupt/soulbound/program/associatedtoken"
	"github.com/devrupt/soulbound/program/metadata"
	"github.com/devrupt/soulbound/program/sbt"
	"github.com/devrupt/soulbound/program/token"
)

type Config struct {
	Runtime   *ledger.Runtime
	Logger    *slog.Logger
	ProgramID solana.PublicKey
	// StrictCid rejects identifiers that do not parse as a CID before a
	// transaction is built
	StrictCid bool
}

type Issuer struct {
	runtime   *ledger.Runtime
	logger    *slog.Logger
	programID solana.PublicKey
	strictCid bool
}

// Credential describes an issuance that has been committed
type Credential struct {
	Owner        solana.PublicKey
	Mint         solana.PublicKey
	TokenAccount solana.PublicKey
	Metadata     solana.PublicKey
	Name         string
	Symbol       string
	URI          string
	Signature    solana.Signature
	Logs         []string
}

func New(cfg Config) (*Issuer, error) {
	if cfg.Runtime == nil {
		return nil, ErrNoRuntime
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.ProgramID.IsZero() {
		cfg.ProgramID = sbt.DefaultProgramID
	}
	return &Issuer{
		runtime:   cfg.Runtime,
		logger:    cfg.Logger.With("component", "issuer"),
		programID: cfg.ProgramID,
		strictCid: cfg.StrictCid,
	}, nil
}

func (i *Issuer) ProgramID() solana.PublicKey {
	return i.programID
}

// ValidateCid checks a content identifier the way Issue does
func (i *Issuer) ValidateCid(contentID string) error {
	if !i.strictCid {
		return nil
	}
	if contentID == "" {
		return ErrEmptyCid
	}
	if _, err := cid.Decode(contentID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCid, err)
	}
	return nil
}

// Issue mints the soulbound credential of signer for contentID
func (i *Issuer) Issue(
	ctx context.Context,
	signer solana.PrivateKey,
	contentID string,
) (*Credential, error) {
	if err := i.ValidateCid(contentID); err != nil {
		return nil, err
	}
	owner := signer.PublicKey()
	ix, err := sbt.NewMintSbtInstruction(i.programID, owner, contentID)
	if err != nil {
		return nil, err
	}
	receipt, err := i.submit(ctx, signer, ix)
	if err != nil {
		return nil, err
	}
	addrs, err := sbt.DeriveAddresses(i.programID, owner)
	if err != nil {
		return nil, err
	}
	i.logger.Info(
		"credential issued",
		"owner", owner.String(),
		"mint", addrs.Mint.String(),
		"signature", receipt.Signature.String(),
	)
	return &Credential{
		Owner:        owner,
		Mint:         addrs.Mint,
		TokenAccount: addrs.TokenAccount,
		Metadata:     addrs.Metadata,
		Name:         sbt.CredentialName(contentID),
		Symbol:       sbt.Symbol,
		URI:          sbt.CredentialURI(contentID),
		Signature:    receipt.Signature,
		Logs:         receipt.Logs,
	}, nil
}

// Transfer attempts to move amount of the signer's credential to the
// associated token account of to, creating it when missing. Credentials
// are non-transferable so this only succeeds for ordinary mints.
func (i *Issuer) Transfer(
	ctx context.Context,
	signer solana.PrivateKey,
	to solana.PublicKey,
	amount uint64,
) (*ledger.Receipt, error) {
	owner := signer.PublicKey()
	addrs, err := sbt.DeriveAddresses(i.programID, owner)
	if err != nil {
		return nil, err
	}
	createIx, err := associatedtoken.NewCreateIdempotentInstruction(owner, to, addrs.Mint)
	if err != nil {
		return nil, err
	}
	dest, _, err := associatedtoken.Address(to, addrs.Mint)
	if err != nil {
		return nil, err
	}
	return i.submit(
		ctx,
		signer,
		createIx,
		token.NewTransferCheckedInstruction(
			addrs.TokenAccount,
			addrs.Mint,
			dest,
			owner,
			amount,
			sbt.Decimals,
		),
	)
}

// UpdateMetadata attempts to rewrite the attestation of the signer's
// credential
func (i *Issuer) UpdateMetadata(
	ctx context.Context,
	signer solana.PrivateKey,
	data metadata.DataV2,
) (*ledger.Receipt, error) {
	addrs, err := sbt.DeriveAddresses(i.programID, signer.PublicKey())
	if err != nil {
		return nil, err
	}
	ix, err := metadata.NewUpdateMetadataAccountV2Instruction(
		addrs.Metadata,
		signer.PublicKey(),
		metadata.UpdateMetadataAccountArgsV2{Data: &data},
	)
	if err != nil {
		return nil, err
	}
	return i.submit(ctx, signer, ix)
}

// SetContributor writes a contributor state for owner directly into the
// ledger, replacing any existing one. Rewards may not exceed contributions,
// and an existing state's counters may only grow.
func (i *Issuer) SetContributor(
	ctx context.Context,
	owner solana.PublicKey,
	username string,
	contributions uint64,
	rewards uint64,
) (*ledger.Account, error) {
	acct, err := sbt.NewContributorStateAccount(
		i.programID,
		owner,
		username,
		contributions,
		rewards,
	)
	if err != nil {
		return nil, err
	}
	err = i.runtime.UpdateAccount(
		ctx,
		acct.Address,
		func(existing *ledger.Account) (*ledger.Account, error) {
			if existing == nil {
				return acct, nil
			}
			if !existing.Owner.Equals(i.programID) {
				return nil, fmt.Errorf(
					"%w: %s is owned by %s",
					ledger.ErrIllegalOwner,
					existing.Address,
					existing.Owner,
				)
			}
			prev, err := sbt.DecodeContributorState(existing.Data)
			if err != nil {
				return nil, err
			}
			if contributions < prev.TotalContributions ||
				rewards < prev.TotalRewards {
				return nil, fmt.Errorf(
					"%w: contributions %d -> %d, rewards %d -> %d",
					ErrCounterDecrease,
					prev.TotalContributions,
					contributions,
					prev.TotalRewards,
					rewards,
				)
			}
			return acct, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return acct, nil
}

func (i *Issuer) submit(
	ctx context.Context,
	signer solana.PrivateKey,
	instructions ...solana.Instruction,
) (*ledger.Receipt, error) {
	tx, err := ledger.NewTransaction(signer.PublicKey(), instructions...)
	if err != nil {
		return nil, err
	}
	if err := tx.Sign(signer); err != nil {
		return nil, err
	}
	receipt, err := i.runtime.Execute(ctx, tx)
	if err != nil {
		var ixErr *ledger.InstructionError
		if errors.As(err, &ixErr) {
			i.logger.Debug(
				"transaction failed",
				"signature", receipt.Signature.String(),
				"instruction", ixErr.Index,
				"error", err,
			)
		}
		return receipt, err
	}
	return receipt, nil
}
