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

package sbt_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devrupt/soulbound/database/models"
	"github.com/devrupt/soulbound/event"
	"github.com/devrupt/soulbound/internal/test/testutil"
	"github.com/devrupt/soulbound/ledger"
	"github.com/devrupt/soulbound/program/associatedtoken"
	"github.com/devrupt/soulbound/program/metadata"
	"github.com/devrupt/soulbound/program/sbt"
	"github.com/devrupt/soulbound/program/token"
)

const (
	testCid = "Qm123abc"
	// A real CIDv0 pushes the name past the default 32 byte limit
	longCid = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
)

type harness struct {
	l  *testutil.Ledger
	eb *event.EventBus
}

func newHarness(t *testing.T, opts ...sbt.ProgramOptionFunc) *harness {
	t.Helper()
	eb := event.NewEventBus(nil, nil)
	t.Cleanup(eb.Stop)
	prog := sbt.New(append([]sbt.ProgramOptionFunc{sbt.WithEventBus(eb)}, opts...)...)
	return &harness{
		l:  testutil.NewLedger(t, prog),
		eb: eb,
	}
}

// contributor provisions a contributor state for a fresh key
func (h *harness) contributor(t *testing.T, contributions uint64, rewards uint64) solana.PrivateKey {
	t.Helper()
	key := solana.NewWallet().PrivateKey
	acct, err := sbt.NewContributorStateAccount(
		sbt.DefaultProgramID,
		key.PublicKey(),
		"contributor",
		contributions,
		rewards,
	)
	require.NoError(t, err)
	require.NoError(t, h.l.Runtime.LoadAccounts(context.Background(), []*ledger.Account{acct}, false))
	return key
}

func (h *harness) mintSbt(t *testing.T, payer solana.PrivateKey, cid string) (*ledger.Receipt, error) {
	t.Helper()
	ix, err := sbt.NewMintSbtInstruction(sbt.DefaultProgramID, payer.PublicKey(), cid)
	require.NoError(t, err)
	return h.l.Execute(t, payer, nil, ix)
}

func (h *harness) state(t *testing.T, owner solana.PublicKey) *sbt.ContributorState {
	t.Helper()
	addr, _, err := sbt.ContributorAddress(sbt.DefaultProgramID, owner)
	require.NoError(t, err)
	state, err := sbt.DecodeContributorState(h.l.Account(t, addr).Data)
	require.NoError(t, err)
	return state
}

func (h *harness) addresses(t *testing.T, owner solana.PublicKey) *sbt.Addresses {
	t.Helper()
	addrs, err := sbt.DeriveAddresses(sbt.DefaultProgramID, owner)
	require.NoError(t, err)
	return addrs
}

// requireNotIssued checks that none of the credential accounts of owner
// exist and no index row was written
func (h *harness) requireNotIssued(t *testing.T, owner solana.PublicKey) {
	t.Helper()
	addrs := h.addresses(t, owner)
	for _, key := range []solana.PublicKey{addrs.Mint, addrs.TokenAccount, addrs.Metadata} {
		assert.False(t, h.l.Exists(t, key), "account %s should not exist", key)
	}
	_, err := h.l.DB.GetCredentialByOwner(owner[:], nil)
	require.ErrorIs(t, err, models.ErrCredentialNotFound)
}

func TestMintSbtIssuesCredential(t *testing.T) {
	h := newHarness(t)
	_, evtCh := h.eb.Subscribe(sbt.CredentialIssuedEventType)
	payer := h.contributor(t, 1, 0)
	owner := payer.PublicKey()

	receipt, err := h.mintSbt(t, payer, testCid)
	require.NoError(t, err, "logs: %v", receipt.Logs)
	addrs := h.addresses(t, owner)

	// Guard
	assert.Equal(t, uint64(1), h.state(t, owner).TotalRewards)
	assert.Equal(t, uint64(1), h.state(t, owner).TotalContributions)

	// Issuance
	mintAcct := h.l.Account(t, addrs.Mint)
	assert.Equal(t, token.ProgramID, mintAcct.Owner)
	mint, err := token.DecodeMint(mintAcct.Data)
	require.NoError(t, err)
	assert.True(t, mint.IsInitialized)
	assert.True(t, mint.NonTransferable)
	assert.Equal(t, uint8(0), mint.Decimals)
	assert.Equal(t, uint64(1), mint.Supply)
	require.NotNil(t, mint.MintAuthority)
	require.NotNil(t, mint.FreezeAuthority)
	assert.Equal(t, owner, *mint.MintAuthority)
	assert.Equal(t, owner, *mint.FreezeAuthority)

	holding, err := token.DecodeAccount(h.l.Account(t, addrs.TokenAccount).Data)
	require.NoError(t, err)
	assert.Equal(t, owner, holding.Owner)
	assert.Equal(t, addrs.Mint, holding.Mint)
	assert.Equal(t, uint64(1), holding.Amount)
	assert.True(t, holding.NonTransferable)
	assert.True(t, holding.ImmutableOwner)

	// Attestation
	record, err := metadata.DecodeMetadata(h.l.Account(t, addrs.Metadata).Data)
	require.NoError(t, err)
	assert.Equal(t, "Soulbound Cert Qm123abc", record.Data.Name)
	assert.Equal(t, "SBT", record.Data.Symbol)
	assert.Equal(t, "https://gateway.pinata.cloud/ipfs/Qm123abc", record.Data.URI)
	assert.Equal(t, uint16(0), record.Data.SellerFeeBasisPoints)
	assert.Nil(t, record.Data.Creators)
	assert.Nil(t, record.Collection)
	assert.Nil(t, record.Uses)
	assert.False(t, record.IsMutable)
	assert.Equal(t, owner, record.UpdateAuthority)
	assert.Equal(t, addrs.Mint, record.Mint)

	// Index row
	cred, err := h.l.DB.GetCredentialByOwner(owner[:], nil)
	require.NoError(t, err)
	assert.Equal(t, testCid, cred.Cid)
	assert.Equal(t, addrs.Mint.String(), cred.MintAddress())
	assert.Equal(t, uint64(1), cred.Rewards)

	evt := testutil.RequireReceive(t, evtCh, time.Second, "credential event")
	data, ok := evt.Data.(sbt.CredentialIssuedEvent)
	require.True(t, ok)
	assert.Equal(t, owner, data.Owner)
	assert.Equal(t, addrs.Mint, data.Mint)
	assert.Equal(t, receipt.Signature, data.Signature)
	assert.Contains(t, receipt.Logs, "Program log: Instruction: MintSbt")
}

func TestMintSbtThreshold(t *testing.T) {
	h := newHarness(t)
	payer := h.contributor(t, 0, 0)
	_, err := h.mintSbt(t, payer, testCid)
	require.ErrorIs(t, err, sbt.ErrInsufficientContributions)
	code, ok := ledger.ErrorCode(err)
	require.True(t, ok)
	assert.Equal(t, uint32(6000), code)
	var ixErr *ledger.InstructionError
	require.ErrorAs(t, err, &ixErr)
	assert.Equal(t, sbt.DefaultProgramID, ixErr.ProgramID)

	assert.Equal(t, uint64(0), h.state(t, payer.PublicKey()).TotalRewards)
	h.requireNotIssued(t, payer.PublicKey())
}

func TestMintSbtConfiguredThreshold(t *testing.T) {
	h := newHarness(t, sbt.WithMinContributions(3))
	below := h.contributor(t, 2, 0)
	_, err := h.mintSbt(t, below, testCid)
	require.ErrorIs(t, err, sbt.ErrInsufficientContributions)
	at := h.contributor(t, 3, 0)
	_, err = h.mintSbt(t, at, testCid)
	require.NoError(t, err)
}

func TestMintSbtThresholdCannotBeDisabled(t *testing.T) {
	h := newHarness(t, sbt.WithMinContributions(0))
	payer := h.contributor(t, 0, 0)
	_, err := h.mintSbt(t, payer, testCid)
	require.ErrorIs(t, err, sbt.ErrInsufficientContributions)
	assert.Equal(t, uint64(0), h.state(t, payer.PublicKey()).TotalRewards)
	h.requireNotIssued(t, payer.PublicKey())
}

func TestMintSbtSingleIssuance(t *testing.T) {
	h := newHarness(t)
	payer := h.contributor(t, 5, 0)
	_, err := h.mintSbt(t, payer, testCid)
	require.NoError(t, err)

	_, err = h.mintSbt(t, payer, "Qm456def")
	require.ErrorIs(t, err, ledger.ErrAccountAlreadyInUse)

	owner := payer.PublicKey()
	assert.Equal(t, uint64(1), h.state(t, owner).TotalRewards)
	mint, err := token.DecodeMint(h.l.Account(t, h.addresses(t, owner).Mint).Data)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), mint.Supply)
	cred, err := h.l.DB.GetCredentialByOwner(owner[:], nil)
	require.NoError(t, err)
	assert.Equal(t, testCid, cred.Cid)
}

func TestMintSbtAtomicOnAttestationFailure(t *testing.T) {
	h := newHarness(t)
	payer := h.contributor(t, 1, 0)
	_, err := h.mintSbt(t, payer, longCid)
	require.ErrorIs(t, err, metadata.ErrNameTooLong)

	// Issuance ran before attestation failed; nothing of it survives
	assert.Equal(t, uint64(0), h.state(t, payer.PublicKey()).TotalRewards)
	h.requireNotIssued(t, payer.PublicKey())

	// The identity was not consumed
	_, err = h.mintSbt(t, payer, testCid)
	require.NoError(t, err)
}

func TestMintSbtLongNameWithRaisedLimit(t *testing.T) {
	h := newHarness(t)
	h.l = testutil.NewLedger(
		t,
		sbt.New(sbt.WithEventBus(h.eb)),
		metadata.New(metadata.WithMaxNameLength(64)),
	)
	payer := h.contributor(t, 1, 0)
	_, err := h.mintSbt(t, payer, longCid)
	require.NoError(t, err)
	record, err := metadata.DecodeMetadata(
		h.l.Account(t, h.addresses(t, payer.PublicKey()).Metadata).Data,
	)
	require.NoError(t, err)
	assert.Equal(t, sbt.CredentialName(longCid), record.Data.Name)
}

func TestMintSbtNonTransferable(t *testing.T) {
	h := newHarness(t)
	payer := h.contributor(t, 1, 0)
	_, err := h.mintSbt(t, payer, testCid)
	require.NoError(t, err)
	addrs := h.addresses(t, payer.PublicKey())

	recipient := solana.NewWallet().PrivateKey
	createIx, err := associatedtoken.NewCreateIdempotentInstruction(
		recipient.PublicKey(),
		recipient.PublicKey(),
		addrs.Mint,
	)
	require.NoError(t, err)
	h.l.MustExecute(t, recipient, nil, createIx)
	dest, _, err := associatedtoken.Address(recipient.PublicKey(), addrs.Mint)
	require.NoError(t, err)

	_, err = h.l.Execute(t, payer, nil,
		token.NewTransferInstruction(addrs.TokenAccount, dest, payer.PublicKey(), 1),
	)
	require.ErrorIs(t, err, token.ErrNonTransferable)
	_, err = h.l.Execute(t, payer, nil,
		token.NewTransferCheckedInstruction(addrs.TokenAccount, addrs.Mint, dest, payer.PublicKey(), 1, 0),
	)
	require.ErrorIs(t, err, token.ErrNonTransferable)

	holding, err := token.DecodeAccount(h.l.Account(t, addrs.TokenAccount).Data)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), holding.Amount)
}

func TestMintSbtMetadataImmutable(t *testing.T) {
	h := newHarness(t)
	payer := h.contributor(t, 1, 0)
	_, err := h.mintSbt(t, payer, testCid)
	require.NoError(t, err)
	addrs := h.addresses(t, payer.PublicKey())

	ix, err := metadata.NewUpdateMetadataAccountV2Instruction(
		addrs.Metadata,
		payer.PublicKey(),
		metadata.UpdateMetadataAccountArgsV2{
			Data: &metadata.DataV2{Name: "Forged", Symbol: "SBT", URI: "https://example.com"},
		},
	)
	require.NoError(t, err)
	_, err = h.l.Execute(t, payer, nil, ix)
	require.ErrorIs(t, err, metadata.ErrDataIsImmutable)
}

func TestMintSbtRewardsAreMonotonic(t *testing.T) {
	h := newHarness(t)
	payer := h.contributor(t, 9, 7)
	_, err := h.mintSbt(t, payer, testCid)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), h.state(t, payer.PublicKey()).TotalRewards)

	full := h.contributor(t, math.MaxUint64, math.MaxUint64)
	_, err = h.mintSbt(t, full, testCid)
	require.ErrorIs(t, err, sbt.ErrOverflow)
	assert.Equal(t, uint64(math.MaxUint64), h.state(t, full.PublicKey()).TotalRewards)
}

func TestNewContributorStateAccountRejectsExcessRewards(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	_, err := sbt.NewContributorStateAccount(sbt.DefaultProgramID, owner, "bob", 0, 5)
	require.ErrorIs(t, err, sbt.ErrRewardsExceedContributions)
	_, err = sbt.NewContributorStateAccount(sbt.DefaultProgramID, owner, "bob", 5, 5)
	require.NoError(t, err)
}

func TestMintSbtAccountValidation(t *testing.T) {
	h := newHarness(t)
	payer := h.contributor(t, 1, 0)
	other := h.contributor(t, 1, 0)

	build := func(t *testing.T, modify func(*solana.GenericInstruction)) solana.Instruction {
		ix, err := sbt.NewMintSbtInstruction(sbt.DefaultProgramID, payer.PublicKey(), testCid)
		require.NoError(t, err)
		modify(ix)
		return ix
	}
	otherAddrs := h.addresses(t, other.PublicKey())
	testDefs := []struct {
		name   string
		modify func(*solana.GenericInstruction)
		err    error
	}{
		{
			name: "foreign contributor state",
			modify: func(ix *solana.GenericInstruction) {
				ix.AccountValues[1] = solana.Meta(otherAddrs.Contributor).WRITE()
			},
			err: sbt.ErrConstraintSeeds,
		},
		{
			name: "foreign mint",
			modify: func(ix *solana.GenericInstruction) {
				ix.AccountValues[2] = solana.Meta(otherAddrs.Mint).WRITE()
			},
			err: sbt.ErrConstraintSeeds,
		},
		{
			name: "foreign token account",
			modify: func(ix *solana.GenericInstruction) {
				ix.AccountValues[3] = solana.Meta(otherAddrs.TokenAccount).WRITE()
			},
			err: sbt.ErrConstraintAssociated,
		},
		{
			name: "foreign metadata",
			modify: func(ix *solana.GenericInstruction) {
				ix.AccountValues[4] = solana.Meta(otherAddrs.Metadata).WRITE()
			},
			err: sbt.ErrConstraintSeeds,
		},
		{
			name: "wrong token program",
			modify: func(ix *solana.GenericInstruction) {
				ix.AccountValues[6] = solana.Meta(solana.TokenProgramID)
			},
			err: sbt.ErrInvalidProgramID,
		},
		{
			name: "read-only mint",
			modify: func(ix *solana.GenericInstruction) {
				ix.AccountValues[2].IsWritable = false
			},
			err: sbt.ErrConstraintMut,
		},
		{
			name: "payer not signer",
			modify: func(ix *solana.GenericInstruction) {
				ix.AccountValues[0].IsSigner = false
			},
			err: sbt.ErrAccountNotSigner,
		},
		{
			name: "missing accounts",
			modify: func(ix *solana.GenericInstruction) {
				ix.AccountValues = ix.AccountValues[:5]
			},
			err: sbt.ErrAccountNotEnoughKeys,
		},
		{
			name: "unknown instruction",
			modify: func(ix *solana.GenericInstruction) {
				ix.DataBytes = []byte{1, 2, 3, 4, 5, 6, 7, 8}
			},
			err: sbt.ErrInstructionFallbackNotFound,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := h.l.Execute(t, payer, nil, build(t, testDef.modify))
			require.ErrorIs(t, err, testDef.err)
			h.requireNotIssued(t, payer.PublicKey())
		})
	}
}

func TestMintSbtContributorStateChecks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// No contributor state
	missing := solana.NewWallet().PrivateKey
	_, err := h.mintSbt(t, missing, testCid)
	require.ErrorIs(t, err, sbt.ErrAccountNotInitialized)

	// Owned by another program
	wrongOwner := solana.NewWallet().PrivateKey
	acct, err := sbt.NewContributorStateAccount(sbt.DefaultProgramID, wrongOwner.PublicKey(), "x", 1, 0)
	require.NoError(t, err)
	acct.Owner = solana.SystemProgramID
	require.NoError(t, h.l.Runtime.LoadAccounts(ctx, []*ledger.Account{acct}, false))
	_, err = h.mintSbt(t, wrongOwner, testCid)
	require.ErrorIs(t, err, sbt.ErrAccountOwnedByWrongProgram)

	// Not a contributor state
	badDisc := solana.NewWallet().PrivateKey
	acct, err = sbt.NewContributorStateAccount(sbt.DefaultProgramID, badDisc.PublicKey(), "x", 1, 0)
	require.NoError(t, err)
	acct.Data[0] ^= 0xff
	require.NoError(t, h.l.Runtime.LoadAccounts(ctx, []*ledger.Account{acct}, false))
	_, err = h.mintSbt(t, badDisc, testCid)
	require.ErrorIs(t, err, sbt.ErrAccountDiscriminatorMismatch)
}

func TestMintSbtConcurrentIssuance(t *testing.T) {
	h := newHarness(t)
	const owners = 8
	payers := make([]solana.PrivateKey, owners)
	for i := range payers {
		payers[i] = h.contributor(t, 1, 0)
	}
	var wg sync.WaitGroup
	errs := make([]error, owners)
	for i, payer := range payers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ix, err := sbt.NewMintSbtInstruction(sbt.DefaultProgramID, payer.PublicKey(), testCid)
			if err != nil {
				errs[i] = err
				return
			}
			tx, err := ledger.NewTransaction(payer.PublicKey(), ix)
			if err != nil {
				errs[i] = err
				return
			}
			if err := tx.Sign(payer); err != nil {
				errs[i] = err
				return
			}
			_, errs[i] = h.l.Runtime.Execute(context.Background(), tx)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	count, err := h.l.DB.CountCredentials(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(owners), count)
}

func TestMintSbtConcurrentSameOwner(t *testing.T) {
	h := newHarness(t)
	payer := h.contributor(t, 10, 0)
	const attempts = 4
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ix, err := sbt.NewMintSbtInstruction(sbt.DefaultProgramID, payer.PublicKey(), testCid)
			if err != nil {
				errs[i] = err
				return
			}
			tx, err := ledger.NewTransaction(payer.PublicKey(), ix)
			if err != nil {
				errs[i] = err
				return
			}
			if err := tx.Sign(payer); err != nil {
				errs[i] = err
				return
			}
			_, errs[i] = h.l.Runtime.Execute(context.Background(), tx)
		}()
	}
	wg.Wait()
	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		require.True(t, errors.Is(err, ledger.ErrAccountAlreadyInUse), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, uint64(1), h.state(t, payer.PublicKey()).TotalRewards)
}

func TestMetadataAddressMatchesReferenceDerivation(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	addrs, err := sbt.DeriveAddresses(sbt.DefaultProgramID, owner)
	require.NoError(t, err)
	ref, err := token_metadata.GetTokenMetaPubkey(common.PublicKeyFromBytes(addrs.Mint[:]))
	require.NoError(t, err)
	assert.Equal(t, ref.Bytes(), addrs.Metadata.Bytes())
}
