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

package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devrupt/soulbound/database"
	"github.com/devrupt/soulbound/event"
	"github.com/devrupt/soulbound/ledger"
	"github.com/devrupt/soulbound/program/system"
)

const (
	opCreateVault uint8 = iota
	opCreateVaultUnsigned
	opWrite
	opFail
	opRecurse
)

var (
	testProgramID = solana.NewWallet().PublicKey()
	errTestFailed = &ledger.ProgramError{
		Code: 42,
		Name: "TestFailed",
		Msg:  "test program asked to fail",
	}
)

// vaultProgram owns a PDA per payer and exercises the runtime rules
type vaultProgram struct{}

func (vaultProgram) ProgramID() solana.PublicKey {
	return testProgramID
}

func (vaultProgram) Process(ic *ledger.InvokeContext) error {
	ix := ic.Instruction()
	if len(ix.Data) == 0 {
		return ledger.ErrInvalidInstructionData
	}
	switch ix.Data[0] {
	case opCreateVault, opCreateVaultUnsigned:
		payer, err := ix.Account(0)
		if err != nil {
			return err
		}
		vault, bump, err := vaultAddress(payer)
		if err != nil {
			return err
		}
		createIx := system.NewCreateAccountInstruction(payer, vault, 8, testProgramID)
		if ix.Data[0] == opCreateVaultUnsigned {
			return ic.Invoke(createIx)
		}
		return ic.InvokeSigned(
			createIx,
			[][]byte{[]byte("vault"), payer[:], {bump}},
		)
	case opWrite:
		target, err := ix.Account(0)
		if err != nil {
			return err
		}
		acct, err := ic.LoadAccount(target)
		if err != nil {
			return err
		}
		acct.Data = []byte("written")
		return ic.StoreAccount(acct)
	case opFail:
		ic.Log("failing on request")
		return errTestFailed
	case opRecurse:
		return ic.Invoke(solana.NewInstruction(testProgramID, nil, []byte{opRecurse}))
	}
	return ledger.ErrInvalidInstructionData
}

func vaultAddress(payer solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{[]byte("vault"), payer[:]},
		testProgramID,
	)
}

func vaultInstruction(op uint8, payer solana.PublicKey) solana.Instruction {
	vault, _, _ := vaultAddress(payer)
	return solana.NewInstruction(
		testProgramID,
		solana.AccountMetaSlice{
			solana.Meta(payer).WRITE().SIGNER(),
			solana.Meta(vault).WRITE(),
			solana.Meta(solana.SystemProgramID),
		},
		[]byte{op},
	)
}

type testEnv struct {
	db *database.Database
	rt *ledger.Runtime
	eb *event.EventBus
}

func newTestEnv(t *testing.T, reg prometheus.Registerer) *testEnv {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	eb := event.NewEventBus(nil, nil)
	rt, err := ledger.NewRuntime(ledger.RuntimeConfig{
		Database:     db,
		EventBus:     eb,
		PromRegistry: reg,
		Programs:     []ledger.Program{system.New(), vaultProgram{}},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		eb.Stop()
		require.NoError(t, db.Close())
	})
	return &testEnv{db: db, rt: rt, eb: eb}
}

func signedTx(
	t *testing.T,
	payer solana.PrivateKey,
	keys []solana.PrivateKey,
	ixs ...solana.Instruction,
) *ledger.Transaction {
	t.Helper()
	tx, err := ledger.NewTransaction(payer.PublicKey(), ixs...)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(append([]solana.PrivateKey{payer}, keys...)...))
	return tx
}

func TestExecuteCreateAccount(t *testing.T) {
	env := newTestEnv(t, nil)
	payer := solana.NewWallet().PrivateKey
	newAcct := solana.NewWallet().PrivateKey
	owner := solana.NewWallet().PublicKey()
	tx := signedTx(t, payer, []solana.PrivateKey{newAcct},
		system.NewCreateAccountInstruction(payer.PublicKey(), newAcct.PublicKey(), 16, owner),
	)
	receipt, err := env.rt.Execute(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, tx.Signature(), receipt.Signature)
	assert.NotEmpty(t, receipt.Logs)

	acct, err := env.rt.GetAccount(context.Background(), newAcct.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, owner, acct.Owner)
	assert.Len(t, acct.Data, 16)

	sig := tx.Signature()
	rec, err := env.db.GetTransactionBySignature(sig[:], nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), rec.Instructions)
}

func TestExecuteRequiresSignatures(t *testing.T) {
	env := newTestEnv(t, nil)
	payer := solana.NewWallet().PrivateKey
	newAcct := solana.NewWallet().PrivateKey
	ix := system.NewCreateAccountInstruction(payer.PublicKey(), newAcct.PublicKey(), 0, testProgramID)

	tx, err := ledger.NewTransaction(payer.PublicKey(), ix)
	require.NoError(t, err)
	err = tx.Sign(payer)
	require.ErrorIs(t, err, ledger.ErrMissingSigningKey)

	// Only the payer signed
	payerSig := signedTx(t, payer, []solana.PrivateKey{newAcct}, ix)
	payerSig.Signatures = payerSig.Signatures[:1]
	_, err = env.rt.Execute(context.Background(), payerSig)
	require.ErrorIs(t, err, ledger.ErrMissingRequiredSignature)

	// Signature by the wrong key
	forged := signedTx(t, payer, []solana.PrivateKey{newAcct}, ix)
	forged.Signatures[1] = forged.Signatures[0]
	_, err = env.rt.Execute(context.Background(), forged)
	require.ErrorIs(t, err, ledger.ErrInvalidSignature)

	exists, err := env.db.AccountExists(newAcct.PublicKey().Bytes(), nil)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestExecuteRejectsReplay(t *testing.T) {
	env := newTestEnv(t, nil)
	payer := solana.NewWallet().PrivateKey
	tx := signedTx(t, payer, nil, vaultInstruction(opCreateVault, payer.PublicKey()))
	_, err := env.rt.Execute(context.Background(), tx)
	require.NoError(t, err)
	_, err = env.rt.Execute(context.Background(), tx)
	require.ErrorIs(t, err, ledger.ErrAlreadyProcessed)
}

func TestExecuteIsAtomic(t *testing.T) {
	env := newTestEnv(t, nil)
	payer := solana.NewWallet().PrivateKey
	first := solana.NewWallet().PrivateKey
	create := func(key solana.PublicKey) solana.Instruction {
		return system.NewCreateAccountInstruction(payer.PublicKey(), key, 4, testProgramID)
	}
	tx := signedTx(t, payer, []solana.PrivateKey{first},
		create(first.PublicKey()),
		vaultInstruction(opCreateVault, payer.PublicKey()),
		create(first.PublicKey()),
	)
	receipt, err := env.rt.Execute(context.Background(), tx)
	require.Error(t, err)
	require.ErrorIs(t, err, ledger.ErrAccountAlreadyInUse)
	var ixErr *ledger.InstructionError
	require.ErrorAs(t, err, &ixErr)
	assert.Equal(t, 2, ixErr.Index)
	assert.Equal(t, solana.SystemProgramID, ixErr.ProgramID)
	assert.NotEmpty(t, receipt.Logs)

	vault, _, err := vaultAddress(payer.PublicKey())
	require.NoError(t, err)
	for _, key := range []solana.PublicKey{first.PublicKey(), vault} {
		_, err := env.rt.GetAccount(context.Background(), key)
		require.ErrorIs(t, err, ledger.ErrAccountNotFound)
	}
	// The signature was not consumed
	sig := tx.Signature()
	processed, err := env.db.IsSignatureProcessed(sig[:], nil)
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestInvokeSignedGrantsPDASigner(t *testing.T) {
	env := newTestEnv(t, nil)
	payer := solana.NewWallet().PrivateKey

	tx := signedTx(t, payer, nil, vaultInstruction(opCreateVaultUnsigned, payer.PublicKey()))
	_, err := env.rt.Execute(context.Background(), tx)
	require.ErrorIs(t, err, ledger.ErrPrivilegeEscalation)

	tx = signedTx(t, payer, nil, vaultInstruction(opCreateVault, payer.PublicKey()))
	_, err = env.rt.Execute(context.Background(), tx)
	require.NoError(t, err)
	vault, _, err := vaultAddress(payer.PublicKey())
	require.NoError(t, err)
	acct, err := env.rt.GetAccount(context.Background(), vault)
	require.NoError(t, err)
	assert.Equal(t, testProgramID, acct.Owner)

	// The program owns the vault and may write it
	writeIx := solana.NewInstruction(
		testProgramID,
		solana.AccountMetaSlice{solana.Meta(vault).WRITE()},
		[]byte{opWrite},
	)
	_, err = env.rt.Execute(context.Background(), signedTx(t, payer, nil, writeIx))
	require.NoError(t, err)
	acct, err = env.rt.GetAccount(context.Background(), vault)
	require.NoError(t, err)
	assert.Equal(t, []byte("written"), acct.Data)
}

func TestStoreAccountOwnershipRules(t *testing.T) {
	env := newTestEnv(t, nil)
	payer := solana.NewWallet().PrivateKey
	foreign := solana.NewWallet().PublicKey()
	require.NoError(t, env.rt.LoadAccounts(context.Background(), []*ledger.Account{
		{Address: foreign, Owner: solana.SystemProgramID, Data: []byte{1}},
	}, false))

	// Not owned by the test program
	writeIx := solana.NewInstruction(
		testProgramID,
		solana.AccountMetaSlice{solana.Meta(foreign).WRITE()},
		[]byte{opWrite},
	)
	_, err := env.rt.Execute(context.Background(), signedTx(t, payer, nil, writeIx))
	require.ErrorIs(t, err, ledger.ErrIllegalOwner)

	// Not writable
	readonlyIx := solana.NewInstruction(
		testProgramID,
		solana.AccountMetaSlice{solana.Meta(foreign)},
		[]byte{opWrite},
	)
	_, err = env.rt.Execute(context.Background(), signedTx(t, payer, nil, readonlyIx))
	require.ErrorIs(t, err, ledger.ErrReadonlyDataModified)

	acct, err := env.rt.GetAccount(context.Background(), foreign)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, acct.Data)
}

func TestExecuteProgramErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	payer := solana.NewWallet().PrivateKey

	failIx := solana.NewInstruction(testProgramID, nil, []byte{opFail})
	receipt, err := env.rt.Execute(context.Background(), signedTx(t, payer, nil, failIx))
	require.ErrorIs(t, err, errTestFailed)
	code, ok := ledger.ErrorCode(err)
	require.True(t, ok)
	assert.Equal(t, uint32(42), code)
	assert.Contains(t, receipt.Logs, "Program log: failing on request")

	recurseIx := solana.NewInstruction(testProgramID, nil, []byte{opRecurse})
	_, err = env.rt.Execute(context.Background(), signedTx(t, payer, nil, recurseIx))
	require.ErrorIs(t, err, ledger.ErrCallDepthExceeded)

	unknownIx := solana.NewInstruction(solana.NewWallet().PublicKey(), nil, []byte{0})
	_, err = env.rt.Execute(context.Background(), signedTx(t, payer, nil, unknownIx))
	require.ErrorIs(t, err, ledger.ErrUnknownProgram)
}

func TestExecutePublishesEventAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	env := newTestEnv(t, reg)
	_, evtCh := env.eb.Subscribe(ledger.TransactionEventType)
	payer := solana.NewWallet().PrivateKey

	tx := signedTx(t, payer, nil, vaultInstruction(opCreateVault, payer.PublicKey()))
	_, err := env.rt.Execute(context.Background(), tx)
	require.NoError(t, err)
	_, err = env.rt.Execute(
		context.Background(),
		signedTx(t, payer, nil, solana.NewInstruction(testProgramID, nil, []byte{opFail})),
	)
	require.Error(t, err)

	select {
	case evt := <-evtCh:
		data, ok := evt.Data.(ledger.TransactionEvent)
		require.True(t, ok)
		assert.Equal(t, tx.Signature(), data.Signature)
		assert.Equal(t, payer.PublicKey(), data.FeePayer)
		assert.Equal(
			t,
			[]solana.PublicKey{testProgramID, solana.SystemProgramID},
			data.Programs,
		)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for transaction event")
	}
	select {
	case evt := <-evtCh:
		t.Fatalf("unexpected event for failed transaction: %v", evt)
	default:
	}

	count, err := testutil.GatherAndCount(reg, "soulbound_ledger_transactions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestExecuteCancelledContext(t *testing.T) {
	env := newTestEnv(t, nil)
	payer := solana.NewWallet().PrivateKey
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := env.rt.Execute(
		ctx,
		signedTx(t, payer, nil, vaultInstruction(opCreateVault, payer.PublicKey())),
	)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestLoadAccountsRefusesExisting(t *testing.T) {
	env := newTestEnv(t, nil)
	addr := solana.NewWallet().PublicKey()
	accts := []*ledger.Account{{Address: addr, Owner: testProgramID, Data: []byte{1}}}
	require.NoError(t, env.rt.LoadAccounts(context.Background(), accts, false))
	err := env.rt.LoadAccounts(context.Background(), accts, false)
	require.ErrorIs(t, err, ledger.ErrAccountAlreadyInUse)
	accts[0].Data = []byte{2}
	require.NoError(t, env.rt.LoadAccounts(context.Background(), accts, true))
	acct, err := env.rt.GetAccount(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, acct.Data)
}

func TestUpdateAccount(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	addr := solana.NewWallet().PublicKey()
	err := env.rt.UpdateAccount(ctx, addr, func(existing *ledger.Account) (*ledger.Account, error) {
		require.Nil(t, existing)
		return &ledger.Account{Address: addr, Owner: testProgramID, Data: []byte{1}}, nil
	})
	require.NoError(t, err)

	errStale := errors.New("stale")
	err = env.rt.UpdateAccount(ctx, addr, func(existing *ledger.Account) (*ledger.Account, error) {
		require.NotNil(t, existing)
		assert.Equal(t, []byte{1}, existing.Data)
		return nil, errStale
	})
	require.ErrorIs(t, err, errStale)

	err = env.rt.UpdateAccount(ctx, addr, func(*ledger.Account) (*ledger.Account, error) {
		return &ledger.Account{Address: solana.NewWallet().PublicKey(), Owner: testProgramID}, nil
	})
	require.Error(t, err)

	acct, err := env.rt.GetAccount(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, acct.Data)
}
