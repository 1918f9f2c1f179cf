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
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devrupt/soulbound/ledger"
)

func TestMessageSignersAndWritableAccounts(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	signer := solana.NewWallet().PublicKey()
	readonly := solana.NewWallet().PublicKey()
	writable := solana.NewWallet().PublicKey()
	tx, err := ledger.NewTransaction(
		payer,
		solana.NewInstruction(
			testProgramID,
			solana.AccountMetaSlice{
				solana.Meta(signer).SIGNER(),
				solana.Meta(readonly),
				solana.Meta(writable).WRITE(),
				solana.Meta(payer).WRITE().SIGNER(),
			},
			[]byte{1, 2, 3},
		),
		solana.NewInstruction(
			testProgramID,
			solana.AccountMetaSlice{solana.Meta(signer).SIGNER().WRITE()},
			nil,
		),
	)
	require.NoError(t, err)
	assert.Equal(t, []solana.PublicKey{payer, signer}, tx.Message.Signers())
	assert.Equal(
		t,
		[]solana.PublicKey{payer, writable, signer},
		tx.Message.WritableAccounts(),
	)
}

func TestTransactionEncodingPreservesSignatures(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	tx, err := ledger.NewTransaction(
		payer.PublicKey(),
		solana.NewInstruction(
			testProgramID,
			solana.AccountMetaSlice{solana.Meta(payer.PublicKey()).WRITE().SIGNER()},
			[]byte("data"),
		),
	)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(payer))
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	decoded, err := ledger.UnmarshalTransaction(raw)
	require.NoError(t, err)
	require.NoError(t, decoded.Verify())
	assert.Equal(t, tx.Signature(), decoded.Signature())

	// Any change to the message invalidates the signature
	decoded.Message.Instructions[0].Data = []byte("other")
	require.ErrorIs(t, decoded.Verify(), ledger.ErrInvalidSignature)
}

func TestNewTransactionRequiresInstructions(t *testing.T) {
	_, err := ledger.NewTransaction(solana.NewWallet().PublicKey())
	require.ErrorIs(t, err, ledger.ErrNoInstructions)
}
