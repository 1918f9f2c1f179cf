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

package metadata_test

import (
	"strings"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devrupt/soulbound/internal/test/testutil"
	"github.com/devrupt/soulbound/ledger"
	"github.com/devrupt/soulbound/program/metadata"
	"github.com/devrupt/soulbound/program/system"
	"github.com/devrupt/soulbound/program/token"
)

func setupMint(t *testing.T, l *testutil.Ledger, authority solana.PrivateKey) solana.PublicKey {
	t.Helper()
	mint := solana.NewWallet().PrivateKey
	l.MustExecute(t, authority, []solana.PrivateKey{mint},
		system.NewCreateAccountInstruction(authority.PublicKey(), mint.PublicKey(), token.MintSpace, token.ProgramID),
		token.NewInitializeMint2Instruction(mint.PublicKey(), 0, authority.PublicKey(), nil),
	)
	return mint.PublicKey()
}

func testData() metadata.DataV2 {
	return metadata.DataV2{
		Name:   "Test Cert",
		Symbol: "TST",
		URI:    "https://example.com/cert.json",
	}
}

func createIx(
	t *testing.T,
	mint solana.PublicKey,
	authority solana.PublicKey,
	data metadata.DataV2,
	mutable bool,
) solana.Instruction {
	t.Helper()
	ix, err := metadata.NewCreateMetadataAccountV3Instruction(
		mint,
		authority,
		authority,
		authority,
		metadata.CreateMetadataAccountArgsV3{Data: data, IsMutable: mutable},
	)
	require.NoError(t, err)
	return ix
}

func TestAddressMatchesReferenceDerivation(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	addr, _, err := metadata.Address(mint)
	require.NoError(t, err)
	ref, err := token_metadata.GetTokenMetaPubkey(common.PublicKeyFromBytes(mint[:]))
	require.NoError(t, err)
	assert.Equal(t, ref.Bytes(), addr.Bytes())
	assert.Equal(t, common.MetaplexTokenMetaProgramID.Bytes(), metadata.ProgramID.Bytes())
}

func TestCreateMetadata(t *testing.T) {
	l := testutil.NewLedger(t)
	authority := solana.NewWallet().PrivateKey
	mint := setupMint(t, l, authority)
	l.MustExecute(t, authority, nil, createIx(t, mint, authority.PublicKey(), testData(), false))

	addr, _, err := metadata.Address(mint)
	require.NoError(t, err)
	acct := l.Account(t, addr)
	assert.Equal(t, metadata.ProgramID, acct.Owner)
	assert.Len(t, acct.Data, metadata.MetadataSpace)
	record, err := metadata.DecodeMetadata(acct.Data)
	require.NoError(t, err)
	assert.Equal(t, metadata.KeyMetadataV1, record.Key)
	assert.Equal(t, mint, record.Mint)
	assert.Equal(t, authority.PublicKey(), record.UpdateAuthority)
	assert.Equal(t, "Test Cert", record.Data.Name)
	assert.Equal(t, "TST", record.Data.Symbol)
	assert.Equal(t, "https://example.com/cert.json", record.Data.URI)
	assert.Nil(t, record.Data.Creators)
	assert.Nil(t, record.Collection)
	assert.Nil(t, record.Uses)
	assert.False(t, record.IsMutable)

	_, err = l.Execute(t, authority, nil, createIx(t, mint, authority.PublicKey(), testData(), false))
	require.ErrorIs(t, err, metadata.ErrAlreadyInitialized)
}

func TestCreateMetadataFieldLimits(t *testing.T) {
	testDefs := []struct {
		name   string
		modify func(*metadata.DataV2)
		err    error
	}{
		{
			name:   "name",
			modify: func(d *metadata.DataV2) { d.Name = strings.Repeat("n", 33) },
			err:    metadata.ErrNameTooLong,
		},
		{
			name:   "symbol",
			modify: func(d *metadata.DataV2) { d.Symbol = strings.Repeat("s", 11) },
			err:    metadata.ErrSymbolTooLong,
		},
		{
			name:   "uri",
			modify: func(d *metadata.DataV2) { d.URI = strings.Repeat("u", 201) },
			err:    metadata.ErrURITooLong,
		},
		{
			name:   "basis points",
			modify: func(d *metadata.DataV2) { d.SellerFeeBasisPoints = 10001 },
			err:    metadata.ErrInvalidBasisPoints,
		},
		{
			name: "creator shares",
			modify: func(d *metadata.DataV2) {
				d.Creators = &[]metadata.Creator{{Address: solana.NewWallet().PublicKey(), Share: 50}}
			},
			err: metadata.ErrShareTotalMustBe100,
		},
	}
	l := testutil.NewLedger(t)
	authority := solana.NewWallet().PrivateKey
	mint := setupMint(t, l, authority)
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			data := testData()
			testDef.modify(&data)
			_, err := l.Execute(t, authority, nil, createIx(t, mint, authority.PublicKey(), data, true))
			require.ErrorIs(t, err, testDef.err)
			addr, _, err := metadata.Address(mint)
			require.NoError(t, err)
			assert.False(t, l.Exists(t, addr))
		})
	}
}

func TestMaxNameLengthOption(t *testing.T) {
	l := testutil.NewLedger(t, metadata.New(metadata.WithMaxNameLength(64)))
	authority := solana.NewWallet().PrivateKey
	mint := setupMint(t, l, authority)
	data := testData()
	data.Name = strings.Repeat("n", 64)
	l.MustExecute(t, authority, nil, createIx(t, mint, authority.PublicKey(), data, false))
}

func TestCreateRequiresMintAuthority(t *testing.T) {
	l := testutil.NewLedger(t)
	authority := solana.NewWallet().PrivateKey
	mint := setupMint(t, l, authority)
	intruder := solana.NewWallet().PrivateKey
	_, err := l.Execute(t, intruder, nil, createIx(t, mint, intruder.PublicKey(), testData(), true))
	require.ErrorIs(t, err, metadata.ErrInvalidMintAuthority)
}

func TestUpdateMetadata(t *testing.T) {
	l := testutil.NewLedger(t)
	authority := solana.NewWallet().PrivateKey
	mint := setupMint(t, l, authority)
	l.MustExecute(t, authority, nil, createIx(t, mint, authority.PublicKey(), testData(), true))
	addr, _, err := metadata.Address(mint)
	require.NoError(t, err)

	// Wrong authority
	intruder := solana.NewWallet().PrivateKey
	newData := testData()
	newData.Name = "Renamed"
	ix, err := metadata.NewUpdateMetadataAccountV2Instruction(addr, intruder.PublicKey(),
		metadata.UpdateMetadataAccountArgsV2{Data: &newData})
	require.NoError(t, err)
	_, err = l.Execute(t, intruder, nil, ix)
	require.ErrorIs(t, err, metadata.ErrUpdateAuthorityIncorrect)

	// Rename and freeze the record
	immutable := false
	ix, err = metadata.NewUpdateMetadataAccountV2Instruction(addr, authority.PublicKey(),
		metadata.UpdateMetadataAccountArgsV2{Data: &newData, IsMutable: &immutable})
	require.NoError(t, err)
	l.MustExecute(t, authority, nil, ix)
	record, err := metadata.DecodeMetadata(l.Account(t, addr).Data)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", record.Data.Name)
	assert.False(t, record.IsMutable)

	// Frozen records reject every update
	ix, err = metadata.NewUpdateMetadataAccountV2Instruction(addr, authority.PublicKey(),
		metadata.UpdateMetadataAccountArgsV2{Data: &newData})
	require.NoError(t, err)
	_, err = l.Execute(t, authority, nil, ix)
	require.ErrorIs(t, err, metadata.ErrDataIsImmutable)
	_, err = l.Execute(t, intruder, nil, func() solana.Instruction {
		ix, err := metadata.NewUpdateMetadataAccountV2Instruction(addr, intruder.PublicKey(),
			metadata.UpdateMetadataAccountArgsV2{Data: &newData})
		require.NoError(t, err)
		return ix
	}())
	require.ErrorIs(t, err, metadata.ErrDataIsImmutable)
	code, ok := ledger.ErrorCode(err)
	require.True(t, ok)
	assert.Equal(t, metadata.ErrDataIsImmutable.Code, code)
}
