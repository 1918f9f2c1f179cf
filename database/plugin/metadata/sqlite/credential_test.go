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

package sqlite_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devrupt/soulbound/database/models"
	"github.com/devrupt/soulbound/database/plugin/metadata/sqlite"
)

func newTestStore(t *testing.T) *sqlite.MetadataStoreSqlite {
	t.Helper()
	store, err := sqlite.New()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testCredential(seed byte) *models.Credential {
	return &models.Credential{
		IssuedAt:     time.Now(),
		Cid:          "Qm123abc",
		Name:         "Soulbound Cert Qm123abc",
		Symbol:       "SBT",
		Uri:          "https://gateway.pinata.cloud/ipfs/Qm123abc",
		Owner:        bytes.Repeat([]byte{seed}, 32),
		Mint:         bytes.Repeat([]byte{seed + 1}, 32),
		TokenAccount: bytes.Repeat([]byte{seed + 2}, 32),
		Metadata:     bytes.Repeat([]byte{seed + 3}, 32),
		Signature:    bytes.Repeat([]byte{seed}, 64),
		Rewards:      1,
	}
}

func TestSetCredential(t *testing.T) {
	store := newTestStore(t)
	cred := testCredential(0x10)

	txn := store.Transaction()
	require.NoError(t, store.SetCredential(cred, txn))
	require.NoError(t, txn.Commit())

	got, err := store.GetCredentialByOwner(cred.Owner, nil)
	require.NoError(t, err)
	assert.Equal(t, cred.Name, got.Name)
	assert.Equal(t, cred.Mint, got.Mint)
	assert.Equal(t, uint64(1), got.Rewards)

	_, err = store.GetCredentialByOwner(bytes.Repeat([]byte{0xee}, 32), nil)
	assert.ErrorIs(t, err, models.ErrCredentialNotFound)
}

func TestSetCredentialDuplicateOwner(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SetCredential(testCredential(0x20), nil))

	dup := testCredential(0x20)
	dup.Mint = bytes.Repeat([]byte{0x99}, 32)
	err := store.SetCredential(dup, nil)
	assert.ErrorIs(t, err, models.ErrCredentialExists)
}

func TestSetCredentialRollback(t *testing.T) {
	store := newTestStore(t)
	cred := testCredential(0x30)

	txn := store.Transaction()
	require.NoError(t, store.SetCredential(cred, txn))
	require.NoError(t, txn.Rollback())

	_, err := store.GetCredentialByOwner(cred.Owner, nil)
	assert.ErrorIs(t, err, models.ErrCredentialNotFound)
	// A finished transaction can no longer be used
	assert.Error(t, store.SetCredential(cred, txn))
}

func TestGetCredentialsPaging(t *testing.T) {
	store := newTestStore(t)
	for _, seed := range []byte{0x40, 0x50, 0x60} {
		require.NoError(t, store.SetCredential(testCredential(seed), nil))
	}
	count, err := store.CountCredentials(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	page, err := store.GetCredentials(2, 0, nil)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, bytes.Repeat([]byte{0x40}, 32), page[0].Owner)
	assert.Equal(t, bytes.Repeat([]byte{0x50}, 32), page[1].Owner)

	page, err = store.GetCredentials(2, 2, nil)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, bytes.Repeat([]byte{0x60}, 32), page[0].Owner)
}

func TestTransactionRecord(t *testing.T) {
	store := newTestStore(t)
	sig := bytes.Repeat([]byte{0x07}, 64)
	txn := store.Transaction()
	require.NoError(t, store.SetTransaction(&models.Transaction{
		ProcessedAt:  time.Now(),
		Signature:    sig,
		FeePayer:     bytes.Repeat([]byte{0x08}, 32),
		Instructions: 1,
		Logs:         "Program log: ok",
	}, txn))
	require.NoError(t, txn.Commit())

	got, err := store.GetTransactionBySignature(sig, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), got.Instructions)
	assert.Equal(t, "Program log: ok", got.Logs)

	_, err = store.GetTransactionBySignature(bytes.Repeat([]byte{0x09}, 64), nil)
	assert.ErrorIs(t, err, models.ErrTransactionNotFound)
}

func TestCommitTimestamp(t *testing.T) {
	store := newTestStore(t)
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Zero(t, ts)

	txn := store.Transaction()
	require.NoError(t, store.SetCommitTimestamp(42, txn))
	require.NoError(t, txn.Commit())
	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(42), ts)
}
