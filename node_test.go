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

package soulbound_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devrupt/soulbound"
	"github.com/devrupt/soulbound/program/sbt"
)

const testCid = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

func newTestNode(t *testing.T, opts ...soulbound.ConfigOptionFunc) *soulbound.Node {
	t.Helper()
	opts = append(
		[]soulbound.ConfigOptionFunc{
			soulbound.WithMaxNameLength(64),
			soulbound.WithShutdownTimeout(5 * time.Second),
		},
		opts...,
	)
	n, err := soulbound.New(soulbound.NewConfig(opts...))
	require.NoError(t, err)
	return n
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := soulbound.New(soulbound.NewConfig(
		soulbound.WithMaxNameLength(0),
	))
	require.Error(t, err)
	_, err = soulbound.New(soulbound.NewConfig(
		soulbound.WithProgramID(solana.PublicKey{}),
	))
	require.Error(t, err)
	_, err = soulbound.New(soulbound.NewConfig(
		soulbound.WithMinContributions(0),
	))
	require.Error(t, err)
}

func TestNodeOpenAndIssue(t *testing.T) {
	n := newTestNode(t)
	ctx := context.Background()
	require.NoError(t, n.Open(ctx))
	defer n.Stop() //nolint:errcheck

	signer := solana.NewWallet().PrivateKey
	_, err := n.Issuer().SetContributor(ctx, signer.PublicKey(), "alice", 1, 0)
	require.NoError(t, err)
	cred, err := n.Issuer().Issue(ctx, signer, testCid)
	require.NoError(t, err)

	row, err := n.Runtime().Database().GetCredentialByOwner(
		signer.PublicKey().Bytes(),
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, cred.Mint.String(), row.MintAddress())
	assert.Equal(t, uint64(1), row.Rewards)
}

func TestNodePersistsAcrossRestart(t *testing.T) {
	dataDir := t.TempDir()
	ctx := context.Background()
	signer := solana.NewWallet().PrivateKey

	n := newTestNode(t, soulbound.WithDatabasePath(dataDir))
	require.NoError(t, n.Open(ctx))
	_, err := n.Issuer().SetContributor(ctx, signer.PublicKey(), "alice", 2, 0)
	require.NoError(t, err)
	_, err = n.Issuer().Issue(ctx, signer, testCid)
	require.NoError(t, err)
	require.NoError(t, n.Stop())

	n = newTestNode(t, soulbound.WithDatabasePath(dataDir))
	require.NoError(t, n.Open(ctx))
	defer n.Stop() //nolint:errcheck
	view, err := n.Issuer().Credential(ctx, signer.PublicKey())
	require.NoError(t, err)
	assert.True(t, view.Issued())
	assert.Equal(t, uint64(1), view.Contributor.TotalRewards)

	// The second issuance is rejected after a restart too
	_, err = n.Issuer().Issue(ctx, signer, testCid)
	require.Error(t, err)
}

func TestNodeLoadsGenesis(t *testing.T) {
	eligible := solana.NewWallet().PublicKey()
	ineligible := solana.NewWallet().PublicKey()
	genesisFile := filepath.Join(t.TempDir(), "genesis.yaml")
	genesis := "contributors:\n" +
		"  - owner: " + eligible.String() + "\n" +
		"    username: alice\n" +
		"    totalContributions: 4\n" +
		"    totalRewards: 2\n" +
		"  - owner: " + ineligible.String() + "\n" +
		"    username: bob\n"
	require.NoError(t, os.WriteFile(genesisFile, []byte(genesis), 0o600))

	n := newTestNode(t, soulbound.WithGenesisFile(genesisFile))
	ctx := context.Background()
	require.NoError(t, n.Open(ctx))
	defer n.Stop() //nolint:errcheck

	view, err := n.Issuer().Credential(ctx, eligible)
	require.NoError(t, err)
	require.NotNil(t, view.Contributor)
	assert.Equal(t, "alice", view.Contributor.Username)
	assert.Equal(t, uint64(4), view.Contributor.TotalContributions)
	assert.Equal(t, uint64(2), view.Contributor.TotalRewards)
	assert.False(t, view.Issued())

	view, err = n.Issuer().Credential(ctx, ineligible)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), view.Contributor.TotalContributions)
}

func TestNodeGenesisInvalidOwner(t *testing.T) {
	genesisFile := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(
		genesisFile,
		[]byte("contributors:\n  - owner: not-a-key\n"),
		0o600,
	))
	n := newTestNode(t, soulbound.WithGenesisFile(genesisFile))
	defer n.Stop() //nolint:errcheck
	err := n.Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid owner")
}

func TestNodeGenesisRewardsExceedContributions(t *testing.T) {
	genesisFile := filepath.Join(t.TempDir(), "genesis.yaml")
	genesis := "contributors:\n" +
		"  - owner: " + solana.NewWallet().PublicKey().String() + "\n" +
		"    username: mallory\n" +
		"    totalContributions: 1\n" +
		"    totalRewards: 3\n"
	require.NoError(t, os.WriteFile(genesisFile, []byte(genesis), 0o600))
	n := newTestNode(t, soulbound.WithGenesisFile(genesisFile))
	defer n.Stop() //nolint:errcheck
	err := n.Open(context.Background())
	require.ErrorIs(t, err, sbt.ErrRewardsExceedContributions)
}

func TestNodeRunUntilCanceled(t *testing.T) {
	n := newTestNode(t, soulbound.WithAPIListenAddress("127.0.0.1:0"))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- n.Run(ctx)
	}()
	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	require.NoError(t, n.Stop())
	// Stop is idempotent
	require.NoError(t, n.Stop())
}

func TestNodeRunUntilStopped(t *testing.T) {
	n := newTestNode(t)
	ctx := context.Background()
	require.NoError(t, n.Open(ctx))
	errCh := make(chan error, 1)
	go func() {
		errCh <- n.Run(ctx)
	}()
	require.NoError(t, n.Stop())
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
