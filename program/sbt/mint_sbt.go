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

package sbt

import (
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/devrupt/soulbound/database/models"
	"github.com/devrupt/soulbound/event"
	"github.com/devrupt/soulbound/ledger"
	"github.com/devrupt/soulbound/program/associatedtoken"
	"github.com/devrupt/soulbound/program/metadata"
	"github.com/devrupt/soulbound/program/system"
	"github.com/devrupt/soulbound/program/token"
)

// Account positions of MintSbt
const (
	accountPayer = iota
	accountContributor
	accountMint
	accountTokenAccount
	accountMetadata
	accountMetadataProgram
	accountTokenProgram
	accountSystemProgram
	accountAssociatedTokenProgram
	mintSbtAccounts
)

type mintSbtAccountSet struct {
	contributor *ledger.Account
	state       *ContributorState
	payer       solana.PublicKey
	mint        solana.PublicKey
	tokenAcct   solana.PublicKey
	metadata    solana.PublicKey
	mintBump    uint8
}

// validateMintSbt checks every account passed to MintSbt against its
// expected derivation before anything is written
func (p *Program) validateMintSbt(ic *ledger.InvokeContext) (*mintSbtAccountSet, error) {
	ix := ic.Instruction()
	if len(ix.Accounts) < mintSbtAccounts {
		return nil, ErrAccountNotEnoughKeys
	}
	key := func(idx int) solana.PublicKey {
		return ix.Accounts[idx].PublicKey
	}
	ret := &mintSbtAccountSet{
		payer:     key(accountPayer),
		mint:      key(accountMint),
		tokenAcct: key(accountTokenAccount),
		metadata:  key(accountMetadata),
	}
	if !ic.IsSigner(ret.payer) {
		return nil, ErrAccountNotSigner
	}
	for _, idx := range []int{accountPayer, accountContributor, accountMint, accountTokenAccount, accountMetadata} {
		if !ic.IsWritable(key(idx)) {
			return nil, ErrConstraintMut
		}
	}
	programs := []struct {
		idx int
		id  solana.PublicKey
	}{
		{accountMetadataProgram, metadata.ProgramID},
		{accountTokenProgram, token.ProgramID},
		{accountSystemProgram, solana.SystemProgramID},
		{accountAssociatedTokenProgram, associatedtoken.ProgramID},
	}
	for _, prog := range programs {
		if !key(prog.idx).Equals(prog.id) {
			return nil, ErrInvalidProgramID
		}
	}

	// Contributor state
	contributorKey := key(accountContributor)
	expected, _, err := ContributorAddress(p.programID, ret.payer)
	if err != nil {
		return nil, err
	}
	if !expected.Equals(contributorKey) {
		return nil, ErrConstraintSeeds
	}
	ret.contributor, err = ic.LoadAccount(contributorKey)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, ErrAccountNotInitialized
		}
		return nil, err
	}
	if !ret.contributor.Owner.Equals(p.programID) {
		return nil, ErrAccountOwnedByWrongProgram
	}
	ret.state, err = DecodeContributorState(ret.contributor.Data)
	if err != nil {
		return nil, err
	}
	// The stored bump must reproduce the address
	withBump, err := solana.CreateProgramAddress(
		[][]byte{[]byte(ContributorSeed), ret.payer[:], {ret.state.Bump}},
		p.programID,
	)
	if err != nil || !withBump.Equals(contributorKey) {
		return nil, ErrConstraintSeeds
	}

	// Accounts created by the instruction
	expected, ret.mintBump, err = MintAddress(p.programID, ret.payer)
	if err != nil {
		return nil, err
	}
	if !expected.Equals(ret.mint) {
		return nil, ErrConstraintSeeds
	}
	expected, _, err = associatedtoken.Address(ret.payer, ret.mint)
	if err != nil {
		return nil, err
	}
	if !expected.Equals(ret.tokenAcct) {
		return nil, ErrConstraintAssociated
	}
	expected, _, err = metadata.Address(ret.mint)
	if err != nil {
		return nil, err
	}
	if !expected.Equals(ret.metadata) {
		return nil, ErrConstraintSeeds
	}
	return ret, nil
}

func (p *Program) mintSbt(ic *ledger.InvokeContext, cid string) error {
	accts, err := p.validateMintSbt(ic)
	if err != nil {
		return err
	}
	payer := accts.payer
	state := accts.state

	// Eligibility
	if state.TotalContributions < p.minContributions {
		p.metrics.rejected.WithLabelValues("insufficient_contributions").Inc()
		ic.Log(
			"contributor %s has %d contributions, %d required",
			payer,
			state.TotalContributions,
			p.minContributions,
		)
		return ErrInsufficientContributions
	}
	if state.TotalRewards == ^uint64(0) {
		return ErrOverflow
	}
	state.TotalRewards++
	if err := state.pack(accts.contributor.Data); err != nil {
		return err
	}
	if err := ic.StoreAccount(accts.contributor); err != nil {
		return err
	}

	// Issuance. The mint address is unique per payer, so a second issuance
	// fails here with ErrAccountAlreadyInUse.
	if err := ic.InvokeSigned(
		system.NewCreateAccountInstruction(
			payer,
			accts.mint,
			token.MintSpace,
			token.ProgramID,
		),
		[][]byte{[]byte(MintSeed), payer[:], {accts.mintBump}},
	); err != nil {
		return err
	}
	// The extension must be in place before the mint is initialized
	if err := ic.Invoke(
		token.NewInitializeNonTransferableMintInstruction(accts.mint),
	); err != nil {
		return err
	}
	if err := ic.Invoke(
		token.NewInitializeMint2Instruction(accts.mint, Decimals, payer, &payer),
	); err != nil {
		return err
	}
	createAta, err := associatedtoken.NewCreateInstruction(payer, payer, accts.mint)
	if err != nil {
		return err
	}
	if err := ic.Invoke(createAta); err != nil {
		return err
	}
	if err := ic.Invoke(
		token.NewMintToInstruction(accts.mint, accts.tokenAcct, payer, MintAmount),
	); err != nil {
		return err
	}

	// Attestation
	name := CredentialName(cid)
	uri := CredentialURI(cid)
	createMetadata, err := metadata.NewCreateMetadataAccountV3Instruction(
		accts.mint,
		payer,
		payer,
		payer,
		metadata.CreateMetadataAccountArgsV3{
			Data: metadata.DataV2{
				Name:   name,
				Symbol: Symbol,
				URI:    uri,
			},
			IsMutable: false,
		},
	)
	if err != nil {
		return err
	}
	if err := ic.Invoke(createMetadata); err != nil {
		return err
	}

	sig := ic.Signature()
	if err := ic.Txn().DB().SetCredential(
		&models.Credential{
			Owner:        payer[:],
			Mint:         accts.mint[:],
			TokenAccount: accts.tokenAcct[:],
			Metadata:     accts.metadata[:],
			Signature:    sig[:],
			Cid:          cid,
			Name:         name,
			Symbol:       Symbol,
			Uri:          uri,
			Rewards:      state.TotalRewards,
			IssuedAt:     time.Now(),
		},
		ic.Txn(),
	); err != nil {
		return err
	}
	ic.Log("Soulbound credential %s minted to %s", accts.mint, payer)

	evt := CredentialIssuedEvent{
		Cid:          cid,
		Name:         name,
		URI:          uri,
		Owner:        payer,
		Mint:         accts.mint,
		TokenAccount: accts.tokenAcct,
		Metadata:     accts.metadata,
		Signature:    sig,
		TotalRewards: state.TotalRewards,
	}
	ic.AfterCommit(func() {
		p.metrics.issued.Inc()
		p.logger.Info(
			"credential issued",
			"owner", payer.String(),
			"mint", evt.Mint.String(),
			"cid", cid,
		)
		if p.eventBus != nil {
			p.eventBus.Publish(
				CredentialIssuedEventType,
				event.NewEvent(CredentialIssuedEventType, evt),
			)
		}
	})
	return nil
}
