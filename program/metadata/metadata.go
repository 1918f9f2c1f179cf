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

// Package metadata implements the token metadata program. A metadata record
// names a mint and points at off-ledger content; an immutable record can
// never be changed.
package metadata

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/devrupt/soulbound/ledger"
	"github.com/devrupt/soulbound/program/system"
	"github.com/devrupt/soulbound/program/token"
)

type Program struct {
	maxNameLength int
}

func New(opts ...ProgramOptionFunc) *Program {
	p := &Program{
		maxNameLength: DefaultMaxNameLength,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Program) ProgramID() solana.PublicKey {
	return ProgramID
}

func (p *Program) Process(ic *ledger.InvokeContext) error {
	ix := ic.Instruction()
	if len(ix.Data) == 0 {
		return ErrInvalidInstruction
	}
	switch ix.Data[0] {
	case InstructionCreateMetadataAccountV3:
		var args CreateMetadataAccountArgsV3
		if err := bin.NewBorshDecoder(ix.Data[1:]).Decode(&args); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInstruction, err)
		}
		ic.Log("Instruction: Create Metadata Accounts v3")
		return p.createMetadata(ic, &args)
	case InstructionUpdateMetadataAccountV2:
		var args UpdateMetadataAccountArgsV2
		if err := bin.NewBorshDecoder(ix.Data[1:]).Decode(&args); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInstruction, err)
		}
		ic.Log("Instruction: Update Metadata Accounts v2")
		return p.updateMetadata(ic, &args)
	}
	return ErrInvalidInstruction
}

func (p *Program) createMetadata(
	ic *ledger.InvokeContext,
	args *CreateMetadataAccountArgsV3,
) error {
	ix := ic.Instruction()
	if len(ix.Accounts) < 5 {
		return ledger.ErrNotEnoughAccountKeys
	}
	metadataKey := ix.Accounts[0].PublicKey
	mintKey := ix.Accounts[1].PublicKey
	mintAuthority := ix.Accounts[2].PublicKey
	payer := ix.Accounts[3].PublicKey
	updateAuthority := ix.Accounts[4].PublicKey

	expected, bump, err := Address(mintKey)
	if err != nil {
		return err
	}
	if !expected.Equals(metadataKey) {
		return ErrInvalidMetadataKey
	}
	exists, err := ic.AccountExists(metadataKey)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyInitialized
	}
	mintAcct, err := ic.LoadAccount(mintKey)
	if err != nil {
		return err
	}
	if !mintAcct.Owner.Equals(token.ProgramID) {
		return ErrIncorrectOwner
	}
	mint, err := token.DecodeMint(mintAcct.Data)
	if err != nil {
		return err
	}
	if !mint.IsInitialized {
		return ErrUninitialized
	}
	if mint.MintAuthority == nil || !mint.MintAuthority.Equals(mintAuthority) {
		return ErrInvalidMintAuthority
	}
	if !ic.IsSigner(mintAuthority) {
		return ErrNotMintAuthority
	}
	if err := p.validateData(&args.Data); err != nil {
		return err
	}
	record := &Metadata{
		Key:             KeyMetadataV1,
		UpdateAuthority: updateAuthority,
		Mint:            mintKey,
		Data: Data{
			Name:                 args.Data.Name,
			Symbol:               args.Data.Symbol,
			URI:                  args.Data.URI,
			SellerFeeBasisPoints: args.Data.SellerFeeBasisPoints,
			Creators:             args.Data.Creators,
		},
		IsMutable:  args.IsMutable,
		Collection: args.Data.Collection,
		Uses:       args.Data.Uses,
	}
	raw, err := record.encode()
	if err != nil {
		return err
	}
	space := max(len(raw), MetadataSpace)
	if err := ic.InvokeSigned(
		system.NewCreateAccountInstruction(
			payer,
			metadataKey,
			uint64(space), // #nosec G115
			ProgramID,
		),
		[][]byte{[]byte(metadataSeed), ProgramID[:], mintKey[:], {bump}},
	); err != nil {
		return err
	}
	acct, err := ic.LoadAccount(metadataKey)
	if err != nil {
		return err
	}
	if err := record.pack(acct.Data); err != nil {
		return err
	}
	return ic.StoreAccount(acct)
}

func (p *Program) updateMetadata(
	ic *ledger.InvokeContext,
	args *UpdateMetadataAccountArgsV2,
) error {
	ix := ic.Instruction()
	if len(ix.Accounts) < 2 {
		return ledger.ErrNotEnoughAccountKeys
	}
	metadataKey := ix.Accounts[0].PublicKey
	updateAuthority := ix.Accounts[1].PublicKey
	acct, err := ic.LoadAccount(metadataKey)
	if err != nil {
		return err
	}
	if !acct.Owner.Equals(ProgramID) {
		return ErrIncorrectOwner
	}
	record, err := DecodeMetadata(acct.Data)
	if err != nil {
		return err
	}
	// Immutability wins over any authority
	if !record.IsMutable {
		return ErrDataIsImmutable
	}
	if !record.UpdateAuthority.Equals(updateAuthority) {
		return ErrUpdateAuthorityIncorrect
	}
	if !ic.IsSigner(updateAuthority) {
		return ErrUpdateAuthorityIsNotSigner
	}
	if args.Data != nil {
		if err := p.validateData(args.Data); err != nil {
			return err
		}
		record.Data = Data{
			Name:                 args.Data.Name,
			Symbol:               args.Data.Symbol,
			URI:                  args.Data.URI,
			SellerFeeBasisPoints: args.Data.SellerFeeBasisPoints,
			Creators:             args.Data.Creators,
		}
		record.Collection = args.Data.Collection
		record.Uses = args.Data.Uses
	}
	if args.UpdateAuthority != nil {
		record.UpdateAuthority = *args.UpdateAuthority
	}
	if args.PrimarySaleHappened != nil {
		// Can only be flipped on
		if *args.PrimarySaleHappened {
			record.PrimarySaleHappened = true
		}
	}
	if args.IsMutable != nil {
		record.IsMutable = *args.IsMutable
	}
	if err := record.pack(acct.Data); err != nil {
		return err
	}
	return ic.StoreAccount(acct)
}
