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

// Package token implements the subset of the Token-2022 program needed to
// issue and hold non-transferable tokens: mint and account setup, minting,
// transfers, burning, and freezing.
package token

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/devrupt/soulbound/ledger"
)

type Program struct{}

func New() *Program {
	return &Program{}
}

func (p *Program) ProgramID() solana.PublicKey {
	return ProgramID
}

func (p *Program) Process(ic *ledger.InvokeContext) error {
	ix := ic.Instruction()
	if len(ix.Data) == 0 {
		return ErrInvalidInstruction
	}
	tag, rest := ix.Data[0], ix.Data[1:]
	switch tag {
	case InstructionInitializeMint2:
		var args initializeMint2Args
		if err := decodeArgs(rest, &args); err != nil {
			return err
		}
		ic.Log("Instruction: InitializeMint2")
		return p.initializeMint(ic, &args)
	case InstructionInitializeNonTransferableMint:
		ic.Log("Instruction: InitializeNonTransferableMint")
		return p.initializeNonTransferableMint(ic)
	case InstructionInitializeImmutableOwner:
		ic.Log("Instruction: InitializeImmutableOwner")
		return p.initializeImmutableOwner(ic)
	case InstructionInitializeAccount3:
		var args initializeAccount3Args
		if err := decodeArgs(rest, &args); err != nil {
			return err
		}
		ic.Log("Instruction: InitializeAccount3")
		return p.initializeAccount(ic, args.Owner)
	case InstructionMintTo, InstructionMintToChecked:
		var args checkedAmountArgs
		checked := tag == InstructionMintToChecked
		if err := decodeAmount(rest, checked, &args); err != nil {
			return err
		}
		ic.Log("Instruction: MintTo")
		return p.mintTo(ic, args.Amount, checked, args.Decimals)
	case InstructionTransfer, InstructionTransferChecked:
		var args checkedAmountArgs
		checked := tag == InstructionTransferChecked
		if err := decodeAmount(rest, checked, &args); err != nil {
			return err
		}
		ic.Log("Instruction: Transfer")
		return p.transfer(ic, args.Amount, checked, args.Decimals)
	case InstructionBurn:
		var args amountArgs
		if err := decodeArgs(rest, &args); err != nil {
			return err
		}
		ic.Log("Instruction: Burn")
		return p.burn(ic, args.Amount)
	case InstructionFreezeAccount:
		ic.Log("Instruction: FreezeAccount")
		return p.setFrozen(ic, true)
	case InstructionThawAccount:
		ic.Log("Instruction: ThawAccount")
		return p.setFrozen(ic, false)
	}
	return ErrInvalidInstruction
}

func decodeArgs(data []byte, args any) error {
	if err := bin.NewBorshDecoder(data).Decode(args); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInstruction, err)
	}
	return nil
}

func decodeAmount(data []byte, checked bool, args *checkedAmountArgs) error {
	if checked {
		return decodeArgs(data, args)
	}
	var tmp amountArgs
	if err := decodeArgs(data, &tmp); err != nil {
		return err
	}
	args.Amount = tmp.Amount
	return nil
}

// loadMint loads the mint at key, which must be owned by this program
func (p *Program) loadMint(
	ic *ledger.InvokeContext,
	key solana.PublicKey,
) (*ledger.Account, *Mint, error) {
	acct, err := ic.LoadAccount(key)
	if err != nil {
		return nil, nil, err
	}
	if !acct.Owner.Equals(ProgramID) {
		return nil, nil, fmt.Errorf("%w: %s", ledger.ErrIllegalOwner, key)
	}
	mint, err := DecodeMint(acct.Data)
	if err != nil {
		return nil, nil, err
	}
	return acct, mint, nil
}

// loadTokenAccount loads the token account at key, which must be owned by
// this program
func (p *Program) loadTokenAccount(
	ic *ledger.InvokeContext,
	key solana.PublicKey,
) (*ledger.Account, *Account, error) {
	acct, err := ic.LoadAccount(key)
	if err != nil {
		return nil, nil, err
	}
	if !acct.Owner.Equals(ProgramID) {
		return nil, nil, fmt.Errorf("%w: %s", ledger.ErrIllegalOwner, key)
	}
	tokenAcct, err := DecodeAccount(acct.Data)
	if err != nil {
		return nil, nil, err
	}
	return acct, tokenAcct, nil
}

func (p *Program) storeMint(
	ic *ledger.InvokeContext,
	acct *ledger.Account,
	mint *Mint,
) error {
	if err := pack(mint, acct.Data); err != nil {
		return err
	}
	return ic.StoreAccount(acct)
}

func (p *Program) storeTokenAccount(
	ic *ledger.InvokeContext,
	acct *ledger.Account,
	tokenAcct *Account,
) error {
	if err := pack(tokenAcct, acct.Data); err != nil {
		return err
	}
	return ic.StoreAccount(acct)
}

// checkSigner verifies that authority is both the expected key and a
// signer of the instruction
func checkSigner(
	ic *ledger.InvokeContext,
	expected solana.PublicKey,
	authority solana.PublicKey,
) error {
	if !expected.Equals(authority) {
		return ErrOwnerMismatch
	}
	if !ic.IsSigner(authority) {
		return fmt.Errorf(
			"%w: %s",
			ledger.ErrMissingRequiredSignature,
			authority,
		)
	}
	return nil
}

func (p *Program) initializeMint(
	ic *ledger.InvokeContext,
	args *initializeMint2Args,
) error {
	mintKey, err := ic.Instruction().Account(0)
	if err != nil {
		return err
	}
	acct, mint, err := p.loadMint(ic, mintKey)
	if err != nil {
		return err
	}
	if mint.IsInitialized {
		return ErrAlreadyInUse
	}
	mintAuthority := args.MintAuthority
	mint.AccountType = AccountTypeMint
	mint.MintAuthority = &mintAuthority
	mint.Decimals = args.Decimals
	mint.FreezeAuthority = args.FreezeAuthority
	mint.IsInitialized = true
	return p.storeMint(ic, acct, mint)
}

func (p *Program) initializeNonTransferableMint(ic *ledger.InvokeContext) error {
	mintKey, err := ic.Instruction().Account(0)
	if err != nil {
		return err
	}
	acct, mint, err := p.loadMint(ic, mintKey)
	if err != nil {
		return err
	}
	if mint.IsInitialized {
		return ErrAlreadyInUse
	}
	if mint.NonTransferable {
		return ErrExtensionAlreadyInitialized
	}
	if mint.Supply != 0 {
		return ErrMintHasSupply
	}
	mint.NonTransferable = true
	return p.storeMint(ic, acct, mint)
}

func (p *Program) initializeImmutableOwner(ic *ledger.InvokeContext) error {
	key, err := ic.Instruction().Account(0)
	if err != nil {
		return err
	}
	acct, tokenAcct, err := p.loadTokenAccount(ic, key)
	if err != nil {
		return err
	}
	if tokenAcct.IsInitialized() {
		return ErrAlreadyInUse
	}
	if tokenAcct.ImmutableOwner {
		return ErrExtensionAlreadyInitialized
	}
	tokenAcct.ImmutableOwner = true
	return p.storeTokenAccount(ic, acct, tokenAcct)
}

func (p *Program) initializeAccount(
	ic *ledger.InvokeContext,
	owner solana.PublicKey,
) error {
	ix := ic.Instruction()
	key, err := ix.Account(0)
	if err != nil {
		return err
	}
	mintKey, err := ix.Account(1)
	if err != nil {
		return err
	}
	acct, tokenAcct, err := p.loadTokenAccount(ic, key)
	if err != nil {
		return err
	}
	if tokenAcct.IsInitialized() {
		return ErrAlreadyInUse
	}
	_, mint, err := p.loadMint(ic, mintKey)
	if err != nil {
		return err
	}
	if !mint.IsInitialized {
		return ErrInvalidMint
	}
	if mint.NonTransferable && !tokenAcct.ImmutableOwner {
		return ErrNonTransferableNeedsImmutableOwnership
	}
	tokenAcct.AccountType = AccountTypeAccount
	tokenAcct.Mint = mintKey
	tokenAcct.Owner = owner
	tokenAcct.Amount = 0
	tokenAcct.State = AccountStateInitialized
	tokenAcct.NonTransferable = mint.NonTransferable
	return p.storeTokenAccount(ic, acct, tokenAcct)
}

func (p *Program) mintTo(
	ic *ledger.InvokeContext,
	amount uint64,
	checked bool,
	decimals uint8,
) error {
	ix := ic.Instruction()
	mintKey, err := ix.Account(0)
	if err != nil {
		return err
	}
	destKey, err := ix.Account(1)
	if err != nil {
		return err
	}
	authority, err := ix.Account(2)
	if err != nil {
		return err
	}
	mintAcct, mint, err := p.loadMint(ic, mintKey)
	if err != nil {
		return err
	}
	if !mint.IsInitialized {
		return ErrUninitializedState
	}
	if checked && decimals != mint.Decimals {
		return ErrMintDecimalsMismatch
	}
	if mint.MintAuthority == nil {
		return ErrFixedSupply
	}
	if err := checkSigner(ic, *mint.MintAuthority, authority); err != nil {
		return err
	}
	destAcct, dest, err := p.loadTokenAccount(ic, destKey)
	if err != nil {
		return err
	}
	if !dest.IsInitialized() {
		return ErrUninitializedState
	}
	if dest.IsFrozen() {
		return ErrAccountFrozen
	}
	if !dest.Mint.Equals(mintKey) {
		return ErrMintMismatch
	}
	if mint.Supply > ^uint64(0)-amount || dest.Amount > ^uint64(0)-amount {
		return ErrOverflow
	}
	mint.Supply += amount
	dest.Amount += amount
	if err := p.storeTokenAccount(ic, destAcct, dest); err != nil {
		return err
	}
	return p.storeMint(ic, mintAcct, mint)
}

func (p *Program) transfer(
	ic *ledger.InvokeContext,
	amount uint64,
	checked bool,
	decimals uint8,
) error {
	ix := ic.Instruction()
	var srcKey, destKey, owner solana.PublicKey
	var mintKey *solana.PublicKey
	var err error
	if checked {
		var tmpMint solana.PublicKey
		if tmpMint, err = ix.Account(1); err != nil {
			return err
		}
		mintKey = &tmpMint
		if destKey, err = ix.Account(2); err != nil {
			return err
		}
		if owner, err = ix.Account(3); err != nil {
			return err
		}
	} else {
		if destKey, err = ix.Account(1); err != nil {
			return err
		}
		if owner, err = ix.Account(2); err != nil {
			return err
		}
	}
	if srcKey, err = ix.Account(0); err != nil {
		return err
	}
	srcAcct, src, err := p.loadTokenAccount(ic, srcKey)
	if err != nil {
		return err
	}
	if !src.IsInitialized() {
		return ErrUninitializedState
	}
	if src.NonTransferable {
		return ErrNonTransferable
	}
	if mintKey != nil {
		if !src.Mint.Equals(*mintKey) {
			return ErrMintMismatch
		}
		_, mint, err := p.loadMint(ic, *mintKey)
		if err != nil {
			return err
		}
		if mint.NonTransferable {
			return ErrNonTransferable
		}
		if decimals != mint.Decimals {
			return ErrMintDecimalsMismatch
		}
	}
	if err := checkSigner(ic, src.Owner, owner); err != nil {
		return err
	}
	if src.IsFrozen() {
		return ErrAccountFrozen
	}
	if src.Amount < amount {
		return ErrInsufficientFunds
	}
	// Self transfer
	if srcKey.Equals(destKey) {
		return nil
	}
	destAcct, dest, err := p.loadTokenAccount(ic, destKey)
	if err != nil {
		return err
	}
	if !dest.IsInitialized() {
		return ErrUninitializedState
	}
	if dest.IsFrozen() {
		return ErrAccountFrozen
	}
	if !dest.Mint.Equals(src.Mint) {
		return ErrMintMismatch
	}
	if dest.Amount > ^uint64(0)-amount {
		return ErrOverflow
	}
	src.Amount -= amount
	dest.Amount += amount
	if err := p.storeTokenAccount(ic, srcAcct, src); err != nil {
		return err
	}
	return p.storeTokenAccount(ic, destAcct, dest)
}

func (p *Program) burn(ic *ledger.InvokeContext, amount uint64) error {
	ix := ic.Instruction()
	key, err := ix.Account(0)
	if err != nil {
		return err
	}
	mintKey, err := ix.Account(1)
	if err != nil {
		return err
	}
	owner, err := ix.Account(2)
	if err != nil {
		return err
	}
	acct, tokenAcct, err := p.loadTokenAccount(ic, key)
	if err != nil {
		return err
	}
	if !tokenAcct.IsInitialized() {
		return ErrUninitializedState
	}
	if tokenAcct.IsFrozen() {
		return ErrAccountFrozen
	}
	if !tokenAcct.Mint.Equals(mintKey) {
		return ErrMintMismatch
	}
	if err := checkSigner(ic, tokenAcct.Owner, owner); err != nil {
		return err
	}
	if tokenAcct.Amount < amount {
		return ErrInsufficientFunds
	}
	mintAcct, mint, err := p.loadMint(ic, mintKey)
	if err != nil {
		return err
	}
	tokenAcct.Amount -= amount
	mint.Supply -= amount
	if err := p.storeTokenAccount(ic, acct, tokenAcct); err != nil {
		return err
	}
	return p.storeMint(ic, mintAcct, mint)
}

func (p *Program) setFrozen(ic *ledger.InvokeContext, freeze bool) error {
	ix := ic.Instruction()
	key, err := ix.Account(0)
	if err != nil {
		return err
	}
	mintKey, err := ix.Account(1)
	if err != nil {
		return err
	}
	authority, err := ix.Account(2)
	if err != nil {
		return err
	}
	acct, tokenAcct, err := p.loadTokenAccount(ic, key)
	if err != nil {
		return err
	}
	if !tokenAcct.IsInitialized() {
		return ErrUninitializedState
	}
	if freeze == tokenAcct.IsFrozen() {
		return ErrInvalidState
	}
	if !tokenAcct.Mint.Equals(mintKey) {
		return ErrMintMismatch
	}
	_, mint, err := p.loadMint(ic, mintKey)
	if err != nil {
		return err
	}
	if mint.FreezeAuthority == nil {
		return ErrMintCannotFreeze
	}
	if err := checkSigner(ic, *mint.FreezeAuthority, authority); err != nil {
		return err
	}
	if freeze {
		tokenAcct.State = AccountStateFrozen
	} else {
		tokenAcct.State = AccountStateInitialized
	}
	return p.storeTokenAccount(ic, acct, tokenAcct)
}
