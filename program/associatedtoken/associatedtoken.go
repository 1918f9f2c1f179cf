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

// Package associatedtoken implements the associated token account program:
// one canonical token account per (owner, mint) pair at a derived address.
package associatedtoken

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/devrupt/soulbound/ledger"
	"github.com/devrupt/soulbound/program/system"
	"github.com/devrupt/soulbound/program/token"
)

var ProgramID = solana.SPLAssociatedTokenAccountProgramID

const (
	InstructionCreate           uint8 = 0
	InstructionCreateIdempotent uint8 = 1
)

var (
	ErrInvalidOwner = &ledger.ProgramError{
		Code: 0,
		Name: "InvalidOwner",
		Msg:  "associated token account owner does not match address derivation",
	}
	ErrIncorrectProgramID = errors.New("incorrect program id for instruction")
)

// Address returns the associated token account of owner for mint and its
// bump seed
func Address(
	owner solana.PublicKey,
	mint solana.PublicKey,
) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{owner[:], token.ProgramID[:], mint[:]},
		ProgramID,
	)
}

// NewCreateInstruction builds an instruction creating the associated token
// account of owner for mint, paid for by payer
func NewCreateInstruction(
	payer solana.PublicKey,
	owner solana.PublicKey,
	mint solana.PublicKey,
) (*solana.GenericInstruction, error) {
	return newCreateInstruction(InstructionCreate, payer, owner, mint)
}

// NewCreateIdempotentInstruction is like NewCreateInstruction but succeeds
// if the account already exists
func NewCreateIdempotentInstruction(
	payer solana.PublicKey,
	owner solana.PublicKey,
	mint solana.PublicKey,
) (*solana.GenericInstruction, error) {
	return newCreateInstruction(InstructionCreateIdempotent, payer, owner, mint)
}

func newCreateInstruction(
	tag uint8,
	payer solana.PublicKey,
	owner solana.PublicKey,
	mint solana.PublicKey,
) (*solana.GenericInstruction, error) {
	addr, _, err := Address(owner, mint)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(
		ProgramID,
		solana.AccountMetaSlice{
			solana.Meta(payer).WRITE().SIGNER(),
			solana.Meta(addr).WRITE(),
			solana.Meta(owner),
			solana.Meta(mint),
			solana.Meta(solana.SystemProgramID),
			solana.Meta(token.ProgramID),
		},
		[]byte{tag},
	), nil
}

type Program struct{}

func New() *Program {
	return &Program{}
}

func (p *Program) ProgramID() solana.PublicKey {
	return ProgramID
}

func (p *Program) Process(ic *ledger.InvokeContext) error {
	ix := ic.Instruction()
	// Empty data is a plain create
	tag := InstructionCreate
	if len(ix.Data) > 0 {
		tag = ix.Data[0]
	}
	switch tag {
	case InstructionCreate:
		ic.Log("Create")
		return p.create(ic, false)
	case InstructionCreateIdempotent:
		ic.Log("CreateIdempotent")
		return p.create(ic, true)
	}
	return ledger.ErrInvalidInstructionData
}

func (p *Program) create(ic *ledger.InvokeContext, idempotent bool) error {
	ix := ic.Instruction()
	if len(ix.Accounts) < 6 {
		return ledger.ErrNotEnoughAccountKeys
	}
	payer := ix.Accounts[0].PublicKey
	addr := ix.Accounts[1].PublicKey
	owner := ix.Accounts[2].PublicKey
	mint := ix.Accounts[3].PublicKey
	tokenProgram := ix.Accounts[5].PublicKey
	if !tokenProgram.Equals(token.ProgramID) {
		return fmt.Errorf("%w: %s", ErrIncorrectProgramID, tokenProgram)
	}
	expected, bump, err := Address(owner, mint)
	if err != nil {
		return err
	}
	if !expected.Equals(addr) {
		ic.Log("Error: Associated address does not match seed derivation")
		return fmt.Errorf("%w: %s", ledger.ErrInvalidSeeds, addr)
	}
	exists, err := ic.AccountExists(addr)
	if err != nil {
		return err
	}
	if exists && idempotent {
		acct, err := ic.LoadAccount(addr)
		if err != nil {
			return err
		}
		if !acct.Owner.Equals(token.ProgramID) {
			return fmt.Errorf("%w: %s", ledger.ErrIllegalOwner, addr)
		}
		state, err := token.DecodeAccount(acct.Data)
		if err != nil {
			return err
		}
		if !state.Owner.Equals(owner) || !state.Mint.Equals(mint) {
			return ErrInvalidOwner
		}
		return nil
	}
	mintAcct, err := ic.LoadAccount(mint)
	if err != nil {
		return err
	}
	if !mintAcct.Owner.Equals(token.ProgramID) {
		return fmt.Errorf("%w: mint %s", ledger.ErrIllegalOwner, mint)
	}
	// Fails with ErrAccountAlreadyInUse when the account exists
	if err := ic.InvokeSigned(
		system.NewCreateAccountInstruction(
			payer,
			addr,
			token.AccountSpace,
			token.ProgramID,
		),
		[][]byte{owner[:], token.ProgramID[:], mint[:], {bump}},
	); err != nil {
		return err
	}
	ic.Log("Initialize the associated token account")
	if err := ic.Invoke(token.NewInitializeImmutableOwnerInstruction(addr)); err != nil {
		return err
	}
	return ic.Invoke(token.NewInitializeAccount3Instruction(addr, mint, owner))
}
