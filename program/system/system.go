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

// Package system implements account creation and owner assignment. Rent
// and lamport balances are not modelled, so lamport arguments are ignored.
package system

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	solsystem "github.com/gagliardetto/solana-go/programs/system"

	"github.com/devrupt/soulbound/ledger"
)

// MaxPermittedDataLength caps the space of a new account
const MaxPermittedDataLength = 10 * 1024 * 1024

var ErrInvalidAccountDataLength = errors.New(
	"requested account data length exceeds the permitted maximum",
)

// Program is the system program
type Program struct{}

func New() *Program {
	return &Program{}
}

func (p *Program) ProgramID() solana.PublicKey {
	return solana.SystemProgramID
}

func (p *Program) Process(ic *ledger.InvokeContext) error {
	ix := ic.Instruction()
	metas := make([]*solana.AccountMeta, 0, len(ix.Accounts))
	for _, meta := range ix.Accounts {
		metas = append(metas, &solana.AccountMeta{
			PublicKey:  meta.PublicKey,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		})
	}
	inst, err := solsystem.DecodeInstruction(metas, ix.Data)
	if err != nil {
		return fmt.Errorf("%w: %w", ledger.ErrInvalidInstructionData, err)
	}
	switch impl := inst.Impl.(type) {
	case *solsystem.CreateAccount:
		if len(impl.AccountMetaSlice) < 2 {
			return ledger.ErrNotEnoughAccountKeys
		}
		return p.createAccount(
			ic,
			impl.GetFundingAccount().PublicKey,
			impl.GetNewAccount().PublicKey,
			*impl.Space,
			*impl.Owner,
		)
	case *solsystem.Assign:
		if len(impl.AccountMetaSlice) < 1 {
			return ledger.ErrNotEnoughAccountKeys
		}
		return p.assign(ic, impl.GetAssignedAccount().PublicKey, *impl.Owner)
	default:
		return fmt.Errorf(
			"%w: unsupported system instruction %s",
			ledger.ErrInvalidInstructionData,
			solsystem.InstructionIDToName(inst.TypeID.Uint32()),
		)
	}
}

func (p *Program) createAccount(
	ic *ledger.InvokeContext,
	funder solana.PublicKey,
	address solana.PublicKey,
	space uint64,
	owner solana.PublicKey,
) error {
	if !ic.IsSigner(funder) {
		return fmt.Errorf(
			"%w: funding account %s",
			ledger.ErrMissingRequiredSignature,
			funder,
		)
	}
	if !ic.IsSigner(address) {
		return fmt.Errorf(
			"%w: new account %s",
			ledger.ErrMissingRequiredSignature,
			address,
		)
	}
	exists, err := ic.AccountExists(address)
	if err != nil {
		return err
	}
	if exists {
		ic.Log("Create Account: account Address { address: %s } already in use", address)
		return fmt.Errorf("%w: %s", ledger.ErrAccountAlreadyInUse, address)
	}
	if space > MaxPermittedDataLength {
		return ErrInvalidAccountDataLength
	}
	return ic.StoreAccount(&ledger.Account{
		Address: address,
		Owner:   owner,
		Data:    make([]byte, space),
	})
}

func (p *Program) assign(
	ic *ledger.InvokeContext,
	address solana.PublicKey,
	owner solana.PublicKey,
) error {
	if !ic.IsSigner(address) {
		return fmt.Errorf(
			"%w: assigned account %s",
			ledger.ErrMissingRequiredSignature,
			address,
		)
	}
	acct, err := ic.LoadAccount(address)
	if err != nil {
		return err
	}
	if acct.Owner.Equals(owner) {
		return nil
	}
	if !acct.Owner.Equals(solana.SystemProgramID) {
		return fmt.Errorf("%w: %s", ledger.ErrIllegalOwner, address)
	}
	acct.Owner = owner
	return ic.StoreAccount(acct)
}

// NewCreateAccountInstruction builds a CreateAccount instruction for an
// account of the given size owned by owner
func NewCreateAccountInstruction(
	funder solana.PublicKey,
	address solana.PublicKey,
	space uint64,
	owner solana.PublicKey,
) solana.Instruction {
	return solsystem.NewCreateAccountInstruction(
		0,
		space,
		owner,
		funder,
		address,
	).Build()
}

// NewAssignInstruction builds an Assign instruction
func NewAssignInstruction(
	address solana.PublicKey,
	owner solana.PublicKey,
) solana.Instruction {
	return solsystem.NewAssignInstruction(owner, address).Build()
}
