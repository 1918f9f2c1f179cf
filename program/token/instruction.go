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

package token

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ProgramID is the Token-2022 program id
var ProgramID = solana.Token2022ProgramID

// Instruction tags, Token-2022 numbering
const (
	InstructionTransfer                      uint8 = 3
	InstructionMintTo                        uint8 = 7
	InstructionBurn                          uint8 = 8
	InstructionFreezeAccount                 uint8 = 10
	InstructionThawAccount                   uint8 = 11
	InstructionTransferChecked               uint8 = 12
	InstructionMintToChecked                 uint8 = 14
	InstructionInitializeAccount3            uint8 = 18
	InstructionInitializeMint2               uint8 = 20
	InstructionInitializeImmutableOwner      uint8 = 22
	InstructionInitializeNonTransferableMint uint8 = 32
)

type initializeMint2Args struct {
	Decimals        uint8
	MintAuthority   solana.PublicKey
	FreezeAuthority *solana.PublicKey `bin:"optional"`
}

type initializeAccount3Args struct {
	Owner solana.PublicKey
}

type amountArgs struct {
	Amount uint64
}

type checkedAmountArgs struct {
	Amount   uint64
	Decimals uint8
}

func encodeInstruction(tag uint8, args any) []byte {
	buf := bytes.NewBuffer([]byte{tag})
	if args != nil {
		// Fixed-layout structs of primitives do not fail to encode
		_ = bin.NewBorshEncoder(buf).Encode(args)
	}
	return buf.Bytes()
}

func NewInitializeMint2Instruction(
	mint solana.PublicKey,
	decimals uint8,
	mintAuthority solana.PublicKey,
	freezeAuthority *solana.PublicKey,
) *solana.GenericInstruction {
	return solana.NewInstruction(
		ProgramID,
		solana.AccountMetaSlice{solana.Meta(mint).WRITE()},
		encodeInstruction(InstructionInitializeMint2, &initializeMint2Args{
			Decimals:        decimals,
			MintAuthority:   mintAuthority,
			FreezeAuthority: freezeAuthority,
		}),
	)
}

func NewInitializeNonTransferableMintInstruction(
	mint solana.PublicKey,
) *solana.GenericInstruction {
	return solana.NewInstruction(
		ProgramID,
		solana.AccountMetaSlice{solana.Meta(mint).WRITE()},
		encodeInstruction(InstructionInitializeNonTransferableMint, nil),
	)
}

func NewInitializeImmutableOwnerInstruction(
	account solana.PublicKey,
) *solana.GenericInstruction {
	return solana.NewInstruction(
		ProgramID,
		solana.AccountMetaSlice{solana.Meta(account).WRITE()},
		encodeInstruction(InstructionInitializeImmutableOwner, nil),
	)
}

func NewInitializeAccount3Instruction(
	account solana.PublicKey,
	mint solana.PublicKey,
	owner solana.PublicKey,
) *solana.GenericInstruction {
	return solana.NewInstruction(
		ProgramID,
		solana.AccountMetaSlice{
			solana.Meta(account).WRITE(),
			solana.Meta(mint),
		},
		encodeInstruction(
			InstructionInitializeAccount3,
			&initializeAccount3Args{Owner: owner},
		),
	)
}

func NewMintToInstruction(
	mint solana.PublicKey,
	destination solana.PublicKey,
	authority solana.PublicKey,
	amount uint64,
) *solana.GenericInstruction {
	return solana.NewInstruction(
		ProgramID,
		solana.AccountMetaSlice{
			solana.Meta(mint).WRITE(),
			solana.Meta(destination).WRITE(),
			solana.Meta(authority).SIGNER(),
		},
		encodeInstruction(InstructionMintTo, &amountArgs{Amount: amount}),
	)
}

func NewMintToCheckedInstruction(
	mint solana.PublicKey,
	destination solana.PublicKey,
	authority solana.PublicKey,
	amount uint64,
	decimals uint8,
) *solana.GenericInstruction {
	return solana.NewInstruction(
		ProgramID,
		solana.AccountMetaSlice{
			solana.Meta(mint).WRITE(),
			solana.Meta(destination).WRITE(),
			solana.Meta(authority).SIGNER(),
		},
		encodeInstruction(
			InstructionMintToChecked,
			&checkedAmountArgs{Amount: amount, Decimals: decimals},
		),
	)
}

func NewTransferInstruction(
	source solana.PublicKey,
	destination solana.PublicKey,
	owner solana.PublicKey,
	amount uint64,
) *solana.GenericInstruction {
	return solana.NewInstruction(
		ProgramID,
		solana.AccountMetaSlice{
			solana.Meta(source).WRITE(),
			solana.Meta(destination).WRITE(),
			solana.Meta(owner).SIGNER(),
		},
		encodeInstruction(InstructionTransfer, &amountArgs{Amount: amount}),
	)
}

func NewTransferCheckedInstruction(
	source solana.PublicKey,
	mint solana.PublicKey,
	destination solana.PublicKey,
	owner solana.PublicKey,
	amount uint64,
	decimals uint8,
) *solana.GenericInstruction {
	return solana.NewInstruction(
		ProgramID,
		solana.AccountMetaSlice{
			solana.Meta(source).WRITE(),
			solana.Meta(mint),
			solana.Meta(destination).WRITE(),
			solana.Meta(owner).SIGNER(),
		},
		encodeInstruction(
			InstructionTransferChecked,
			&checkedAmountArgs{Amount: amount, Decimals: decimals},
		),
	)
}

func NewBurnInstruction(
	account solana.PublicKey,
	mint solana.PublicKey,
	owner solana.PublicKey,
	amount uint64,
) *solana.GenericInstruction {
	return solana.NewInstruction(
		ProgramID,
		solana.AccountMetaSlice{
			solana.Meta(account).WRITE(),
			solana.Meta(mint).WRITE(),
			solana.Meta(owner).SIGNER(),
		},
		encodeInstruction(InstructionBurn, &amountArgs{Amount: amount}),
	)
}

func NewFreezeAccountInstruction(
	account solana.PublicKey,
	mint solana.PublicKey,
	authority solana.PublicKey,
) *solana.GenericInstruction {
	return solana.NewInstruction(
		ProgramID,
		solana.AccountMetaSlice{
			solana.Meta(account).WRITE(),
			solana.Meta(mint),
			solana.Meta(authority).SIGNER(),
		},
		encodeInstruction(InstructionFreezeAccount, nil),
	)
}

func NewThawAccountInstruction(
	account solana.PublicKey,
	mint solana.PublicKey,
	authority solana.PublicKey,
) *solana.GenericInstruction {
	return solana.NewInstruction(
		ProgramID,
		solana.AccountMetaSlice{
			solana.Meta(account).WRITE(),
			solana.Meta(mint),
			solana.Meta(authority).SIGNER(),
		},
		encodeInstruction(InstructionThawAccount, nil),
	)
}
