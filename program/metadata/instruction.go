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

package metadata

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var ProgramID = solana.MustPublicKeyFromBase58(
	"metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s",
)

const (
	InstructionUpdateMetadataAccountV2 uint8 = 15
	InstructionCreateMetadataAccountV3 uint8 = 33
)

const metadataSeed = "metadata"

type CollectionDetails struct {
	Size uint64
}

type CreateMetadataAccountArgsV3 struct {
	Data              DataV2
	IsMutable         bool
	CollectionDetails *CollectionDetails `bin:"optional"`
}

// UpdateMetadataAccountArgsV2 changes the fields that are set
type UpdateMetadataAccountArgsV2 struct {
	Data                *DataV2           `bin:"optional"`
	UpdateAuthority     *solana.PublicKey `bin:"optional"`
	PrimarySaleHappened *bool             `bin:"optional"`
	IsMutable           *bool             `bin:"optional"`
}

// Address returns the metadata account of mint and its bump seed
func Address(mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{[]byte(metadataSeed), ProgramID[:], mint[:]},
		ProgramID,
	)
}

func encodeInstruction(tag uint8, args any) ([]byte, error) {
	buf := bytes.NewBuffer([]byte{tag})
	if err := bin.NewBorshEncoder(buf).Encode(args); err != nil {
		return nil, fmt.Errorf("encode instruction: %w", err)
	}
	return buf.Bytes(), nil
}

// NewCreateMetadataAccountV3Instruction builds an instruction attaching a
// metadata record to mint. The update authority signs as well.
func NewCreateMetadataAccountV3Instruction(
	mint solana.PublicKey,
	mintAuthority solana.PublicKey,
	payer solana.PublicKey,
	updateAuthority solana.PublicKey,
	args CreateMetadataAccountArgsV3,
) (*solana.GenericInstruction, error) {
	addr, _, err := Address(mint)
	if err != nil {
		return nil, err
	}
	data, err := encodeInstruction(InstructionCreateMetadataAccountV3, &args)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(
		ProgramID,
		solana.AccountMetaSlice{
			solana.Meta(addr).WRITE(),
			solana.Meta(mint),
			solana.Meta(mintAuthority).SIGNER(),
			solana.Meta(payer).WRITE().SIGNER(),
			solana.Meta(updateAuthority).SIGNER(),
			solana.Meta(solana.SystemProgramID),
		},
		data,
	), nil
}

func NewUpdateMetadataAccountV2Instruction(
	metadata solana.PublicKey,
	updateAuthority solana.PublicKey,
	args UpdateMetadataAccountArgsV2,
) (*solana.GenericInstruction, error) {
	data, err := encodeInstruction(InstructionUpdateMetadataAccountV2, &args)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(
		ProgramID,
		solana.AccountMetaSlice{
			solana.Meta(metadata).WRITE(),
			solana.Meta(updateAuthority).SIGNER(),
		},
		data,
	), nil
}
