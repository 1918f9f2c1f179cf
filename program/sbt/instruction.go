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
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/devrupt/soulbound/program/associatedtoken"
	"github.com/devrupt/soulbound/program/metadata"
	"github.com/devrupt/soulbound/program/token"
)

var mintSbtDiscriminator = instructionDiscriminator("mint_sbt")

func instructionDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("global:" + name))
	return sum[:8]
}

type MintSbtArgs struct {
	Cid string
}

// NewMintSbtInstruction builds the MintSbt instruction for payer, deriving
// every account it touches
func NewMintSbtInstruction(
	programID solana.PublicKey,
	payer solana.PublicKey,
	cid string,
) (*solana.GenericInstruction, error) {
	addrs, err := DeriveAddresses(programID, payer)
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(bytes.Clone(mintSbtDiscriminator))
	if err := bin.NewBorshEncoder(buf).Encode(&MintSbtArgs{Cid: cid}); err != nil {
		return nil, fmt.Errorf("encode instruction: %w", err)
	}
	return solana.NewInstruction(
		programID,
		solana.AccountMetaSlice{
			solana.Meta(payer).WRITE().SIGNER(),
			solana.Meta(addrs.Contributor).WRITE(),
			solana.Meta(addrs.Mint).WRITE(),
			solana.Meta(addrs.TokenAccount).WRITE(),
			solana.Meta(addrs.Metadata).WRITE(),
			solana.Meta(metadata.ProgramID),
			solana.Meta(token.ProgramID),
			solana.Meta(solana.SystemProgramID),
			solana.Meta(associatedtoken.ProgramID),
		},
		buf.Bytes(),
	), nil
}

func decodeMintSbt(data []byte) (*MintSbtArgs, error) {
	if len(data) < 8 || !bytes.Equal(data[:8], mintSbtDiscriminator) {
		return nil, ErrInstructionFallbackNotFound
	}
	var args MintSbtArgs
	if err := bin.NewBorshDecoder(data[8:]).Decode(&args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInstructionDidNotDeserialize, err)
	}
	return &args, nil
}
