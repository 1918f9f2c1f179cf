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
	"github.com/gagliardetto/solana-go"

	"github.com/devrupt/soulbound/program/associatedtoken"
	"github.com/devrupt/soulbound/program/metadata"
)

const (
	ContributorSeed = "contributor"
	MintSeed        = "mint"
)

// ContributorAddress returns the contributor state account of owner
func ContributorAddress(
	programID solana.PublicKey,
	owner solana.PublicKey,
) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{[]byte(ContributorSeed), owner[:]},
		programID,
	)
}

// MintAddress returns the credential mint of owner
func MintAddress(
	programID solana.PublicKey,
	owner solana.PublicKey,
) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{[]byte(MintSeed), owner[:]},
		programID,
	)
}

// Addresses are the accounts that make up one owner's credential
type Addresses struct {
	Owner        solana.PublicKey
	Contributor  solana.PublicKey
	Mint         solana.PublicKey
	TokenAccount solana.PublicKey
	Metadata     solana.PublicKey
}

// DeriveAddresses computes every credential account of owner
func DeriveAddresses(
	programID solana.PublicKey,
	owner solana.PublicKey,
) (*Addresses, error) {
	contributor, _, err := ContributorAddress(programID, owner)
	if err != nil {
		return nil, err
	}
	mint, _, err := MintAddress(programID, owner)
	if err != nil {
		return nil, err
	}
	tokenAccount, _, err := associatedtoken.Address(owner, mint)
	if err != nil {
		return nil, err
	}
	metadataAddr, _, err := metadata.Address(mint)
	if err != nil {
		return nil, err
	}
	return &Addresses{
		Owner:        owner,
		Contributor:  contributor,
		Mint:         mint,
		TokenAccount: tokenAccount,
		Metadata:     metadataAddr,
	}, nil
}
