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

package ledger

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// AccountMeta describes how an instruction uses an account
type AccountMeta struct {
	PublicKey  solana.PublicKey
	IsSigner   bool
	IsWritable bool
}

// Instruction is a single program call within a transaction
type Instruction struct {
	ProgramID solana.PublicKey
	Accounts  []AccountMeta
	Data      []byte
}

// NewInstruction converts a solana-go instruction into its ledger form
func NewInstruction(ix solana.Instruction) (Instruction, error) {
	data, err := ix.Data()
	if err != nil {
		return Instruction{}, fmt.Errorf("%w: %w", ErrInvalidInstructionData, err)
	}
	ret := Instruction{
		ProgramID: ix.ProgramID(),
		Data:      data,
	}
	for _, meta := range ix.Accounts() {
		ret.Accounts = append(ret.Accounts, AccountMeta{
			PublicKey:  meta.PublicKey,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		})
	}
	return ret, nil
}

// Account returns the key at position idx, or ErrNotEnoughAccountKeys
func (ix *Instruction) Account(idx int) (solana.PublicKey, error) {
	if idx < 0 || idx >= len(ix.Accounts) {
		return solana.PublicKey{}, fmt.Errorf(
			"%w: wanted index %d of %d",
			ErrNotEnoughAccountKeys,
			idx,
			len(ix.Accounts),
		)
	}
	return ix.Accounts[idx].PublicKey, nil
}

func (ix *Instruction) meta(key solana.PublicKey) (AccountMeta, bool) {
	// A key may be listed more than once; privileges are the union
	var ret AccountMeta
	found := false
	for _, meta := range ix.Accounts {
		if meta.PublicKey.Equals(key) {
			ret.PublicKey = key
			ret.IsSigner = ret.IsSigner || meta.IsSigner
			ret.IsWritable = ret.IsWritable || meta.IsWritable
			found = true
		}
	}
	return ret, found
}
