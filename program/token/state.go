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
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/devrupt/soulbound/ledger"
)

// Space reserved for each state type, matching Token-2022 sizes with the
// extensions used here
const (
	MintSpace    = 170
	AccountSpace = 175
)

type AccountType uint8

const (
	AccountTypeUninitialized AccountType = iota
	AccountTypeMint
	AccountTypeAccount
)

type AccountState uint8

const (
	AccountStateUninitialized AccountState = iota
	AccountStateInitialized
	AccountStateFrozen
)

// Mint describes a token
type Mint struct {
	AccountType     AccountType
	MintAuthority   *solana.PublicKey `bin:"optional"`
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority *solana.PublicKey `bin:"optional"`
	NonTransferable bool
}

// Account holds a balance of one mint for one owner
type Account struct {
	AccountType     AccountType
	Mint            solana.PublicKey
	Owner           solana.PublicKey
	Amount          uint64
	State           AccountState
	NonTransferable bool
	ImmutableOwner  bool
}

func (a *Account) IsInitialized() bool {
	return a.State != AccountStateUninitialized
}

func (a *Account) IsFrozen() bool {
	return a.State == AccountStateFrozen
}

// DecodeMint reads mint state from account data
func DecodeMint(data []byte) (*Mint, error) {
	if len(data) < MintSpace {
		return nil, ErrInvalidMint
	}
	var mint Mint
	if err := bin.NewBorshDecoder(data).Decode(&mint); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMint, err)
	}
	if mint.AccountType != AccountTypeUninitialized &&
		mint.AccountType != AccountTypeMint {
		return nil, ErrInvalidMint
	}
	return &mint, nil
}

// DecodeAccount reads token account state from account data
func DecodeAccount(data []byte) (*Account, error) {
	if len(data) < AccountSpace {
		return nil, ErrInvalidState
	}
	var acct Account
	if err := bin.NewBorshDecoder(data).Decode(&acct); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	if acct.AccountType != AccountTypeUninitialized &&
		acct.AccountType != AccountTypeAccount {
		return nil, ErrInvalidState
	}
	return &acct, nil
}

// pack encodes state into the front of data and zeroes the rest
func pack(state any, data []byte) error {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(state); err != nil {
		return err
	}
	if buf.Len() > len(data) {
		return ledger.ErrAccountDataTooSmall
	}
	n := copy(data, buf.Bytes())
	clear(data[n:])
	return nil
}
