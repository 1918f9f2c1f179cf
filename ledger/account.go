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
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Account is a ledger record. Only its owner program may change its data.
type Account struct {
	Data    []byte
	Address solana.PublicKey
	Owner   solana.PublicKey
}

// storedAccount is the persisted form of an Account; the address is the key
type storedAccount struct {
	Owner solana.PublicKey
	Data  []byte
}

func (a *Account) marshal() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(&storedAccount{
		Owner: a.Owner,
		Data:  a.Data,
	}); err != nil {
		return nil, fmt.Errorf("encode account %s: %w", a.Address, err)
	}
	return buf.Bytes(), nil
}

func unmarshalAccount(address solana.PublicKey, raw []byte) (*Account, error) {
	var stored storedAccount
	if err := bin.NewBorshDecoder(raw).Decode(&stored); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", address, err)
	}
	return &Account{
		Address: address,
		Owner:   stored.Owner,
		Data:    stored.Data,
	}, nil
}

// Clone returns a deep copy of the account
func (a *Account) Clone() *Account {
	return &Account{
		Address: a.Address,
		Owner:   a.Owner,
		Data:    bytes.Clone(a.Data),
	}
}
