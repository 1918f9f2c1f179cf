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

package models

import (
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrCredentialExists   = errors.New("credential already indexed")
)

// Credential indexes an issued soulbound credential by its holder
type Credential struct {
	IssuedAt     time.Time
	Cid          string
	Name         string
	Symbol       string
	Uri          string
	Owner        []byte `gorm:"uniqueIndex;size:32"`
	Mint         []byte `gorm:"uniqueIndex;size:32"`
	TokenAccount []byte `gorm:"size:32"`
	Metadata     []byte `gorm:"size:32"`
	Signature    []byte `gorm:"index;size:64"`
	ID           uint   `gorm:"primarykey"`
	Rewards      uint64
}

func (Credential) TableName() string {
	return "credential"
}

// OwnerAddress returns the base58 form of the credential holder
func (c *Credential) OwnerAddress() string {
	return solana.PublicKeyFromBytes(c.Owner).String()
}

// MintAddress returns the base58 form of the credential mint
func (c *Credential) MintAddress() string {
	return solana.PublicKeyFromBytes(c.Mint).String()
}
