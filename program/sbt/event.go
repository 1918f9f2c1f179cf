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

	"github.com/devrupt/soulbound/event"
)

const CredentialIssuedEventType event.EventType = "sbt.credential_issued"

// CredentialIssuedEvent is published once an issuance has committed
type CredentialIssuedEvent struct {
	Cid          string
	Name         string
	URI          string
	Owner        solana.PublicKey
	Mint         solana.PublicKey
	TokenAccount solana.PublicKey
	Metadata     solana.PublicKey
	Signature    solana.Signature
	TotalRewards uint64
}
