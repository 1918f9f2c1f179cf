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

// Package sbt implements the soulbound credential program. MintSbt issues
// one non-transferable token with an immutable metadata record to a
// contributor who has met the contribution threshold, at most once per
// contributor.
package sbt

import (
	"io"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/devrupt/soulbound/event"
	"github.com/devrupt/soulbound/ledger"
)

// DefaultProgramID is the address the program is deployed at unless
// configured otherwise
var DefaultProgramID = solana.MustPublicKeyFromBase58(
	"FV5sGyF543uGgyJdgfdsQhNGXrGkxY4wsBT5h4tcpjPN",
)

const (
	NamePrefix              = "Soulbound Cert "
	Symbol                  = "SBT"
	URIGateway              = "https://gateway.pinata.cloud/ipfs/"
	Decimals         uint8  = 0
	MintAmount       uint64 = 1
	MinContributions uint64 = 1
)

// CredentialName returns the metadata name of the credential for cid
func CredentialName(cid string) string {
	return NamePrefix + cid
}

// CredentialURI returns the metadata URI of the credential for cid
func CredentialURI(cid string) string {
	return URIGateway + cid
}

type Program struct {
	logger           *slog.Logger
	eventBus         *event.EventBus
	metrics          *programMetrics
	programID        solana.PublicKey
	minContributions uint64
}

func New(opts ...ProgramOptionFunc) *Program {
	p := &Program{
		programID:        DefaultProgramID,
		minContributions: MinContributions,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	p.logger = p.logger.With("component", "sbt")
	if p.metrics == nil {
		p.metrics = newProgramMetrics(nil)
	}
	return p
}

func (p *Program) ProgramID() solana.PublicKey {
	return p.programID
}

func (p *Program) Process(ic *ledger.InvokeContext) error {
	args, err := decodeMintSbt(ic.Instruction().Data)
	if err != nil {
		return err
	}
	ic.Log("Instruction: MintSbt")
	return p.mintSbt(ic, args.Cid)
}
