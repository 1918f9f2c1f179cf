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
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/devrupt/soulbound/event"
)

type ProgramOptionFunc func(*Program)

// WithProgramID sets the address the program runs at
func WithProgramID(programID solana.PublicKey) ProgramOptionFunc {
	return func(p *Program) {
		p.programID = programID
	}
}

// WithMinContributions raises the contribution threshold. Values below
// MinContributions are ignored.
func WithMinContributions(minContributions uint64) ProgramOptionFunc {
	return func(p *Program) {
		if minContributions >= MinContributions {
			p.minContributions = minContributions
		}
	}
}

// WithEventBus publishes issuance events on the given bus
func WithEventBus(eventBus *event.EventBus) ProgramOptionFunc {
	return func(p *Program) {
		p.eventBus = eventBus
	}
}

func WithLogger(logger *slog.Logger) ProgramOptionFunc {
	return func(p *Program) {
		p.logger = logger
	}
}

func WithPromRegistry(registry prometheus.Registerer) ProgramOptionFunc {
	return func(p *Program) {
		p.metrics = newProgramMetrics(registry)
	}
}
