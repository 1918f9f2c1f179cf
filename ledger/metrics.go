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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultCommitted = "committed"
	resultFailed    = "failed"
	resultRejected  = "rejected"
)

type runtimeMetrics struct {
	transactions      *prometheus.CounterVec
	instructionErrors *prometheus.CounterVec
	executeSeconds    prometheus.Histogram
}

func newRuntimeMetrics(promRegistry prometheus.Registerer) *runtimeMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &runtimeMetrics{
		transactions: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "soulbound_ledger_transactions_total",
				Help: "transactions processed by result",
			},
			[]string{"result"},
		),
		instructionErrors: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "soulbound_ledger_instruction_errors_total",
				Help: "failed instructions by program",
			},
			[]string{"program"},
		),
		executeSeconds: promautoFactory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "soulbound_ledger_execute_seconds",
				Help:    "time spent executing a transaction",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
		),
	}
}
