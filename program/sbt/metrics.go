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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type programMetrics struct {
	issued   prometheus.Counter
	rejected *prometheus.CounterVec
}

func newProgramMetrics(promRegistry prometheus.Registerer) *programMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &programMetrics{
		issued: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "soulbound_credentials_issued_total",
			Help: "soulbound credentials issued",
		}),
		rejected: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "soulbound_credential_rejections_total",
				Help: "credential requests rejected by the program, by reason",
			},
			[]string{"reason"},
		),
	}
}
