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

package badger

import (
	"github.com/prometheus/client_golang/prometheus"
)

type blobMetrics struct {
	commits      prometheus.Counter
	commitErrors prometheus.Counter
	lsmSize      prometheus.GaugeFunc
	vlogSize     prometheus.GaugeFunc
}

func (d *BlobStoreBadger) registerBlobMetrics() error {
	m := &blobMetrics{
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "soulbound_blob_commits_total",
			Help: "Number of committed blob store transactions",
		}),
		commitErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "soulbound_blob_commit_errors_total",
			Help: "Number of blob store transactions that failed to commit",
		}),
		lsmSize: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "soulbound_blob_lsm_size_bytes",
				Help: "Size of the badger LSM tree",
			},
			func() float64 {
				lsm, _ := d.DB().Size()
				return float64(lsm)
			},
		),
		vlogSize: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "soulbound_blob_vlog_size_bytes",
				Help: "Size of the badger value log",
			},
			func() float64 {
				_, vlog := d.DB().Size()
				return float64(vlog)
			},
		),
	}
	for _, c := range m.collectors() {
		if err := d.promRegistry.Register(c); err != nil {
			m.unregister(d.promRegistry)
			return err
		}
	}
	d.metrics = m
	return nil
}

func (m *blobMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.commits,
		m.commitErrors,
		m.lsmSize,
		m.vlogSize,
	}
}

func (m *blobMetrics) unregister(reg prometheus.Registerer) {
	if reg == nil {
		return
	}
	for _, c := range m.collectors() {
		reg.Unregister(c)
	}
}
