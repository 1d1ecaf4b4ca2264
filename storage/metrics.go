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

package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type storeMetrics struct {
	reads   *prometheus.CounterVec
	writes  prometheus.Counter
	deletes prometheus.Counter
}

// newStoreMetrics registers the store metrics with the given registry. With a
// nil registry the collectors are created but not registered.
func newStoreMetrics(registry prometheus.Registerer) *storeMetrics {
	factory := promauto.With(registry)
	return &storeMetrics{
		reads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scriptinfo_store_reads_total",
				Help: "Script info cache reads by result (hit, miss, corrupt, error)",
			},
			[]string{"result"},
		),
		writes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "scriptinfo_store_writes_total",
				Help: "Script info cache writes",
			},
		),
		deletes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "scriptinfo_store_deletes_total",
				Help: "Script info cache deletes",
			},
		),
	}
}
