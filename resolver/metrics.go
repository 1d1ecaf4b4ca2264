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

package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type resolverMetrics struct {
	lookups       *prometheus.CounterVec
	verifications *prometheus.CounterVec
}

func newResolverMetrics(registry prometheus.Registerer) *resolverMetrics {
	factory := promauto.With(registry)
	return &resolverMetrics{
		lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scriptinfo_resolver_lookups_total",
				Help: "Script info lookups by source and result",
			},
			[]string{"source", "result"},
		),
		verifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scriptinfo_resolver_verifications_total",
				Help: "Resolved scripts by native CBOR hash verification outcome",
			},
			[]string{"outcome"},
		),
	}
}
