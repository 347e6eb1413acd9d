// Copyright 2026 Blink Labs Software
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

package governance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type governanceMetrics struct {
	proposalsCreated prometheus.Counter
	votesCast        *prometheus.CounterVec
	votingPowerCast  prometheus.Counter
	resolutions      *prometheus.CounterVec
	operationErrors  *prometheus.CounterVec
}

func newGovernanceMetrics(promRegistry prometheus.Registerer) *governanceMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &governanceMetrics{
		proposalsCreated: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "stakegov_governance_proposals_created_total",
			Help: "total proposals created",
		}),
		votesCast: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stakegov_governance_votes_total",
				Help: "total votes cast, by ledger mode",
			},
			[]string{"mode"},
		),
		votingPowerCast: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "stakegov_governance_voting_power_cast_total",
			Help: "total voting power cast across all votes",
		}),
		resolutions: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stakegov_governance_resolutions_total",
				Help: "total proposal resolutions, by kind",
			},
			[]string{"kind"},
		),
		operationErrors: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stakegov_governance_operation_errors_total",
				Help: "total failed operations, by operation",
			},
			[]string{"operation"},
		),
	}
}
