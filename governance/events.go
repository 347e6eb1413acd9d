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
	"encoding/json"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/blinklabs-io/stakegov/database"
	"github.com/blinklabs-io/stakegov/database/models"
	"github.com/blinklabs-io/stakegov/event"
)

const (
	CreateProposalEventType event.EventType = "governance.create_proposal"
	VoteEventType           event.EventType = "governance.vote"
	UpdateConfigEventType   event.EventType = "governance.update_config"
)

type CreateProposalEvent struct {
	ProposalID    uint64            `json:"proposal_id"`
	Proposer      Address           `json:"proposer"`
	StakePool     Address           `json:"stake_pool"`
	ExecutionHash []byte            `json:"execution_hash"`
	Metadata      map[string][]byte `json:"metadata"`
}

type VoteEvent struct {
	ProposalID uint64  `json:"proposal_id"`
	Voter      Address `json:"voter"`
	StakePool  Address `json:"stake_pool"`
	NumVotes   uint64  `json:"num_votes"`
	ShouldPass bool    `json:"should_pass"`
}

type UpdateConfigEvent struct {
	MinVotingThreshold    sdkmath.Uint `json:"min_voting_threshold"`
	RequiredProposerStake uint64       `json:"required_proposer_stake"`
	VotingDurationSecs    uint64       `json:"voting_duration_secs"`
}

// recordEvent appends an event to the durable event log and returns it for
// publishing once the operation completes
func (g *Governance) recordEvent(
	txn *database.Txn,
	eventType event.EventType,
	data any,
) (event.Event, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return event.Event{}, fmt.Errorf("encode %s event: %w", eventType, err)
	}
	if _, err := g.db.AddGovernanceEvent(string(eventType), body, txn); err != nil {
		return event.Event{}, err
	}
	return event.NewEvent(eventType, data), nil
}

// publish queues events for asynchronous delivery on the event bus when
// module events are enabled. It never blocks: events that do not fit in the
// bus queue are dropped and counted by the bus. It must be called without
// the governance lock held.
func (g *Governance) publish(evts ...event.Event) {
	if len(evts) == 0 || g.config.EventBus == nil {
		return
	}
	g.RLock()
	enabled := g.features.ModuleEvents
	g.RUnlock()
	if !enabled {
		return
	}
	for _, evt := range evts {
		g.config.EventBus.PublishAsync(evt.Type, evt)
	}
}

// Events returns the durable event log for an event type, or for every type
// when eventType is empty
func (g *Governance) Events(
	txn *database.Txn,
	eventType event.EventType,
) ([]models.GovernanceEvent, error) {
	g.RLock()
	defer g.RUnlock()
	var ret []models.GovernanceEvent
	err := g.view(txn, func(txn *database.Txn) error {
		var err error
		ret, err = g.db.GetGovernanceEvents(string(eventType), txn)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}
	return ret, nil
}
