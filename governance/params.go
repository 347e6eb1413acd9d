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
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/blinklabs-io/stakegov/database"
	"github.com/blinklabs-io/stakegov/event"
)

// UpdateConfig replaces the governance parameters. Proposals that already
// exist keep the expiration computed when they were created.
func (g *Governance) UpdateConfig(
	txn *database.Txn,
	signerCap *SignerCapability,
	params Params,
) error {
	var published []event.Event
	defer func() { g.publish(published...) }()
	g.Lock()
	defer g.Unlock()
	span := g.startSpan("update_config")
	if err := g.checkFrameworkCapability(signerCap); err != nil {
		return g.finish("update_config", span, fmt.Errorf("update config: %w", err))
	}
	cfgModel, err := paramsToModel(params)
	if err != nil {
		return g.finish("update_config", span, fmt.Errorf("update config: %w", err))
	}
	var evt event.Event
	err = g.update(txn, func(txn *database.Txn) error {
		// Only an initialized config can be updated
		if _, err := g.params(txn); err != nil {
			return err
		}
		if err := g.db.SetGovernanceConfig(cfgModel, txn); err != nil {
			return err
		}
		var err error
		evt, err = g.recordEvent(txn, UpdateConfigEventType, UpdateConfigEvent{
			MinVotingThreshold:    params.MinVotingThreshold,
			RequiredProposerStake: params.RequiredProposerStake,
			VotingDurationSecs:    params.VotingDurationSecs,
		})
		return err
	})
	if err != nil {
		return g.finish("update_config", span, fmt.Errorf("update config: %w", err))
	}
	published = append(published, evt)
	g.logger.Info(
		"governance config updated",
		"min_voting_threshold", params.MinVotingThreshold.String(),
		"required_proposer_stake", params.RequiredProposerStake,
		"voting_duration_secs", params.VotingDurationSecs,
	)
	return g.finish("update_config", span, nil)
}

// Params returns the current governance parameters
func (g *Governance) Params(txn *database.Txn) (Params, error) {
	g.RLock()
	defer g.RUnlock()
	var ret Params
	err := g.view(txn, func(txn *database.Txn) error {
		var err error
		ret, err = g.params(txn)
		return err
	})
	if err != nil {
		return Params{}, fmt.Errorf("get params: %w", err)
	}
	return ret, nil
}

// VotingDuration returns the voting period of new proposals in seconds
func (g *Governance) VotingDuration(txn *database.Txn) (uint64, error) {
	params, err := g.Params(txn)
	if err != nil {
		return 0, err
	}
	return params.VotingDurationSecs, nil
}

// MinVotingThreshold returns the minimum number of votes for a proposal to
// pass
func (g *Governance) MinVotingThreshold(
	txn *database.Txn,
) (sdkmath.Uint, error) {
	params, err := g.Params(txn)
	if err != nil {
		return sdkmath.ZeroUint(), err
	}
	return params.MinVotingThreshold, nil
}

// RequiredProposerStake returns the voting power needed to create a proposal
func (g *Governance) RequiredProposerStake(txn *database.Txn) (uint64, error) {
	params, err := g.Params(txn)
	if err != nil {
		return 0, err
	}
	return params.RequiredProposerStake, nil
}
