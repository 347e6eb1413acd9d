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
	"math/bits"

	sdkmath "cosmossdk.io/math"
	"go.opentelemetry.io/otel/attribute"

	"github.com/blinklabs-io/stakegov/database"
	"github.com/blinklabs-io/stakegov/event"
)

// CreateProposal creates a single step proposal and returns its ID
func (g *Governance) CreateProposal(
	txn *database.Txn,
	proposer Address,
	stakePool Address,
	executionHash []byte,
	metadataLocation []byte,
	metadataHash []byte,
) (uint64, error) {
	return g.CreateProposalMultiStep(
		txn,
		proposer,
		stakePool,
		executionHash,
		metadataLocation,
		metadataHash,
		false,
	)
}

// CreateProposalMultiStep creates a proposal and returns its ID. The proposer
// must be the delegated voter of a stake pool with enough voting power whose
// lockup outlasts the voting period.
func (g *Governance) CreateProposalMultiStep(
	txn *database.Txn,
	proposer Address,
	stakePool Address,
	executionHash []byte,
	metadataLocation []byte,
	metadataHash []byte,
	isMultiStep bool,
) (uint64, error) {
	var published []event.Event
	defer func() { g.publish(published...) }()
	g.Lock()
	defer g.Unlock()
	span := g.startSpan(
		"create_proposal",
		attribute.String("stake_pool", stakePool.String()),
		attribute.Bool("multi_step", isMultiStep),
	)
	var proposalID uint64
	var evt event.Event
	err := g.update(txn, func(txn *database.Txn) error {
		var err error
		proposalID, evt, err = g.createProposal(
			txn,
			proposer,
			stakePool,
			executionHash,
			metadataLocation,
			metadataHash,
			isMultiStep,
		)
		return err
	})
	if err != nil {
		return 0, g.finish(
			"create_proposal",
			span,
			fmt.Errorf("create proposal: %w", err),
		)
	}
	span.SetAttributes(attribute.Int64("proposal_id", int64(proposalID))) //nolint:gosec
	published = append(published, evt)
	if g.metrics != nil {
		g.metrics.proposalsCreated.Inc()
	}
	g.logger.Debug(
		"proposal created",
		"proposal_id", proposalID,
		"stake_pool", stakePool.String(),
		"multi_step", isMultiStep,
	)
	return proposalID, g.finish("create_proposal", span, nil)
}

func (g *Governance) createProposal(
	txn *database.Txn,
	proposer Address,
	stakePool Address,
	executionHash []byte,
	metadataLocation []byte,
	metadataHash []byte,
	isMultiStep bool,
) (uint64, event.Event, error) {
	if err := g.checkDelegatedVoter(txn, proposer, stakePool); err != nil {
		return 0, event.Event{}, err
	}
	params, err := g.params(txn)
	if err != nil {
		return 0, event.Event{}, err
	}
	power, err := g.votingPower(txn, stakePool)
	if err != nil {
		return 0, event.Event{}, err
	}
	if power < params.RequiredProposerStake {
		return 0, event.Event{}, fmt.Errorf(
			"%w: have %d, need %d",
			ErrInsufficientProposerStake,
			power,
			params.RequiredProposerStake,
		)
	}
	lockup, err := g.config.Stake.LockupExpiry(txn, stakePool)
	if err != nil {
		return 0, event.Event{}, err
	}
	// An expiration past the end of time can't be covered by any lockup
	expiration, carry := bits.Add64(g.now(), params.VotingDurationSecs, 0)
	if carry != 0 || lockup < expiration {
		return 0, event.Event{}, fmt.Errorf(
			"%w: lockup expires at %d, proposal expires at %d",
			ErrInsufficientLockup,
			lockup,
			expiration,
		)
	}
	if len(metadataLocation) > MaxMetadataLength {
		return 0, event.Event{}, fmt.Errorf(
			"%w: location is %d bytes",
			ErrMetadataTooLong,
			len(metadataLocation),
		)
	}
	if len(metadataHash) > MaxMetadataLength {
		return 0, event.Event{}, fmt.Errorf(
			"%w: hash is %d bytes",
			ErrMetadataTooLong,
			len(metadataHash),
		)
	}
	earlyResolution, err := g.earlyResolutionThreshold(txn)
	if err != nil {
		return 0, event.Event{}, err
	}
	metadata := map[string][]byte{
		MetadataLocationKey: metadataLocation,
		MetadataHashKey:     metadataHash,
	}
	proposalID, err := g.config.Tally.CreateProposal(txn, ProposalParams{
		Proposer:                 proposer,
		Owner:                    FrameworkAddress,
		Kind:                     FrameworkProposalKind,
		ExecutionHash:            executionHash,
		MinVoteThreshold:         params.MinVotingThreshold,
		ExpirationSecs:           expiration,
		EarlyResolutionThreshold: earlyResolution,
		Metadata:                 metadata,
		IsMultiStep:              isMultiStep,
	})
	if err != nil {
		return 0, event.Event{}, err
	}
	evt, err := g.recordEvent(txn, CreateProposalEventType, CreateProposalEvent{
		ProposalID:    proposalID,
		Proposer:      proposer,
		StakePool:     stakePool,
		ExecutionHash: executionHash,
		Metadata:      metadata,
	})
	if err != nil {
		return 0, event.Event{}, err
	}
	return proposalID, evt, nil
}

// earlyResolutionThreshold is just over half of the total supply, or nil when
// the supply is not tracked
func (g *Governance) earlyResolutionThreshold(
	txn *database.Txn,
) (*sdkmath.Uint, error) {
	if g.config.Supply == nil {
		return nil, nil
	}
	supply, ok, err := g.config.Supply.TotalSupply(txn)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	threshold := supply.QuoUint64(2).AddUint64(1)
	return &threshold, nil
}

func (g *Governance) checkDelegatedVoter(
	txn *database.Txn,
	account Address,
	stakePool Address,
) error {
	voter, err := g.config.Stake.DelegatedVoter(txn, stakePool)
	if err != nil {
		return err
	}
	if voter != account {
		return fmt.Errorf(
			"%w: %s is not the voter for %s",
			ErrNotDelegatedVoter,
			account,
			stakePool,
		)
	}
	return nil
}
