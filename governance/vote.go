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
	"errors"
	"fmt"
	"math/bits"

	"go.opentelemetry.io/otel/attribute"

	"github.com/blinklabs-io/stakegov/database"
	"github.com/blinklabs-io/stakegov/database/models"
	"github.com/blinklabs-io/stakegov/database/types"
	"github.com/blinklabs-io/stakegov/event"
)

// Vote casts all of a stake pool's remaining voting power on a proposal and
// returns the number of votes cast
func (g *Governance) Vote(
	txn *database.Txn,
	voter Address,
	stakePool Address,
	proposalID uint64,
	shouldPass bool,
) (uint64, error) {
	return g.PartialVote(
		txn,
		voter,
		stakePool,
		proposalID,
		FullVotingPower,
		shouldPass,
	)
}

// PartialVote casts up to votingPower of a stake pool's remaining voting power
// on a proposal and returns the number of votes cast
func (g *Governance) PartialVote(
	txn *database.Txn,
	voter Address,
	stakePool Address,
	proposalID uint64,
	votingPower uint64,
	shouldPass bool,
) (uint64, error) {
	var published []event.Event
	defer func() { g.publish(published...) }()
	g.Lock()
	defer g.Unlock()
	span := g.startSpan(
		"vote",
		attribute.Int64("proposal_id", int64(proposalID)), //nolint:gosec
		attribute.String("stake_pool", stakePool.String()),
	)
	var numVotes uint64
	var evt event.Event
	err := g.update(txn, func(txn *database.Txn) error {
		var err error
		numVotes, evt, err = g.vote(
			txn,
			voter,
			stakePool,
			proposalID,
			votingPower,
			shouldPass,
		)
		return err
	})
	if err != nil {
		return 0, g.finish("vote", span, fmt.Errorf("vote: %w", err))
	}
	published = append(published, evt)
	g.recordVoteMetrics(numVotes)
	return numVotes, g.finish("vote", span, nil)
}

// BatchVote votes with all remaining power of each stake pool. See
// BatchPartialVote.
func (g *Governance) BatchVote(
	txn *database.Txn,
	voter Address,
	stakePools []Address,
	proposalID uint64,
	shouldPass bool,
) ([]VoteOutcome, error) {
	return g.BatchPartialVote(
		txn,
		voter,
		stakePools,
		proposalID,
		FullVotingPower,
		shouldPass,
	)
}

// BatchPartialVote votes with each stake pool in turn. Each pool's vote is
// atomic on its own: a pool that fails is rolled back and recorded in its
// outcome, and the remaining pools are still attempted. Votes by the
// successful pools are kept. The returned error joins the failures of all
// pools.
func (g *Governance) BatchPartialVote(
	txn *database.Txn,
	voter Address,
	stakePools []Address,
	proposalID uint64,
	votingPower uint64,
	shouldPass bool,
) ([]VoteOutcome, error) {
	var published []event.Event
	defer func() { g.publish(published...) }()
	g.Lock()
	defer g.Unlock()
	span := g.startSpan(
		"batch_vote",
		attribute.Int64("proposal_id", int64(proposalID)), //nolint:gosec
		attribute.Int("stake_pools", len(stakePools)),
	)
	outcomes := make([]VoteOutcome, 0, len(stakePools))
	var evts []event.Event
	var errs []error
	err := g.batch(txn, func(txn *database.Txn) error {
		for _, stakePool := range stakePools {
			outcome := VoteOutcome{StakePool: stakePool}
			var evt event.Event
			err := g.update(txn, func(txn *database.Txn) error {
				var err error
				outcome.NumVotes, evt, err = g.vote(
					txn,
					voter,
					stakePool,
					proposalID,
					votingPower,
					shouldPass,
				)
				return err
			})
			if err != nil {
				// The savepoint could not be created or restored
				if errors.Is(err, types.ErrTxnClosed) ||
					errors.Is(err, database.ErrSavepointUnsupported) {
					return err
				}
				outcome.NumVotes = 0
				outcome.Err = err
				errs = append(errs, fmt.Errorf("stake pool %s: %w", stakePool, err))
			} else {
				evts = append(evts, evt)
			}
			outcomes = append(outcomes, outcome)
		}
		return nil
	})
	if err != nil {
		return nil, g.finish("batch_vote", span, fmt.Errorf("batch vote: %w", err))
	}
	published = evts
	for _, outcome := range outcomes {
		if outcome.Err == nil {
			g.recordVoteMetrics(outcome.NumVotes)
		}
	}
	if len(errs) > 0 {
		return outcomes, g.finish(
			"batch_vote",
			span,
			fmt.Errorf("batch vote: %w", errors.Join(errs...)),
		)
	}
	return outcomes, g.finish("batch_vote", span, nil)
}

// batch runs fn in the caller's transaction or in a new one that is committed
// when fn returns nil
func (g *Governance) batch(
	txn *database.Txn,
	fn func(*database.Txn) error,
) error {
	if txn != nil {
		return fn(txn)
	}
	return g.db.Transaction(true).Do(fn)
}

func (g *Governance) vote(
	txn *database.Txn,
	voter Address,
	stakePool Address,
	proposalID uint64,
	votingPower uint64,
	shouldPass bool,
) (uint64, event.Event, error) {
	if err := g.checkDelegatedVoter(txn, voter, stakePool); err != nil {
		return 0, event.Event{}, err
	}
	expiration, err := g.config.Tally.ProposalExpiration(txn, proposalID)
	if err != nil {
		return 0, event.Event{}, err
	}
	lockup, err := g.config.Stake.LockupExpiry(txn, stakePool)
	if err != nil {
		return 0, event.Event{}, err
	}
	if lockup < expiration {
		return 0, event.Event{}, fmt.Errorf(
			"%w: lockup expires at %d, proposal expires at %d",
			ErrInsufficientLockup,
			lockup,
			expiration,
		)
	}
	key := RecordKey{StakePool: stakePool, ProposalID: proposalID}
	record, err := g.voteRecord(txn, key)
	if err != nil {
		return 0, event.Event{}, err
	}
	remaining, err := g.remainingVotingPower(txn, key, record)
	if err != nil {
		return 0, event.Event{}, err
	}
	numVotes := min(votingPower, remaining)
	if numVotes == 0 {
		return 0, event.Event{}, ErrNoVotingPower
	}
	// Checked before the tally ledger sees the vote
	newRecord, err := nextVoteRecord(key, record, numVotes, g.features.PartialVoting)
	if err != nil {
		return 0, event.Event{}, err
	}
	if err := g.config.Tally.Vote(txn, proposalID, numVotes, shouldPass); err != nil {
		return 0, event.Event{}, err
	}
	if err := g.db.SetVoteRecord(newRecord, txn); err != nil {
		return 0, event.Event{}, err
	}
	evt, err := g.recordEvent(txn, VoteEventType, VoteEvent{
		ProposalID: proposalID,
		Voter:      voter,
		StakePool:  stakePool,
		NumVotes:   numVotes,
		ShouldPass: shouldPass,
	})
	if err != nil {
		return 0, event.Event{}, err
	}
	state, err := g.config.Tally.ProposalState(txn, proposalID)
	if err != nil {
		return 0, event.Event{}, err
	}
	if state == ProposalStateSucceeded {
		if err := g.approveHash(txn, proposalID); err != nil {
			return 0, event.Event{}, err
		}
	}
	g.logger.Debug(
		"vote cast",
		"proposal_id", proposalID,
		"stake_pool", stakePool.String(),
		"num_votes", numVotes,
		"should_pass", shouldPass,
	)
	return numVotes, evt, nil
}

// nextVoteRecord returns the ledger entry after a pool casts numVotes. The
// partial ledger accumulates spent power, and the legacy ledger records a
// single full vote.
func nextVoteRecord(
	key RecordKey,
	record *VoteRecord,
	numVotes uint64,
	partial bool,
) (*models.VoteRecord, error) {
	ret := &models.VoteRecord{
		StakePool:  key.StakePool.Bytes(),
		ProposalID: types.Uint64(key.ProposalID),
	}
	if !partial {
		if record != nil && record.Kind == VoteKindFullyVoted {
			return nil, ErrAlreadyVoted
		}
		ret.Kind = models.VoteKindFullyVoted
		ret.Power = types.Uint64(numVotes)
		return ret, nil
	}
	var spent uint64
	if record != nil {
		spent = record.Power
	}
	total, carry := bits.Add64(spent, numVotes, 0)
	if carry != 0 {
		return nil, ErrVotingPowerOverflow
	}
	ret.Kind = models.VoteKindPartiallySpent
	ret.Power = types.Uint64(total)
	return ret, nil
}

// recordVoteMetrics counts a vote once its transaction has succeeded
func (g *Governance) recordVoteMetrics(numVotes uint64) {
	if g.metrics == nil {
		return
	}
	mode := "full"
	if g.features.PartialVoting {
		mode = "partial"
	}
	g.metrics.votesCast.WithLabelValues(mode).Inc()
	g.metrics.votingPowerCast.Add(float64(numVotes))
}

// RemainingVotingPower returns the voting power a stake pool can still cast
// on a proposal
func (g *Governance) RemainingVotingPower(
	txn *database.Txn,
	stakePool Address,
	proposalID uint64,
) (uint64, error) {
	g.RLock()
	defer g.RUnlock()
	var ret uint64
	err := g.view(txn, func(txn *database.Txn) error {
		key := RecordKey{StakePool: stakePool, ProposalID: proposalID}
		record, err := g.voteRecord(txn, key)
		if err != nil {
			return err
		}
		ret, err = g.remainingVotingPower(txn, key, record)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("get remaining voting power: %w", err)
	}
	return ret, nil
}

// remainingVotingPower is zero when the pool's lockup ends before the
// proposal expires, when the proposal has expired, or when the pool cast a
// legacy full vote
func (g *Governance) remainingVotingPower(
	txn *database.Txn,
	key RecordKey,
	record *VoteRecord,
) (uint64, error) {
	expiration, err := g.config.Tally.ProposalExpiration(txn, key.ProposalID)
	if err != nil {
		return 0, err
	}
	lockup, err := g.config.Stake.LockupExpiry(txn, key.StakePool)
	if err != nil {
		return 0, err
	}
	if expiration > lockup || g.now() > expiration {
		return 0, nil
	}
	if record != nil && record.Kind == VoteKindFullyVoted {
		return 0, nil
	}
	power, err := g.votingPower(txn, key.StakePool)
	if err != nil {
		return 0, err
	}
	if !g.features.PartialVoting {
		return power, nil
	}
	initialized, err := g.partialVotingInitialized(txn)
	if err != nil {
		return 0, err
	}
	if !initialized {
		return 0, ErrPartialVotingNotInitialized
	}
	if record == nil {
		return power, nil
	}
	// Power can shrink below what was already spent
	if record.Power >= power {
		return 0, nil
	}
	return power - record.Power, nil
}

// HasEntirelyVoted reports whether a stake pool cast a legacy full vote on a
// proposal
func (g *Governance) HasEntirelyVoted(
	txn *database.Txn,
	stakePool Address,
	proposalID uint64,
) (bool, error) {
	record, err := g.VoteRecord(txn, stakePool, proposalID)
	if err != nil {
		return false, err
	}
	return record != nil && record.Kind == VoteKindFullyVoted, nil
}

// VoteRecord returns the vote ledger entry for a stake pool on a proposal, or
// nil if the pool has not voted on it
func (g *Governance) VoteRecord(
	txn *database.Txn,
	stakePool Address,
	proposalID uint64,
) (*VoteRecord, error) {
	g.RLock()
	defer g.RUnlock()
	var ret *VoteRecord
	err := g.view(txn, func(txn *database.Txn) error {
		var err error
		ret, err = g.voteRecord(
			txn,
			RecordKey{StakePool: stakePool, ProposalID: proposalID},
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get vote record: %w", err)
	}
	return ret, nil
}

func (g *Governance) voteRecord(
	txn *database.Txn,
	key RecordKey,
) (*VoteRecord, error) {
	tmp, err := g.db.GetVoteRecord(key.StakePool.Bytes(), key.ProposalID, txn)
	if err != nil {
		return nil, err
	}
	if tmp == nil {
		return nil, nil
	}
	ret := &VoteRecord{
		Key:   key,
		Kind:  VoteKindPartiallySpent,
		Power: uint64(tmp.Power),
	}
	if tmp.IsFullyVoted() {
		ret.Kind = VoteKindFullyVoted
	}
	return ret, nil
}
