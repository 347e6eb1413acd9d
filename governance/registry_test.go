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
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/stakegov/database"
	"github.com/blinklabs-io/stakegov/database/types"
	"github.com/blinklabs-io/stakegov/event"
)

// newPassingEnv returns an env where a full yes vote from testPool passes a
// proposal immediately
func newPassingEnv(t *testing.T, features Features) *testEnv {
	t.Helper()
	env := newTestEnv(t, features)
	env.supply.supply = sdkmath.NewUint(1000)
	env.supply.tracked = true
	return env
}

func TestMultiStepResolution(t *testing.T) {
	env := newPassingEnv(t, Features{})
	id := env.createProposal(t, testHashA, true)
	_, err := env.gov.Vote(nil, testVoter, testPool, id, true)
	require.NoError(t, err)
	hash, err := env.gov.ApprovedHash(nil, id)
	require.NoError(t, err)
	assert.Equal(t, testHashA, hash)

	signerCap, err := env.gov.ResolveMultiStep(nil, id, FrameworkAddress, testHashB)
	require.NoError(t, err)
	assert.Equal(t, FrameworkAddress, signerCap.Address())
	hash, err = env.gov.ApprovedHash(nil, id)
	require.NoError(t, err)
	assert.Equal(t, testHashB, hash)
	ok, err := env.gov.IsApprovedHash(nil, testHashA)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = env.gov.ResolveMultiStep(nil, id, FrameworkAddress, nil)
	require.NoError(t, err)
	hash, err = env.gov.ApprovedHash(nil, id)
	require.NoError(t, err)
	assert.Nil(t, hash)
	hashes, err := env.gov.ApprovedHashes(nil)
	require.NoError(t, err)
	assert.NotContains(t, hashes, id)
}

func TestResolve(t *testing.T) {
	env := newPassingEnv(t, Features{})
	id := env.createProposal(t, testHashA, false)
	_, err := env.gov.Vote(nil, testVoter, testPool, id, true)
	require.NoError(t, err)

	// An unknown acting address fails the whole resolution
	_, err = env.gov.Resolve(nil, id, testPool)
	require.ErrorIs(t, err, ErrUnauthorizedSigner)
	hash, err := env.gov.ApprovedHash(nil, id)
	require.NoError(t, err)
	assert.Equal(t, testHashA, hash)

	env.tally.proposals[id].resolved = false
	signerCap, err := env.gov.Resolve(nil, id, FrameworkAddress)
	require.NoError(t, err)
	assert.Equal(t, FrameworkAddress, signerCap.Address())
	hash, err = env.gov.ApprovedHash(nil, id)
	require.NoError(t, err)
	assert.Nil(t, hash)

	count, err := metricValue(env, "stakegov_governance_resolutions_total")
	require.NoError(t, err)
	assert.InDelta(t, 1, count, 0)
}

func TestApproveHashRequiresSuccess(t *testing.T) {
	env := newTestEnv(t, Features{})
	id := env.createProposal(t, testHashA, false)
	err := env.gov.ApproveHash(nil, id)
	require.ErrorIs(t, err, ErrProposalNotResolvable)
	require.ErrorIs(t, err, ErrStateConflict)

	// Voting closes at expiration
	_, err = env.gov.Vote(nil, testVoter, testPool, id, true)
	require.NoError(t, err)
	env.clock.Advance((testVotingDuration + 1) * time.Second)
	require.NoError(t, env.gov.ApproveHash(nil, id))
	// Approving again is an overwrite
	require.NoError(t, env.gov.ApproveHash(nil, id))
	hashes, err := env.gov.ApprovedHashes(nil)
	require.NoError(t, err)
	assert.Equal(t, map[uint64][]byte{id: testHashA}, hashes)
}

func TestRemoveApprovedHashIsIdempotent(t *testing.T) {
	env := newPassingEnv(t, Features{})
	id := env.createProposal(t, testHashA, false)
	_, err := env.gov.Vote(nil, testVoter, testPool, id, true)
	require.NoError(t, err)

	remove := func() error {
		return env.db.Transaction(true).Do(func(txn *database.Txn) error {
			return env.gov.removeApprovedHash(txn, id)
		})
	}
	require.ErrorIs(t, remove(), ErrProposalNotResolved)
	hash, err := env.gov.ApprovedHash(nil, id)
	require.NoError(t, err)
	assert.Equal(t, testHashA, hash)

	env.tally.proposals[id].resolved = true
	for range 2 {
		require.NoError(t, remove())
		hash, err := env.gov.ApprovedHash(nil, id)
		require.NoError(t, err)
		assert.Nil(t, hash)
	}
}

func TestApprovedPayload(t *testing.T) {
	env := newPassingEnv(t, Features{})
	payload := []byte("set voting duration to 7200")
	hash, err := env.gov.SubmitPayload(nil, payload)
	require.NoError(t, err)
	assert.Equal(t, types.PayloadHash(payload), hash)

	id := env.createProposal(t, hash, false)
	_, err = env.gov.ApprovedPayload(nil, id)
	require.ErrorIs(t, err, ErrNoApprovedHash)

	_, err = env.gov.Vote(nil, testVoter, testPool, id, true)
	require.NoError(t, err)
	got, err := env.gov.ApprovedPayload(nil, id)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// Stored bytes must still match the approved hash
	require.NoError(t, env.db.SetPayload(hash, []byte("tampered"), nil))
	_, err = env.gov.ApprovedPayload(nil, id)
	require.ErrorIs(t, err, ErrPayloadHashMismatch)

	// Missing payload
	id2 := env.createProposal(t, []byte("no payload"), false)
	_, err = env.gov.Vote(nil, testVoter, testPool2, id2, true)
	require.NoError(t, err)
	_, err = env.gov.ApprovedPayload(nil, id2)
	require.ErrorIs(t, err, database.ErrPayloadNotFound)
}

func TestModuleEvents(t *testing.T) {
	testDefs := []struct {
		name     string
		features Features
		expected int
	}{
		{name: "enabled", features: Features{ModuleEvents: true}, expected: 2},
		{name: "disabled", features: Features{}, expected: 0},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			env := newTestEnv(t, testDef.features)
			_, createCh := env.eventBus.Subscribe(CreateProposalEventType)
			_, voteCh := env.eventBus.Subscribe(VoteEventType)
			id := env.createProposal(t, testHashA, false)
			_, err := env.gov.PartialVote(nil, testVoter, testPool, id, 10, true)
			require.NoError(t, err)

			received := 0
			for _, ch := range []<-chan event.Event{createCh, voteCh} {
				select {
				case evt := <-ch:
					received++
					if voteEvt, ok := evt.Data.(VoteEvent); ok {
						assert.Equal(t, uint64(10), voteEvt.NumVotes)
						assert.Equal(t, testPool, voteEvt.StakePool)
					}
				case <-time.After(100 * time.Millisecond):
				}
			}
			assert.Equal(t, testDef.expected, received)

			// The durable log is always written
			events, err := env.gov.Events(nil, "")
			require.NoError(t, err)
			assert.Len(t, events, 2)
		})
	}
}

func TestStalledSubscriberDoesNotBlockVotes(t *testing.T) {
	env := newTestEnv(t, Features{PartialVoting: true, ModuleEvents: true})
	// Never drained
	_, _ = env.eventBus.Subscribe(VoteEventType)
	id := env.createProposal(t, testHashA, false)

	done := make(chan error, 1)
	go func() {
		for range event.EventQueueSize + 5 {
			if _, err := env.gov.PartialVote(nil, testVoter, testPool, id, 1, true); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("votes blocked on a stalled event subscriber")
	}

	// The governance lock is free for readers
	params, err := env.gov.Params(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(testVotingDuration), params.VotingDurationSecs)
	record, err := env.gov.VoteRecord(nil, testPool, id)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, uint64(event.EventQueueSize+5), record.Power)

	stopped := make(chan struct{})
	go func() {
		env.eventBus.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("event bus stop blocked on a stalled subscriber")
	}
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t, Features{})
	id := env.createProposal(t, testHashA, false)
	_, err := env.gov.Vote(nil, testVoter, testPool, id, true)
	require.NoError(t, err)
	_, err = env.gov.Vote(nil, testVoter, testPool, id, true)
	require.Error(t, err)

	created, err := metricValue(env, "stakegov_governance_proposals_created_total")
	require.NoError(t, err)
	assert.InDelta(t, 1, created, 0)
	power, err := metricValue(env, "stakegov_governance_voting_power_cast_total")
	require.NoError(t, err)
	assert.InDelta(t, 1000, power, 0)
	failed, err := metricValue(env, "stakegov_governance_operation_errors_total")
	require.NoError(t, err)
	assert.InDelta(t, 1, failed, 0)
}

func TestBatchVoteMetricsCountSuccessfulPools(t *testing.T) {
	env := newTestEnv(t, Features{})
	id := env.createProposal(t, testHashA, false)
	badPool := Address{AddressSize - 1: 0xc3}
	env.stake.addPool(badPool, fakePool{
		voter:  testPool,
		lockup: env.clock.Unix() + testLockupSecs,
		stake:  StakeBreakdown{Active: 1000},
	})
	outcomes, err := env.gov.BatchVote(
		nil,
		testVoter,
		[]Address{testPool, badPool, testPool2},
		id,
		true,
	)
	require.ErrorIs(t, err, ErrNotDelegatedVoter)
	require.Len(t, outcomes, 3)
	require.ErrorIs(t, outcomes[1].Err, ErrNotDelegatedVoter)

	votes, err := metricValue(env, "stakegov_governance_votes_total")
	require.NoError(t, err)
	assert.InDelta(t, 2, votes, 0)
	power, err := metricValue(env, "stakegov_governance_voting_power_cast_total")
	require.NoError(t, err)
	assert.InDelta(t, 2000, power, 0)
}

// metricValue sums a counter across all of its label values
func metricValue(env *testEnv, name string) (float64, error) {
	mfs, err := env.promRegistry.Gather()
	if err != nil {
		return 0, err
	}
	var ret float64
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			ret += m.GetCounter().GetValue()
		}
	}
	return ret, nil
}
