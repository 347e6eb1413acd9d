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
	"bytes"
	"encoding/json"
	"math"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProposalProposerStake(t *testing.T) {
	env := newTestEnv(t, Features{})
	env.stake.setActive(testPool, 999)
	_, err := env.gov.CreateProposal(nil, testVoter, testPool, testHashA, nil, nil)
	require.ErrorIs(t, err, ErrInsufficientProposerStake)
	require.ErrorIs(t, err, ErrInsufficientResource)
	assert.Empty(t, env.tally.proposals)

	env.stake.setActive(testPool, 1000)
	id, err := env.gov.CreateProposal(nil, testVoter, testPool, testHashA, nil, nil)
	require.NoError(t, err)
	p := env.tally.proposals[id]
	require.NotNil(t, p)
	assert.Equal(t, FrameworkProposalKind, p.params.Kind)
	assert.Equal(t, FrameworkAddress, p.params.Owner)
	assert.Equal(t, testVoter, p.params.Proposer)
	assert.Equal(t, testHashA, p.params.ExecutionHash)
	assert.Equal(t, env.clock.Unix()+testVotingDuration, p.params.ExpirationSecs)
	assert.True(t, p.params.MinVoteThreshold.Equal(testParams.MinVotingThreshold))
	assert.False(t, p.params.IsMultiStep)
	assert.Nil(t, p.params.EarlyResolutionThreshold)
}

func TestCreateProposalCheckOrder(t *testing.T) {
	env := newTestEnv(t, Features{})
	weak := Address{AddressSize - 1: 0xd1}
	env.stake.addPool(weak, fakePool{
		voter:  testVoter,
		lockup: env.clock.Unix(),
		stake:  StakeBreakdown{Active: 1},
	})
	long := bytes.Repeat([]byte{'x'}, MaxMetadataLength+1)

	// Every check fails, the delegated voter check wins
	_, err := env.gov.CreateProposal(nil, testPool, weak, testHashA, long, long)
	require.ErrorIs(t, err, ErrNotDelegatedVoter)
	_, err = env.gov.CreateProposal(nil, testVoter, weak, testHashA, long, long)
	require.ErrorIs(t, err, ErrInsufficientProposerStake)
	env.stake.setActive(weak, 1000)
	_, err = env.gov.CreateProposal(nil, testVoter, weak, testHashA, long, long)
	require.ErrorIs(t, err, ErrInsufficientLockup)
	env.stake.addPool(weak, fakePool{
		voter:  testVoter,
		lockup: env.clock.Unix() + testVotingDuration,
		stake:  StakeBreakdown{Active: 1000},
	})
	_, err = env.gov.CreateProposal(nil, testVoter, weak, testHashA, long, long)
	require.ErrorIs(t, err, ErrMetadataTooLong)
	require.ErrorIs(t, err, ErrInvalidInput)
	// A lockup ending exactly at expiration is enough
	_, err = env.gov.CreateProposal(nil, testVoter, weak, testHashA, nil, nil)
	require.NoError(t, err)
}

func TestCreateProposalLockupOverflow(t *testing.T) {
	env := newTestEnv(t, Features{})
	require.NoError(t, env.gov.UpdateConfig(nil, env.frameworkCap, Params{
		MinVotingThreshold:    sdkmath.NewUint(1),
		RequiredProposerStake: 1,
		VotingDurationSecs:    math.MaxUint64,
	}))
	env.stake.addPool(testPool, fakePool{
		voter:  testVoter,
		lockup: math.MaxUint64,
		stake:  StakeBreakdown{Active: 1000},
	})
	_, err := env.gov.CreateProposal(nil, testVoter, testPool, testHashA, nil, nil)
	require.ErrorIs(t, err, ErrInsufficientLockup)
}

func TestCreateProposalMetadataBoundary(t *testing.T) {
	exact := bytes.Repeat([]byte{'a'}, MaxMetadataLength)
	over := bytes.Repeat([]byte{'a'}, MaxMetadataLength+1)
	testDefs := []struct {
		name     string
		location []byte
		hash     []byte
		valid    bool
	}{
		{name: "both at limit", location: exact, hash: exact, valid: true},
		{name: "location over limit", location: over, hash: exact},
		{name: "hash over limit", location: exact, hash: over},
		{name: "empty", valid: true},
	}
	env := newTestEnv(t, Features{})
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			id, err := env.gov.CreateProposal(
				nil,
				testVoter,
				testPool,
				testHashA,
				testDef.location,
				testDef.hash,
			)
			if !testDef.valid {
				require.ErrorIs(t, err, ErrMetadataTooLong)
				require.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			metadata := env.tally.proposals[id].params.Metadata
			assert.Equal(t, testDef.location, metadata[MetadataLocationKey])
			assert.Equal(t, testDef.hash, metadata[MetadataHashKey])
		})
	}
}

func TestCreateProposalEarlyResolutionThreshold(t *testing.T) {
	testDefs := []struct {
		supply   uint64
		expected string
	}{
		{supply: 1000, expected: "501"},
		{supply: 1001, expected: "501"},
		{supply: 1, expected: "1"},
		{supply: 0, expected: "1"},
	}
	env := newTestEnv(t, Features{})
	env.supply.tracked = true
	for _, testDef := range testDefs {
		env.supply.supply = sdkmath.NewUint(testDef.supply)
		id := env.createProposal(t, testHashA, false)
		threshold := env.tally.proposals[id].params.EarlyResolutionThreshold
		require.NotNil(t, threshold)
		assert.Equal(t, testDef.expected, threshold.String())
	}
}

func TestCreateProposalEvent(t *testing.T) {
	env := newTestEnv(t, Features{})
	id := env.createProposal(t, testHashA, true)
	assert.True(t, env.tally.proposals[id].params.IsMultiStep)
	events, err := env.gov.Events(nil, CreateProposalEventType)
	require.NoError(t, err)
	require.Len(t, events, 1)
	var evt CreateProposalEvent
	require.NoError(t, json.Unmarshal(events[0].Data, &evt))
	assert.Equal(t, id, evt.ProposalID)
	assert.Equal(t, testVoter, evt.Proposer)
	assert.Equal(t, testPool, evt.StakePool)
	assert.Equal(t, testHashA, evt.ExecutionHash)
	assert.Equal(t, []byte("metadata-hash"), evt.Metadata[MetadataHashKey])
}
