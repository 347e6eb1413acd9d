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
	"math"
	"math/big"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/stakegov/database"
)

func TestNewRequiresCollaborators(t *testing.T) {
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck
	clock := &fakeClock{now: time.Now()}
	testDefs := []struct {
		name string
		cfg  Config
	}{
		{name: "database", cfg: Config{Tally: newFakeTally(clock), Stake: newFakeStake()}},
		{name: "tally", cfg: Config{Database: db, Stake: newFakeStake()}},
		{name: "stake", cfg: Config{Database: db, Tally: newFakeTally(clock)}},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := New(testDef.cfg)
			require.ErrorIs(t, err, ErrCollaboratorMissing)
			require.ErrorIs(t, err, ErrConfiguration)
		})
	}
	// Supply is optional
	_, err = New(Config{
		Database: db,
		Tally:    newFakeTally(clock),
		Stake:    newFakeStake(),
	})
	require.NoError(t, err)
}

func TestInitialize(t *testing.T) {
	env := newTestEnv(t, Features{})
	assert.Equal(t, FrameworkAddress, env.frameworkCap.Address())
	assert.Contains(t, env.tally.kinds, FrameworkProposalKind)

	_, err := env.gov.Initialize(nil, FrameworkAddress, testParams)
	require.ErrorIs(t, err, ErrAlreadyInitialized)
	require.ErrorIs(t, err, ErrStateConflict)

	params, err := env.gov.Params(nil)
	require.NoError(t, err)
	assert.True(t, params.MinVotingThreshold.Equal(testParams.MinVotingThreshold))
	duration, err := env.gov.VotingDuration(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(testVotingDuration), duration)
	stake, err := env.gov.RequiredProposerStake(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), stake)
	threshold, err := env.gov.MinVotingThreshold(nil)
	require.NoError(t, err)
	assert.Equal(t, "100", threshold.String())
}

func TestInitializeErrors(t *testing.T) {
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck
	clock := &fakeClock{now: time.Now()}
	gov, err := New(Config{
		Database: db,
		Tally:    newFakeTally(clock),
		Stake:    newFakeStake(),
	})
	require.NoError(t, err)

	_, err = gov.Params(nil)
	require.ErrorIs(t, err, ErrNotInitialized)

	_, err = gov.Initialize(nil, Address{AddressSize - 1: 0x02}, testParams)
	require.ErrorIs(t, err, ErrUnauthorizedSigner)

	wide := testParams
	wide.MinVotingThreshold = sdkmath.NewUintFromBigInt(
		new(big.Int).Lsh(big.NewInt(1), 128),
	)
	_, err = gov.Initialize(nil, FrameworkAddress, wide)
	require.ErrorIs(t, err, ErrInvalidParams)
	require.ErrorIs(t, err, ErrInvalidInput)

	// Failed attempts leave nothing behind
	_, err = gov.Params(nil)
	require.ErrorIs(t, err, ErrNotInitialized)
	_, err = gov.Initialize(nil, FrameworkAddress, testParams)
	require.NoError(t, err)
}

func TestVotingPower(t *testing.T) {
	testDefs := []struct {
		name        string
		allowChange bool
		isValidator bool
		stake       StakeBreakdown
		expected    uint64
		expectedErr error
	}{
		{
			name:        "validator set may change",
			allowChange: true,
			stake:       StakeBreakdown{Active: 100, PendingActive: 20, PendingInactive: 3},
			expected:    123,
		},
		{
			name:        "current validator",
			isValidator: true,
			stake:       StakeBreakdown{Active: 100, PendingActive: 20, PendingInactive: 3},
			expected:    103,
		},
		{
			name:     "not a validator",
			stake:    StakeBreakdown{Active: 100, PendingActive: 20, PendingInactive: 3},
			expected: 0,
		},
		{
			name:        "overflow",
			allowChange: true,
			stake:       StakeBreakdown{Active: math.MaxUint64, PendingActive: 1},
			expectedErr: ErrVotingPowerOverflow,
		},
	}
	env := newTestEnv(t, Features{})
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			pool := Address{0x01, AddressSize - 1: 0x01}
			env.stake.addPool(pool, fakePool{
				stake:       testDef.stake,
				isValidator: testDef.isValidator,
			})
			env.stake.allowChange = testDef.allowChange
			power, err := env.gov.VotingPower(nil, pool)
			if testDef.expectedErr != nil {
				require.ErrorIs(t, err, testDef.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testDef.expected, power)
		})
	}
}

func TestFeatures(t *testing.T) {
	env := newTestEnv(t, Features{})
	other := newTestEnv(t, Features{})
	require.ErrorIs(
		t,
		env.gov.SetFeatures(other.frameworkCap, Features{PartialVoting: true}),
		ErrUnauthorizedSigner,
	)
	require.ErrorIs(
		t,
		env.gov.SetFeatures(nil, Features{PartialVoting: true}),
		ErrUnauthorized,
	)
	require.NoError(
		t,
		env.gov.SetFeatures(env.frameworkCap, Features{PartialVoting: true}),
	)
	assert.True(t, env.gov.Features().PartialVoting)
}

func TestStoreSignerCapability(t *testing.T) {
	env := newTestEnv(t, Features{})
	reserved := Address{AddressSize - 1: 0x03}
	err := env.gov.StoreSignerCapability(nil, env.frameworkCap, testPool)
	require.ErrorIs(t, err, ErrNotReservedAddress)
	require.NoError(t, env.gov.StoreSignerCapability(nil, env.frameworkCap, reserved))
	// Storing again is a no-op
	require.NoError(t, env.gov.StoreSignerCapability(nil, env.frameworkCap, reserved))
	caps, err := env.db.GetCapabilities(nil)
	require.NoError(t, err)
	assert.Len(t, caps, 2)

	// Resolve can now act as the stored address
	env.supply.supply = sdkmath.NewUint(1000)
	env.supply.tracked = true
	id := env.createProposal(t, testHashA, false)
	_, err = env.gov.Vote(nil, testVoter, testPool, id, true)
	require.NoError(t, err)
	signerCap, err := env.gov.Resolve(nil, id, reserved)
	require.NoError(t, err)
	assert.Equal(t, reserved, signerCap.Address())
}

func TestUpdateConfig(t *testing.T) {
	env := newTestEnv(t, Features{})
	id := env.createProposal(t, testHashA, false)
	before, err := env.tally.ProposalExpiration(nil, id)
	require.NoError(t, err)

	other := newTestEnv(t, Features{})
	newParams := Params{
		MinVotingThreshold:    sdkmath.NewUint(5000),
		RequiredProposerStake: 10,
		VotingDurationSecs:    60,
	}
	require.ErrorIs(
		t,
		env.gov.UpdateConfig(nil, other.frameworkCap, newParams),
		ErrUnauthorizedSigner,
	)
	require.NoError(t, env.gov.UpdateConfig(nil, env.frameworkCap, newParams))
	params, err := env.gov.Params(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), params.VotingDurationSecs)
	assert.Equal(t, uint64(10), params.RequiredProposerStake)
	assert.Equal(t, "5000", params.MinVotingThreshold.String())

	// Existing proposals keep their expiration
	after, err := env.tally.ProposalExpiration(nil, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	id2 := env.createProposal(t, testHashB, false)
	exp2, err := env.tally.ProposalExpiration(nil, id2)
	require.NoError(t, err)
	assert.Equal(t, env.clock.Unix()+60, exp2)

	events, err := env.gov.Events(nil, UpdateConfigEventType)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Contains(t, string(events[0].Data), `"voting_duration_secs":60`)
}

func TestAddress(t *testing.T) {
	addr, err := ParseAddress("0x1")
	require.NoError(t, err)
	assert.Equal(t, FrameworkAddress, addr)
	text, err := FrameworkAddress.MarshalText()
	require.NoError(t, err)
	var decoded Address
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, FrameworkAddress, decoded)
	_, err = ParseAddress("0xzz")
	require.Error(t, err)
	_, err = NewAddress([]byte{1, 2, 3})
	require.Error(t, err)

	testDefs := []struct {
		addr     Address
		reserved bool
	}{
		{addr: Address{}, reserved: true},
		{addr: FrameworkAddress, reserved: true},
		{addr: Address{AddressSize - 1: 0x0a}, reserved: true},
		{addr: Address{AddressSize - 1: 0x0b}, reserved: false},
		{addr: Address{0x01, AddressSize - 1: 0x01}, reserved: false},
	}
	for _, testDef := range testDefs {
		assert.Equal(
			t,
			testDef.reserved,
			IsReservedAddress(testDef.addr),
			testDef.addr.String(),
		)
	}
}
