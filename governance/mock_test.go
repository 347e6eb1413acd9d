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
	"sync"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/stakegov/database"
	"github.com/blinklabs-io/stakegov/event"
)

var errProposalNotFound = errors.New("proposal not found")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Unix() uint64 {
	return uint64(c.Now().Unix()) //nolint:gosec
}

type fakeProposal struct {
	params   ProposalParams
	yes      uint64
	no       uint64
	resolved bool
}

// fakeTally is an in-memory tally ledger. A proposal closes when it expires
// or when either side reaches the early resolution threshold, and succeeds
// when closed with more yes than no votes and enough votes in total.
type fakeTally struct {
	mu         sync.Mutex
	clock      *fakeClock
	kinds      map[ProposalKind]Address
	proposals  map[uint64]*fakeProposal
	nextID     uint64
	voteErr    error
	voteCalls  int
	stateErr   error
	resolveErr error
}

func newFakeTally(clock *fakeClock) *fakeTally {
	return &fakeTally{
		clock:     clock,
		kinds:     make(map[ProposalKind]Address),
		proposals: make(map[uint64]*fakeProposal),
	}
}

func (f *fakeTally) RegisterKind(
	_ *database.Txn,
	owner Address,
	kind ProposalKind,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds[kind] = owner
	return nil
}

func (f *fakeTally) CreateProposal(
	_ *database.Txn,
	params ProposalParams,
) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.kinds[params.Kind]; !ok {
		return 0, fmt.Errorf("proposal kind %s not registered", params.Kind)
	}
	id := f.nextID
	f.nextID++
	f.proposals[id] = &fakeProposal{params: params}
	return id, nil
}

func (f *fakeTally) proposal(id uint64) (*fakeProposal, error) {
	p, ok := f.proposals[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", errProposalNotFound, id)
	}
	return p, nil
}

func (f *fakeTally) Vote(
	_ *database.Txn,
	id uint64,
	numVotes uint64,
	shouldPass bool,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voteCalls++
	if f.voteErr != nil {
		return f.voteErr
	}
	p, err := f.proposal(id)
	if err != nil {
		return err
	}
	if shouldPass {
		p.yes += numVotes
	} else {
		p.no += numVotes
	}
	return nil
}

func (f *fakeTally) state(p *fakeProposal) ProposalState {
	closed := f.clock.Unix() > p.params.ExpirationSecs
	if early := p.params.EarlyResolutionThreshold; early != nil {
		if early.LTE(sdkmath.NewUint(p.yes)) ||
			early.LTE(sdkmath.NewUint(p.no)) {
			closed = true
		}
	}
	if !closed {
		return ProposalStatePending
	}
	total := sdkmath.NewUint(p.yes).AddUint64(p.no)
	if p.yes > p.no && total.GTE(p.params.MinVoteThreshold) {
		return ProposalStateSucceeded
	}
	return ProposalStateFailed
}

func (f *fakeTally) ProposalState(
	_ *database.Txn,
	id uint64,
) (ProposalState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stateErr != nil {
		return ProposalStatePending, f.stateErr
	}
	p, err := f.proposal(id)
	if err != nil {
		return ProposalStatePending, err
	}
	return f.state(p), nil
}

func (f *fakeTally) ProposalExpiration(_ *database.Txn, id uint64) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.proposal(id)
	if err != nil {
		return 0, err
	}
	return p.params.ExpirationSecs, nil
}

func (f *fakeTally) ExecutionHash(_ *database.Txn, id uint64) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.proposal(id)
	if err != nil {
		return nil, err
	}
	return p.params.ExecutionHash, nil
}

func (f *fakeTally) IsResolved(_ *database.Txn, id uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.proposal(id)
	if err != nil {
		return false, err
	}
	return p.resolved, nil
}

func (f *fakeTally) checkResolvable(p *fakeProposal) error {
	if f.resolveErr != nil {
		return f.resolveErr
	}
	if p.resolved {
		return errors.New("proposal already resolved")
	}
	if f.state(p) != ProposalStateSucceeded {
		return errors.New("proposal cannot be resolved")
	}
	return nil
}

func (f *fakeTally) Resolve(_ *database.Txn, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.proposal(id)
	if err != nil {
		return err
	}
	if err := f.checkResolvable(p); err != nil {
		return err
	}
	if p.params.IsMultiStep {
		return errors.New("multi-step proposal must be resolved in steps")
	}
	p.resolved = true
	return nil
}

func (f *fakeTally) ResolveMultiStep(
	_ *database.Txn,
	id uint64,
	nextHash []byte,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.proposal(id)
	if err != nil {
		return err
	}
	if err := f.checkResolvable(p); err != nil {
		return err
	}
	if len(nextHash) == 0 {
		p.resolved = true
		return nil
	}
	p.params.ExecutionHash = nextHash
	return nil
}

type fakePool struct {
	voter       Address
	lockup      uint64
	stake       StakeBreakdown
	isValidator bool
}

type fakeStake struct {
	mu          sync.Mutex
	pools       map[Address]*fakePool
	allowChange bool
}

func newFakeStake() *fakeStake {
	return &fakeStake{
		pools:       make(map[Address]*fakePool),
		allowChange: true,
	}
}

func (f *fakeStake) addPool(pool Address, p fakePool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pools[pool] = &p
}

func (f *fakeStake) setActive(pool Address, active uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pools[pool].stake.Active = active
}

func (f *fakeStake) pool(pool Address) (*fakePool, error) {
	p, ok := f.pools[pool]
	if !ok {
		return nil, fmt.Errorf("stake pool %s not found", pool)
	}
	return p, nil
}

func (f *fakeStake) DelegatedVoter(_ *database.Txn, pool Address) (Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.pool(pool)
	if err != nil {
		return Address{}, err
	}
	return p.voter, nil
}

func (f *fakeStake) LockupExpiry(_ *database.Txn, pool Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.pool(pool)
	if err != nil {
		return 0, err
	}
	return p.lockup, nil
}

func (f *fakeStake) StakeBreakdown(
	_ *database.Txn,
	pool Address,
) (StakeBreakdown, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.pool(pool)
	if err != nil {
		return StakeBreakdown{}, err
	}
	return p.stake, nil
}

func (f *fakeStake) IsCurrentEpochValidator(
	_ *database.Txn,
	pool Address,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.pool(pool)
	if err != nil {
		return false, err
	}
	return p.isValidator, nil
}

func (f *fakeStake) AllowValidatorSetChange(_ *database.Txn) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allowChange, nil
}

type fakeSupply struct {
	supply  sdkmath.Uint
	tracked bool
}

func (f *fakeSupply) TotalSupply(_ *database.Txn) (sdkmath.Uint, bool, error) {
	return f.supply, f.tracked, nil
}

const (
	testVotingDuration = 3600
	testLockupSecs     = 86400
)

var (
	testPool   = Address{AddressSize - 1: 0xa1}
	testVoter  = Address{AddressSize - 1: 0xb1}
	testPool2  = Address{AddressSize - 1: 0xa2}
	testPool3  = Address{AddressSize - 1: 0xa3}
	testHashA  = []byte("hash-a")
	testHashB  = []byte("hash-b")
	testParams = Params{
		MinVotingThreshold:    sdkmath.NewUint(100),
		RequiredProposerStake: 1000,
		VotingDurationSecs:    testVotingDuration,
	}
)

type testEnv struct {
	db           *database.Database
	gov          *Governance
	tally        *fakeTally
	stake        *fakeStake
	supply       *fakeSupply
	clock        *fakeClock
	eventBus     *event.EventBus
	promRegistry *prometheus.Registry
	frameworkCap *SignerCapability
}

// newTestEnv returns an initialized Governance on in-memory stores. testPool
// has 1000 active stake, testVoter as its voter and a lockup well past the
// voting period.
func newTestEnv(t *testing.T, features Features) *testEnv {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close() //nolint:errcheck
	})
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	env := &testEnv{
		db:           db,
		tally:        newFakeTally(clock),
		stake:        newFakeStake(),
		supply:       &fakeSupply{},
		clock:        clock,
		eventBus:     event.NewEventBus(nil, nil),
		promRegistry: prometheus.NewRegistry(),
	}
	t.Cleanup(env.eventBus.Stop)
	env.gov, err = New(Config{
		Database:     db,
		Tally:        env.tally,
		Stake:        env.stake,
		Supply:       env.supply,
		EventBus:     env.eventBus,
		PromRegistry: env.promRegistry,
		Features:     features,
		Clock:        clock.Now,
	})
	require.NoError(t, err)
	env.frameworkCap, err = env.gov.Initialize(nil, FrameworkAddress, testParams)
	require.NoError(t, err)
	if features.PartialVoting {
		require.NoError(t, env.gov.InitializePartialVoting(nil, env.frameworkCap))
	}
	for _, pool := range []Address{testPool, testPool2, testPool3} {
		env.stake.addPool(pool, fakePool{
			voter:  testVoter,
			lockup: clock.Unix() + testLockupSecs,
			stake:  StakeBreakdown{Active: 1000},
		})
	}
	return env
}

// createProposal creates a proposal from testPool
func (e *testEnv) createProposal(
	t *testing.T,
	executionHash []byte,
	isMultiStep bool,
) uint64 {
	t.Helper()
	id, err := e.gov.CreateProposalMultiStep(
		nil,
		testVoter,
		testPool,
		executionHash,
		[]byte("https://example.com/proposal.json"),
		[]byte("metadata-hash"),
		isMultiStep,
	)
	require.NoError(t, err)
	return id
}
