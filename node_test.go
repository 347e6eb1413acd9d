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

package stakegov

import (
	"errors"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/stakegov/database"
	"github.com/blinklabs-io/stakegov/governance"
)

var errStub = errors.New("stub")

// stubLedger accepts kind registration and fails everything else
type stubLedger struct {
	kinds []governance.ProposalKind
}

func (s *stubLedger) RegisterKind(
	_ *database.Txn,
	_ governance.Address,
	kind governance.ProposalKind,
) error {
	s.kinds = append(s.kinds, kind)
	return nil
}

func (s *stubLedger) CreateProposal(
	*database.Txn,
	governance.ProposalParams,
) (uint64, error) {
	return 0, errStub
}

func (s *stubLedger) Vote(*database.Txn, uint64, uint64, bool) error {
	return errStub
}

func (s *stubLedger) ProposalState(
	*database.Txn,
	uint64,
) (governance.ProposalState, error) {
	return governance.ProposalStatePending, errStub
}

func (s *stubLedger) ProposalExpiration(*database.Txn, uint64) (uint64, error) {
	return 0, errStub
}

func (s *stubLedger) ExecutionHash(*database.Txn, uint64) ([]byte, error) {
	return nil, errStub
}

func (s *stubLedger) IsResolved(*database.Txn, uint64) (bool, error) {
	return false, errStub
}

func (s *stubLedger) Resolve(*database.Txn, uint64) error {
	return errStub
}

func (s *stubLedger) ResolveMultiStep(*database.Txn, uint64, []byte) error {
	return errStub
}

func (s *stubLedger) DelegatedVoter(
	*database.Txn,
	governance.Address,
) (governance.Address, error) {
	return governance.Address{}, errStub
}

func (s *stubLedger) LockupExpiry(*database.Txn, governance.Address) (uint64, error) {
	return 0, errStub
}

func (s *stubLedger) StakeBreakdown(
	*database.Txn,
	governance.Address,
) (governance.StakeBreakdown, error) {
	return governance.StakeBreakdown{}, errStub
}

func (s *stubLedger) IsCurrentEpochValidator(
	*database.Txn,
	governance.Address,
) (bool, error) {
	return false, errStub
}

func (s *stubLedger) AllowValidatorSetChange(*database.Txn) (bool, error) {
	return false, errStub
}

func TestNewConfigValidation(t *testing.T) {
	ledger := &stubLedger{}
	testDefs := []struct {
		name string
		opts []ConfigOptionFunc
	}{
		{name: "no tally ledger", opts: []ConfigOptionFunc{WithStakeProvider(ledger)}},
		{name: "no stake provider", opts: []ConfigOptionFunc{WithTallyLedger(ledger)}},
		{
			name: "stdout tracing without tracing",
			opts: []ConfigOptionFunc{
				WithTallyLedger(ledger),
				WithStakeProvider(ledger),
				WithTracingStdout(true),
			},
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := New(NewConfig(testDef.opts...))
			require.Error(t, err)
		})
	}
}

func TestNodeLifecycle(t *testing.T) {
	ledger := &stubLedger{}
	reg := prometheus.NewRegistry()
	now := time.Unix(1_700_000_000, 0)
	n, err := New(NewConfig(
		WithTallyLedger(ledger),
		WithStakeProvider(ledger),
		WithPrometheusRegistry(reg),
		WithFeatures(governance.Features{ModuleEvents: true}),
		WithClock(func() time.Time { return now }),
		WithShutdownTimeout(time.Second),
	))
	require.NoError(t, err)
	assert.Nil(t, n.Governance())
	assert.NotNil(t, n.EventBus())

	require.NoError(t, n.Start())
	require.ErrorIs(t, n.Start(), ErrNodeStarted)
	require.NotNil(t, n.Database())
	gov := n.Governance()
	require.NotNil(t, gov)
	assert.True(t, gov.Features().ModuleEvents)

	_, err = gov.Initialize(nil, governance.FrameworkAddress, governance.Params{
		MinVotingThreshold:    sdkmath.NewUint(10),
		RequiredProposerStake: 1,
		VotingDurationSecs:    60,
	})
	require.NoError(t, err)
	assert.Equal(t, []governance.ProposalKind{governance.FrameworkProposalKind}, ledger.kinds)

	// Collaborator failures surface through the node's governance
	_, err = gov.CreateProposal(
		nil,
		governance.Address{},
		governance.Address{},
		[]byte("hash"),
		nil,
		nil,
	)
	require.ErrorIs(t, err, errStub)

	require.NoError(t, n.Stop())
	require.NoError(t, n.Stop())
}

func TestNodeStartAfterStop(t *testing.T) {
	ledger := &stubLedger{}
	n, err := New(NewConfig(
		WithTallyLedger(ledger),
		WithStakeProvider(ledger),
	))
	require.NoError(t, err)
	require.NoError(t, n.Stop())
	require.ErrorIs(t, n.Start(), ErrNodeStopped)
}
