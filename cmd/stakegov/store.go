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

package main

import (
	"errors"
	"log/slog"
	"time"

	"github.com/blinklabs-io/stakegov"
	"github.com/blinklabs-io/stakegov/database"
	"github.com/blinklabs-io/stakegov/governance"
	"github.com/blinklabs-io/stakegov/internal/config"
)

const shutdownTimeout = 5 * time.Second

var errOffline = errors.New(
	"not available: no tally ledger or stake subsystem is attached",
)

// offlineLedger stands in for the tally ledger and the stake subsystem when
// the store is opened from the command line. Registering the proposal kind
// succeeds so that the store can be bootstrapped; everything else fails.
type offlineLedger struct {
	logger *slog.Logger
}

func (o *offlineLedger) RegisterKind(
	_ *database.Txn,
	owner governance.Address,
	kind governance.ProposalKind,
) error {
	o.logger.Warn(
		"proposal kind must also be registered with the tally ledger",
		"component", programName,
		"kind", string(kind),
		"owner", owner.String(),
	)
	return nil
}

func (o *offlineLedger) CreateProposal(
	*database.Txn,
	governance.ProposalParams,
) (uint64, error) {
	return 0, errOffline
}

func (o *offlineLedger) Vote(*database.Txn, uint64, uint64, bool) error {
	return errOffline
}

func (o *offlineLedger) ProposalState(
	*database.Txn,
	uint64,
) (governance.ProposalState, error) {
	return governance.ProposalStatePending, errOffline
}

func (o *offlineLedger) ProposalExpiration(*database.Txn, uint64) (uint64, error) {
	return 0, errOffline
}

func (o *offlineLedger) ExecutionHash(*database.Txn, uint64) ([]byte, error) {
	return nil, errOffline
}

func (o *offlineLedger) IsResolved(*database.Txn, uint64) (bool, error) {
	return false, errOffline
}

func (o *offlineLedger) Resolve(*database.Txn, uint64) error {
	return errOffline
}

func (o *offlineLedger) ResolveMultiStep(*database.Txn, uint64, []byte) error {
	return errOffline
}

func (o *offlineLedger) DelegatedVoter(
	*database.Txn,
	governance.Address,
) (governance.Address, error) {
	return governance.Address{}, errOffline
}

func (o *offlineLedger) LockupExpiry(
	*database.Txn,
	governance.Address,
) (uint64, error) {
	return 0, errOffline
}

func (o *offlineLedger) StakeBreakdown(
	*database.Txn,
	governance.Address,
) (governance.StakeBreakdown, error) {
	return governance.StakeBreakdown{}, errOffline
}

func (o *offlineLedger) IsCurrentEpochValidator(
	*database.Txn,
	governance.Address,
) (bool, error) {
	return false, errOffline
}

func (o *offlineLedger) AllowValidatorSetChange(*database.Txn) (bool, error) {
	return false, errOffline
}

// store is an open governance store
type store struct {
	node *stakegov.Node
	db   *database.Database
	gov  *governance.Governance
}

// openStore opens the configured database and wraps it in a Governance
func openStore(cfg *config.Config) (*store, error) {
	logger := commonRun(cfg)
	offline := &offlineLedger{logger: logger}
	node, err := stakegov.New(
		stakegov.NewConfig(
			stakegov.WithLogger(logger),
			stakegov.WithDatabasePath(cfg.DataDir),
			stakegov.WithBlobPlugin(cfg.BlobPlugin),
			stakegov.WithMetadataPlugin(cfg.MetadataPlugin),
			stakegov.WithTallyLedger(offline),
			stakegov.WithStakeProvider(offline),
			stakegov.WithFeatures(cfg.Governance.Features()),
			stakegov.WithTracing(cfg.Tracing),
			stakegov.WithTracingStdout(cfg.TracingStdout),
			stakegov.WithShutdownTimeout(shutdownTimeout),
		),
	)
	if err != nil {
		return nil, err
	}
	if err := node.Start(); err != nil {
		return nil, errors.Join(err, node.Stop())
	}
	return &store{
		node: node,
		db:   node.Database(),
		gov:  node.Governance(),
	}, nil
}

func (s *store) Close() error {
	return s.node.Stop()
}

// withStore opens the store, runs fn and closes the store
func withStore(cfg *config.Config, fn func(*store) error) (err error) {
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.Close())
	}()
	return fn(s)
}
