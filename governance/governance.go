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

// Package governance implements stake-weighted proposal voting and the
// resolution of approved proposals.
//
// Every exported operation is atomic. When called with a nil transaction it
// opens its own and commits it on success. When called with a caller owned
// transaction it runs inside a savepoint that is rolled back if the operation
// fails, leaving the caller's earlier work in place.
package governance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blinklabs-io/stakegov/database"
	"github.com/blinklabs-io/stakegov/database/models"
	"github.com/blinklabs-io/stakegov/database/types"
	"github.com/blinklabs-io/stakegov/event"
)

const tracerName = "github.com/blinklabs-io/stakegov/governance"

// Config holds the dependencies of a Governance instance. Supply, EventBus,
// Logger, PromRegistry and Clock are optional.
type Config struct {
	Database     *database.Database
	Tally        TallyLedger
	Stake        StakeProvider
	Supply       SupplyProvider
	EventBus     *event.EventBus
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	Features     Features
	Clock        func() time.Time
}

// Governance is the governance voting ledger and proposal resolution state
// machine. Operations are serialized.
type Governance struct {
	sync.RWMutex
	config       Config
	db           *database.Database
	logger       *slog.Logger
	metrics      *governanceMetrics
	tracer       trace.Tracer
	features     Features
	savepointSeq uint64
}

// New creates a Governance from the given config
func New(cfg Config) (*Governance, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("%w: database", ErrCollaboratorMissing)
	}
	if cfg.Tally == nil {
		return nil, fmt.Errorf("%w: tally ledger", ErrCollaboratorMissing)
	}
	if cfg.Stake == nil {
		return nil, fmt.Errorf("%w: stake provider", ErrCollaboratorMissing)
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	g := &Governance{
		config:   cfg,
		db:       cfg.Database,
		logger:   cfg.Logger.With("component", "governance"),
		tracer:   otel.Tracer(tracerName),
		features: cfg.Features,
	}
	if cfg.PromRegistry != nil {
		g.metrics = newGovernanceMetrics(cfg.PromRegistry)
	}
	return g, nil
}

// Initialize stores the initial governance parameters, creates the signer
// capability for the framework address and registers the framework proposal
// kind with the tally ledger. It can only succeed once.
func (g *Governance) Initialize(
	txn *database.Txn,
	frameworkAddr Address,
	params Params,
) (*SignerCapability, error) {
	g.Lock()
	defer g.Unlock()
	span := g.startSpan("initialize")
	if frameworkAddr != FrameworkAddress {
		return nil, g.finish("initialize", span, fmt.Errorf(
			"initialize: %w: %s",
			ErrUnauthorizedSigner,
			frameworkAddr,
		))
	}
	cfgModel, err := paramsToModel(params)
	if err != nil {
		return nil, g.finish("initialize", span, fmt.Errorf("initialize: %w", err))
	}
	err = g.update(txn, func(txn *database.Txn) error {
		_, err := g.db.GetGovernanceConfig(txn)
		if err == nil {
			return ErrAlreadyInitialized
		}
		if !errors.Is(err, models.ErrGovernanceConfigNotFound) {
			return err
		}
		if err := g.db.SetGovernanceConfig(cfgModel, txn); err != nil {
			return err
		}
		if err := g.db.SetCapability(frameworkAddr.Bytes(), txn); err != nil {
			return err
		}
		return g.config.Tally.RegisterKind(
			txn,
			frameworkAddr,
			FrameworkProposalKind,
		)
	})
	if err != nil {
		return nil, g.finish("initialize", span, fmt.Errorf("initialize: %w", err))
	}
	g.logger.Info(
		"governance initialized",
		"min_voting_threshold", params.MinVotingThreshold.String(),
		"required_proposer_stake", params.RequiredProposerStake,
		"voting_duration_secs", params.VotingDurationSecs,
	)
	return g.newSignerCapability(frameworkAddr), g.finish("initialize", span, nil)
}

// update runs fn as one atomic unit. A nil txn gets its own read-write
// transaction. A caller owned txn is protected by a savepoint.
func (g *Governance) update(
	txn *database.Txn,
	fn func(*database.Txn) error,
) error {
	if txn == nil {
		return g.db.Transaction(true).Do(fn)
	}
	g.savepointSeq++
	name := fmt.Sprintf("governance_%d", g.savepointSeq)
	if err := txn.SavePoint(name); err != nil {
		return fmt.Errorf("create savepoint: %w", err)
	}
	if err := fn(txn); err != nil {
		if rbErr := txn.RollbackTo(name); rbErr != nil {
			return errors.Join(
				err,
				fmt.Errorf("rollback to savepoint: %w", rbErr),
			)
		}
		return err
	}
	return nil
}

// view runs fn in the given txn, or in a read-only transaction that is
// released afterward
func (g *Governance) view(
	txn *database.Txn,
	fn func(*database.Txn) error,
) error {
	if txn == nil {
		txn = g.db.Transaction(false)
		defer txn.Release()
	}
	return fn(txn)
}

func (g *Governance) now() uint64 {
	now := g.config.Clock().Unix()
	if now < 0 {
		return 0
	}
	return uint64(now)
}

// params loads the stored governance parameters
func (g *Governance) params(txn *database.Txn) (Params, error) {
	cfg, err := g.db.GetGovernanceConfig(txn)
	if err != nil {
		if errors.Is(err, models.ErrGovernanceConfigNotFound) {
			return Params{}, ErrNotInitialized
		}
		return Params{}, err
	}
	return Params{
		MinVotingThreshold:    cfg.MinVotingThreshold.Get(),
		RequiredProposerStake: uint64(cfg.RequiredProposerStake),
		VotingDurationSecs:    uint64(cfg.VotingDurationSecs),
	}, nil
}

func paramsToModel(params Params) (*models.GovernanceConfig, error) {
	threshold, err := types.NewUint128(params.MinVotingThreshold)
	if err != nil {
		return nil, fmt.Errorf("%w: min voting threshold: %w", ErrInvalidParams, err)
	}
	return &models.GovernanceConfig{
		MinVotingThreshold:    threshold,
		RequiredProposerStake: types.Uint64(params.RequiredProposerStake),
		VotingDurationSecs:    types.Uint64(params.VotingDurationSecs),
	}, nil
}

func (g *Governance) startSpan(
	name string,
	attrs ...attribute.KeyValue,
) trace.Span {
	_, span := g.tracer.Start(
		context.Background(),
		"governance."+name,
		trace.WithAttributes(attrs...),
	)
	return span
}

// finish ends the operation span and records a failure
func (g *Governance) finish(op string, span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if g.metrics != nil {
			g.metrics.operationErrors.WithLabelValues(op).Inc()
		}
		g.logger.Debug(
			"operation failed",
			"operation", op,
			"error", err,
		)
	}
	span.End()
	return err
}
