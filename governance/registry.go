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

	"go.opentelemetry.io/otel/attribute"

	"github.com/blinklabs-io/stakegov/database"
)

// ApproveHash records the current execution hash of a succeeded proposal as
// approved, replacing any hash approved for an earlier step
func (g *Governance) ApproveHash(txn *database.Txn, proposalID uint64) error {
	g.Lock()
	defer g.Unlock()
	span := g.startSpan(
		"approve_hash",
		attribute.Int64("proposal_id", int64(proposalID)), //nolint:gosec
	)
	err := g.update(txn, func(txn *database.Txn) error {
		return g.approveHash(txn, proposalID)
	})
	if err != nil {
		return g.finish(
			"approve_hash",
			span,
			fmt.Errorf("approve hash: %w", err),
		)
	}
	return g.finish("approve_hash", span, nil)
}

func (g *Governance) approveHash(txn *database.Txn, proposalID uint64) error {
	state, err := g.config.Tally.ProposalState(txn, proposalID)
	if err != nil {
		return err
	}
	if state != ProposalStateSucceeded {
		return fmt.Errorf(
			"%w: proposal %d is %s",
			ErrProposalNotResolvable,
			proposalID,
			state,
		)
	}
	hash, err := g.config.Tally.ExecutionHash(txn, proposalID)
	if err != nil {
		return err
	}
	if err := g.db.SetApprovedHash(proposalID, hash, txn); err != nil {
		return err
	}
	g.logger.Debug(
		"execution hash approved",
		"proposal_id", proposalID,
		"hash", fmt.Sprintf("%x", hash),
	)
	return nil
}

// removeApprovedHash drops the approved hash of a resolved proposal. It does
// nothing if there is none.
func (g *Governance) removeApprovedHash(
	txn *database.Txn,
	proposalID uint64,
) error {
	resolved, err := g.config.Tally.IsResolved(txn, proposalID)
	if err != nil {
		return err
	}
	if !resolved {
		return fmt.Errorf("%w: proposal %d", ErrProposalNotResolved, proposalID)
	}
	return g.db.DeleteApprovedHash(proposalID, txn)
}

// Resolve resolves a succeeded single step proposal and returns a signer
// capability for actingAddress to apply it with
func (g *Governance) Resolve(
	txn *database.Txn,
	proposalID uint64,
	actingAddress Address,
) (*SignerCapability, error) {
	g.Lock()
	defer g.Unlock()
	span := g.startSpan(
		"resolve",
		attribute.Int64("proposal_id", int64(proposalID)), //nolint:gosec
	)
	var ret *SignerCapability
	err := g.update(txn, func(txn *database.Txn) error {
		if err := g.config.Tally.Resolve(txn, proposalID); err != nil {
			return err
		}
		if err := g.removeApprovedHash(txn, proposalID); err != nil {
			return err
		}
		var err error
		ret, err = g.signerCapability(txn, actingAddress)
		return err
	})
	if err != nil {
		return nil, g.finish("resolve", span, fmt.Errorf("resolve: %w", err))
	}
	if g.metrics != nil {
		g.metrics.resolutions.WithLabelValues("single_step").Inc()
	}
	g.logger.Debug("proposal resolved", "proposal_id", proposalID)
	return ret, g.finish("resolve", span, nil)
}

// ResolveMultiStep resolves the current step of a multi-step proposal. An
// empty nextExecutionHash marks the final step and removes the proposal's
// approved hash. Otherwise the approved hash advances to the next step.
func (g *Governance) ResolveMultiStep(
	txn *database.Txn,
	proposalID uint64,
	actingAddress Address,
	nextExecutionHash []byte,
) (*SignerCapability, error) {
	g.Lock()
	defer g.Unlock()
	span := g.startSpan(
		"resolve_multi_step",
		attribute.Int64("proposal_id", int64(proposalID)), //nolint:gosec
		attribute.Bool("final_step", len(nextExecutionHash) == 0),
	)
	var ret *SignerCapability
	err := g.update(txn, func(txn *database.Txn) error {
		if err := g.config.Tally.ResolveMultiStep(
			txn,
			proposalID,
			nextExecutionHash,
		); err != nil {
			return err
		}
		if len(nextExecutionHash) == 0 {
			if err := g.removeApprovedHash(txn, proposalID); err != nil {
				return err
			}
		} else {
			if err := g.approveHash(txn, proposalID); err != nil {
				return err
			}
		}
		var err error
		ret, err = g.signerCapability(txn, actingAddress)
		return err
	})
	if err != nil {
		return nil, g.finish(
			"resolve_multi_step",
			span,
			fmt.Errorf("resolve multi-step: %w", err),
		)
	}
	if g.metrics != nil {
		g.metrics.resolutions.WithLabelValues("multi_step").Inc()
	}
	g.logger.Debug(
		"proposal step resolved",
		"proposal_id", proposalID,
		"final_step", len(nextExecutionHash) == 0,
	)
	return ret, g.finish("resolve_multi_step", span, nil)
}

// ApprovedHash returns the approved execution hash of a proposal, or nil if
// there is none
func (g *Governance) ApprovedHash(
	txn *database.Txn,
	proposalID uint64,
) ([]byte, error) {
	g.RLock()
	defer g.RUnlock()
	var ret []byte
	err := g.view(txn, func(txn *database.Txn) error {
		approved, err := g.db.GetApprovedHash(proposalID, txn)
		if err != nil {
			return err
		}
		if approved != nil {
			ret = approved.Hash
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get approved hash: %w", err)
	}
	return ret, nil
}

// ApprovedHashes returns the approved execution hash of every proposal that
// has one
func (g *Governance) ApprovedHashes(
	txn *database.Txn,
) (map[uint64][]byte, error) {
	g.RLock()
	defer g.RUnlock()
	ret := make(map[uint64][]byte)
	err := g.view(txn, func(txn *database.Txn) error {
		approved, err := g.db.GetApprovedHashes(txn)
		if err != nil {
			return err
		}
		for _, tmp := range approved {
			ret[uint64(tmp.ProposalID)] = tmp.Hash
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get approved hashes: %w", err)
	}
	return ret, nil
}
