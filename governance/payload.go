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
	"fmt"

	"github.com/blinklabs-io/stakegov/database"
	"github.com/blinklabs-io/stakegov/database/types"
)

// SubmitPayload stores an execution payload that is too large to pass inline
// and returns its hash. Proposals refer to the payload by this hash.
func (g *Governance) SubmitPayload(
	txn *database.Txn,
	payload []byte,
) ([]byte, error) {
	g.Lock()
	defer g.Unlock()
	hash := types.PayloadHash(payload)
	err := g.update(txn, func(txn *database.Txn) error {
		return g.db.SetPayload(hash, payload, txn)
	})
	if err != nil {
		return nil, fmt.Errorf("submit payload: %w", err)
	}
	g.logger.Debug(
		"execution payload stored",
		"hash", fmt.Sprintf("%x", hash),
		"size", len(payload),
	)
	return hash, nil
}

// ApprovedPayload returns the stored execution payload for the currently
// approved hash of a proposal
func (g *Governance) ApprovedPayload(
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
		if approved == nil {
			return fmt.Errorf("%w: proposal %d", ErrNoApprovedHash, proposalID)
		}
		payload, err := g.db.GetPayload(approved.Hash, txn)
		if err != nil {
			return err
		}
		if !bytes.Equal(types.PayloadHash(payload), approved.Hash) {
			return ErrPayloadHashMismatch
		}
		ret = payload
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get approved payload: %w", err)
	}
	return ret, nil
}

// IsApprovedHash reports whether any proposal currently approves the hash
func (g *Governance) IsApprovedHash(
	txn *database.Txn,
	hash []byte,
) (bool, error) {
	g.RLock()
	defer g.RUnlock()
	var ret bool
	err := g.view(txn, func(txn *database.Txn) error {
		approved, err := g.db.GetApprovedHashByHash(hash, txn)
		if err != nil {
			return err
		}
		ret = approved != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("check approved hash: %w", err)
	}
	return ret, nil
}
