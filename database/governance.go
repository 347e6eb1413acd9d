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

package database

import (
	"fmt"

	"github.com/blinklabs-io/stakegov/database/models"
	"github.com/blinklabs-io/stakegov/database/types"
)

// writeMetadata runs fn in the given transaction, or in a new metadata
// transaction that is committed on success when txn is nil
func (d *Database) writeMetadata(txn *Txn, fn func(*Txn) error) error {
	if txn != nil {
		return fn(txn)
	}
	return d.MetadataTxn(true).Do(fn)
}

// GetGovernanceConfig returns the stored governance config
func (d *Database) GetGovernanceConfig(
	txn *Txn,
) (*models.GovernanceConfig, error) {
	if txn == nil {
		txn = d.MetadataTxn(false)
		defer txn.Release()
	}
	mdTxn, err := txn.metadataHandle()
	if err != nil {
		return nil, err
	}
	cfg, err := d.metadata.GetGovernanceConfig(mdTxn)
	if err != nil {
		return nil, fmt.Errorf("failed to get governance config: %w", err)
	}
	if cfg == nil {
		return nil, models.ErrGovernanceConfigNotFound
	}
	return cfg, nil
}

// SetGovernanceConfig stores the governance config, replacing any existing one
func (d *Database) SetGovernanceConfig(
	cfg *models.GovernanceConfig,
	txn *Txn,
) error {
	return d.writeMetadata(txn, func(txn *Txn) error {
		mdTxn, err := txn.metadataHandle()
		if err != nil {
			return err
		}
		if err := d.metadata.SetGovernanceConfig(cfg, mdTxn); err != nil {
			return fmt.Errorf("failed to set governance config: %w", err)
		}
		return nil
	})
}

// GetFeatureState returns the stored feature state
func (d *Database) GetFeatureState(txn *Txn) (*models.FeatureState, error) {
	if txn == nil {
		txn = d.MetadataTxn(false)
		defer txn.Release()
	}
	mdTxn, err := txn.metadataHandle()
	if err != nil {
		return nil, err
	}
	state, err := d.metadata.GetFeatureState(mdTxn)
	if err != nil {
		return nil, fmt.Errorf("failed to get feature state: %w", err)
	}
	if state == nil {
		return nil, models.ErrFeatureStateNotFound
	}
	return state, nil
}

// SetFeatureState stores the feature state
func (d *Database) SetFeatureState(
	state *models.FeatureState,
	txn *Txn,
) error {
	return d.writeMetadata(txn, func(txn *Txn) error {
		mdTxn, err := txn.metadataHandle()
		if err != nil {
			return err
		}
		if err := d.metadata.SetFeatureState(state, mdTxn); err != nil {
			return fmt.Errorf("failed to set feature state: %w", err)
		}
		return nil
	})
}

// GetVoteRecord returns the vote record for a stake pool on a proposal, or
// nil if the pool has not voted on it
func (d *Database) GetVoteRecord(
	stakePool []byte,
	proposalID uint64,
	txn *Txn,
) (*models.VoteRecord, error) {
	if txn == nil {
		txn = d.MetadataTxn(false)
		defer txn.Release()
	}
	mdTxn, err := txn.metadataHandle()
	if err != nil {
		return nil, err
	}
	record, err := d.metadata.GetVoteRecord(
		stakePool,
		proposalID,
		mdTxn,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get vote record: %w", err)
	}
	return record, nil
}

// GetVoteRecords returns all vote records for a proposal
func (d *Database) GetVoteRecords(
	proposalID uint64,
	txn *Txn,
) ([]models.VoteRecord, error) {
	if txn == nil {
		txn = d.MetadataTxn(false)
		defer txn.Release()
	}
	mdTxn, err := txn.metadataHandle()
	if err != nil {
		return nil, err
	}
	records, err := d.metadata.GetVoteRecords(proposalID, mdTxn)
	if err != nil {
		return nil, fmt.Errorf("failed to get vote records: %w", err)
	}
	return records, nil
}

// SetVoteRecord creates or updates a vote record
func (d *Database) SetVoteRecord(record *models.VoteRecord, txn *Txn) error {
	return d.writeMetadata(txn, func(txn *Txn) error {
		mdTxn, err := txn.metadataHandle()
		if err != nil {
			return err
		}
		if err := d.metadata.SetVoteRecord(record, mdTxn); err != nil {
			return fmt.Errorf("failed to set vote record: %w", err)
		}
		return nil
	})
}

// GetApprovedHash returns the approved hash entry for a proposal, or nil if
// there is none
func (d *Database) GetApprovedHash(
	proposalID uint64,
	txn *Txn,
) (*models.ApprovedHash, error) {
	if txn == nil {
		txn = d.MetadataTxn(false)
		defer txn.Release()
	}
	mdTxn, err := txn.metadataHandle()
	if err != nil {
		return nil, err
	}
	approved, err := d.metadata.GetApprovedHash(proposalID, mdTxn)
	if err != nil {
		return nil, fmt.Errorf("failed to get approved hash: %w", err)
	}
	return approved, nil
}

// GetApprovedHashByHash returns the entry approving the given hash, or nil if
// no proposal currently approves it
func (d *Database) GetApprovedHashByHash(
	hash []byte,
	txn *Txn,
) (*models.ApprovedHash, error) {
	if txn == nil {
		txn = d.MetadataTxn(false)
		defer txn.Release()
	}
	mdTxn, err := txn.metadataHandle()
	if err != nil {
		return nil, err
	}
	approved, err := d.metadata.GetApprovedHashByHash(hash, mdTxn)
	if err != nil {
		return nil, fmt.Errorf("failed to get approved hash: %w", err)
	}
	return approved, nil
}

// GetApprovedHashes returns all approved hash entries
func (d *Database) GetApprovedHashes(txn *Txn) ([]models.ApprovedHash, error) {
	if txn == nil {
		txn = d.MetadataTxn(false)
		defer txn.Release()
	}
	mdTxn, err := txn.metadataHandle()
	if err != nil {
		return nil, err
	}
	ret, err := d.metadata.GetApprovedHashes(mdTxn)
	if err != nil {
		return nil, fmt.Errorf("failed to get approved hashes: %w", err)
	}
	return ret, nil
}

// SetApprovedHash creates or replaces the approved hash for a proposal
func (d *Database) SetApprovedHash(
	proposalID uint64,
	hash []byte,
	txn *Txn,
) error {
	return d.writeMetadata(txn, func(txn *Txn) error {
		approved := &models.ApprovedHash{
			ProposalID: types.Uint64(proposalID),
			Hash:       hash,
		}
		mdTxn, err := txn.metadataHandle()
		if err != nil {
			return err
		}
		if err := d.metadata.SetApprovedHash(approved, mdTxn); err != nil {
			return fmt.Errorf(
				"failed to set approved hash for proposal %d: %w",
				proposalID,
				err,
			)
		}
		return nil
	})
}

// DeleteApprovedHash removes the approved hash for a proposal if present
func (d *Database) DeleteApprovedHash(proposalID uint64, txn *Txn) error {
	return d.writeMetadata(txn, func(txn *Txn) error {
		mdTxn, err := txn.metadataHandle()
		if err != nil {
			return err
		}
		if err := d.metadata.DeleteApprovedHash(proposalID, mdTxn); err != nil {
			return fmt.Errorf(
				"failed to delete approved hash for proposal %d: %w",
				proposalID,
				err,
			)
		}
		return nil
	})
}

// HasCapability reports whether a capability is stored for the address
func (d *Database) HasCapability(address []byte, txn *Txn) (bool, error) {
	if txn == nil {
		txn = d.MetadataTxn(false)
		defer txn.Release()
	}
	mdTxn, err := txn.metadataHandle()
	if err != nil {
		return false, err
	}
	capability, err := d.metadata.GetCapability(address, mdTxn)
	if err != nil {
		return false, fmt.Errorf("failed to get capability: %w", err)
	}
	return capability != nil, nil
}

// GetCapabilities returns all stored capabilities
func (d *Database) GetCapabilities(txn *Txn) ([]models.Capability, error) {
	if txn == nil {
		txn = d.MetadataTxn(false)
		defer txn.Release()
	}
	mdTxn, err := txn.metadataHandle()
	if err != nil {
		return nil, err
	}
	ret, err := d.metadata.GetCapabilities(mdTxn)
	if err != nil {
		return nil, fmt.Errorf("failed to get capabilities: %w", err)
	}
	return ret, nil
}

// SetCapability stores a capability for the address
func (d *Database) SetCapability(address []byte, txn *Txn) error {
	return d.writeMetadata(txn, func(txn *Txn) error {
		mdTxn, err := txn.metadataHandle()
		if err != nil {
			return err
		}
		if err := d.metadata.SetCapability(address, mdTxn); err != nil {
			return fmt.Errorf("failed to set capability: %w", err)
		}
		return nil
	})
}

// AddGovernanceEvent appends an event to the governance event log and
// returns its sequence number
func (d *Database) AddGovernanceEvent(
	eventType string,
	data []byte,
	txn *Txn,
) (uint64, error) {
	var seq uint64
	err := d.writeMetadata(txn, func(txn *Txn) error {
		mdTxn, err := txn.metadataHandle()
		if err != nil {
			return err
		}
		seq, err = d.metadata.AddGovernanceEvent(eventType, data, mdTxn)
		if err != nil {
			return fmt.Errorf("failed to add governance event: %w", err)
		}
		return nil
	})
	return seq, err
}

// GetGovernanceEvents returns logged governance events of the given type, or
// of every type when eventType is empty
func (d *Database) GetGovernanceEvents(
	eventType string,
	txn *Txn,
) ([]models.GovernanceEvent, error) {
	if txn == nil {
		txn = d.MetadataTxn(false)
		defer txn.Release()
	}
	mdTxn, err := txn.metadataHandle()
	if err != nil {
		return nil, err
	}
	ret, err := d.metadata.GetGovernanceEvents(eventType, mdTxn)
	if err != nil {
		return nil, fmt.Errorf("failed to get governance events: %w", err)
	}
	return ret, nil
}
