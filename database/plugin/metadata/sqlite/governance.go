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

package sqlite

import (
	"errors"

	"github.com/blinklabs-io/stakegov/database/models"
	"github.com/blinklabs-io/stakegov/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetGovernanceConfig retrieves the governance config. Returns nil if it has
// not been stored yet.
func (d *MetadataStoreSqlite) GetGovernanceConfig(
	txn types.Txn,
) (*models.GovernanceConfig, error) {
	var cfg models.GovernanceConfig
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.First(&cfg); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &cfg, nil
}

// SetGovernanceConfig creates or replaces the governance config
func (d *MetadataStoreSqlite) SetGovernanceConfig(
	cfg *models.GovernanceConfig,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	cfg.SetSingleton()
	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"min_voting_threshold",
			"required_proposer_stake",
			"voting_duration_secs",
		}),
	}
	if result := db.Clauses(onConflict).Create(cfg); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetFeatureState retrieves the feature state. Returns nil if it has not been
// stored yet.
func (d *MetadataStoreSqlite) GetFeatureState(
	txn types.Txn,
) (*models.FeatureState, error) {
	var state models.FeatureState
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.First(&state); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &state, nil
}

// SetFeatureState creates or replaces the feature state
func (d *MetadataStoreSqlite) SetFeatureState(
	state *models.FeatureState,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	state.SetSingleton()
	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"partial_voting_initialized",
		}),
	}
	if result := db.Clauses(onConflict).Create(state); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetVoteRecord retrieves the vote record for a stake pool on a proposal.
// Returns nil if the pool has not voted.
func (d *MetadataStoreSqlite) GetVoteRecord(
	stakePool []byte,
	proposalID uint64,
	txn types.Txn,
) (*models.VoteRecord, error) {
	var record models.VoteRecord
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where(
		"stake_pool = ? AND proposal_id = ?",
		stakePool,
		types.Uint64(proposalID),
	).First(&record); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &record, nil
}

// GetVoteRecords retrieves all vote records for a proposal
func (d *MetadataStoreSqlite) GetVoteRecords(
	proposalID uint64,
	txn types.Txn,
) ([]models.VoteRecord, error) {
	var records []models.VoteRecord
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where(
		"proposal_id = ?",
		types.Uint64(proposalID),
	).Order("id").Find(&records); result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

// SetVoteRecord creates or updates a vote record
func (d *MetadataStoreSqlite) SetVoteRecord(
	record *models.VoteRecord,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	onConflict := clause.OnConflict{
		Columns: []clause.Column{
			{Name: "stake_pool"},
			{Name: "proposal_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"kind",
			"power",
		}),
	}
	if result := db.Clauses(onConflict).Create(record); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetApprovedHash retrieves the approved hash for a proposal. Returns nil if
// there is none.
func (d *MetadataStoreSqlite) GetApprovedHash(
	proposalID uint64,
	txn types.Txn,
) (*models.ApprovedHash, error) {
	var approved models.ApprovedHash
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where(
		"proposal_id = ?",
		types.Uint64(proposalID),
	).First(&approved); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &approved, nil
}

// GetApprovedHashByHash retrieves an approved hash entry by its hash value.
// Returns nil if no proposal currently approves the hash.
func (d *MetadataStoreSqlite) GetApprovedHashByHash(
	hash []byte,
	txn types.Txn,
) (*models.ApprovedHash, error) {
	var approved models.ApprovedHash
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("hash = ?", hash).First(&approved); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &approved, nil
}

// GetApprovedHashes retrieves all approved hash entries
func (d *MetadataStoreSqlite) GetApprovedHashes(
	txn types.Txn,
) ([]models.ApprovedHash, error) {
	var ret []models.ApprovedHash
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Order("id").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetApprovedHash creates or replaces the approved hash for a proposal
func (d *MetadataStoreSqlite) SetApprovedHash(
	approved *models.ApprovedHash,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if approved.Hash == nil {
		approved.Hash = []byte{}
	}
	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "proposal_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"hash"}),
	}
	if result := db.Clauses(onConflict).Create(approved); result.Error != nil {
		return result.Error
	}
	return nil
}

// DeleteApprovedHash removes the approved hash for a proposal. Removing an
// absent entry is not an error.
func (d *MetadataStoreSqlite) DeleteApprovedHash(
	proposalID uint64,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Where(
		"proposal_id = ?",
		types.Uint64(proposalID),
	).Delete(&models.ApprovedHash{}); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetCapability retrieves the capability record for an address. Returns nil
// if none is stored.
func (d *MetadataStoreSqlite) GetCapability(
	address []byte,
	txn types.Txn,
) (*models.Capability, error) {
	var capability models.Capability
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("address = ?", address).First(&capability); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &capability, nil
}

// GetCapabilities retrieves all capability records
func (d *MetadataStoreSqlite) GetCapabilities(
	txn types.Txn,
) ([]models.Capability, error) {
	var ret []models.Capability
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Order("id").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetCapability records a capability for an address. Storing an existing
// address is a no-op.
func (d *MetadataStoreSqlite) SetCapability(
	address []byte,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	capability := &models.Capability{Address: address}
	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoNothing: true,
	}
	if result := db.Clauses(onConflict).Create(capability); result.Error != nil {
		return result.Error
	}
	return nil
}

// AddGovernanceEvent appends an event to the governance event log and
// returns its sequence number within the event type
func (d *MetadataStoreSqlite) AddGovernanceEvent(
	eventType string,
	data []byte,
	txn types.Txn,
) (uint64, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	if result := db.Model(&models.GovernanceEvent{}).Where(
		"event_type = ?",
		eventType,
	).Count(&count); result.Error != nil {
		return 0, result.Error
	}
	seq := uint64(count) //nolint:gosec
	evt := &models.GovernanceEvent{
		EventType:      eventType,
		SequenceNumber: types.Uint64(seq),
		Data:           data,
	}
	if result := db.Create(evt); result.Error != nil {
		return 0, result.Error
	}
	return seq, nil
}

// GetGovernanceEvents retrieves logged governance events in the order they
// were written. An empty eventType returns events of every type.
func (d *MetadataStoreSqlite) GetGovernanceEvents(
	eventType string,
	txn types.Txn,
) ([]models.GovernanceEvent, error) {
	var ret []models.GovernanceEvent
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := db.Order("id")
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
