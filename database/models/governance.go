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

package models

import (
	"errors"

	"github.com/blinklabs-io/stakegov/database/types"
)

var (
	ErrGovernanceConfigNotFound = errors.New("governance config not found")
	ErrFeatureStateNotFound     = errors.New("feature state not found")
)

// singletonID is the fixed primary key used by singleton rows
const singletonID = 1

// VoteKind constants identify which vote ledger a VoteRecord belongs to
const (
	VoteKindFullyVoted     = 0 // legacy all-or-nothing vote
	VoteKindPartiallySpent = 1 // power-weighted partial vote
)

// GovernanceConfig holds the governance parameters. There is only ever one row.
type GovernanceConfig struct {
	ID                    uint          `gorm:"primarykey"`
	MinVotingThreshold    types.Uint128 `gorm:"not null"`
	RequiredProposerStake types.Uint64  `gorm:"not null"`
	VotingDurationSecs    types.Uint64  `gorm:"not null"`
}

// TableName returns the table name
func (GovernanceConfig) TableName() string {
	return "governance_config"
}

// SetSingleton pins the row to the singleton primary key
func (c *GovernanceConfig) SetSingleton() {
	c.ID = singletonID
}

// FeatureState tracks one-time storage initialization markers. There is only
// ever one row.
type FeatureState struct {
	ID                       uint `gorm:"primarykey"`
	PartialVotingInitialized bool `gorm:"not null;default:false"`
}

// TableName returns the table name
func (FeatureState) TableName() string {
	return "feature_state"
}

// SetSingleton pins the row to the singleton primary key
func (f *FeatureState) SetSingleton() {
	f.ID = singletonID
}

// VoteRecord is a single vote ledger entry for a stake pool on a proposal.
// Kind selects between a legacy full vote and the cumulative power spent by
// partial votes.
type VoteRecord struct {
	ID         uint         `gorm:"primarykey"`
	StakePool  []byte       `gorm:"uniqueIndex:idx_vote_record_key,priority:1;size:32;not null"`
	ProposalID types.Uint64 `gorm:"uniqueIndex:idx_vote_record_key,priority:2;not null"`
	Kind       uint8        `gorm:"not null"`
	Power      types.Uint64 `gorm:"not null"`
}

// TableName returns the table name
func (VoteRecord) TableName() string {
	return "vote_record"
}

// IsFullyVoted reports whether the record is a legacy full vote
func (v *VoteRecord) IsFullyVoted() bool {
	return v.Kind == VoteKindFullyVoted
}

// ApprovedHash is the execution hash approved for a succeeded proposal that
// has not been fully resolved yet
type ApprovedHash struct {
	ID         uint         `gorm:"primarykey"`
	ProposalID types.Uint64 `gorm:"uniqueIndex;not null"`
	Hash       []byte       `gorm:"not null"`
}

// TableName returns the table name
func (ApprovedHash) TableName() string {
	return "approved_hash"
}

// Capability records that a signer capability exists for an address
type Capability struct {
	ID      uint   `gorm:"primarykey"`
	Address []byte `gorm:"uniqueIndex;size:32;not null"`
}

// TableName returns the table name
func (Capability) TableName() string {
	return "capability"
}

// GovernanceEvent is an entry in the durable governance event log.
// SequenceNumber is counted separately for each EventType.
type GovernanceEvent struct {
	ID             uint         `gorm:"primarykey"`
	EventType      string       `gorm:"uniqueIndex:idx_governance_event_seq,priority:1;size:64;not null"`
	SequenceNumber types.Uint64 `gorm:"uniqueIndex:idx_governance_event_seq,priority:2;not null"`
	Data           []byte       `gorm:"not null"`
}

// TableName returns the table name
func (GovernanceEvent) TableName() string {
	return "governance_event"
}
