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

package metadata

import (
	"fmt"

	"github.com/blinklabs-io/stakegov/database/models"
	"github.com/blinklabs-io/stakegov/database/plugin"
	_ "github.com/blinklabs-io/stakegov/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/stakegov/database/types"
	"gorm.io/gorm"
)

type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	Transaction() types.Txn

	// Governance config
	GetGovernanceConfig(types.Txn) (*models.GovernanceConfig, error)
	SetGovernanceConfig(*models.GovernanceConfig, types.Txn) error
	GetFeatureState(types.Txn) (*models.FeatureState, error)
	SetFeatureState(*models.FeatureState, types.Txn) error

	// Vote ledger
	GetVoteRecord(
		[]byte, // stakePool
		uint64, // proposalID
		types.Txn,
	) (*models.VoteRecord, error)
	GetVoteRecords(
		uint64, // proposalID
		types.Txn,
	) ([]models.VoteRecord, error)
	SetVoteRecord(*models.VoteRecord, types.Txn) error

	// Approved hashes
	GetApprovedHash(
		uint64, // proposalID
		types.Txn,
	) (*models.ApprovedHash, error)
	GetApprovedHashByHash(
		[]byte, // hash
		types.Txn,
	) (*models.ApprovedHash, error)
	GetApprovedHashes(types.Txn) ([]models.ApprovedHash, error)
	SetApprovedHash(*models.ApprovedHash, types.Txn) error
	DeleteApprovedHash(
		uint64, // proposalID
		types.Txn,
	) error

	// Capabilities
	GetCapability(
		[]byte, // address
		types.Txn,
	) (*models.Capability, error)
	GetCapabilities(types.Txn) ([]models.Capability, error)
	SetCapability(
		[]byte, // address
		types.Txn,
	) error

	// Event log
	AddGovernanceEvent(
		string, // eventType
		[]byte, // data
		types.Txn,
	) (uint64, error)
	GetGovernanceEvents(
		string, // eventType
		types.Txn,
	) ([]models.GovernanceEvent, error)
}

// New returns the started metadata plugin selected by name
func New(pluginName string, deps plugin.PluginDeps) (MetadataStore, error) {
	p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, pluginName, deps)
	if err != nil {
		return nil, err
	}
	metadataStore, ok := p.(MetadataStore)
	if !ok {
		_ = p.Stop()
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}
	return metadataStore, nil
}
