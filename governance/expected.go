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
	sdkmath "cosmossdk.io/math"

	"github.com/blinklabs-io/stakegov/database"
)

// Every collaborator method receives the active transaction so that
// implementations backed by the same database can join it.

// TallyLedger stores proposals and their yes/no tallies
type TallyLedger interface {
	RegisterKind(txn *database.Txn, owner Address, kind ProposalKind) error
	CreateProposal(txn *database.Txn, params ProposalParams) (uint64, error)
	Vote(
		txn *database.Txn,
		proposalID uint64,
		numVotes uint64,
		shouldPass bool,
	) error
	ProposalState(txn *database.Txn, proposalID uint64) (ProposalState, error)
	// ProposalExpiration returns the unix time in seconds when voting ends
	ProposalExpiration(txn *database.Txn, proposalID uint64) (uint64, error)
	ExecutionHash(txn *database.Txn, proposalID uint64) ([]byte, error)
	IsResolved(txn *database.Txn, proposalID uint64) (bool, error)
	Resolve(txn *database.Txn, proposalID uint64) error
	// ResolveMultiStep resolves the current step and installs nextHash as
	// the proposal's execution hash
	ResolveMultiStep(
		txn *database.Txn,
		proposalID uint64,
		nextHash []byte,
	) error
}

// StakeProvider exposes stake pool balances and validator set membership
type StakeProvider interface {
	DelegatedVoter(txn *database.Txn, pool Address) (Address, error)
	// LockupExpiry returns the unix time in seconds until which the pool's
	// stake is locked
	LockupExpiry(txn *database.Txn, pool Address) (uint64, error)
	StakeBreakdown(txn *database.Txn, pool Address) (StakeBreakdown, error)
	IsCurrentEpochValidator(txn *database.Txn, pool Address) (bool, error)
	AllowValidatorSetChange(txn *database.Txn) (bool, error)
}

// SupplyProvider exposes the total token supply. The bool result is false
// when the supply is not tracked.
type SupplyProvider interface {
	TotalSupply(txn *database.Txn) (sdkmath.Uint, bool, error)
}
