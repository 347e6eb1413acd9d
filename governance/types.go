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
	"math"

	sdkmath "cosmossdk.io/math"
)

const (
	// MaxMetadataLength is the maximum length in bytes of the proposal
	// metadata location and hash
	MaxMetadataLength = 256

	// FullVotingPower requests all of a stake pool's remaining power
	FullVotingPower uint64 = math.MaxUint64

	MetadataLocationKey = "metadata_location"
	MetadataHashKey     = "metadata_hash"
)

// ProposalKind names a kind of proposal registered with the tally ledger
type ProposalKind string

// FrameworkProposalKind is the kind of every proposal created here
const FrameworkProposalKind ProposalKind = "governance_proposal"

// ProposalState is the voting outcome of a proposal as reported by the tally
// ledger
type ProposalState uint8

const (
	ProposalStatePending ProposalState = iota
	ProposalStateSucceeded
	ProposalStateFailed
)

func (s ProposalState) String() string {
	switch s {
	case ProposalStatePending:
		return "pending"
	case ProposalStateSucceeded:
		return "succeeded"
	case ProposalStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RecordKey identifies the votes of one stake pool on one proposal
type RecordKey struct {
	StakePool  Address
	ProposalID uint64
}

// VoteKind selects which vote ledger a record belongs to
type VoteKind uint8

const (
	// VoteKindFullyVoted is a legacy vote that spent all of the pool's power
	VoteKindFullyVoted VoteKind = iota
	// VoteKindPartiallySpent tracks the cumulative power spent by partial votes
	VoteKindPartiallySpent
)

// VoteRecord is the ledger entry for a RecordKey
type VoteRecord struct {
	Key   RecordKey
	Kind  VoteKind
	Power uint64
}

// StakeBreakdown holds the raw stake balances of a stake pool
type StakeBreakdown struct {
	Active          uint64
	PendingActive   uint64
	PendingInactive uint64
}

// Params are the governance parameters held by the config store
type Params struct {
	MinVotingThreshold    sdkmath.Uint
	RequiredProposerStake uint64
	VotingDurationSecs    uint64
}

// Features are the feature switches consulted by governance operations
type Features struct {
	PartialVoting bool
	ModuleEvents  bool
}

// ProposalParams describes a proposal to be created in the tally ledger
type ProposalParams struct {
	Proposer         Address
	Owner            Address
	Kind             ProposalKind
	ExecutionHash    []byte
	MinVoteThreshold sdkmath.Uint
	// ExpirationSecs is the unix time in seconds when voting ends
	ExpirationSecs uint64
	// EarlyResolutionThreshold is nil when total supply is not tracked
	EarlyResolutionThreshold *sdkmath.Uint
	Metadata                 map[string][]byte
	IsMultiStep              bool
}

// VoteOutcome is the result of voting with one stake pool in a batch
type VoteOutcome struct {
	StakePool Address
	NumVotes  uint64
	Err       error
}
