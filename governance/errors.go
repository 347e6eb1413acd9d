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
	"errors"
	"fmt"
)

// Error classes. Every error returned by this package for a rejected
// operation matches exactly one of these with errors.Is.
var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInsufficientResource = errors.New("insufficient resource")
	ErrStateConflict        = errors.New("state conflict")
	ErrInvalidInput         = errors.New("invalid input")
	ErrConfiguration        = errors.New("configuration error")
)

var (
	ErrNotDelegatedVoter = fmt.Errorf(
		"%w: account is not the delegated voter of the stake pool",
		ErrUnauthorized,
	)
	ErrUnauthorizedSigner = fmt.Errorf(
		"%w: no signer capability for address",
		ErrUnauthorized,
	)
	ErrNotReservedAddress = fmt.Errorf(
		"%w: address is not a framework reserved address",
		ErrUnauthorized,
	)
	ErrInsufficientProposerStake = fmt.Errorf(
		"%w: proposer stake below required amount",
		ErrInsufficientResource,
	)
	ErrInsufficientLockup = fmt.Errorf(
		"%w: stake pool lockup too short",
		ErrInsufficientResource,
	)
	ErrNoVotingPower = fmt.Errorf(
		"%w: no voting power remaining",
		ErrInsufficientResource,
	)
	ErrAlreadyVoted = fmt.Errorf(
		"%w: stake pool already voted on proposal",
		ErrStateConflict,
	)
	ErrProposalNotResolvable = fmt.Errorf(
		"%w: proposal has not succeeded",
		ErrStateConflict,
	)
	ErrProposalNotResolved = fmt.Errorf(
		"%w: proposal is not resolved",
		ErrStateConflict,
	)
	ErrAlreadyInitialized = fmt.Errorf(
		"%w: governance already initialized",
		ErrStateConflict,
	)
	ErrNoApprovedHash = fmt.Errorf(
		"%w: proposal has no approved execution hash",
		ErrStateConflict,
	)
	ErrMetadataTooLong = fmt.Errorf(
		"%w: metadata exceeds maximum length",
		ErrInvalidInput,
	)
	ErrPayloadHashMismatch = fmt.Errorf(
		"%w: execution payload does not match approved hash",
		ErrInvalidInput,
	)
	ErrInvalidParams = fmt.Errorf(
		"%w: invalid governance parameters",
		ErrInvalidInput,
	)
	ErrNotInitialized = fmt.Errorf(
		"%w: governance not initialized",
		ErrConfiguration,
	)
	ErrPartialVotingNotInitialized = fmt.Errorf(
		"%w: partial voting enabled but its ledger is not initialized",
		ErrConfiguration,
	)
	ErrVotingPowerOverflow = fmt.Errorf(
		"%w: voting power overflows 64 bits",
		ErrConfiguration,
	)
	ErrCollaboratorMissing = fmt.Errorf(
		"%w: required collaborator not provided",
		ErrConfiguration,
	)
)
