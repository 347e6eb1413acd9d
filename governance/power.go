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
	"math/bits"

	"github.com/blinklabs-io/stakegov/database"
)

// VotingPower returns the voting power of a stake pool. It is computed from
// the current stake on every call.
func (g *Governance) VotingPower(txn *database.Txn, pool Address) (uint64, error) {
	g.RLock()
	defer g.RUnlock()
	var ret uint64
	err := g.view(txn, func(txn *database.Txn) error {
		var err error
		ret, err = g.votingPower(txn, pool)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("get voting power: %w", err)
	}
	return ret, nil
}

// votingPower counts pending active stake only while the validator set may
// change. Otherwise only current validators have power.
func (g *Governance) votingPower(txn *database.Txn, pool Address) (uint64, error) {
	allowChange, err := g.config.Stake.AllowValidatorSetChange(txn)
	if err != nil {
		return 0, err
	}
	stake, err := g.config.Stake.StakeBreakdown(txn, pool)
	if err != nil {
		return 0, err
	}
	if allowChange {
		return addStake(stake.Active, stake.PendingActive, stake.PendingInactive)
	}
	isValidator, err := g.config.Stake.IsCurrentEpochValidator(txn, pool)
	if err != nil {
		return 0, err
	}
	if !isValidator {
		return 0, nil
	}
	return addStake(stake.Active, stake.PendingInactive)
}

func addStake(amounts ...uint64) (uint64, error) {
	var total, carry uint64
	for _, amount := range amounts {
		total, carry = bits.Add64(total, amount, 0)
		if carry != 0 {
			return 0, ErrVotingPowerOverflow
		}
	}
	return total, nil
}
