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

	"github.com/blinklabs-io/stakegov/database"
	"github.com/blinklabs-io/stakegov/database/models"
)

// SignerCapability authorizes its holder to act with the authority of an
// address. It can only be obtained from the Governance that issued it.
type SignerCapability struct {
	address Address
	issuer  *Governance
}

func (g *Governance) newSignerCapability(addr Address) *SignerCapability {
	return &SignerCapability{address: addr, issuer: g}
}

// Address returns the address the capability acts for
func (c *SignerCapability) Address() Address {
	return c.address
}

// checkFrameworkCapability verifies that signerCap was issued by g for the
// framework address
func (g *Governance) checkFrameworkCapability(
	signerCap *SignerCapability,
) error {
	if signerCap == nil || signerCap.issuer != g {
		return ErrUnauthorizedSigner
	}
	if signerCap.address != FrameworkAddress {
		return fmt.Errorf("%w: %s", ErrUnauthorizedSigner, signerCap.address)
	}
	return nil
}

// signerCapability returns a capability for a stored address
func (g *Governance) signerCapability(
	txn *database.Txn,
	addr Address,
) (*SignerCapability, error) {
	ok, err := g.db.HasCapability(addr.Bytes(), txn)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorizedSigner, addr)
	}
	return g.newSignerCapability(addr), nil
}

// StoreSignerCapability stores a signer capability for a framework reserved
// address so that proposals can be resolved acting as it. Storing an address
// that already has one is a no-op.
func (g *Governance) StoreSignerCapability(
	txn *database.Txn,
	signerCap *SignerCapability,
	addr Address,
) error {
	g.Lock()
	defer g.Unlock()
	span := g.startSpan("store_signer_capability")
	if err := g.checkFrameworkCapability(signerCap); err != nil {
		return g.finish("store_signer_capability", span, err)
	}
	if !IsReservedAddress(addr) {
		return g.finish(
			"store_signer_capability",
			span,
			fmt.Errorf("%w: %s", ErrNotReservedAddress, addr),
		)
	}
	err := g.update(txn, func(txn *database.Txn) error {
		return g.db.SetCapability(addr.Bytes(), txn)
	})
	if err != nil {
		return g.finish(
			"store_signer_capability",
			span,
			fmt.Errorf("store signer capability: %w", err),
		)
	}
	return g.finish("store_signer_capability", span, nil)
}

// Features returns the current feature switches
func (g *Governance) Features() Features {
	g.RLock()
	defer g.RUnlock()
	return g.features
}

// SetFeatures replaces the feature switches
func (g *Governance) SetFeatures(
	signerCap *SignerCapability,
	features Features,
) error {
	g.Lock()
	defer g.Unlock()
	if err := g.checkFrameworkCapability(signerCap); err != nil {
		return err
	}
	g.features = features
	g.logger.Info(
		"governance features updated",
		"partial_voting", features.PartialVoting,
		"module_events", features.ModuleEvents,
	)
	return nil
}

// InitializePartialVoting creates the partial vote ledger. Calling it again is
// a no-op.
func (g *Governance) InitializePartialVoting(
	txn *database.Txn,
	signerCap *SignerCapability,
) error {
	g.Lock()
	defer g.Unlock()
	if err := g.checkFrameworkCapability(signerCap); err != nil {
		return err
	}
	err := g.update(txn, func(txn *database.Txn) error {
		state, err := g.db.GetFeatureState(txn)
		if err != nil {
			if !errors.Is(err, models.ErrFeatureStateNotFound) {
				return err
			}
			state = &models.FeatureState{}
		}
		if state.PartialVotingInitialized {
			return nil
		}
		state.PartialVotingInitialized = true
		return g.db.SetFeatureState(state, txn)
	})
	if err != nil {
		return fmt.Errorf("initialize partial voting: %w", err)
	}
	return nil
}

// partialVotingInitialized reports whether the partial vote ledger exists
func (g *Governance) partialVotingInitialized(txn *database.Txn) (bool, error) {
	state, err := g.db.GetFeatureState(txn)
	if err != nil {
		if errors.Is(err, models.ErrFeatureStateNotFound) {
			return false, nil
		}
		return false, err
	}
	return state.PartialVotingInitialized, nil
}
