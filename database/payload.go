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
	"errors"
	"fmt"

	"github.com/blinklabs-io/stakegov/database/types"
)

// ErrPayloadNotFound is returned when no execution payload is stored for a hash
var ErrPayloadNotFound = errors.New("execution payload not found")

// SetPayload stores an execution payload under its hash
func (d *Database) SetPayload(hash []byte, payload []byte, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.SetPayload(hash, payload, txn)
		})
	}
	if txn.Blob() == nil {
		return types.ErrBlobStoreUnavailable
	}
	if err := d.blob.Set(txn.Blob(), types.PayloadBlobKey(hash), payload); err != nil {
		return fmt.Errorf("failed to store execution payload: %w", err)
	}
	return nil
}

// GetPayload returns the execution payload stored under the hash
func (d *Database) GetPayload(hash []byte, txn *Txn) ([]byte, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	if txn.Blob() == nil {
		return nil, types.ErrBlobStoreUnavailable
	}
	payload, err := d.blob.Get(txn.Blob(), types.PayloadBlobKey(hash))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, ErrPayloadNotFound
		}
		return nil, fmt.Errorf("failed to get execution payload: %w", err)
	}
	return payload, nil
}

// DeletePayload removes the execution payload stored under the hash
func (d *Database) DeletePayload(hash []byte, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.DeletePayload(hash, txn)
		})
	}
	if txn.Blob() == nil {
		return types.ErrBlobStoreUnavailable
	}
	if err := d.blob.Delete(txn.Blob(), types.PayloadBlobKey(hash)); err != nil {
		return fmt.Errorf("failed to delete execution payload: %w", err)
	}
	return nil
}
