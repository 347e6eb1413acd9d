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
	"sync"

	"github.com/blinklabs-io/stakegov/database/types"
)

// ErrSavepointUnsupported is returned when the metadata transaction can't
// create savepoints
var ErrSavepointUnsupported = errors.New(
	"metadata transaction does not support savepoints",
)

// ErrMetadataTxnUnavailable is returned when the metadata store is configured
// but could not start a transaction
var ErrMetadataTxnUnavailable = errors.New(
	"metadata transaction unavailable",
)

// Txn spans one metadata transaction and, optionally, one blob transaction.
// Governance state lives in the metadata store and execution payloads in the
// blob store, so a payload and the records referring to it commit together.
type Txn struct {
	db          *Database
	blobTxn     types.Txn
	metadataTxn types.Txn
	lock        sync.Mutex
	finished    bool
	readWrite   bool
	// err is set when the metadata store could not start a transaction
	err error
}

func newTxn(db *Database, readWrite bool, withBlob bool) *Txn {
	t := &Txn{db: db, readWrite: readWrite}
	if bs := db.Blob(); withBlob && bs != nil {
		t.blobTxn = bs.NewTransaction(readWrite)
	}
	ms := db.Metadata()
	if ms == nil {
		return t
	}
	t.metadataTxn = ms.Transaction()
	if t.metadataTxn == nil {
		t.err = ErrMetadataTxnUnavailable
		db.logger.Error(
			"failed to start metadata transaction",
			"component", "database",
			"read_write", readWrite,
		)
	}
	return t
}

// NewTxn starts a transaction covering both stores
func NewTxn(db *Database, readWrite bool) *Txn {
	return newTxn(db, readWrite, true)
}

// NewMetadataOnlyTxn starts a transaction covering the metadata store only.
// Its Blob handle is nil.
func NewMetadataOnlyTxn(db *Database, readWrite bool) *Txn {
	return newTxn(db, readWrite, false)
}

func (t *Txn) DB() *Database {
	return t.db
}

// Metadata returns the underlying metadata transaction handle
func (t *Txn) Metadata() types.Txn {
	return t.metadataTxn
}

// Err returns the error that prevented the transaction from starting, if any
func (t *Txn) Err() error {
	return t.err
}

// metadataHandle returns the metadata transaction handle. It fails rather
// than returning nil when the store is configured, since store calls with a
// nil handle run outside any transaction.
func (t *Txn) metadataHandle() (types.Txn, error) {
	if t.err != nil {
		return nil, t.err
	}
	if t.metadataTxn == nil && t.db.Metadata() != nil {
		return nil, ErrMetadataTxnUnavailable
	}
	return t.metadataTxn, nil
}

// Blob returns the blob transaction handle
func (t *Txn) Blob() types.Txn {
	return t.blobTxn
}

// ReadWrite reports whether the transaction was opened for writing
func (t *Txn) ReadWrite() bool {
	return t.readWrite
}

// Do runs fn in the transaction. The transaction is committed if fn returns
// nil and rolled back otherwise. fn is not run when the transaction failed to
// start.
func (t *Txn) Do(fn func(*Txn) error) error {
	if t.err != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			return errors.Join(t.err, rbErr)
		}
		return t.err
	}
	err := fn(t)
	if err == nil {
		if err := t.Commit(); err != nil {
			return fmt.Errorf("commit failed: %w", err)
		}
		return nil
	}
	if rbErr := t.Rollback(); rbErr != nil {
		return fmt.Errorf(
			"rollback failed: %w: original error: %w",
			rbErr,
			err,
		)
	}
	return err
}

// savepointTxn returns the metadata transaction as a types.SavepointTxn. The
// caller must hold t.lock.
func (t *Txn) savepointTxn() (types.SavepointTxn, error) {
	if t.finished {
		return nil, types.ErrTxnClosed
	}
	spTxn, ok := t.metadataTxn.(types.SavepointTxn)
	if !ok {
		return nil, ErrSavepointUnsupported
	}
	return spTxn, nil
}

// SavePoint marks a point in the metadata transaction that RollbackTo can
// return to. Blob writes are not covered by savepoints.
func (t *Txn) SavePoint(name string) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	spTxn, err := t.savepointTxn()
	if err != nil {
		return err
	}
	return spTxn.SavePoint(name)
}

// RollbackTo undoes metadata changes made since the named savepoint. The
// transaction stays open.
func (t *Txn) RollbackTo(name string) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	spTxn, err := t.savepointTxn()
	if err != nil {
		return err
	}
	return spTxn.RollbackTo(name)
}

// Commit commits the blob transaction and then the metadata transaction. A
// blob failure rolls back the metadata. Committing a read-only or finished
// transaction only releases it.
func (t *Txn) Commit() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return nil
	}
	if !t.readWrite {
		return t.rollback()
	}
	if t.err != nil {
		return errors.Join(t.err, t.rollback())
	}
	defer func() {
		t.finished = true
	}()
	if t.blobTxn == nil && t.metadataTxn == nil {
		return types.ErrNoStoreAvailable
	}
	if t.blobTxn != nil {
		if err := t.blobTxn.Commit(); err != nil {
			if t.metadataTxn != nil {
				_ = t.metadataTxn.Rollback()
			}
			return fmt.Errorf("blob commit failed: %w", err)
		}
	}
	if t.metadataTxn == nil {
		return nil
	}
	if err := t.metadataTxn.Commit(); err != nil {
		// The committed payload blob stays behind unreferenced
		t.db.logger.Error(
			"partial commit: blob committed, metadata failed",
			"component", "database",
			"error", err,
		)
		_ = t.metadataTxn.Rollback()
		return fmt.Errorf(
			"partial commit: metadata commit failed after blob commit: %w",
			err,
		)
	}
	return nil
}

func (t *Txn) Rollback() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.rollback()
}

func (t *Txn) rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	var err error
	if t.blobTxn != nil {
		if rbErr := t.blobTxn.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("blob rollback: %w", rbErr))
		}
	}
	if t.metadataTxn != nil {
		if rbErr := t.metadataTxn.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("metadata rollback: %w", rbErr))
		}
	}
	return err
}

// Release discards the transaction, logging rather than returning any error.
// It is meant for defer after a read-only transaction.
func (t *Txn) Release() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug(
			"transaction release failed",
			"component", "database",
			"error", err,
			"read_write", t.readWrite,
		)
	}
}
