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

package bolt

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/stakegov/database/types"
	"go.etcd.io/bbolt"
)

const (
	dbFileName = "blob.bolt"
	bucketName = "blob"
)

var (
	ErrDataDirRequired = errors.New("bolt blob store requires a data dir")
	errForeignTxn      = errors.New("transaction from different store")
)

// boltTxn wraps a bbolt transaction and implements types.Txn
type boltTxn struct {
	store    *BlobStoreBolt
	tx       *bbolt.Tx
	err      error
	finished bool
}

func (t *boltTxn) Commit() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if t.tx == nil {
		return nil
	}
	// Read-only transactions can only be rolled back
	if !t.tx.Writable() {
		return t.tx.Rollback()
	}
	return t.tx.Commit()
}

func (t *boltTxn) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if t.tx == nil {
		return nil
	}
	return t.tx.Rollback()
}

// BlobStoreBolt stores execution payloads in a single bbolt file
type BlobStoreBolt struct {
	db          *bbolt.DB
	logger      *slog.Logger
	dataDir     string
	openTimeout time.Duration
}

// New creates a new database
func New(opts ...BlobStoreBoltOptionFunc) (*BlobStoreBolt, error) {
	d := &BlobStoreBolt{
		openTimeout: DefaultOpenTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		// Create logger to throw away logs
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if d.dataDir == "" {
		return nil, ErrDataDirRequired
	}
	// Make sure that we can read data dir, and create if it doesn't exist
	if _, err := os.Stat(d.dataDir); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read data dir: %w", err)
		}
		if err := os.MkdirAll(d.dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
	}
	dbPath := filepath.Join(d.dataDir, dbFileName)
	db, err := bbolt.Open(
		dbPath,
		0o600,
		&bbolt.Options{Timeout: d.openTimeout},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}
	// Ensure the bucket exists
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	d.db = db
	d.logger.Debug(
		"opened bolt blob store",
		"component", "database",
		"path", dbPath,
	)
	return d, nil
}

// Start implements the plugin.Plugin interface
func (d *BlobStoreBolt) Start() error {
	return nil
}

// Stop implements the plugin.Plugin interface
func (d *BlobStoreBolt) Stop() error {
	return d.Close()
}

// Close closes the database
func (d *BlobStoreBolt) Close() error {
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

// NewTransaction begins a new bbolt transaction. Only one read-write
// transaction may be open at a time.
func (d *BlobStoreBolt) NewTransaction(update bool) types.Txn {
	if d.db == nil {
		return &boltTxn{store: d, err: types.ErrBlobStoreUnavailable}
	}
	tx, err := d.db.Begin(update)
	if err != nil {
		return &boltTxn{store: d, err: err}
	}
	return &boltTxn{store: d, tx: tx}
}

func (d *BlobStoreBolt) bucket(txn types.Txn) (*bbolt.Bucket, error) {
	if txn == nil {
		return nil, types.ErrNilTxn
	}
	tmpTxn, ok := txn.(*boltTxn)
	if !ok {
		return nil, types.ErrTxnWrongType
	}
	if tmpTxn.store != d {
		return nil, errForeignTxn
	}
	if tmpTxn.err != nil {
		return nil, tmpTxn.err
	}
	if tmpTxn.finished {
		return nil, types.ErrTxnClosed
	}
	b := tmpTxn.tx.Bucket([]byte(bucketName))
	if b == nil {
		return nil, fmt.Errorf("bucket %s not found", bucketName)
	}
	return b, nil
}

// Get retrieves a value within a transaction
func (d *BlobStoreBolt) Get(txn types.Txn, key []byte) ([]byte, error) {
	b, err := d.bucket(txn)
	if err != nil {
		return nil, err
	}
	val := b.Get(key)
	if val == nil {
		return nil, types.ErrBlobKeyNotFound
	}
	// Values are only valid for the life of the transaction
	ret := make([]byte, len(val))
	copy(ret, val)
	return ret, nil
}

// Set stores a key-value pair within a transaction
func (d *BlobStoreBolt) Set(txn types.Txn, key, val []byte) error {
	b, err := d.bucket(txn)
	if err != nil {
		return err
	}
	return b.Put(key, val)
}

// Delete removes a key within a transaction
func (d *BlobStoreBolt) Delete(txn types.Txn, key []byte) error {
	b, err := d.bucket(txn)
	if err != nil {
		return err
	}
	return b.Delete(key)
}
