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

package database_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/blinklabs-io/stakegov/database"
	"github.com/blinklabs-io/stakegov/database/models"
	"github.com/blinklabs-io/stakegov/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dbConfig = &database.Config{
	Logger:       nil,
	PromRegistry: nil,
	DataDir:      "",
}

func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(dbConfig)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close() //nolint:errcheck
	})
	return db
}

func TestGovernanceConfigNotFound(t *testing.T) {
	db := newTestDatabase(t)
	_, err := db.GetGovernanceConfig(nil)
	require.ErrorIs(t, err, models.ErrGovernanceConfigNotFound)
	_, err = db.GetFeatureState(nil)
	require.ErrorIs(t, err, models.ErrFeatureStateNotFound)
}

func TestOwnedTxnCommits(t *testing.T) {
	db := newTestDatabase(t)
	require.NoError(t, db.SetGovernanceConfig(&models.GovernanceConfig{
		MinVotingThreshold:    types.Uint128FromUint64(10),
		RequiredProposerStake: 100,
		VotingDurationSecs:    60,
	}, nil))
	cfg, err := db.GetGovernanceConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, types.Uint64(60), cfg.VotingDurationSecs)
}

func TestTxnDoRollsBackOnError(t *testing.T) {
	db := newTestDatabase(t)
	errTest := errors.New("test failure")
	pool := bytes.Repeat([]byte{0x01}, 32)
	err := db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := db.SetVoteRecord(&models.VoteRecord{
			StakePool:  pool,
			ProposalID: 1,
			Kind:       models.VoteKindFullyVoted,
			Power:      5,
		}, txn); err != nil {
			return err
		}
		if err := db.SetPayload([]byte("hash"), []byte("payload"), txn); err != nil {
			return err
		}
		return errTest
	})
	require.ErrorIs(t, err, errTest)

	record, err := db.GetVoteRecord(pool, 1, nil)
	require.NoError(t, err)
	assert.Nil(t, record)
	_, err = db.GetPayload([]byte("hash"), nil)
	require.ErrorIs(t, err, database.ErrPayloadNotFound)
}

func TestSavePointRollback(t *testing.T) {
	db := newTestDatabase(t)
	txn := db.Transaction(true)
	require.NoError(t, db.SetApprovedHash(1, []byte("one"), txn))
	require.NoError(t, txn.SavePoint("pool_1"))
	require.NoError(t, db.SetApprovedHash(2, []byte("two"), txn))
	require.NoError(t, txn.RollbackTo("pool_1"))
	require.NoError(t, txn.Commit())

	// Savepoints can't be used after the transaction finishes
	require.ErrorIs(t, txn.SavePoint("late"), types.ErrTxnClosed)

	hashes, err := db.GetApprovedHashes(nil)
	require.NoError(t, err)
	require.Len(t, hashes, 1)
	assert.Equal(t, types.Uint64(1), hashes[0].ProposalID)
}

func TestPayloadRoundTrip(t *testing.T) {
	db := newTestDatabase(t)
	payload := []byte("execute this")
	hash := types.PayloadHash(payload)
	require.NoError(t, db.SetPayload(hash, payload, nil))
	got, err := db.GetPayload(hash, nil)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	require.NoError(t, db.DeletePayload(hash, nil))
	_, err = db.GetPayload(hash, nil)
	require.ErrorIs(t, err, database.ErrPayloadNotFound)
}

func TestCapabilitiesAndEvents(t *testing.T) {
	db := newTestDatabase(t)
	addr := make([]byte, 32)
	addr[31] = 0x01
	ok, err := db.HasCapability(addr, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, db.SetCapability(addr, nil))
	ok, err = db.HasCapability(addr, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	seq, err := db.AddGovernanceEvent("vote", []byte(`{}`), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), seq)
	events, err := db.GetGovernanceEvents("", nil)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestBoltBlobPlugin(t *testing.T) {
	db, err := database.New(&database.Config{
		DataDir:    t.TempDir(),
		BlobPlugin: "bolt",
	})
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck
	payload := []byte("bolt payload")
	hash := types.PayloadHash(payload)
	require.NoError(t, db.SetPayload(hash, payload, nil))
	got, err := db.GetPayload(hash, nil)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestUnknownPlugin(t *testing.T) {
	_, err := database.New(&database.Config{BlobPlugin: "does-not-exist"})
	require.Error(t, err)
}
