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

package sqlite

import (
	"sync"

	"github.com/blinklabs-io/stakegov/database/types"
	"gorm.io/gorm"
)

// sqliteTxn wraps a gorm transaction
type sqliteTxn struct {
	db       *gorm.DB
	lock     sync.Mutex
	finished bool
}

func (t *sqliteTxn) Commit() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return types.ErrTxnClosed
	}
	t.finished = true
	return t.db.Commit().Error
}

func (t *sqliteTxn) Rollback() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return nil
	}
	t.finished = true
	return t.db.Rollback().Error
}

// SavePoint marks a point the transaction can later be rolled back to
func (t *sqliteTxn) SavePoint(name string) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return types.ErrTxnClosed
	}
	return t.db.SavePoint(name).Error
}

// RollbackTo undoes everything done since the named savepoint, leaving the
// transaction open
func (t *sqliteTxn) RollbackTo(name string) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return types.ErrTxnClosed
	}
	return t.db.RollbackTo(name).Error
}
