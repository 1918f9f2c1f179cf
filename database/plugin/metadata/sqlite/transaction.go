// Copyright 2025 Blink Labs Software
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
	"errors"

	"gorm.io/gorm"

	"github.com/devrupt/soulbound/database/models"
	"github.com/devrupt/soulbound/database/types"
)

// SetTransaction records a committed ledger transaction
func (d *MetadataStoreSqlite) SetTransaction(
	tx *models.Transaction,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(tx).Error
}

// GetTransactionBySignature returns the transaction record for a signature
func (d *MetadataStoreSqlite) GetTransactionBySignature(
	signature []byte,
	txn types.Txn,
) (*models.Transaction, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Transaction{}
	result := db.Where("signature = ?", signature).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrTransactionNotFound
		}
		return nil, result.Error
	}
	return ret, nil
}
