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

package database

import (
	"github.com/devrupt/soulbound/database/models"
	"github.com/devrupt/soulbound/database/types"
)

// SetTransaction records a committed ledger transaction within txn
func (d *Database) SetTransaction(tx *models.Transaction, txn *Txn) error {
	if txn == nil || txn.Metadata() == nil {
		return types.ErrNilTxn
	}
	return d.Metadata().SetTransaction(tx, txn.Metadata())
}

// GetTransactionBySignature returns the record of a committed transaction
func (d *Database) GetTransactionBySignature(
	signature []byte,
	txn *Txn,
) (*models.Transaction, error) {
	if txn == nil {
		return d.Metadata().GetTransactionBySignature(signature, nil)
	}
	return d.Metadata().GetTransactionBySignature(signature, txn.Metadata())
}
