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

// SetCredential indexes an issued credential within txn
func (d *Database) SetCredential(cred *models.Credential, txn *Txn) error {
	if txn == nil || txn.Metadata() == nil {
		return types.ErrNilTxn
	}
	return d.Metadata().SetCredential(cred, txn.Metadata())
}

// GetCredentialByOwner returns the credential held by owner
func (d *Database) GetCredentialByOwner(
	owner []byte,
	txn *Txn,
) (*models.Credential, error) {
	if txn == nil {
		return d.Metadata().GetCredentialByOwner(owner, nil)
	}
	return d.Metadata().GetCredentialByOwner(owner, txn.Metadata())
}

// GetCredentials returns a page of indexed credentials
func (d *Database) GetCredentials(
	limit int,
	offset int,
	txn *Txn,
) ([]models.Credential, error) {
	if txn == nil {
		return d.Metadata().GetCredentials(limit, offset, nil)
	}
	return d.Metadata().GetCredentials(limit, offset, txn.Metadata())
}

// CountCredentials returns the number of indexed credentials
func (d *Database) CountCredentials(txn *Txn) (int64, error) {
	if txn == nil {
		return d.Metadata().CountCredentials(nil)
	}
	return d.Metadata().CountCredentials(txn.Metadata())
}
