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

package metadata

import (
	"gorm.io/gorm"

	"github.com/devrupt/soulbound/database/models"
	"github.com/devrupt/soulbound/database/types"
)

// MetadataStore indexes issued credentials and committed transactions
type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// Credentials
	SetCredential(*models.Credential, types.Txn) error
	GetCredentialByOwner(
		[]byte, // owner
		types.Txn,
	) (*models.Credential, error)
	GetCredentials(
		int, // limit
		int, // offset
		types.Txn,
	) ([]models.Credential, error)
	CountCredentials(types.Txn) (int64, error)

	// Transactions
	SetTransaction(*models.Transaction, types.Txn) error
	GetTransactionBySignature(
		[]byte, // signature
		types.Txn,
	) (*models.Transaction, error)
}
