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
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/devrupt/soulbound/database/models"
	"github.com/devrupt/soulbound/database/types"
)

// SetCredential indexes a newly issued credential
func (d *MetadataStoreSqlite) SetCredential(
	cred *models.Credential,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(cred); result.Error != nil {
		if isUniqueViolation(result.Error) {
			return fmt.Errorf("%w: %w", models.ErrCredentialExists, result.Error)
		}
		return result.Error
	}
	return nil
}

// GetCredentialByOwner returns the credential held by owner
func (d *MetadataStoreSqlite) GetCredentialByOwner(
	owner []byte,
	txn types.Txn,
) (*models.Credential, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Credential{}
	result := db.Where("owner = ?", owner).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrCredentialNotFound
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetCredentials returns a page of credentials in issuance order
func (d *MetadataStoreSqlite) GetCredentials(
	limit int,
	offset int,
	txn types.Txn,
) ([]models.Credential, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Credential
	result := db.Order("id ASC").Limit(limit).Offset(offset).Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CountCredentials returns the number of indexed credentials
func (d *MetadataStoreSqlite) CountCredentials(txn types.Txn) (int64, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	if result := db.Model(&models.Credential{}).Count(&count); result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
