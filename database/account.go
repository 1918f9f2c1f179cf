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
	"errors"
	"fmt"

	"github.com/devrupt/soulbound/database/types"
)

var ErrAccountNotFound = errors.New("account not found")

// GetAccount returns the raw stored value for the account at address
func (d *Database) GetAccount(address []byte, txn *Txn) ([]byte, error) {
	if txn == nil {
		txn = NewBlobOnlyTxn(d, false)
		defer txn.Release()
	}
	val, err := d.Blob().Get(txn.Blob(), types.AccountBlobKey(address))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return val, nil
}

// SetAccount stores the raw value for the account at address
func (d *Database) SetAccount(address []byte, val []byte, txn *Txn) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	if err := d.Blob().Set(txn.Blob(), types.AccountBlobKey(address), val); err != nil {
		return fmt.Errorf("set account: %w", err)
	}
	return nil
}

// DeleteAccount removes the account at address
func (d *Database) DeleteAccount(address []byte, txn *Txn) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	if err := d.Blob().Delete(txn.Blob(), types.AccountBlobKey(address)); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// AccountExists reports whether an account is stored at address
func (d *Database) AccountExists(address []byte, txn *Txn) (bool, error) {
	_, err := d.GetAccount(address, txn)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ForEachAccount calls fn with the address and raw value of every stored
// account, stopping at the first error
func (d *Database) ForEachAccount(
	txn *Txn,
	fn func(address []byte, val []byte) error,
) error {
	if txn == nil {
		txn = NewBlobOnlyTxn(d, false)
		defer txn.Release()
	}
	prefix := []byte(types.AccountBlobKeyPrefix)
	iter := d.Blob().NewIterator(
		txn.Blob(),
		types.BlobIteratorOptions{Prefix: prefix},
	)
	defer iter.Close()
	for iter.Rewind(); iter.ValidForPrefix(prefix); iter.Next() {
		item := iter.Item()
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := fn(item.Key()[len(prefix):], val); err != nil {
			return err
		}
	}
	return iter.Err()
}

// IsSignatureProcessed reports whether a transaction with this signature was committed
func (d *Database) IsSignatureProcessed(signature []byte, txn *Txn) (bool, error) {
	if txn == nil {
		txn = NewBlobOnlyTxn(d, false)
		defer txn.Release()
	}
	_, err := d.Blob().Get(txn.Blob(), types.SignatureBlobKey(signature))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SetSignatureProcessed marks a transaction signature as committed
func (d *Database) SetSignatureProcessed(signature []byte, txn *Txn) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	return d.Blob().Set(txn.Blob(), types.SignatureBlobKey(signature), []byte{1})
}
