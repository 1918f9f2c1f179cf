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

package models

import (
	"errors"
	"time"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// Transaction records a ledger transaction that was committed
type Transaction struct {
	ProcessedAt  time.Time
	Logs         string
	Signature    []byte `gorm:"uniqueIndex;size:64"`
	FeePayer     []byte `gorm:"index;size:32"`
	ID           uint   `gorm:"primarykey"`
	Instructions uint32
}

func (Transaction) TableName() string {
	return "transaction"
}
