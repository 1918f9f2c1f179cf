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

package ledger

import (
	"bytes"
	"slices"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// lockTable hands out per-address mutexes. Entries are reference counted
// and dropped once nobody holds or waits on them.
type lockTable struct {
	locks map[solana.PublicKey]*addrLock
	mu    sync.Mutex
}

type addrLock struct {
	mu   sync.Mutex
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{
		locks: make(map[solana.PublicKey]*addrLock),
	}
}

// Lock acquires the locks for all keys in sorted order and returns a func
// that releases them
func (l *lockTable) Lock(keys []solana.PublicKey) func() {
	sorted := slices.Clone(keys)
	slices.SortFunc(sorted, func(a, b solana.PublicKey) int {
		return bytes.Compare(a[:], b[:])
	})
	sorted = slices.Compact(sorted)
	held := make([]*addrLock, 0, len(sorted))
	for _, key := range sorted {
		l.mu.Lock()
		lock, ok := l.locks[key]
		if !ok {
			lock = &addrLock{}
			l.locks[key] = lock
		}
		lock.refs++
		l.mu.Unlock()
		lock.mu.Lock()
		held = append(held, lock)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			l.mu.Lock()
			held[i].refs--
			if held[i].refs == 0 {
				delete(l.locks, sorted[i])
			}
			l.mu.Unlock()
		}
	}
}

func (l *lockTable) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
