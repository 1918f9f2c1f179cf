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
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/devrupt/soulbound/database"
)

// MaxInvokeDepth is the deepest instruction stack allowed, counting the
// top-level instruction
const MaxInvokeDepth = 4

// Program is an on-ledger program. Process is called once per
// instruction addressed to ProgramID.
type Program interface {
	ProgramID() solana.PublicKey
	Process(ic *InvokeContext) error
}

// execState is shared by every frame of a transaction
type execState struct {
	signature   solana.Signature
	logs        []string
	afterCommit []func()
	programs    []solana.PublicKey
}

// InvokeContext is a program's view of the instruction it is executing
type InvokeContext struct {
	ctx         context.Context
	rt          *Runtime
	txn         *database.Txn
	state       *execState
	instruction *Instruction
	signers     map[solana.PublicKey]struct{}
	programID   solana.PublicKey
	depth       int
}

func (ic *InvokeContext) Context() context.Context {
	return ic.ctx
}

// ProgramID returns the id of the executing program
func (ic *InvokeContext) ProgramID() solana.PublicKey {
	return ic.programID
}

// Signature returns the signature identifying the running transaction
func (ic *InvokeContext) Signature() solana.Signature {
	return ic.state.signature
}

// Instruction returns the instruction being executed
func (ic *InvokeContext) Instruction() *Instruction {
	return ic.instruction
}

// Txn returns the database transaction that the whole ledger transaction
// runs in
func (ic *InvokeContext) Txn() *database.Txn {
	return ic.txn
}

// Depth is 1 for a top-level instruction and grows with each nested
// invocation
func (ic *InvokeContext) Depth() int {
	return ic.depth
}

// Log appends a program log line to the transaction receipt
func (ic *InvokeContext) Log(format string, args ...any) {
	ic.state.logs = append(
		ic.state.logs,
		"Program log: "+fmt.Sprintf(format, args...),
	)
}

// AfterCommit registers fn to run once the transaction has committed. It
// does not run if the transaction fails.
func (ic *InvokeContext) AfterCommit(fn func()) {
	ic.state.afterCommit = append(ic.state.afterCommit, fn)
}

// IsSigner reports whether key signed for this instruction, either as a
// transaction signer or as a PDA of the invoking program
func (ic *InvokeContext) IsSigner(key solana.PublicKey) bool {
	meta, ok := ic.instruction.meta(key)
	if !ok || !meta.IsSigner {
		return false
	}
	_, ok = ic.signers[key]
	return ok
}

// IsWritable reports whether the instruction marks key writable
func (ic *InvokeContext) IsWritable(key solana.PublicKey) bool {
	meta, ok := ic.instruction.meta(key)
	return ok && meta.IsWritable
}

// AccountExists reports whether key holds an account
func (ic *InvokeContext) AccountExists(key solana.PublicKey) (bool, error) {
	if _, ok := ic.instruction.meta(key); !ok {
		return false, fmt.Errorf("%w: %s", ErrMissingAccount, key)
	}
	return ic.rt.db.AccountExists(key[:], ic.txn)
}

// LoadAccount reads an account passed to the instruction
func (ic *InvokeContext) LoadAccount(key solana.PublicKey) (*Account, error) {
	if _, ok := ic.instruction.meta(key); !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingAccount, key)
	}
	return ic.rt.loadAccount(key, ic.txn)
}

// StoreAccount writes an account. The account must be writable for this
// instruction, and the executing program must own it. Only the system
// program can create accounts or hand an account to a new owner.
func (ic *InvokeContext) StoreAccount(acct *Account) error {
	meta, ok := ic.instruction.meta(acct.Address)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingAccount, acct.Address)
	}
	if !meta.IsWritable {
		return fmt.Errorf("%w: %s", ErrReadonlyDataModified, acct.Address)
	}
	existing, err := ic.rt.loadAccount(acct.Address, ic.txn)
	switch {
	case errors.Is(err, ErrAccountNotFound):
		if !ic.programID.Equals(solana.SystemProgramID) {
			return fmt.Errorf(
				"%w: only the system program creates accounts",
				ErrIllegalOwner,
			)
		}
	case err != nil:
		return err
	default:
		if !existing.Owner.Equals(ic.programID) {
			return fmt.Errorf(
				"%w: %s is owned by %s",
				ErrIllegalOwner,
				acct.Address,
				existing.Owner,
			)
		}
		if !acct.Owner.Equals(existing.Owner) &&
			!ic.programID.Equals(solana.SystemProgramID) {
			return fmt.Errorf(
				"%w: cannot reassign %s",
				ErrIllegalOwner,
				acct.Address,
			)
		}
	}
	return ic.rt.storeAccount(acct, ic.txn)
}

// Invoke calls another program with the privileges of the current
// instruction
func (ic *InvokeContext) Invoke(ix solana.Instruction) error {
	return ic.InvokeSigned(ix)
}

// InvokeSigned calls another program. Each entry of signerSeeds derives a
// program address of the calling program that is granted signer status
// for the call.
func (ic *InvokeContext) InvokeSigned(
	ix solana.Instruction,
	signerSeeds ...[][]byte,
) error {
	if ic.depth >= MaxInvokeDepth {
		return ErrCallDepthExceeded
	}
	calleeIx, err := NewInstruction(ix)
	if err != nil {
		return err
	}
	pdaSigners := make(map[solana.PublicKey]struct{}, len(signerSeeds))
	for _, seeds := range signerSeeds {
		addr, err := solana.CreateProgramAddress(seeds, ic.programID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSeeds, err)
		}
		pdaSigners[addr] = struct{}{}
	}
	calleeSigners := make(map[solana.PublicKey]struct{})
	for _, meta := range calleeIx.Accounts {
		callerMeta, ok := ic.instruction.meta(meta.PublicKey)
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingAccount, meta.PublicKey)
		}
		if meta.IsWritable && !callerMeta.IsWritable {
			return fmt.Errorf(
				"%w: %s is not writable",
				ErrPrivilegeEscalation,
				meta.PublicKey,
			)
		}
		if !meta.IsSigner {
			continue
		}
		_, pda := pdaSigners[meta.PublicKey]
		if !pda && !ic.IsSigner(meta.PublicKey) {
			return fmt.Errorf(
				"%w: %s did not sign",
				ErrPrivilegeEscalation,
				meta.PublicKey,
			)
		}
		calleeSigners[meta.PublicKey] = struct{}{}
	}
	callee := &InvokeContext{
		ctx:         ic.ctx,
		rt:          ic.rt,
		txn:         ic.txn,
		state:       ic.state,
		instruction: &calleeIx,
		signers:     calleeSigners,
		programID:   calleeIx.ProgramID,
		depth:       ic.depth + 1,
	}
	return ic.rt.process(callee)
}
