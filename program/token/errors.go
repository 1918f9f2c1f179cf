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

package token

import "github.com/devrupt/soulbound/ledger"

// Error codes follow the Token-2022 numbering
var (
	ErrInsufficientFunds = &ledger.ProgramError{
		Code: 1, Name: "InsufficientFunds", Msg: "insufficient funds",
	}
	ErrInvalidMint = &ledger.ProgramError{
		Code: 2, Name: "InvalidMint", Msg: "invalid mint",
	}
	ErrMintMismatch = &ledger.ProgramError{
		Code: 3, Name: "MintMismatch", Msg: "account not associated with this mint",
	}
	ErrOwnerMismatch = &ledger.ProgramError{
		Code: 4, Name: "OwnerMismatch", Msg: "owner does not match",
	}
	ErrFixedSupply = &ledger.ProgramError{
		Code: 5, Name: "FixedSupply", Msg: "fixed supply",
	}
	ErrAlreadyInUse = &ledger.ProgramError{
		Code: 6, Name: "AlreadyInUse", Msg: "already in use",
	}
	ErrUninitializedState = &ledger.ProgramError{
		Code: 9, Name: "UninitializedState", Msg: "state is uninitialized",
	}
	ErrInvalidInstruction = &ledger.ProgramError{
		Code: 12, Name: "InvalidInstruction", Msg: "invalid instruction",
	}
	ErrInvalidState = &ledger.ProgramError{
		Code: 13, Name: "InvalidState", Msg: "state is invalid for requested operation",
	}
	ErrOverflow = &ledger.ProgramError{
		Code: 14, Name: "Overflow", Msg: "operation overflowed",
	}
	ErrMintCannotFreeze = &ledger.ProgramError{
		Code: 16, Name: "MintCannotFreeze", Msg: "this token mint cannot freeze accounts",
	}
	ErrAccountFrozen = &ledger.ProgramError{
		Code: 17, Name: "AccountFrozen", Msg: "account is frozen",
	}
	ErrMintDecimalsMismatch = &ledger.ProgramError{
		Code: 18, Name: "MintDecimalsMismatch", Msg: "the provided decimals value different from the mint decimals",
	}
	ErrExtensionAlreadyInitialized = &ledger.ProgramError{
		Code: 22, Name: "ExtensionAlreadyInitialized", Msg: "extension already initialized on this account",
	}
	ErrMintHasSupply = &ledger.ProgramError{
		Code: 28, Name: "MintHasSupply", Msg: "mint has non-zero supply",
	}
	ErrNonTransferable = &ledger.ProgramError{
		Code: 37, Name: "NonTransferable", Msg: "transfer is disabled for this mint",
	}
	ErrNonTransferableNeedsImmutableOwnership = &ledger.ProgramError{
		Code: 38, Name: "NonTransferableNeedsImmutableOwnership", Msg: "non-transferable tokens can't be minted to an account without immutable ownership",
	}
)
