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

import "github.com/devrupt/soulbound/ledger"

var (
	ErrAlreadyInitialized = &ledger.ProgramError{
		Code: 3, Name: "AlreadyInitialized", Msg: "already initialized",
	}
	ErrUninitialized = &ledger.ProgramError{
		Code: 4, Name: "Uninitialized", Msg: "uninitialized",
	}
	ErrInvalidMetadataKey = &ledger.ProgramError{
		Code: 5, Name: "InvalidMetadataKey", Msg: "metadata's key must match seed of ['metadata', program id, mint] provided",
	}
	ErrUpdateAuthorityIncorrect = &ledger.ProgramError{
		Code: 7, Name: "UpdateAuthorityIncorrect", Msg: "update authority given does not match",
	}
	ErrUpdateAuthorityIsNotSigner = &ledger.ProgramError{
		Code: 8, Name: "UpdateAuthorityIsNotSigner", Msg: "update authority needs to be signer to update metadata",
	}
	ErrNotMintAuthority = &ledger.ProgramError{
		Code: 9, Name: "NotMintAuthority", Msg: "you must be the mint authority and signer on this transaction",
	}
	ErrInvalidMintAuthority = &ledger.ProgramError{
		Code: 10, Name: "InvalidMintAuthority", Msg: "mint authority provided does not match the authority on the mint",
	}
	ErrNameTooLong = &ledger.ProgramError{
		Code: 11, Name: "NameTooLong", Msg: "name too long",
	}
	ErrSymbolTooLong = &ledger.ProgramError{
		Code: 12, Name: "SymbolTooLong", Msg: "symbol too long",
	}
	ErrURITooLong = &ledger.ProgramError{
		Code: 13, Name: "UriTooLong", Msg: "URI too long",
	}
	ErrTooManyCreators = &ledger.ProgramError{
		Code: 35, Name: "CreatorsTooLong", Msg: "creators list too long",
	}
	ErrShareTotalMustBe100 = &ledger.ProgramError{
		Code: 37, Name: "ShareTotalMustBe100", Msg: "share total must equal 100 for creator array",
	}
	ErrDataIsImmutable = &ledger.ProgramError{
		Code: 39, Name: "DataIsImmutable", Msg: "data is immutable",
	}
	ErrInvalidBasisPoints = &ledger.ProgramError{
		Code: 42, Name: "InvalidBasisPoints", Msg: "basis points cannot be more than 10000",
	}
	ErrIncorrectOwner = &ledger.ProgramError{
		Code: 57, Name: "IncorrectOwner", Msg: "incorrect account owner",
	}
	ErrInvalidInstruction = &ledger.ProgramError{
		Code: 0, Name: "InstructionUnpackError", Msg: "failed to unpack instruction data",
	}
)
