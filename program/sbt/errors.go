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

package sbt

import "github.com/devrupt/soulbound/ledger"

// Framework errors keep their conventional numbers so clients can decode
// them the same way as program errors
var (
	ErrInstructionFallbackNotFound = &ledger.ProgramError{
		Code: 101, Name: "InstructionFallbackNotFound", Msg: "fallback functions are not supported",
	}
	ErrInstructionDidNotDeserialize = &ledger.ProgramError{
		Code: 102, Name: "InstructionDidNotDeserialize", Msg: "the program could not deserialize the given instruction",
	}
	ErrConstraintMut = &ledger.ProgramError{
		Code: 2000, Name: "ConstraintMut", Msg: "a mut constraint was violated",
	}
	ErrConstraintSeeds = &ledger.ProgramError{
		Code: 2006, Name: "ConstraintSeeds", Msg: "a seeds constraint was violated",
	}
	ErrConstraintAssociated = &ledger.ProgramError{
		Code: 2009, Name: "ConstraintAssociated", Msg: "an associated constraint was violated",
	}
	ErrAccountDiscriminatorMismatch = &ledger.ProgramError{
		Code: 3002, Name: "AccountDiscriminatorMismatch", Msg: "account discriminator did not match what was expected",
	}
	ErrAccountDidNotDeserialize = &ledger.ProgramError{
		Code: 3003, Name: "AccountDidNotDeserialize", Msg: "failed to deserialize the account",
	}
	ErrAccountNotEnoughKeys = &ledger.ProgramError{
		Code: 3005, Name: "AccountNotEnoughKeys", Msg: "not enough account keys given to the instruction",
	}
	ErrAccountOwnedByWrongProgram = &ledger.ProgramError{
		Code: 3007, Name: "AccountOwnedByWrongProgram", Msg: "the given account is owned by a different program than expected",
	}
	ErrInvalidProgramID = &ledger.ProgramError{
		Code: 3008, Name: "InvalidProgramId", Msg: "program ID was not as expected",
	}
	ErrAccountNotSigner = &ledger.ProgramError{
		Code: 3010, Name: "AccountNotSigner", Msg: "the given account did not sign",
	}
	ErrAccountNotInitialized = &ledger.ProgramError{
		Code: 3012, Name: "AccountNotInitialized", Msg: "the program expected this account to be already initialized",
	}

	ErrInsufficientContributions = &ledger.ProgramError{
		Code: 6000, Name: "InsufficientContributions", Msg: "insufficient contributions to mint SBT",
	}
	ErrOverflow = &ledger.ProgramError{
		Code: 6001, Name: "Overflow", Msg: "rewards counter overflow",
	}
)
