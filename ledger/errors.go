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
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrAccountAlreadyInUse      = errors.New("account already in use")
	ErrAccountNotFound          = errors.New("account not found")
	ErrAccountDataTooSmall      = errors.New("account data too small for instruction")
	ErrMissingRequiredSignature = errors.New("missing required signature for instruction")
	ErrInvalidSignature         = errors.New("invalid transaction signature")
	ErrMissingSigningKey        = errors.New("no private key for required signer")
	ErrIllegalOwner             = errors.New("account is not owned by the executing program")
	ErrReadonlyDataModified     = errors.New("instruction modified a read-only account")
	ErrPrivilegeEscalation      = errors.New("cross-program invocation with unauthorized signer or writable account")
	ErrMissingAccount           = errors.New("instruction references an account the caller did not pass")
	ErrNotEnoughAccountKeys     = errors.New("insufficient account keys for instruction")
	ErrUnknownProgram           = errors.New("unknown program")
	ErrInvalidSeeds             = errors.New("provided seeds do not result in a valid address")
	ErrCallDepthExceeded        = errors.New("cross-program invocation call depth too deep")
	ErrAlreadyProcessed         = errors.New("transaction has already been processed")
	ErrInvalidInstructionData   = errors.New("invalid instruction data")
	ErrNoInstructions           = errors.New("transaction has no instructions")
)

// ProgramError is a numbered error raised by a program. Programs declare
// their errors as package-level *ProgramError values so callers can match
// them with errors.Is.
type ProgramError struct {
	Name string
	Msg  string
	Code uint32
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf(
		"custom program error: 0x%x (%s): %s",
		e.Code,
		e.Name,
		e.Msg,
	)
}

// InstructionError wraps the failure of one top-level instruction in a
// transaction
type InstructionError struct {
	Err       error
	Index     int
	ProgramID solana.PublicKey
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf(
		"instruction %d (program %s) failed: %s",
		e.Index,
		e.ProgramID,
		e.Err,
	)
}

func (e *InstructionError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the numeric code of the program error at the root of
// err, if any
func ErrorCode(err error) (uint32, bool) {
	var progErr *ProgramError
	if errors.As(err, &progErr) {
		return progErr.Code, true
	}
	return 0, false
}
