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

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/devrupt/soulbound/ledger"
)

const MaxUsernameLength = 32

// ContributorStateSpace is the account size of a ContributorState,
// discriminator included
const ContributorStateSpace = 8 + 32 + 4 + MaxUsernameLength + 8 + 8 + 1

var (
	ErrUsernameTooLong            = errors.New("username too long")
	ErrRewardsExceedContributions = errors.New("total rewards exceed total contributions")
)

var contributorStateDiscriminator = accountDiscriminator("ContributorState")

// ContributorState tracks the standing of one contributor
type ContributorState struct {
	Owner              solana.PublicKey
	Username           string
	TotalContributions uint64
	TotalRewards       uint64
	Bump               uint8
}

func accountDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("account:" + name))
	return sum[:8]
}

// DecodeContributorState reads a ContributorState from account data
func DecodeContributorState(data []byte) (*ContributorState, error) {
	if len(data) < 8 {
		return nil, ErrAccountDiscriminatorMismatch
	}
	if !bytes.Equal(data[:8], contributorStateDiscriminator) {
		return nil, ErrAccountDiscriminatorMismatch
	}
	var state ContributorState
	if err := bin.NewBorshDecoder(data[8:]).Decode(&state); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccountDidNotDeserialize, err)
	}
	return &state, nil
}

// pack writes the state with its discriminator to the front of data and
// zeroes the rest
func (s *ContributorState) pack(data []byte) error {
	if len(s.Username) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	buf := bytes.NewBuffer(bytes.Clone(contributorStateDiscriminator))
	if err := bin.NewBorshEncoder(buf).Encode(s); err != nil {
		return err
	}
	if buf.Len() > len(data) {
		return ledger.ErrAccountDataTooSmall
	}
	n := copy(data, buf.Bytes())
	clear(data[n:])
	return nil
}

// NewContributorStateAccount builds the contributor state account of owner
// under programID, ready to be loaded as a genesis fixture
func NewContributorStateAccount(
	programID solana.PublicKey,
	owner solana.PublicKey,
	username string,
	totalContributions uint64,
	totalRewards uint64,
) (*ledger.Account, error) {
	if totalRewards > totalContributions {
		return nil, fmt.Errorf(
			"%w: %d > %d",
			ErrRewardsExceedContributions,
			totalRewards,
			totalContributions,
		)
	}
	addr, bump, err := ContributorAddress(programID, owner)
	if err != nil {
		return nil, err
	}
	state := &ContributorState{
		Owner:              owner,
		Username:           username,
		TotalContributions: totalContributions,
		TotalRewards:       totalRewards,
		Bump:               bump,
	}
	data := make([]byte, ContributorStateSpace)
	if err := state.pack(data); err != nil {
		return nil, err
	}
	return &ledger.Account{
		Address: addr,
		Owner:   programID,
		Data:    data,
	}, nil
}
