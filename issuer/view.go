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

package issuer

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/devrupt/soulbound/database/models"
	"github.com/devrupt/soulbound/ledger"
	"github.com/devrupt/soulbound/program/metadata"
	"github.com/devrupt/soulbound/program/sbt"
	"github.com/devrupt/soulbound/program/token"
)

// CredentialView is everything the ledger knows about an owner's credential
type CredentialView struct {
	Addresses   *sbt.Addresses
	Contributor *sbt.ContributorState
	Mint        *token.Mint
	Holding     *token.Account
	Metadata    *metadata.Metadata
	Index       *models.Credential
}

// Issued reports whether the credential has been minted
func (v *CredentialView) Issued() bool {
	return v.Mint != nil && v.Holding != nil && v.Metadata != nil
}

// Credential reads the contributor state and credential accounts of owner.
// Accounts that do not exist are left nil; ErrCredentialNotFound is only
// returned when neither a contributor state nor a credential exists.
func (i *Issuer) Credential(
	ctx context.Context,
	owner solana.PublicKey,
) (*CredentialView, error) {
	addrs, err := sbt.DeriveAddresses(i.programID, owner)
	if err != nil {
		return nil, err
	}
	ret := &CredentialView{Addresses: addrs}
	if err := i.decodeAccount(ctx, addrs.Contributor, func(data []byte) (err error) {
		ret.Contributor, err = sbt.DecodeContributorState(data)
		return err
	}); err != nil {
		return nil, err
	}
	if err := i.decodeAccount(ctx, addrs.Mint, func(data []byte) (err error) {
		ret.Mint, err = token.DecodeMint(data)
		return err
	}); err != nil {
		return nil, err
	}
	if err := i.decodeAccount(ctx, addrs.TokenAccount, func(data []byte) (err error) {
		ret.Holding, err = token.DecodeAccount(data)
		return err
	}); err != nil {
		return nil, err
	}
	if err := i.decodeAccount(ctx, addrs.Metadata, func(data []byte) (err error) {
		ret.Metadata, err = metadata.DecodeMetadata(data)
		return err
	}); err != nil {
		return nil, err
	}
	cred, err := i.runtime.Database().GetCredentialByOwner(owner[:], nil)
	switch {
	case err == nil:
		ret.Index = cred
	case !errors.Is(err, models.ErrCredentialNotFound):
		return nil, err
	}
	if ret.Contributor == nil && !ret.Issued() {
		return nil, ErrCredentialNotFound
	}
	return ret, nil
}

func (i *Issuer) decodeAccount(
	ctx context.Context,
	address solana.PublicKey,
	decode func([]byte) error,
) error {
	acct, err := i.runtime.GetAccount(ctx, address)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil
		}
		return err
	}
	return decode(acct.Data)
}
