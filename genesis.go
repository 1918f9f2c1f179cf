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

package soulbound

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"

	"github.com/devrupt/soulbound/ledger"
	"github.com/devrupt/soulbound/program/sbt"
)

// Genesis lists the contributor states present before any transaction
type Genesis struct {
	Contributors []GenesisContributor `yaml:"contributors"`
}

type GenesisContributor struct {
	Owner              string `yaml:"owner"`
	Username           string `yaml:"username"`
	TotalContributions uint64 `yaml:"totalContributions"`
	TotalRewards       uint64 `yaml:"totalRewards"`
}

func LoadGenesis(path string) (*Genesis, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading genesis file: %w", err)
	}
	var ret Genesis
	if err := yaml.Unmarshal(buf, &ret); err != nil {
		return nil, fmt.Errorf("error parsing genesis file: %w", err)
	}
	return &ret, nil
}

// Accounts builds the contributor state accounts for programID
func (g *Genesis) Accounts(programID solana.PublicKey) ([]*ledger.Account, error) {
	ret := make([]*ledger.Account, 0, len(g.Contributors))
	for idx, contributor := range g.Contributors {
		owner, err := solana.PublicKeyFromBase58(contributor.Owner)
		if err != nil {
			return nil, fmt.Errorf("contributor %d: invalid owner: %w", idx, err)
		}
		acct, err := sbt.NewContributorStateAccount(
			programID,
			owner,
			contributor.Username,
			contributor.TotalContributions,
			contributor.TotalRewards,
		)
		if err != nil {
			return nil, fmt.Errorf("contributor %d: %w", idx, err)
		}
		ret = append(ret, acct)
	}
	return ret, nil
}

// loadGenesis writes the genesis contributor states that are not already
// in the ledger
func (n *Node) loadGenesis(ctx context.Context) error {
	genesis, err := LoadGenesis(n.config.genesisFile)
	if err != nil {
		return err
	}
	accounts, err := genesis.Accounts(n.config.programID)
	if err != nil {
		return err
	}
	loaded := 0
	for _, acct := range accounts {
		err := n.runtime.LoadAccounts(ctx, []*ledger.Account{acct}, false)
		if err != nil {
			if errors.Is(err, ledger.ErrAccountAlreadyInUse) {
				continue
			}
			return err
		}
		loaded++
	}
	n.config.logger.Info(
		fmt.Sprintf("loaded %d of %d genesis contributors", loaded, len(accounts)),
		"component", "node",
	)
	return nil
}
