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

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/devrupt/soulbound/internal/config"
	"github.com/devrupt/soulbound/internal/node"
	"github.com/devrupt/soulbound/issuer"
)

var contributorFlags = struct {
	username      string
	contributions uint64
	rewards       uint64
}{}

func contributorSetRun(cmd *cobra.Command, ownerArg string, cfg *config.Config) error {
	ctx := cmd.Context()
	owner, err := solana.PublicKeyFromBase58(ownerArg)
	if err != nil {
		return fmt.Errorf("invalid owner: %w", err)
	}
	logger := commonRun()
	n, err := node.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer n.Stop() //nolint:errcheck
	// Unset flags keep the stored values
	username := contributorFlags.username
	contributions := contributorFlags.contributions
	rewards := contributorFlags.rewards
	view, err := n.Issuer().Credential(ctx, owner)
	if err != nil && !errors.Is(err, issuer.ErrCredentialNotFound) {
		return err
	}
	if view != nil && view.Contributor != nil {
		if !cmd.Flags().Changed("username") {
			username = view.Contributor.Username
		}
		if !cmd.Flags().Changed("contributions") {
			contributions = view.Contributor.TotalContributions
		}
		if !cmd.Flags().Changed("rewards") {
			rewards = view.Contributor.TotalRewards
		}
	}
	acct, err := n.Issuer().SetContributor(
		ctx,
		owner,
		username,
		contributions,
		rewards,
	)
	if err != nil {
		return err
	}
	logger.Info(
		"contributor state written",
		"owner", owner.String(),
		"address", acct.Address.String(),
		"contributions", contributions,
		"rewards", rewards,
	)
	return nil
}

func contributorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contributor",
		Short: "Manage contributor states",
	}
	setCmd := &cobra.Command{
		Use:   "set <owner>",
		Short: "Create or replace the contributor state of an owner",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := contributorSetRun(cmd, args[0], configFromCommand(cmd)); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
	setCmd.Flags().
		StringVar(&contributorFlags.username, "username", "", "contributor username")
	setCmd.Flags().
		Uint64Var(&contributorFlags.contributions, "contributions", 0, "total contributions")
	setCmd.Flags().
		Uint64Var(&contributorFlags.rewards, "rewards", 0, "total rewards")
	cmd.AddCommand(setCmd)
	return cmd
}
