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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/devrupt/soulbound/api"
	"github.com/devrupt/soulbound/internal/config"
	"github.com/devrupt/soulbound/internal/node"
	"github.com/devrupt/soulbound/keystore"
	"github.com/devrupt/soulbound/ledger"
)

var issueFlags = struct {
	keypair string
}{}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func issueRun(ctx context.Context, contentID string, cfg *config.Config) error {
	logger := commonRun()
	keypairPath := cfg.KeypairPath
	if issueFlags.keypair != "" {
		keypairPath = issueFlags.keypair
	}
	ks := keystore.NewKeyStore(keystore.KeyStoreConfig{
		KeypairPath: keypairPath,
		Logger:      logger,
	})
	if err := ks.Load(); err != nil {
		return fmt.Errorf("failed to load keypair: %w", err)
	}
	signer, err := ks.Signer()
	if err != nil {
		return err
	}
	n, err := node.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer n.Stop() //nolint:errcheck
	cred, err := n.Issuer().Issue(ctx, signer, contentID)
	if err != nil {
		if code, ok := ledger.ErrorCode(err); ok {
			return fmt.Errorf("issuance failed (code %d): %w", code, err)
		}
		return fmt.Errorf("issuance failed: %w", err)
	}
	return printJSON(cred)
}

func issueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue <cid>",
		Short: "Issue the soulbound credential of the local keypair",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := issueRun(cmd.Context(), args[0], configFromCommand(cmd)); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
	cmd.Flags().
		StringVar(&issueFlags.keypair, "keypair", "", "keypair file to sign with, overriding the config")
	return cmd
}

func showRun(ctx context.Context, ownerArg string, cfg *config.Config) error {
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
	view, err := n.Issuer().Credential(ctx, owner)
	if err != nil {
		return err
	}
	return printJSON(api.NewCredentialResponse(owner, view))
}

func showCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <owner>",
		Short: "Show the contributor state and credential of an owner",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := showRun(cmd.Context(), args[0], configFromCommand(cmd)); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
	return cmd
}
