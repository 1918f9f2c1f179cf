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
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/devrupt/soulbound/keystore"
)

var keygenFlags = struct {
	outfile string
	force   bool
}{}

func keygenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new keypair file",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := configFromCommand(cmd)
			logger := commonRun()
			path := cfg.KeypairPath
			if keygenFlags.outfile != "" {
				path = keygenFlags.outfile
			}
			ks := keystore.NewKeyStore(keystore.KeyStoreConfig{
				KeypairPath: path,
				Logger:      logger,
			})
			if err := ks.Generate(keygenFlags.force); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			pubkey, err := ks.PublicKey()
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			fmt.Println(pubkey.String())
		},
	}
	cmd.Flags().
		StringVarP(&keygenFlags.outfile, "outfile", "o", "", "path to write the keypair to, overriding the config")
	cmd.Flags().
		BoolVarP(&keygenFlags.force, "force", "f", false, "overwrite an existing keypair file")
	return cmd
}
