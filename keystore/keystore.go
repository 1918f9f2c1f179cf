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

// Package keystore loads and writes ed25519 keypairs in the solana-keygen
// JSON format and refuses key files that other users can read.
package keystore

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrKeyNotLoaded     = errors.New("keypair not loaded")
	ErrInsecureFileMode = errors.New("insecure file permissions")
	ErrInvalidKeypair   = errors.New("invalid keypair")
	ErrKeyFileExists    = errors.New("key file already exists")
)

type KeyStoreConfig struct {
	// KeypairPath is the path to the solana-keygen JSON keypair file
	KeypairPath string
	Logger      *slog.Logger
}

// KeyStore holds the signing key of the local identity
type KeyStore struct {
	config KeyStoreConfig
	logger *slog.Logger
	key    solana.PrivateKey
	mu     sync.RWMutex
}

func NewKeyStore(config KeyStoreConfig) *KeyStore {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &KeyStore{
		config: config,
		logger: config.Logger.With("component", "keystore"),
	}
}

// Load reads the configured keypair file
func (ks *KeyStore) Load() error {
	key, err := LoadKeypair(ks.config.KeypairPath)
	if err != nil {
		return err
	}
	ks.mu.Lock()
	ks.key = key
	ks.mu.Unlock()
	ks.logger.Debug(
		"loaded keypair",
		"path", ks.config.KeypairPath,
		"pubkey", key.PublicKey().String(),
	)
	return nil
}

// Generate creates a new keypair at the configured path and loads it. An
// existing file is only replaced when overwrite is set.
func (ks *KeyStore) Generate(overwrite bool) error {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return err
	}
	if err := WriteKeypair(ks.config.KeypairPath, key, overwrite); err != nil {
		return err
	}
	ks.mu.Lock()
	ks.key = key
	ks.mu.Unlock()
	ks.logger.Info(
		"generated keypair",
		"path", ks.config.KeypairPath,
		"pubkey", key.PublicKey().String(),
	)
	return nil
}

func (ks *KeyStore) IsLoaded() bool {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.key != nil
}

// Signer returns the loaded private key
func (ks *KeyStore) Signer() (solana.PrivateKey, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	if ks.key == nil {
		return nil, ErrKeyNotLoaded
	}
	return ks.key, nil
}

// PublicKey returns the public key of the loaded keypair
func (ks *KeyStore) PublicKey() (solana.PublicKey, error) {
	key, err := ks.Signer()
	if err != nil {
		return solana.PublicKey{}, err
	}
	return key.PublicKey(), nil
}
