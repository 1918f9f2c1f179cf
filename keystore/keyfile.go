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

package keystore

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
)

// LoadKeypair loads a keypair file written by solana-keygen: a JSON array
// of the 64 bytes of seed and public key.
// Returns ErrInsecureFileMode if the file has group or other access.
//
// Permissions are checked on the open handle to avoid a race between the
// check and the read.
func LoadKeypair(path string) (solana.PrivateKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file %q: %w", path, err)
	}
	defer f.Close()

	if err := checkOpenFilePermissions(f); err != nil {
		return nil, err
	}

	// Valid key files are well under 1 KiB
	const maxKeyFileSize = 4 << 10
	data, err := io.ReadAll(io.LimitReader(f, maxKeyFileSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %q: %w", path, err)
	}
	key, err := parseKeypair(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key file %q: %w", path, err)
	}
	return key, nil
}

// WriteKeypair writes key to path with owner-only permissions. The file is
// written next to its destination and renamed into place.
func WriteKeypair(path string, key solana.PrivateKey, overwrite bool) error {
	if err := validateKeypair(key); err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrKeyFileExists, path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create key directory %q: %w", dir, err)
	}
	// Encode as numbers rather than the base64 string encoding/json uses
	// for byte slices
	values := make([]int, len(key))
	for i, b := range key {
		values[i] = int(b)
	}
	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	tmpFile, err := os.CreateTemp(dir, ".keypair-*")
	if err != nil {
		return fmt.Errorf("failed to create key file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)
	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write key file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := restrictFilePermissions(tmpPath); err != nil {
		return fmt.Errorf("failed to restrict key file permissions: %w", err)
	}
	return os.Rename(tmpPath, path)
}

func parseKeypair(data []byte) (solana.PrivateKey, error) {
	var values []byte
	if err := json.Unmarshal(bytes.TrimSpace(data), &values); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKeypair, err)
	}
	key := solana.PrivateKey(values)
	if err := validateKeypair(key); err != nil {
		return nil, err
	}
	return key, nil
}

// validateKeypair checks that the public half matches the seed
func validateKeypair(key solana.PrivateKey) error {
	if len(key) != ed25519.PrivateKeySize {
		return fmt.Errorf(
			"%w: expected %d bytes, got %d",
			ErrInvalidKeypair,
			ed25519.PrivateKeySize,
			len(key),
		)
	}
	derived := ed25519.NewKeyFromSeed(key[:ed25519.SeedSize])
	if !bytes.Equal(derived, key) {
		return fmt.Errorf("%w: public key does not match seed", ErrInvalidKeypair)
	}
	return nil
}
