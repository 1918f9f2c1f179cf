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
	"bytes"
	"fmt"
	"math/rand/v2"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Message is the signed body of a transaction. The nonce keeps otherwise
// identical messages from sharing a signature.
type Message struct {
	FeePayer     solana.PublicKey
	Instructions []Instruction
	Nonce        uint64
}

// Transaction is a message plus one signature per required signer, in the
// order returned by Message.Signers
type Transaction struct {
	Signatures []solana.Signature
	Message    Message
}

// NewTransaction builds an unsigned transaction paid for by feePayer
func NewTransaction(
	feePayer solana.PublicKey,
	instructions ...solana.Instruction,
) (*Transaction, error) {
	if len(instructions) == 0 {
		return nil, ErrNoInstructions
	}
	tx := &Transaction{
		Message: Message{
			FeePayer: feePayer,
			Nonce:    rand.Uint64(), // #nosec G404
		},
	}
	for _, ix := range instructions {
		tmpIx, err := NewInstruction(ix)
		if err != nil {
			return nil, err
		}
		tx.Message.Instructions = append(tx.Message.Instructions, tmpIx)
	}
	return tx, nil
}

// UnmarshalTransaction decodes a borsh-encoded transaction
func UnmarshalTransaction(data []byte) (*Transaction, error) {
	var tx Transaction
	if err := bin.NewBorshDecoder(data).Decode(&tx); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	return &tx, nil
}

// MarshalBinary returns the bytes that signers sign
func (m *Message) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(m); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return buf.Bytes(), nil
}

// Signers returns the required signers: the fee payer first, then every
// account flagged as a signer in instruction order, without duplicates
func (m *Message) Signers() []solana.PublicKey {
	ret := []solana.PublicKey{m.FeePayer}
	seen := map[solana.PublicKey]struct{}{m.FeePayer: {}}
	for _, ix := range m.Instructions {
		for _, meta := range ix.Accounts {
			if !meta.IsSigner {
				continue
			}
			if _, ok := seen[meta.PublicKey]; ok {
				continue
			}
			seen[meta.PublicKey] = struct{}{}
			ret = append(ret, meta.PublicKey)
		}
	}
	return ret
}

// WritableAccounts returns every account any instruction may write, plus
// the fee payer
func (m *Message) WritableAccounts() []solana.PublicKey {
	ret := []solana.PublicKey{m.FeePayer}
	seen := map[solana.PublicKey]struct{}{m.FeePayer: {}}
	for _, ix := range m.Instructions {
		for _, meta := range ix.Accounts {
			if !meta.IsWritable {
				continue
			}
			if _, ok := seen[meta.PublicKey]; ok {
				continue
			}
			seen[meta.PublicKey] = struct{}{}
			ret = append(ret, meta.PublicKey)
		}
	}
	return ret
}

// Sign signs the message with the provided keys. Every required signer
// must have a key.
func (tx *Transaction) Sign(keys ...solana.PrivateKey) error {
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return err
	}
	keyMap := make(map[solana.PublicKey]solana.PrivateKey, len(keys))
	for _, key := range keys {
		keyMap[key.PublicKey()] = key
	}
	signers := tx.Message.Signers()
	sigs := make([]solana.Signature, 0, len(signers))
	for _, signer := range signers {
		key, ok := keyMap[signer]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingSigningKey, signer)
		}
		sig, err := key.Sign(msg)
		if err != nil {
			return fmt.Errorf("sign message: %w", err)
		}
		sigs = append(sigs, sig)
	}
	tx.Signatures = sigs
	return nil
}

// Verify checks that every required signer has a valid signature
func (tx *Transaction) Verify() error {
	signers := tx.Message.Signers()
	if len(tx.Signatures) != len(signers) {
		return fmt.Errorf(
			"%w: expected %d signatures, got %d",
			ErrMissingRequiredSignature,
			len(signers),
			len(tx.Signatures),
		)
	}
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return err
	}
	for i, signer := range signers {
		if !tx.Signatures[i].Verify(signer, msg) {
			return fmt.Errorf("%w: %s", ErrInvalidSignature, signer)
		}
	}
	return nil
}

// Signature returns the fee payer's signature, which identifies the
// transaction
func (tx *Transaction) Signature() solana.Signature {
	if len(tx.Signatures) == 0 {
		return solana.Signature{}
	}
	return tx.Signatures[0]
}

// MarshalBinary returns the borsh encoding of the signed transaction
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(tx); err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	return buf.Bytes(), nil
}
