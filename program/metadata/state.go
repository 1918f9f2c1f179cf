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

package metadata

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/devrupt/soulbound/ledger"
)

// Field limits
const (
	DefaultMaxNameLength = 32
	MaxSymbolLength      = 10
	MaxURILength         = 200
	MaxCreatorLimit      = 5
	MaxBasisPoints       = 10000
)

// MetadataSpace is the minimum size of a metadata account. Records that
// encode larger get an account of their encoded size.
const MetadataSpace = 679

type Key uint8

const (
	KeyUninitialized Key = 0
	KeyMetadataV1    Key = 4
)

type Creator struct {
	Address  solana.PublicKey
	Verified bool
	Share    uint8
}

type Collection struct {
	Verified bool
	Key      solana.PublicKey
}

type Uses struct {
	UseMethod uint8
	Remaining uint64
	Total     uint64
}

// DataV2 is the caller-supplied description of a token
type DataV2 struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             *[]Creator  `bin:"optional"`
	Collection           *Collection `bin:"optional"`
	Uses                 *Uses       `bin:"optional"`
}

// Data is the stored subset of DataV2
type Data struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             *[]Creator `bin:"optional"`
}

// Metadata is the record attached to a mint
type Metadata struct {
	Key                 Key
	UpdateAuthority     solana.PublicKey
	Mint                solana.PublicKey
	Data                Data
	PrimarySaleHappened bool
	IsMutable           bool
	Collection          *Collection `bin:"optional"`
	Uses                *Uses       `bin:"optional"`
}

// DecodeMetadata reads a metadata record from account data
func DecodeMetadata(data []byte) (*Metadata, error) {
	var md Metadata
	if err := bin.NewBorshDecoder(data).Decode(&md); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if md.Key != KeyMetadataV1 {
		return nil, ErrUninitialized
	}
	return &md, nil
}

func (m *Metadata) encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(m); err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return buf.Bytes(), nil
}

// pack writes the record to the front of data and zeroes the rest
func (m *Metadata) pack(data []byte) error {
	raw, err := m.encode()
	if err != nil {
		return err
	}
	if len(raw) > len(data) {
		return ledger.ErrAccountDataTooSmall
	}
	n := copy(data, raw)
	clear(data[n:])
	return nil
}

func (p *Program) validateData(data *DataV2) error {
	if len(data.Name) > p.maxNameLength {
		return ErrNameTooLong
	}
	if len(data.Symbol) > MaxSymbolLength {
		return ErrSymbolTooLong
	}
	if len(data.URI) > MaxURILength {
		return ErrURITooLong
	}
	if data.SellerFeeBasisPoints > MaxBasisPoints {
		return ErrInvalidBasisPoints
	}
	if data.Creators != nil {
		creators := *data.Creators
		if len(creators) > MaxCreatorLimit {
			return ErrTooManyCreators
		}
		total := 0
		for _, c := range creators {
			total += int(c.Share)
		}
		if len(creators) > 0 && total != 100 {
			return ErrShareTotalMustBe100
		}
	}
	return nil
}
