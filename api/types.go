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

package api

import "time"

type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

type SubmitTransactionRequest struct {
	// Transaction is the base64 encoding of a signed transaction
	Transaction string `json:"transaction"`
}

type SubmitTransactionResponse struct {
	Signature string   `json:"signature"`
	Logs      []string `json:"logs"`
}

type TransactionResponse struct {
	ProcessedAt  time.Time `json:"processed_at"`
	Signature    string    `json:"signature"`
	FeePayer     string    `json:"fee_payer"`
	Logs         []string  `json:"logs"`
	Instructions uint32    `json:"instructions"`
}

type AccountResponse struct {
	Address string `json:"address"`
	Owner   string `json:"owner"`
	// Data is base64 encoded
	Data  string `json:"data"`
	Space int    `json:"space"`
}

type ContributorResponse struct {
	Address            string `json:"address"`
	Username           string `json:"username"`
	TotalContributions uint64 `json:"total_contributions"`
	TotalRewards       uint64 `json:"total_rewards"`
}

type MintResponse struct {
	Address         string  `json:"address"`
	MintAuthority   *string `json:"mint_authority"`
	FreezeAuthority *string `json:"freeze_authority"`
	Supply          uint64  `json:"supply"`
	Decimals        uint8   `json:"decimals"`
	NonTransferable bool    `json:"non_transferable"`
}

type HoldingResponse struct {
	Address string `json:"address"`
	Owner   string `json:"owner"`
	Amount  uint64 `json:"amount"`
	Frozen  bool   `json:"frozen"`
}

type MetadataResponse struct {
	Address         string `json:"address"`
	UpdateAuthority string `json:"update_authority"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	URI             string `json:"uri"`
	IsMutable       bool   `json:"is_mutable"`
}

type CredentialResponse struct {
	Owner       string               `json:"owner"`
	Issued      bool                 `json:"issued"`
	Cid         *string              `json:"cid"`
	Signature   *string              `json:"signature"`
	IssuedAt    *time.Time           `json:"issued_at"`
	Contributor *ContributorResponse `json:"contributor"`
	Mint        *MintResponse        `json:"mint"`
	Holding     *HoldingResponse     `json:"holding"`
	Metadata    *MetadataResponse    `json:"metadata"`
}

type CredentialSummary struct {
	IssuedAt     time.Time `json:"issued_at"`
	Owner        string    `json:"owner"`
	Mint         string    `json:"mint"`
	TokenAccount string    `json:"token_account"`
	Metadata     string    `json:"metadata"`
	Cid          string    `json:"cid"`
	Name         string    `json:"name"`
	URI          string    `json:"uri"`
	Signature    string    `json:"signature"`
}

type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	// Code is the numeric program error, when the failure has one
	Code *uint32 `json:"code,omitempty"`
	// Instruction is the index of the failing instruction
	Instruction *int `json:"instruction,omitempty"`
}
