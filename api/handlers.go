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

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/devrupt/soulbound/database/models"
	"github.com/devrupt/soulbound/issuer"
	"github.com/devrupt/soulbound/ledger"
)

const maxTransactionBodySize = 1 << 20

func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	status int,
	errStr string,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      errStr,
		Message:    message,
	})
}

// writeExecuteError maps a failed execution to a status. Malformed or
// unsigned transactions are 400, a transaction that conflicts with ledger
// state is 409, and anything a program rejected is 422.
func writeExecuteError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, ledger.ErrNoInstructions),
		errors.Is(err, ledger.ErrInvalidSignature),
		errors.Is(err, ledger.ErrMissingRequiredSignature):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrAlreadyProcessed),
		errors.Is(err, ledger.ErrAccountAlreadyInUse):
		status = http.StatusConflict
	}
	resp := ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    err.Error(),
	}
	if code, ok := ledger.ErrorCode(err); ok {
		resp.Code = &code
	}
	var ixErr *ledger.InstructionError
	if errors.As(err, &ixErr) {
		idx := ixErr.Index
		resp.Instruction = &idx
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

func (s *Server) handleSubmitTransaction(
	w http.ResponseWriter,
	r *http.Request,
) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxTransactionBodySize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "failed to read request body")
		return
	}
	if len(body) > maxTransactionBodySize {
		writeError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "transaction too large")
		return
	}
	encoded := string(bytes.TrimSpace(body))
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "application/json" {
		var req SubmitTransactionRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
			return
		}
		encoded = req.Transaction
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "transaction is not valid base64")
		return
	}
	tx, err := ledger.UnmarshalTransaction(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	receipt, err := s.backend.SubmitTransaction(r.Context(), tx)
	if err != nil {
		s.logger.Debug(
			"transaction rejected",
			"signature", tx.Signature().String(),
			"error", err,
		)
		writeExecuteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SubmitTransactionResponse{
		Signature: receipt.Signature.String(),
		Logs:      receipt.Logs,
	})
}

func (s *Server) handleTransaction(
	w http.ResponseWriter,
	r *http.Request,
) {
	sig, err := solana.SignatureFromBase58(r.PathValue("signature"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "invalid signature")
		return
	}
	record, err := s.backend.Transaction(r.Context(), sig)
	if err != nil {
		if errors.Is(err, models.ErrTransactionNotFound) {
			writeError(w, http.StatusNotFound, "Not Found", "transaction not found")
			return
		}
		s.logger.Error("failed to get transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error", "failed to retrieve transaction")
		return
	}
	logs := []string{}
	if record.Logs != "" {
		logs = strings.Split(record.Logs, "\n")
	}
	writeJSON(w, http.StatusOK, TransactionResponse{
		ProcessedAt:  record.ProcessedAt,
		Signature:    sig.String(),
		FeePayer:     solana.PublicKeyFromBytes(record.FeePayer).String(),
		Logs:         logs,
		Instructions: record.Instructions,
	})
}

func (s *Server) handleAccount(
	w http.ResponseWriter,
	r *http.Request,
) {
	address, err := solana.PublicKeyFromBase58(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "invalid address")
		return
	}
	acct, err := s.backend.Account(r.Context(), address)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "Not Found", "account not found")
			return
		}
		s.logger.Error("failed to get account", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error", "failed to retrieve account")
		return
	}
	writeJSON(w, http.StatusOK, AccountResponse{
		Address: acct.Address.String(),
		Owner:   acct.Owner.String(),
		Data:    base64.StdEncoding.EncodeToString(acct.Data),
		Space:   len(acct.Data),
	})
}

func (s *Server) handleCredential(
	w http.ResponseWriter,
	r *http.Request,
) {
	owner, err := solana.PublicKeyFromBase58(r.PathValue("owner"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "invalid owner")
		return
	}
	view, err := s.backend.Credential(r.Context(), owner)
	if err != nil {
		if errors.Is(err, issuer.ErrCredentialNotFound) {
			writeError(w, http.StatusNotFound, "Not Found", "credential not found")
			return
		}
		s.logger.Error("failed to get credential", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error", "failed to retrieve credential")
		return
	}
	writeJSON(w, http.StatusOK, NewCredentialResponse(owner, view))
}

func (s *Server) handleCredentials(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	creds, total, err := s.backend.Credentials(r.Context(), params.Count, params.Offset())
	if err != nil {
		s.logger.Error("failed to list credentials", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error", "failed to retrieve credentials")
		return
	}
	SetPaginationHeaders(w, total, params)
	ret := make([]CredentialSummary, 0, len(creds))
	for _, cred := range creds {
		ret = append(ret, CredentialSummary{
			IssuedAt:     cred.IssuedAt,
			Owner:        cred.OwnerAddress(),
			Mint:         cred.MintAddress(),
			TokenAccount: solana.PublicKeyFromBytes(cred.TokenAccount).String(),
			Metadata:     solana.PublicKeyFromBytes(cred.Metadata).String(),
			Cid:          cred.Cid,
			Name:         cred.Name,
			URI:          cred.Uri,
			Signature:    solana.SignatureFromBytes(cred.Signature).String(),
		})
	}
	writeJSON(w, http.StatusOK, ret)
}

// NewCredentialResponse renders a credential view of owner
func NewCredentialResponse(
	owner solana.PublicKey,
	view *issuer.CredentialView,
) CredentialResponse {
	ret := CredentialResponse{
		Owner:  owner.String(),
		Issued: view.Issued(),
	}
	addrs := view.Addresses
	if view.Contributor != nil {
		ret.Contributor = &ContributorResponse{
			Address:            addrs.Contributor.String(),
			Username:           view.Contributor.Username,
			TotalContributions: view.Contributor.TotalContributions,
			TotalRewards:       view.Contributor.TotalRewards,
		}
	}
	if view.Mint != nil {
		ret.Mint = &MintResponse{
			Address:         addrs.Mint.String(),
			MintAuthority:   optionalKey(view.Mint.MintAuthority),
			FreezeAuthority: optionalKey(view.Mint.FreezeAuthority),
			Supply:          view.Mint.Supply,
			Decimals:        view.Mint.Decimals,
			NonTransferable: view.Mint.NonTransferable,
		}
	}
	if view.Holding != nil {
		ret.Holding = &HoldingResponse{
			Address: addrs.TokenAccount.String(),
			Owner:   view.Holding.Owner.String(),
			Amount:  view.Holding.Amount,
			Frozen:  view.Holding.IsFrozen(),
		}
	}
	if view.Metadata != nil {
		ret.Metadata = &MetadataResponse{
			Address:         addrs.Metadata.String(),
			UpdateAuthority: view.Metadata.UpdateAuthority.String(),
			Name:            view.Metadata.Data.Name,
			Symbol:          view.Metadata.Data.Symbol,
			URI:             view.Metadata.Data.URI,
			IsMutable:       view.Metadata.IsMutable,
		}
	}
	if view.Index != nil {
		cid := view.Index.Cid
		sig := solana.SignatureFromBytes(view.Index.Signature).String()
		issuedAt := view.Index.IssuedAt
		ret.Cid = &cid
		ret.Signature = &sig
		ret.IssuedAt = &issuedAt
	}
	return ret
}

func optionalKey(key *solana.PublicKey) *string {
	if key == nil {
		return nil
	}
	ret := key.String()
	return &ret
}
