package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hbeck/ledgersync/internal/adapter/http/dto"
	"github.com/hbeck/ledgersync/internal/domain"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	ListAccounts(ctx context.Context) ([]*domain.AccountMap, error)
	RenameLedgerAccount(ctx context.Context, externalID, provider, ledgerAccount string) error
}

// AccountHandler handles account-mapping HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// List lists account mappings.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountUC.ListAccounts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list accounts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountsFromDomain(accounts))
}

// Rename replaces the ledger label of an account mapping.
func (h *AccountHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	var req dto.RenameAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	ledgerAccount := strings.TrimSpace(req.LedgerAccount)
	if req.Provider == "" || ledgerAccount == "" {
		writeError(w, http.StatusBadRequest, "provider and ledger_account are required", "")
		return
	}

	if err := h.accountUC.RenameLedgerAccount(r.Context(), id, req.Provider, ledgerAccount); err != nil {
		writeError(w, mapDomainError(err), "failed to rename account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
