package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hbeck/ledgersync/internal/adapter/http/dto"
	"github.com/hbeck/ledgersync/internal/domain"
	"github.com/hbeck/ledgersync/internal/usecase"
)

// TransactionReader defines the read access needed by TransactionHandler.
type TransactionReader interface {
	List(ctx context.Context, filter usecase.TransactionFilter) ([]*domain.Transaction, error)
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
}

// CategoryUpdater defines the write access needed by TransactionHandler.
type CategoryUpdater interface {
	UpdateCategory(ctx context.Context, id, category string, reviewed bool) error
}

// TransactionHandler handles transaction-related HTTP requests.
type TransactionHandler struct {
	reader  TransactionReader
	updater CategoryUpdater
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(reader TransactionReader, updater CategoryUpdater) *TransactionHandler {
	return &TransactionHandler{reader: reader, updater: updater}
}

// List lists transactions with optional provider/category/reviewed filters.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := usecase.TransactionFilter{
		Provider: r.URL.Query().Get("provider"),
		Category: r.URL.Query().Get("category"),
		Limit:    parseIntQuery(r, "limit", 500),
		Offset:   parseIntQuery(r, "offset", 0),
	}

	if v := r.URL.Query().Get("reviewed"); v != "" {
		reviewed := v == "true"
		filter.Reviewed = &reviewed
	}

	transactions, err := h.reader.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(transactions),
		Total:        int64(len(transactions)),
	})
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	transaction, err := h.reader.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(transaction))
}

// UpdateCategory relabels a transaction's category.
func (h *TransactionHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	var req dto.UpdateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Category == "" {
		writeError(w, http.StatusBadRequest, "category must not be empty", "")
		return
	}

	if err := h.updater.UpdateCategory(r.Context(), id, req.Category, req.IsReviewed()); err != nil {
		writeError(w, mapDomainError(err), "failed to update category", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
