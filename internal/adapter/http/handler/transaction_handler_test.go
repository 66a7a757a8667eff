package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hbeck/ledgersync/internal/adapter/http/dto"
	"github.com/hbeck/ledgersync/internal/domain"
	"github.com/hbeck/ledgersync/internal/usecase"
)

type transactionReaderStub struct {
	listFn func(ctx context.Context, filter usecase.TransactionFilter) ([]*domain.Transaction, error)
	getFn  func(ctx context.Context, id string) (*domain.Transaction, error)
}

func (s *transactionReaderStub) List(ctx context.Context, filter usecase.TransactionFilter) ([]*domain.Transaction, error) {
	return s.listFn(ctx, filter)
}

func (s *transactionReaderStub) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.getFn(ctx, id)
}

type categoryUpdaterStub struct {
	updateFn func(ctx context.Context, id, category string, reviewed bool) error
}

func (s *categoryUpdaterStub) UpdateCategory(ctx context.Context, id, category string, reviewed bool) error {
	return s.updateFn(ctx, id, category, reviewed)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestTransactionHandler_List_AppliesFilters(t *testing.T) {
	var captured usecase.TransactionFilter
	handler := NewTransactionHandler(&transactionReaderStub{
		listFn: func(ctx context.Context, filter usecase.TransactionFilter) ([]*domain.Transaction, error) {
			captured = filter
			return []*domain.Transaction{{ID: "sw_1"}}, nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/transactions?provider=simplefin&reviewed=false&limit=10", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.Provider != "simplefin" || captured.Limit != 10 {
		t.Fatalf("expected filter to match query, got %+v", captured)
	}
	if captured.Reviewed == nil || *captured.Reviewed {
		t.Fatalf("expected reviewed=false filter, got %+v", captured.Reviewed)
	}

	var resp dto.ListTransactionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 1 || resp.Transactions[0].ID != "sw_1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestTransactionHandler_Get_NotFound(t *testing.T) {
	handler := NewTransactionHandler(&transactionReaderStub{
		getFn: func(ctx context.Context, id string) (*domain.Transaction, error) {
			return nil, domain.ErrTransactionNotFound
		},
	}, nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/transactions/missing", nil), "id", "missing")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTransactionHandler_UpdateCategory_Success(t *testing.T) {
	var gotID, gotCategory string
	var gotReviewed bool
	handler := NewTransactionHandler(nil, &categoryUpdaterStub{
		updateFn: func(ctx context.Context, id, category string, reviewed bool) error {
			gotID, gotCategory, gotReviewed = id, category, reviewed
			return nil
		},
	})

	body, _ := json.Marshal(dto.UpdateCategoryRequest{Category: "Expenses:Groceries"})
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/transactions/tx-1/category", bytes.NewReader(body)), "id", "tx-1")
	rec := httptest.NewRecorder()

	handler.UpdateCategory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotID != "tx-1" || gotCategory != "Expenses:Groceries" || !gotReviewed {
		t.Fatalf("unexpected update call: id=%s category=%s reviewed=%v", gotID, gotCategory, gotReviewed)
	}
}

func TestTransactionHandler_UpdateCategory_EmptyCategory(t *testing.T) {
	handler := NewTransactionHandler(nil, &categoryUpdaterStub{
		updateFn: func(ctx context.Context, id, category string, reviewed bool) error {
			t.Fatal("UpdateCategory should not be called for empty category")
			return nil
		},
	})

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/transactions/tx-1/category", bytes.NewBufferString(`{"category":""}`)), "id", "tx-1")
	rec := httptest.NewRecorder()

	handler.UpdateCategory(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTransactionHandler_UpdateCategory_InvalidJSON(t *testing.T) {
	handler := NewTransactionHandler(nil, &categoryUpdaterStub{
		updateFn: func(ctx context.Context, id, category string, reviewed bool) error {
			t.Fatal("UpdateCategory should not be called for invalid payload")
			return nil
		},
	})

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/transactions/tx-1/category", bytes.NewBufferString("{invalid")), "id", "tx-1")
	rec := httptest.NewRecorder()

	handler.UpdateCategory(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
