package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hbeck/ledgersync/internal/adapter/http/dto"
	"github.com/hbeck/ledgersync/internal/domain"
	"github.com/hbeck/ledgersync/internal/usecase"
)

type syncServiceStub struct {
	splitwiseFn func(ctx context.Context) (*usecase.ImportResult, error)
	bankFn      func(ctx context.Context, start, end time.Time) (*usecase.ImportResult, error)
	backfillFn  func(ctx context.Context, historyDays int) (*usecase.ImportResult, error)
}

func (s *syncServiceStub) SyncSplitwise(ctx context.Context) (*usecase.ImportResult, error) {
	return s.splitwiseFn(ctx)
}

func (s *syncServiceStub) SyncBank(ctx context.Context, start, end time.Time) (*usecase.ImportResult, error) {
	return s.bankFn(ctx, start, end)
}

func (s *syncServiceStub) Backfill(ctx context.Context, historyDays int) (*usecase.ImportResult, error) {
	return s.backfillFn(ctx, historyDays)
}

type reconcileServiceStub struct {
	reconcileFn func(ctx context.Context, toleranceDays int) (*usecase.ReconcileResult, error)
}

func (s *reconcileServiceStub) ReconcileTransfers(ctx context.Context, toleranceDays int) (*usecase.ReconcileResult, error) {
	return s.reconcileFn(ctx, toleranceDays)
}

type exportServiceStub struct {
	exportFn func(ctx context.Context) error
}

func (s *exportServiceStub) Export(ctx context.Context) error {
	return s.exportFn(ctx)
}

func TestSyncHandler_SyncSplitwise_Conflict(t *testing.T) {
	handler := NewSyncHandler(&syncServiceStub{
		splitwiseFn: func(ctx context.Context) (*usecase.ImportResult, error) {
			return nil, domain.ErrSyncInProgress
		},
	}, nil, nil, 30, 4, 730)

	req := httptest.NewRequest(http.MethodPost, "/sync/splitwise", nil)
	rec := httptest.NewRecorder()

	handler.SyncSplitwise(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while a sync is running, got %d", rec.Code)
	}
}

func TestSyncHandler_SyncBank_DefaultWindow(t *testing.T) {
	var gotStart, gotEnd time.Time
	handler := NewSyncHandler(&syncServiceStub{
		bankFn: func(ctx context.Context, start, end time.Time) (*usecase.ImportResult, error) {
			gotStart, gotEnd = start, end
			return &usecase.ImportResult{RunID: "run-1", Created: 3}, nil
		},
	}, nil, nil, 30, 4, 730)

	req := httptest.NewRequest(http.MethodPost, "/sync/bank", nil)
	rec := httptest.NewRecorder()

	handler.SyncBank(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	window := gotEnd.Sub(gotStart)
	if window < 29*24*time.Hour || window > 31*24*time.Hour {
		t.Fatalf("expected default 30-day window, got %v", window)
	}

	var resp dto.SyncResultResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.RunID != "run-1" || resp.Created != 3 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSyncHandler_Backfill_CustomDepth(t *testing.T) {
	var gotDays int
	handler := NewSyncHandler(&syncServiceStub{
		backfillFn: func(ctx context.Context, historyDays int) (*usecase.ImportResult, error) {
			gotDays = historyDays
			return &usecase.ImportResult{}, nil
		},
	}, nil, nil, 30, 4, 730)

	body, _ := json.Marshal(dto.BackfillRequest{HistoryDays: 90})
	req := httptest.NewRequest(http.MethodPost, "/sync/backfill", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Backfill(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotDays != 90 {
		t.Fatalf("expected custom history depth 90, got %d", gotDays)
	}
}

func TestSyncHandler_Reconcile_DefaultTolerance(t *testing.T) {
	var gotDays int
	handler := NewSyncHandler(nil, &reconcileServiceStub{
		reconcileFn: func(ctx context.Context, toleranceDays int) (*usecase.ReconcileResult, error) {
			gotDays = toleranceDays
			return &usecase.ReconcileResult{Matched: 2, AmbiguousSkipped: 1}, nil
		},
	}, nil, 30, 4, 730)

	req := httptest.NewRequest(http.MethodPost, "/reconcile", nil)
	rec := httptest.NewRecorder()

	handler.Reconcile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotDays != 4 {
		t.Fatalf("expected configured tolerance 4, got %d", gotDays)
	}

	var resp dto.ReconcileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Matched != 2 || resp.AmbiguousSkipped != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSyncHandler_Export(t *testing.T) {
	called := false
	handler := NewSyncHandler(nil, nil, &exportServiceStub{
		exportFn: func(ctx context.Context) error {
			called = true
			return nil
		},
	}, 30, 4, 730)

	req := httptest.NewRequest(http.MethodPost, "/export", nil)
	rec := httptest.NewRecorder()

	handler.Export(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !called {
		t.Fatal("expected export to be invoked")
	}
}
