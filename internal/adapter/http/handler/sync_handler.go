package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/hbeck/ledgersync/internal/adapter/http/dto"
	"github.com/hbeck/ledgersync/internal/usecase"
)

// SyncService defines the sync operations exposed over HTTP.
type SyncService interface {
	SyncSplitwise(ctx context.Context) (*usecase.ImportResult, error)
	SyncBank(ctx context.Context, windowStart, windowEnd time.Time) (*usecase.ImportResult, error)
	Backfill(ctx context.Context, historyDays int) (*usecase.ImportResult, error)
}

// ReconcileService defines the reconciliation operation exposed over HTTP.
type ReconcileService interface {
	ReconcileTransfers(ctx context.Context, toleranceDays int) (*usecase.ReconcileResult, error)
}

// ExportService defines the journal export operation exposed over HTTP.
type ExportService interface {
	Export(ctx context.Context) error
}

// SyncHandler handles sync, reconcile and export trigger requests.
type SyncHandler struct {
	syncUC        SyncService
	reconcileUC   ReconcileService
	exportUC      ExportService
	windowDays    int
	toleranceDays int
	historyDays   int
}

// NewSyncHandler creates a new SyncHandler with the configured defaults.
func NewSyncHandler(syncUC SyncService, reconcileUC ReconcileService, exportUC ExportService, windowDays, toleranceDays, historyDays int) *SyncHandler {
	return &SyncHandler{
		syncUC:        syncUC,
		reconcileUC:   reconcileUC,
		exportUC:      exportUC,
		windowDays:    windowDays,
		toleranceDays: toleranceDays,
		historyDays:   historyDays,
	}
}

// SyncSplitwise triggers a shared-expense sync run.
func (h *SyncHandler) SyncSplitwise(w http.ResponseWriter, r *http.Request) {
	result, err := h.syncUC.SyncSplitwise(r.Context())
	if err != nil {
		writeError(w, mapDomainError(err), "splitwise sync failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SyncResultFromUseCase(result))
}

// SyncBank triggers a bank sync for the recent window.
func (h *SyncHandler) SyncBank(w http.ResponseWriter, r *http.Request) {
	var req dto.BankSyncRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	days := req.WindowDays
	if days <= 0 {
		days = h.windowDays
	}

	end := time.Now()
	result, err := h.syncUC.SyncBank(r.Context(), end.AddDate(0, 0, -days), end)
	if err != nil {
		writeError(w, mapDomainError(err), "bank sync failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SyncResultFromUseCase(result))
}

// Backfill triggers a historical bank import.
func (h *SyncHandler) Backfill(w http.ResponseWriter, r *http.Request) {
	var req dto.BackfillRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	days := req.HistoryDays
	if days <= 0 {
		days = h.historyDays
	}

	result, err := h.syncUC.Backfill(r.Context(), days)
	if err != nil {
		writeError(w, mapDomainError(err), "backfill failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SyncResultFromUseCase(result))
}

// Reconcile triggers a transfer-matching pass.
func (h *SyncHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req dto.ReconcileRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	days := req.ToleranceDays
	if days <= 0 {
		days = h.toleranceDays
	}

	result, err := h.reconcileUC.ReconcileTransfers(r.Context(), days)
	if err != nil {
		writeError(w, mapDomainError(err), "reconcile failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconcileResponse{
		Matched:          result.Matched,
		AmbiguousSkipped: result.AmbiguousSkipped,
	})
}

// Export regenerates the journal tree.
func (h *SyncHandler) Export(w http.ResponseWriter, r *http.Request) {
	if err := h.exportUC.Export(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "export failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeOptionalBody decodes a JSON body, treating an empty body as the zero
// request.
func decodeOptionalBody(r *http.Request, dest any) error {
	err := json.NewDecoder(r.Body).Decode(dest)
	if err == io.EOF {
		return nil
	}
	return err
}
