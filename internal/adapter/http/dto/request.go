package dto

// UpdateCategoryRequest relabels a transaction. Reviewed defaults to true:
// an operator touching a category has looked at the entry.
type UpdateCategoryRequest struct {
	Category string `json:"category"`
	Reviewed *bool  `json:"reviewed,omitempty"`
}

// IsReviewed resolves the optional reviewed flag.
func (r *UpdateCategoryRequest) IsReviewed() bool {
	if r.Reviewed == nil {
		return true
	}
	return *r.Reviewed
}

// RenameAccountRequest replaces the ledger label of an account mapping.
type RenameAccountRequest struct {
	Provider      string `json:"provider"`
	LedgerAccount string `json:"ledger_account"`
}

// BankSyncRequest bounds a bank sync window. Zero means the default window.
type BankSyncRequest struct {
	WindowDays int `json:"window_days,omitempty"`
}

// BackfillRequest bounds a historical backfill. Zero means the default depth.
type BackfillRequest struct {
	HistoryDays int `json:"history_days,omitempty"`
}

// ReconcileRequest overrides the matching window. Zero means the configured
// tolerance.
type ReconcileRequest struct {
	ToleranceDays int `json:"tolerance_days,omitempty"`
}
