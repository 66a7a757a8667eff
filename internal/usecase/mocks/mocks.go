// Package mocks provides handwritten fakes for usecase interfaces with
// in-memory default behavior and per-test function overrides.
package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hbeck/ledgersync/internal/domain"
	"github.com/hbeck/ledgersync/internal/usecase"
)

// MockTransactionRepository is an in-memory TransactionRepository.
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction

	InsertIfAbsentFunc         func(ctx context.Context, t *domain.Transaction) (bool, error)
	FindTransferCandidatesFunc func(ctx context.Context, tx usecase.Transaction, providers []string, amount decimal.Decimal, fromDate, toDate, excludeCategory string) ([]*domain.Transaction, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{transactions: make(map[string]*domain.Transaction)}
}

// Seed inserts a transaction directly, bypassing the idempotence counters.
func (m *MockTransactionRepository) Seed(t *domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.transactions[t.ID] = &cp
}

// Get returns the stored transaction or nil.
func (m *MockTransactionRepository) Get(id string) *domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.transactions[id]
}

// All returns every stored transaction.
func (m *MockTransactionRepository) All() []*domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Transaction, 0, len(m.transactions))
	for _, t := range m.transactions {
		out = append(out, t)
	}
	return out
}

func (m *MockTransactionRepository) InsertIfAbsent(ctx context.Context, t *domain.Transaction) (bool, error) {
	if m.InsertIfAbsentFunc != nil {
		return m.InsertIfAbsentFunc(ctx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[t.ID]; ok {
		return false, nil
	}
	cp := *t
	cp.CreatedAt = time.Now().UTC()
	m.transactions[t.ID] = &cp
	return true, nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.transactions[id]; ok {
		return t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) List(ctx context.Context, filter usecase.TransactionFilter) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.Transaction
	for _, t := range m.transactions {
		if filter.Provider != "" && t.Provider != filter.Provider {
			continue
		}
		if filter.Category != "" && t.LedgerCategory != filter.Category {
			continue
		}
		if filter.Reviewed != nil && t.IsReviewed != *filter.Reviewed {
			continue
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *MockTransactionRepository) ListByProviderNewestFirst(ctx context.Context, provider string) ([]*domain.Transaction, error) {
	out, err := m.List(ctx, usecase.TransactionFilter{Provider: provider})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (m *MockTransactionRepository) FindTransferCandidates(ctx context.Context, tx usecase.Transaction, providers []string, amount decimal.Decimal, fromDate, toDate, excludeCategory string) ([]*domain.Transaction, error) {
	if m.FindTransferCandidatesFunc != nil {
		return m.FindTransferCandidatesFunc(ctx, tx, providers, amount, fromDate, toDate, excludeCategory)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	allowed := make(map[string]bool, len(providers))
	for _, p := range providers {
		allowed[p] = true
	}

	var out []*domain.Transaction
	for _, t := range m.transactions {
		if !allowed[t.Provider] || !t.Amount.Equal(amount) {
			continue
		}
		if t.Date < fromDate || t.Date > toDate {
			continue
		}
		if t.LedgerCategory == excludeCategory {
			continue
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockTransactionRepository) UpdateCategory(ctx context.Context, id, category string, reviewed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	t.LedgerCategory = category
	t.IsReviewed = reviewed
	return nil
}

func (m *MockTransactionRepository) UpdateCategoryTx(ctx context.Context, tx usecase.Transaction, id, category string, reviewed bool) error {
	return m.UpdateCategory(ctx, id, category, reviewed)
}

func (m *MockTransactionRepository) ResetCategories(ctx context.Context, category string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.transactions {
		t.LedgerCategory = category
		t.IsReviewed = false
	}
	return int64(len(m.transactions)), nil
}

// MockAccountRepository is an in-memory AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.AccountMap
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{accounts: make(map[string]*domain.AccountMap)}
}

func key(externalID, provider string) string { return externalID + "|" + provider }

func (m *MockAccountRepository) EnsureAccount(ctx context.Context, a *domain.AccountMap) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(a.ExternalID, a.Provider)
	if _, ok := m.accounts[k]; ok {
		return false, nil
	}
	cp := *a
	m.accounts[k] = &cp
	return true, nil
}

func (m *MockAccountRepository) List(ctx context.Context) ([]*domain.AccountMap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.AccountMap, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out, nil
}

func (m *MockAccountRepository) UpdateBalances(ctx context.Context, externalID, provider string, current, available decimal.Decimal, currency string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[key(externalID, provider)]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.CurrentBalance = current
	a.AvailableBalance = available
	a.Currency = currency
	a.LastUpdated = at
	return nil
}

func (m *MockAccountRepository) UpdateLedgerAccount(ctx context.Context, externalID, provider, ledgerAccount string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[key(externalID, provider)]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.LedgerAccount = ledgerAccount
	return nil
}

// MockRuleRepository serves a fixed rule list.
type MockRuleRepository struct {
	Rules []*domain.CategoryRule
}

func (m *MockRuleRepository) List(ctx context.Context) ([]*domain.CategoryRule, error) {
	return m.Rules, nil
}

// MockTx is a no-op store transaction that records its outcome.
type MockTx struct {
	Committed  bool
	RolledBack bool
}

func (t *MockTx) Commit(ctx context.Context) error { t.Committed = true; return nil }

func (t *MockTx) Rollback(ctx context.Context) error {
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

// MockTxManager hands out MockTx instances and keeps them for inspection.
type MockTxManager struct {
	mu  sync.Mutex
	Txs []*MockTx
}

func (m *MockTxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &MockTx{}
	m.Txs = append(m.Txs, tx)
	return tx, nil
}

// MockSyncLocker tracks held locks in memory.
type MockSyncLocker struct {
	mu   sync.Mutex
	held map[string]string

	AcquireFunc func(ctx context.Context, provider, runID string, ttl time.Duration) (bool, error)
}

func NewMockSyncLocker() *MockSyncLocker {
	return &MockSyncLocker{held: make(map[string]string)}
}

func (m *MockSyncLocker) Acquire(ctx context.Context, provider, runID string, ttl time.Duration) (bool, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, provider, runID, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[provider]; ok {
		return false, nil
	}
	m.held[provider] = runID
	return true, nil
}

func (m *MockSyncLocker) Release(ctx context.Context, provider, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[provider] == runID {
		delete(m.held, provider)
	}
	return nil
}

// MockExpenseSource serves canonical records in fixed pages.
type MockExpenseSource struct {
	Pages [][]*domain.CanonicalTransaction
	Err   error

	calls int
}

func (m *MockExpenseSource) FetchExpenses(ctx context.Context, offset, limit int) ([]*domain.CanonicalTransaction, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.calls >= len(m.Pages) {
		return nil, nil
	}
	page := m.Pages[m.calls]
	m.calls++
	return page, nil
}

// MockBankSource serves one fixed window of accounts and records.
type MockBankSource struct {
	Accounts []*domain.AccountMap
	Records  []*domain.CanonicalTransaction
	Err      error
}

func (m *MockBankSource) Fetch(ctx context.Context, start, end time.Time) ([]*domain.AccountMap, []*domain.CanonicalTransaction, error) {
	if m.Err != nil {
		return nil, nil, m.Err
	}
	return m.Accounts, m.Records, nil
}
