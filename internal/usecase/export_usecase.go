package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/hbeck/ledgersync/internal/domain"
)

// journalEntry is the template view of one exported posting.
type journalEntry struct {
	Date          string
	Payee         string
	Amount        string
	Currency      string
	AccountDest   string
	AccountSource string
	Note          string
}

const monthTemplate = `; ledgersync - {{ .Month }}
; generated at {{ .GeneratedAt }}
{{ range .Entries }}
{{ .Date }} * {{ .Payee }}
    {{ .AccountDest }}      {{ .Amount }} {{ .Currency }}
    {{ .AccountSource }}
    {{- if .Note }}
    ; {{ .Note }}
    {{- end }}
{{ end }}`

const indexTemplate = `; main index file
; open with: ledger -f main.journal
{{ range .Years }}
include {{ . }}/{{ . }}*.journal
{{- end }}
`

// ExportUseCase renders the ledger store into plain-text journal files, one
// per month plus a root index.
type ExportUseCase struct {
	transactions TransactionRepository
	accounts     AccountRepository
	rootDir      string
	logger       zerolog.Logger
}

// NewExportUseCase creates a new ExportUseCase.
func NewExportUseCase(transactions TransactionRepository, accounts AccountRepository, rootDir string, logger zerolog.Logger) *ExportUseCase {
	if rootDir == "" {
		rootDir = "exports"
	}
	return &ExportUseCase{
		transactions: transactions,
		accounts:     accounts,
		rootDir:      rootDir,
		logger:       logger,
	}
}

// Export writes every transaction as a double-sided journal posting, grouped
// by month. Payer-side shared-expense records are skipped to avoid exporting
// the same real-world expense twice.
func (uc *ExportUseCase) Export(ctx context.Context) error {
	transactions, err := uc.transactions.List(ctx, TransactionFilter{})
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}

	ledgerAccounts, err := uc.ledgerAccountIndex(ctx)
	if err != nil {
		return err
	}

	buckets := make(map[string][]journalEntry)
	years := make(map[string]bool)

	for _, tx := range transactions {
		if len(tx.Date) < 7 || tx.Provider == domain.ProviderSplitwisePayer {
			continue
		}

		source := ledgerAccounts[tx.AccountID]
		if source == "" {
			source = domain.PlaceholderLedgerAccount(tx.AccountID)
		}

		month := tx.Date[:7]
		years[tx.Date[:4]] = true

		buckets[month] = append(buckets[month], journalEntry{
			Date:          tx.Date,
			Payee:         tx.Payee,
			Amount:        tx.Amount.Neg().StringFixed(2),
			Currency:      tx.Currency,
			AccountDest:   tx.LedgerCategory,
			AccountSource: source,
			Note:          tx.Notes,
		})
	}

	if err := uc.writeMonthFiles(buckets); err != nil {
		return err
	}

	if err := uc.writeIndex(years); err != nil {
		return err
	}

	uc.logger.Info().Int("months", len(buckets)).Str("dir", uc.rootDir).Msg("journal export complete")

	return nil
}

func (uc *ExportUseCase) ledgerAccountIndex(ctx context.Context) (map[string]string, error) {
	accounts, err := uc.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	index := make(map[string]string, len(accounts))
	for _, a := range accounts {
		index[a.ExternalID] = a.LedgerAccount
	}

	return index, nil
}

func (uc *ExportUseCase) writeMonthFiles(buckets map[string][]journalEntry) error {
	tmpl, err := template.New("month").Parse(monthTemplate)
	if err != nil {
		return err
	}

	for month, entries := range buckets {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })

		yearDir := filepath.Join(uc.rootDir, month[:4])
		if err := os.MkdirAll(yearDir, 0o755); err != nil {
			return err
		}

		f, err := os.Create(filepath.Join(yearDir, month+".journal"))
		if err != nil {
			return err
		}

		data := struct {
			Month       string
			GeneratedAt string
			Entries     []journalEntry
		}{
			Month:       month,
			GeneratedAt: time.Now().Format(time.RFC3339),
			Entries:     entries,
		}

		if err := tmpl.Execute(f, data); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	return nil
}

func (uc *ExportUseCase) writeIndex(yearSet map[string]bool) error {
	years := make([]string, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Strings(years)

	tmpl, err := template.New("index").Parse(indexTemplate)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(uc.rootDir, 0o755); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(uc.rootDir, "main.journal"))
	if err != nil {
		return err
	}
	defer f.Close()

	return tmpl.Execute(f, struct{ Years []string }{Years: years})
}
