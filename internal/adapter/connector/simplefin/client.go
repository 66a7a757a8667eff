package simplefin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/hbeck/ledgersync/internal/domain"
)

// Client implements usecase.BankSource against a SimpleFIN bridge access URL.
type Client struct {
	httpClient *http.Client
	accessURL  string
	logger     zerolog.Logger
}

// NewClient creates a SimpleFIN client. The access URL is normalized to end
// in /accounts, the only endpoint carrying transaction data.
func NewClient(accessURL string, logger zerolog.Logger) *Client {
	if accessURL != "" && !strings.HasSuffix(accessURL, "/accounts") {
		accessURL = strings.TrimSuffix(accessURL, "/") + "/accounts"
	}

	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		accessURL:  accessURL,
		logger:     logger,
	}
}

type accountsResponse struct {
	Errors   []string  `json:"errors"`
	Accounts []account `json:"accounts"`
}

type account struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Currency         string        `json:"currency"`
	Balance          string        `json:"balance"`
	AvailableBalance string        `json:"available-balance"`
	Transactions     []transaction `json:"transactions"`
}

type transaction struct {
	ID          string `json:"id"`
	Posted      int64  `json:"posted"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

// Fetch returns account snapshots and canonical records for the posted-date
// window [start, end]. Records with unparseable amounts are dropped.
func (c *Client) Fetch(ctx context.Context, start, end time.Time) ([]*domain.AccountMap, []*domain.CanonicalTransaction, error) {
	if c.accessURL == "" {
		return nil, nil, fmt.Errorf("%w: access url not configured", domain.ErrSourceUnavailable)
	}

	url := fmt.Sprintf("%s?start-date=%d&end-date=%d", c.accessURL, start.Unix(), end.Unix())

	var data accountsResponse
	if err := c.getJSON(ctx, url, &data); err != nil {
		return nil, nil, fmt.Errorf("fetch accounts: %w", err)
	}

	for _, msg := range data.Errors {
		c.logger.Warn().Str("message", msg).Msg("simplefin reported an error")
	}

	var (
		accounts []*domain.AccountMap
		records  []*domain.CanonicalTransaction
	)

	for _, acc := range data.Accounts {
		accounts = append(accounts, &domain.AccountMap{
			ExternalID:       acc.ID,
			Provider:         domain.ProviderSimpleFIN,
			Name:             acc.Name,
			LedgerAccount:    domain.PlaceholderLedgerAccount(acc.ID),
			Currency:         acc.Currency,
			CurrentBalance:   parseBalance(acc.Balance),
			AvailableBalance: parseBalance(acc.AvailableBalance),
		})

		for _, t := range acc.Transactions {
			amount, err := decimal.NewFromString(t.Amount)
			if err != nil {
				c.logger.Warn().
					Str("transaction_id", t.ID).
					Str("amount", t.Amount).
					Msg("skipping transaction with bad amount")
				continue
			}

			records = append(records, &domain.CanonicalTransaction{
				Date:        time.Unix(t.Posted, 0).UTC().Format(domain.DateLayout),
				Payee:       t.Description,
				Amount:      amount,
				Currency:    acc.Currency,
				Provider:    domain.ProviderSimpleFIN,
				AccountID:   acc.ID,
				ExternalRef: t.ID,
			})
		}
	}

	return accounts, records, nil
}

func (c *Client) getJSON(ctx context.Context, url string, dest any) error {
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
				return backoff.Permanent(fmt.Errorf("decode response: %w", err))
			}
			return nil
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("simplefin api status %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("simplefin api status %d", resp.StatusCode))
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	return nil
}

func parseBalance(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}

	return d
}
