package splitwise

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/hbeck/ledgersync/internal/domain"
)

// DefaultBaseURL is the production Splitwise API endpoint.
const DefaultBaseURL = "https://secure.splitwise.com/api/v3.0"

// Client implements usecase.ExpenseSource against the Splitwise REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userID     int
	logger     zerolog.Logger
}

// NewClient creates a Splitwise API client. baseURL may be empty to use the
// production endpoint.
func NewClient(apiKey, baseURL string, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     logger,
	}
}

type userResponse struct {
	User struct {
		ID int `json:"id"`
	} `json:"user"`
}

type expensesResponse struct {
	Expenses []expense `json:"expenses"`
}

type expense struct {
	ID          int           `json:"id"`
	Date        string        `json:"date"`
	Description string        `json:"description"`
	Currency    string        `json:"currency_code"`
	Payment     bool          `json:"payment"`
	DeletedAt   *string       `json:"deleted_at"`
	Users       []expenseUser `json:"users"`
}

type expenseUser struct {
	UserID    int    `json:"user_id"`
	PaidShare string `json:"paid_share"`
	OwedShare string `json:"owed_share"`
}

// FetchExpenses returns one page of the caller's expense feed as canonical
// records, newest first. Records the caller is not part of are dropped.
func (c *Client) FetchExpenses(ctx context.Context, offset, limit int) ([]*domain.CanonicalTransaction, error) {
	userID, err := c.currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/get_expenses?limit=%d&offset=%d&dated_after=1970-01-01T00:00:00Z",
		c.baseURL, limit, offset)

	var data expensesResponse
	if err := c.getJSON(ctx, url, &data); err != nil {
		return nil, fmt.Errorf("fetch expenses: %w", err)
	}

	out := make([]*domain.CanonicalTransaction, 0, len(data.Expenses))
	for _, exp := range data.Expenses {
		record, ok := c.toCanonical(exp, userID)
		if ok {
			out = append(out, record)
		}
	}

	return out, nil
}

// toCanonical computes the caller's share of an expense. Sign convention:
// negative means the caller's debt grows, positive means it shrinks.
func (c *Client) toCanonical(exp expense, userID int) (*domain.CanonicalTransaction, bool) {
	if exp.DeletedAt != nil {
		return nil, false
	}

	var (
		amount  decimal.Decimal
		didPay  bool
		inGroup bool
	)

	for _, u := range exp.Users {
		if u.UserID != userID {
			continue
		}

		owed := parseShare(u.OwedShare)
		paid := parseShare(u.PaidShare)

		if exp.Payment {
			switch {
			case paid.IsPositive():
				// Settling my debt shrinks the liability.
				amount = paid
				inGroup = true
			case owed.IsPositive():
				// Someone settled their debt to me.
				amount = owed.Neg()
				inGroup = true
			}
		} else {
			if owed.IsPositive() {
				amount = owed.Neg()
				inGroup = true
			}
			if paid.IsPositive() {
				didPay = true
			}
		}
	}

	if !inGroup || amount.IsZero() {
		return nil, false
	}

	provider := domain.ProviderSplitwise
	if exp.Payment {
		provider = domain.ProviderSplitwisePayment
	} else if didPay {
		provider = domain.ProviderSplitwisePayer
	}

	if len(exp.Date) < len(domain.DateLayout) {
		c.logger.Warn().Int("expense_id", exp.ID).Str("date", exp.Date).Msg("skipping expense with short date")
		return nil, false
	}

	return &domain.CanonicalTransaction{
		Date:        exp.Date[:len(domain.DateLayout)],
		Payee:       exp.Description,
		Amount:      amount,
		Currency:    exp.Currency,
		Provider:    provider,
		AccountID:   domain.SplitwiseAccountID,
		ExternalRef: strconv.Itoa(exp.ID),
		Note:        "Splitwise Import",
	}, true
}

// currentUserID resolves and caches the authenticated user's ID. Share math
// needs it to pick the caller's row out of each expense.
func (c *Client) currentUserID(ctx context.Context) (int, error) {
	if c.userID != 0 {
		return c.userID, nil
	}

	var data userResponse
	if err := c.getJSON(ctx, c.baseURL+"/get_current_user", &data); err != nil {
		return 0, fmt.Errorf("get current user: %w", err)
	}

	c.userID = data.User.ID
	c.logger.Info().Int("user_id", c.userID).Msg("authenticated with splitwise")

	return c.userID, nil
}

func (c *Client) getJSON(ctx context.Context, url string, dest any) error {
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

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
			return fmt.Errorf("splitwise api status %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("splitwise api status %d", resp.StatusCode))
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

func parseShare(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}

	return d
}
