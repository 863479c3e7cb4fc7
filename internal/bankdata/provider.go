// Package bankdata defines the bank-transaction provider contract and a
// deterministic sandbox implementation used for local development and tests.
package bankdata

import (
	"context"
	"time"
)

// Record is a normalized bank transaction as returned by a provider.
// Positive amounts are outflows, negative amounts are inflows, matching the
// convention of aggregator-style bank APIs.
type Record struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Amount    float64   `json:"amount"`
	Date      time.Time `json:"date"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Pending   bool      `json:"pending"`
}

// Provider fetches transactions for a linked account over a date range.
type Provider interface {
	FetchTransactions(ctx context.Context, accountID string, start, end time.Time) ([]Record, error)
}
