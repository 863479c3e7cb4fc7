package bankdata

import (
	"context"
	"fmt"
	"time"
)

// sandboxEntry is one recurring monthly item in the generated account
// history.
type sandboxEntry struct {
	day      int
	amount   float64
	name     string
	category string
}

var sandboxEntries = []sandboxEntry{
	{1, -12500, "Client invoice payment", "income"},
	{5, 2400, "Office rent", "rent"},
	{7, 650, "Cloud hosting", "business_expenses"},
	{12, 1800, "Contractor payout", "payroll"},
	{15, -3100, "Consulting retainer", "income"},
	{18, 320, "Health insurance premium", "insurance"},
	{22, 140, "Team lunch", "meals"},
	{27, 480, "Online course subscription", "education"},
}

// Sandbox is a Provider that deterministically synthesizes a plausible
// monthly transaction history for any account ID. The same account and range
// always produce the same records.
type Sandbox struct{}

func NewSandbox() *Sandbox {
	return &Sandbox{}
}

func (s *Sandbox) FetchTransactions(ctx context.Context, accountID string, start, end time.Time) ([]Record, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("invalid range: end %s before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	var records []Record
	month := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !month.After(end) {
		for _, entry := range sandboxEntries {
			date := time.Date(month.Year(), month.Month(), entry.day, 0, 0, 0, 0, time.UTC)
			if date.Before(start) || date.After(end) {
				continue
			}
			records = append(records, Record{
				ID:        fmt.Sprintf("%s-%s-%02d", accountID, date.Format("2006-01"), entry.day),
				AccountID: accountID,
				Amount:    entry.amount,
				Date:      date,
				Name:      entry.name,
				Category:  entry.category,
			})
		}
		month = month.AddDate(0, 1, 0)
	}
	return records, nil
}
