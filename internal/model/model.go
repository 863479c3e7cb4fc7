// Package model holds the persisted domain types shared by the store,
// service, and handler layers.
package model

import "time"

// TransactionType separates inflows from outflows.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// User is a registered account holder.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Transaction is a single dated movement of money. Amount is always
// non-negative; Type says which direction it flows.
type Transaction struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	AccountID    string          `json:"account_id,omitempty"`
	ExternalID   string          `json:"external_id,omitempty"`
	Type         TransactionType `json:"type"`
	Amount       float64         `json:"amount"`
	Date         time.Time       `json:"date"`
	Name         string          `json:"name"`
	MerchantName string          `json:"merchant_name,omitempty"`
	Category     string          `json:"category"`
	VATRateType  string          `json:"vat_rate_type,omitempty"`
	Pending      bool            `json:"pending"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Debt is an outstanding liability used by the health scorer.
type Debt struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// FinancialGoal is a user-defined or recommended savings target.
type FinancialGoal struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	TargetAmount  float64   `json:"target_amount"`
	CurrentAmount float64   `json:"current_amount"`
	Priority      string    `json:"priority"`
	Timeframe     string    `json:"timeframe"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
