package store

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/finpulse/finpulse/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a uniqueness constraint is violated, e.g.
// registering an email twice.
var ErrDuplicate = errors.New("already exists")

// Store defines the interface for all database operations used by the service
type Store interface {
	// User operations
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, userID string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// Transaction operations
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransaction(ctx context.Context, txnID string) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, txnID string) error
	ListTransactions(ctx context.Context, userID string, startDate, endDate *time.Time, pageSize int32, pageToken string) ([]*model.Transaction, string, error)
	// UpsertTransactionByExternalID inserts or refreshes a synced bank
	// transaction keyed by (userID, externalID). Returns true on insert.
	UpsertTransactionByExternalID(ctx context.Context, txn *model.Transaction) (bool, error)

	// Debt operations
	CreateDebt(ctx context.Context, debt *model.Debt) error
	GetDebt(ctx context.Context, debtID string) (*model.Debt, error)
	DeleteDebt(ctx context.Context, debtID string) error
	ListDebts(ctx context.Context, userID string) ([]*model.Debt, error)

	// Goal operations
	CreateGoal(ctx context.Context, goal *model.FinancialGoal) error
	GetGoal(ctx context.Context, goalID string) (*model.FinancialGoal, error)
	UpdateGoal(ctx context.Context, goal *model.FinancialGoal) error
	DeleteGoal(ctx context.Context, goalID string) error
	ListGoals(ctx context.Context, userID string) ([]*model.FinancialGoal, error)

	// ListDigestUsers returns the users enrolled in the weekly risk digest.
	ListDigestUsers(ctx context.Context) ([]*model.User, error)
}

// EncodePageToken encodes a record ID into a page token.
func EncodePageToken(id string) string {
	if id == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(id))
}

// DecodePageToken decodes a page token back to a record ID.
func DecodePageToken(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
