package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finpulse/finpulse/internal/model"
)

func TestMemoryStoreUsers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	user := &model.User{Email: "owner@example.com", Name: "Owner", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, user))
	require.NotEmpty(t, user.ID)
	require.False(t, user.CreatedAt.IsZero())

	got, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", got.Email)

	byEmail, err := s.GetUserByEmail(ctx, "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	err = s.CreateUser(ctx, &model.User{Email: "owner@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreTransactionCRUD(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	txn := &model.Transaction{
		UserID:   "u1",
		Type:     model.TransactionExpense,
		Amount:   120.50,
		Date:     time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
		Name:     "Office chair",
		Category: "business_expenses",
	}
	require.NoError(t, s.CreateTransaction(ctx, txn))
	require.NotEmpty(t, txn.ID)

	got, err := s.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "Office chair", got.Name)

	got.Amount = 99
	require.NoError(t, s.UpdateTransaction(ctx, got))
	updated, err := s.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, 99.0, updated.Amount)

	require.NoError(t, s.DeleteTransaction(ctx, txn.ID))
	_, err = s.GetTransaction(ctx, txn.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteTransaction(ctx, txn.ID), ErrNotFound)
}

func TestMemoryStoreListTransactionsFilters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	dates := []time.Time{
		time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		require.NoError(t, s.CreateTransaction(ctx, &model.Transaction{
			UserID: "u1", Type: model.TransactionExpense, Amount: 10, Date: d,
		}))
	}
	require.NoError(t, s.CreateTransaction(ctx, &model.Transaction{
		UserID: "other", Type: model.TransactionExpense, Amount: 10, Date: dates[0],
	}))

	all, token, err := s.ListTransactions(ctx, "u1", nil, nil, 0, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Empty(t, token)

	start := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)
	feb, _, err := s.ListTransactions(ctx, "u1", &start, &end, 0, "")
	require.NoError(t, err)
	require.Len(t, feb, 1)
	assert.Equal(t, dates[1], feb[0].Date)
}

func TestMemoryStoreListTransactionsPagination(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.CreateTransaction(ctx, &model.Transaction{
			UserID: "u1", Type: model.TransactionIncome, Amount: 100,
			Date: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		}))
	}

	var seen []string
	token := ""
	for {
		page, next, err := s.ListTransactions(ctx, "u1", nil, nil, 2, token)
		require.NoError(t, err)
		for _, txn := range page {
			seen = append(seen, txn.ID)
		}
		if next == "" {
			break
		}
		token = next
	}
	assert.Len(t, seen, 5)

	unique := make(map[string]bool)
	for _, id := range seen {
		unique[id] = true
	}
	assert.Len(t, unique, 5)
}

func TestMemoryStoreUpsertByExternalID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first := &model.Transaction{
		UserID: "u1", ExternalID: "bank-42", Type: model.TransactionExpense,
		Amount: 50, Date: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), Pending: true,
	}
	inserted, err := s.UpsertTransactionByExternalID(ctx, first)
	require.NoError(t, err)
	assert.True(t, inserted)

	second := &model.Transaction{
		UserID: "u1", ExternalID: "bank-42", Type: model.TransactionExpense,
		Amount: 50, Date: first.Date, Pending: false,
	}
	inserted, err = s.UpsertTransactionByExternalID(ctx, second)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, first.ID, second.ID)

	all, _, err := s.ListTransactions(ctx, "u1", nil, nil, 0, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Pending)
}

func TestMemoryStoreGoals(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	goal := &model.FinancialGoal{UserID: "u1", Type: "emergency_fund", Title: "Safety net", TargetAmount: 30000}
	require.NoError(t, s.CreateGoal(ctx, goal))

	goal.CurrentAmount = 5000
	require.NoError(t, s.UpdateGoal(ctx, goal))

	goals, err := s.ListGoals(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, 5000.0, goals[0].CurrentAmount)

	require.NoError(t, s.DeleteGoal(ctx, goal.ID))
	assert.ErrorIs(t, s.UpdateGoal(ctx, goal), ErrNotFound)
}

func TestMemoryStoreDebts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateDebt(ctx, &model.Debt{UserID: "u1", Name: "loan", Amount: 10000}))
	require.NoError(t, s.CreateDebt(ctx, &model.Debt{UserID: "u2", Name: "other", Amount: 500}))

	debts, err := s.ListDebts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, debts, 1)
	assert.Equal(t, 10000.0, debts[0].Amount)

	debt, err := s.GetDebt(ctx, debts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", debt.UserID)
	_, err = s.GetDebt(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteDebt(ctx, debts[0].ID))
	assert.ErrorIs(t, s.DeleteDebt(ctx, debts[0].ID), ErrNotFound)
}
