package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/finpulse/finpulse/internal/model"
)

// PostgresStore implements Store backed by PostgreSQL via database/sql.
// Schema is created out of band; see scripts/schema.sql.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle. The caller owns the
// handle's lifecycle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// User operations

func (s *PostgresStore) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	query := `
		INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query, user.ID, user.Email, user.Name, user.PasswordHash).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM users WHERE id = $1`, userID))
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM users WHERE email = $1`, email))
}

func (s *PostgresStore) scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// Transaction operations

const transactionColumns = `id, user_id, account_id, external_id, type, amount, date, name, merchant_name, category, vat_rate_type, pending, created_at, updated_at`

func (s *PostgresStore) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	query := `
		INSERT INTO transactions (id, user_id, account_id, external_id, type, amount, date, name, merchant_name, category, vat_rate_type, pending, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		txn.ID, txn.UserID, txn.AccountID, txn.ExternalID, txn.Type, txn.Amount, txn.Date,
		txn.Name, txn.MerchantName, txn.Category, txn.VATRateType, txn.Pending).
		Scan(&txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTransaction(ctx context.Context, txnID string) (*model.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, txnID)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return txn, nil
}

func (s *PostgresStore) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	query := `
		UPDATE transactions
		SET type = $2, amount = $3, date = $4, name = $5, merchant_name = $6,
		    category = $7, vat_rate_type = $8, pending = $9, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query,
		txn.ID, txn.Type, txn.Amount, txn.Date, txn.Name, txn.MerchantName,
		txn.Category, txn.VATRateType, txn.Pending)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) DeleteTransaction(ctx context.Context, txnID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, txnID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) ListTransactions(ctx context.Context, userID string, startDate, endDate *time.Time, pageSize int32, pageToken string) ([]*model.Transaction, string, error) {
	if pageSize <= 0 {
		pageSize = 100
	}
	cursor, err := DecodePageToken(pageToken)
	if err != nil {
		return nil, "", fmt.Errorf("invalid page token: %w", err)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 AND id > $2`
	args := []interface{}{userID, cursor}
	if startDate != nil {
		args = append(args, *startDate)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if endDate != nil {
		args = append(args, *endDate)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	args = append(args, pageSize+1)
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, "", fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("failed to list transactions: %w", err)
	}

	var nextToken string
	if int32(len(txns)) > pageSize {
		txns = txns[:pageSize]
		nextToken = EncodePageToken(txns[len(txns)-1].ID)
	}
	return txns, nextToken, nil
}

func (s *PostgresStore) UpsertTransactionByExternalID(ctx context.Context, txn *model.Transaction) (bool, error) {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	query := `
		INSERT INTO transactions (id, user_id, account_id, external_id, type, amount, date, name, merchant_name, category, vat_rate_type, pending, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, external_id) WHERE external_id IS NOT NULL AND external_id <> '' DO UPDATE
		SET amount = EXCLUDED.amount, date = EXCLUDED.date, name = EXCLUDED.name,
		    merchant_name = EXCLUDED.merchant_name, category = EXCLUDED.category,
		    pending = EXCLUDED.pending, updated_at = CURRENT_TIMESTAMP
		RETURNING id, (created_at = updated_at) AS inserted`
	var inserted bool
	err := s.db.QueryRowContext(ctx, query,
		txn.ID, txn.UserID, txn.AccountID, txn.ExternalID, txn.Type, txn.Amount, txn.Date,
		txn.Name, txn.MerchantName, txn.Category, txn.VATRateType, txn.Pending).
		Scan(&txn.ID, &inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert transaction: %w", err)
	}
	return inserted, nil
}

// Debt operations

func (s *PostgresStore) CreateDebt(ctx context.Context, debt *model.Debt) error {
	if debt.ID == "" {
		debt.ID = uuid.New().String()
	}
	query := `
		INSERT INTO debts (id, user_id, name, amount, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err := s.db.QueryRowContext(ctx, query, debt.ID, debt.UserID, debt.Name, debt.Amount).
		Scan(&debt.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create debt: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDebt(ctx context.Context, debtID string) (*model.Debt, error) {
	debt := &model.Debt{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, amount, created_at
		FROM debts WHERE id = $1`, debtID).
		Scan(&debt.ID, &debt.UserID, &debt.Name, &debt.Amount, &debt.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find debt: %w", err)
	}
	return debt, nil
}

func (s *PostgresStore) DeleteDebt(ctx context.Context, debtID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM debts WHERE id = $1`, debtID)
	if err != nil {
		return fmt.Errorf("failed to delete debt: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) ListDebts(ctx context.Context, userID string) ([]*model.Debt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, amount, created_at
		FROM debts WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	defer rows.Close()

	var debts []*model.Debt
	for rows.Next() {
		debt := &model.Debt{}
		if err := rows.Scan(&debt.ID, &debt.UserID, &debt.Name, &debt.Amount, &debt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		debts = append(debts, debt)
	}
	return debts, rows.Err()
}

// Goal operations

func (s *PostgresStore) CreateGoal(ctx context.Context, goal *model.FinancialGoal) error {
	if goal.ID == "" {
		goal.ID = uuid.New().String()
	}
	query := `
		INSERT INTO goals (id, user_id, type, title, target_amount, current_amount, priority, timeframe, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		goal.ID, goal.UserID, goal.Type, goal.Title, goal.TargetAmount, goal.CurrentAmount,
		goal.Priority, goal.Timeframe, goal.Description).
		Scan(&goal.CreatedAt, &goal.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetGoal(ctx context.Context, goalID string) (*model.FinancialGoal, error) {
	goal := &model.FinancialGoal{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, type, title, target_amount, current_amount, priority, timeframe, description, created_at, updated_at
		FROM goals WHERE id = $1`, goalID).
		Scan(&goal.ID, &goal.UserID, &goal.Type, &goal.Title, &goal.TargetAmount, &goal.CurrentAmount,
			&goal.Priority, &goal.Timeframe, &goal.Description, &goal.CreatedAt, &goal.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find goal: %w", err)
	}
	return goal, nil
}

func (s *PostgresStore) UpdateGoal(ctx context.Context, goal *model.FinancialGoal) error {
	query := `
		UPDATE goals
		SET type = $2, title = $3, target_amount = $4, current_amount = $5,
		    priority = $6, timeframe = $7, description = $8, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query,
		goal.ID, goal.Type, goal.Title, goal.TargetAmount, goal.CurrentAmount,
		goal.Priority, goal.Timeframe, goal.Description)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) DeleteGoal(ctx context.Context, goalID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM goals WHERE id = $1`, goalID)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) ListGoals(ctx context.Context, userID string) ([]*model.FinancialGoal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, title, target_amount, current_amount, priority, timeframe, description, created_at, updated_at
		FROM goals WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var goals []*model.FinancialGoal
	for rows.Next() {
		goal := &model.FinancialGoal{}
		if err := rows.Scan(&goal.ID, &goal.UserID, &goal.Type, &goal.Title, &goal.TargetAmount,
			&goal.CurrentAmount, &goal.Priority, &goal.Timeframe, &goal.Description,
			&goal.CreatedAt, &goal.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

func (s *PostgresStore) ListDigestUsers(ctx context.Context) ([]*model.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user := &model.User{}
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash,
			&user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	txn := &model.Transaction{}
	err := row.Scan(&txn.ID, &txn.UserID, &txn.AccountID, &txn.ExternalID, &txn.Type, &txn.Amount,
		&txn.Date, &txn.Name, &txn.MerchantName, &txn.Category, &txn.VATRateType, &txn.Pending,
		&txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation"
}
