package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finpulse/finpulse/internal/model"
)

// MemoryStore implements Store interface with in-memory storage
type MemoryStore struct {
	mu sync.RWMutex

	users        map[string]*model.User
	usersByEmail map[string]string
	transactions map[string]*model.Transaction
	externalIDs  map[string]string // userID+"/"+externalID -> transaction ID
	debts        map[string]*model.Debt
	goals        map[string]*model.FinancialGoal
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]*model.User),
		usersByEmail: make(map[string]string),
		transactions: make(map[string]*model.Transaction),
		externalIDs:  make(map[string]string),
		debts:        make(map[string]*model.Debt),
		goals:        make(map[string]*model.FinancialGoal),
	}
}

// paginateIDs applies cursor-based pagination to a sorted slice of IDs.
// Returns the paginated IDs and the next page token (empty if no more pages).
func paginateIDs(ids []string, pageSize int32, pageToken string) ([]string, string) {
	if pageSize <= 0 {
		pageSize = 100
	}

	sort.Strings(ids)

	startIdx := 0
	if pageToken != "" {
		cursorID, err := DecodePageToken(pageToken)
		if err == nil {
			for i, id := range ids {
				if id > cursorID {
					startIdx = i
					break
				}
				if i == len(ids)-1 {
					return nil, ""
				}
			}
		}
	}

	ids = ids[startIdx:]

	var nextToken string
	if int32(len(ids)) > pageSize {
		nextToken = EncodePageToken(ids[pageSize-1])
		ids = ids[:pageSize]
	}

	return ids, nextToken
}

// User operations

func (m *MemoryStore) CreateUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.usersByEmail[user.Email]; taken {
		return ErrDuplicate
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	m.users[user.ID] = user
	m.usersByEmail[user.Email] = user.ID
	return nil
}

func (m *MemoryStore) GetUser(ctx context.Context, userID string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return user, nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	userID, ok := m.usersByEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return m.users[userID], nil
}

// Transaction operations

func (m *MemoryStore) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	now := time.Now()
	txn.CreatedAt = now
	txn.UpdatedAt = now

	m.transactions[txn.ID] = txn
	if txn.ExternalID != "" {
		m.externalIDs[txn.UserID+"/"+txn.ExternalID] = txn.ID
	}
	return nil
}

func (m *MemoryStore) GetTransaction(ctx context.Context, txnID string) (*model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	txn, ok := m.transactions[txnID]
	if !ok {
		return nil, ErrNotFound
	}
	return txn, nil
}

func (m *MemoryStore) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.transactions[txn.ID]
	if !ok {
		return ErrNotFound
	}
	txn.CreatedAt = existing.CreatedAt
	txn.UpdatedAt = time.Now()
	m.transactions[txn.ID] = txn
	return nil
}

func (m *MemoryStore) DeleteTransaction(ctx context.Context, txnID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	txn, ok := m.transactions[txnID]
	if !ok {
		return ErrNotFound
	}
	if txn.ExternalID != "" {
		delete(m.externalIDs, txn.UserID+"/"+txn.ExternalID)
	}
	delete(m.transactions, txnID)
	return nil
}

func (m *MemoryStore) ListTransactions(ctx context.Context, userID string, startDate, endDate *time.Time, pageSize int32, pageToken string) ([]*model.Transaction, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, txn := range m.transactions {
		if txn.UserID != userID {
			continue
		}
		if startDate != nil && txn.Date.Before(*startDate) {
			continue
		}
		if endDate != nil && txn.Date.After(*endDate) {
			continue
		}
		ids = append(ids, id)
	}

	pageIDs, nextToken := paginateIDs(ids, pageSize, pageToken)

	txns := make([]*model.Transaction, 0, len(pageIDs))
	for _, id := range pageIDs {
		txns = append(txns, m.transactions[id])
	}
	return txns, nextToken, nil
}

func (m *MemoryStore) UpsertTransactionByExternalID(ctx context.Context, txn *model.Transaction) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := txn.UserID + "/" + txn.ExternalID
	now := time.Now()

	if existingID, ok := m.externalIDs[key]; ok {
		existing := m.transactions[existingID]
		txn.ID = existingID
		txn.CreatedAt = existing.CreatedAt
		txn.UpdatedAt = now
		m.transactions[existingID] = txn
		return false, nil
	}

	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	txn.CreatedAt = now
	txn.UpdatedAt = now
	m.transactions[txn.ID] = txn
	m.externalIDs[key] = txn.ID
	return true, nil
}

// Debt operations

func (m *MemoryStore) CreateDebt(ctx context.Context, debt *model.Debt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if debt.ID == "" {
		debt.ID = uuid.New().String()
	}
	debt.CreatedAt = time.Now()
	m.debts[debt.ID] = debt
	return nil
}

func (m *MemoryStore) GetDebt(ctx context.Context, debtID string) (*model.Debt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	debt, ok := m.debts[debtID]
	if !ok {
		return nil, ErrNotFound
	}
	return debt, nil
}

func (m *MemoryStore) DeleteDebt(ctx context.Context, debtID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.debts[debtID]; !ok {
		return ErrNotFound
	}
	delete(m.debts, debtID)
	return nil
}

func (m *MemoryStore) ListDebts(ctx context.Context, userID string) ([]*model.Debt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var debts []*model.Debt
	for _, debt := range m.debts {
		if debt.UserID == userID {
			debts = append(debts, debt)
		}
	}
	sort.Slice(debts, func(i, j int) bool { return debts[i].ID < debts[j].ID })
	return debts, nil
}

// Goal operations

func (m *MemoryStore) CreateGoal(ctx context.Context, goal *model.FinancialGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if goal.ID == "" {
		goal.ID = uuid.New().String()
	}
	now := time.Now()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	m.goals[goal.ID] = goal
	return nil
}

func (m *MemoryStore) GetGoal(ctx context.Context, goalID string) (*model.FinancialGoal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	goal, ok := m.goals[goalID]
	if !ok {
		return nil, ErrNotFound
	}
	return goal, nil
}

func (m *MemoryStore) UpdateGoal(ctx context.Context, goal *model.FinancialGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.goals[goal.ID]
	if !ok {
		return ErrNotFound
	}
	goal.CreatedAt = existing.CreatedAt
	goal.UpdatedAt = time.Now()
	m.goals[goal.ID] = goal
	return nil
}

func (m *MemoryStore) DeleteGoal(ctx context.Context, goalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.goals[goalID]; !ok {
		return ErrNotFound
	}
	delete(m.goals, goalID)
	return nil
}

func (m *MemoryStore) ListGoals(ctx context.Context, userID string) ([]*model.FinancialGoal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var goals []*model.FinancialGoal
	for _, goal := range m.goals {
		if goal.UserID == userID {
			goals = append(goals, goal)
		}
	}
	sort.Slice(goals, func(i, j int) bool {
		if goals[i].CreatedAt.Equal(goals[j].CreatedAt) {
			return goals[i].ID < goals[j].ID
		}
		return goals[i].CreatedAt.Before(goals[j].CreatedAt)
	})
	return goals, nil
}

func (m *MemoryStore) ListDigestUsers(ctx context.Context) ([]*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var users []*model.User
	for _, user := range m.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}
