// Package service wires the storage, classification, and analytics layers
// into the operations the HTTP handlers expose.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/finpulse/finpulse/internal/auth"
	"github.com/finpulse/finpulse/internal/bankdata"
	"github.com/finpulse/finpulse/internal/classifier"
	"github.com/finpulse/finpulse/internal/engine"
	"github.com/finpulse/finpulse/internal/model"
	"github.com/finpulse/finpulse/internal/store"
)

// historyMonths is the analysis window fed to the engine.
const historyMonths = 12

// FinanceService implements the application operations over a Store.
type FinanceService struct {
	store      store.Store
	classifier classifier.Classifier
	provider   bankdata.Provider
	logger     *logrus.Logger

	scorer    *engine.HealthScorer
	analyzer  *engine.CashflowAnalyzer
	estimator *engine.TaxEstimator
	advisor   *engine.Advisor
}

// NewFinanceService builds the service with the default engine
// configuration tables.
func NewFinanceService(s store.Store, c classifier.Classifier, p bankdata.Provider, logger *logrus.Logger) *FinanceService {
	return &FinanceService{
		store:      s,
		classifier: c,
		provider:   p,
		logger:     logger,
		scorer:     engine.NewHealthScorer(engine.DefaultScoreWeights()),
		analyzer:   engine.NewCashflowAnalyzer(engine.DefaultRiskThresholds()),
		estimator:  engine.NewTaxEstimator(engine.DefaultTaxConfig()),
		advisor:    engine.NewAdvisor(),
	}
}

// Register creates a user with a hashed password.
func (s *FinanceService) Register(ctx context.Context, email, name, password string) (*model.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{Email: email, Name: name, PasswordHash: hash}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

// Authenticate verifies the credentials and returns the user.
func (s *FinanceService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("invalid credentials")
	}
	return user, nil
}

// AddTransaction validates and stores a transaction. An empty category is
// filled in by the classifier.
func (s *FinanceService) AddTransaction(ctx context.Context, txn *model.Transaction) error {
	if txn.Amount < 0 {
		return fmt.Errorf("%w: amount must be non-negative", engine.ErrInvalidInput)
	}
	if txn.Type != model.TransactionIncome && txn.Type != model.TransactionExpense {
		return fmt.Errorf("%w: unknown transaction type %q", engine.ErrInvalidInput, txn.Type)
	}
	if txn.Category == "" {
		pred := s.classifier.Classify(classifier.Input{
			Name:         txn.Name,
			MerchantName: txn.MerchantName,
			Amount:       txn.Amount,
		})
		txn.Category = pred.Category
	}
	return s.store.CreateTransaction(ctx, txn)
}

func (s *FinanceService) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if txn.Amount < 0 {
		return fmt.Errorf("%w: amount must be non-negative", engine.ErrInvalidInput)
	}
	if txn.Type != model.TransactionIncome && txn.Type != model.TransactionExpense {
		return fmt.Errorf("%w: unknown transaction type %q", engine.ErrInvalidInput, txn.Type)
	}
	return s.store.UpdateTransaction(ctx, txn)
}

func (s *FinanceService) GetTransaction(ctx context.Context, txnID string) (*model.Transaction, error) {
	return s.store.GetTransaction(ctx, txnID)
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, txnID string) error {
	return s.store.DeleteTransaction(ctx, txnID)
}

func (s *FinanceService) ListTransactions(ctx context.Context, userID string, start, end *time.Time, pageSize int32, pageToken string) ([]*model.Transaction, string, error) {
	return s.store.ListTransactions(ctx, userID, start, end, pageSize, pageToken)
}

// SyncBankTransactions pulls records from the bank provider, classifies
// them, and upserts them keyed by the provider's transaction ID. Returns the
// number of newly inserted transactions.
func (s *FinanceService) SyncBankTransactions(ctx context.Context, userID, accountID string, start, end time.Time) (int, error) {
	records, err := s.provider.FetchTransactions(ctx, accountID, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch bank transactions: %w", err)
	}

	inserted := 0
	for _, rec := range records {
		txn := &model.Transaction{
			UserID:     userID,
			AccountID:  rec.AccountID,
			ExternalID: rec.ID,
			Date:       rec.Date,
			Name:       rec.Name,
			Category:   rec.Category,
			Pending:    rec.Pending,
		}
		// Provider convention: positive amounts are outflows.
		if rec.Amount >= 0 {
			txn.Type = model.TransactionExpense
			txn.Amount = rec.Amount
		} else {
			txn.Type = model.TransactionIncome
			txn.Amount = -rec.Amount
		}
		if txn.Category == "" || txn.Category == "income" {
			if txn.Type == model.TransactionExpense {
				pred := s.classifier.Classify(classifier.Input{Name: txn.Name, Amount: txn.Amount})
				txn.Category = pred.Category
			} else {
				txn.Category = "income"
			}
		}

		isNew, err := s.store.UpsertTransactionByExternalID(ctx, txn)
		if err != nil {
			return inserted, err
		}
		if isNew {
			inserted++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"account":  accountID,
		"fetched":  len(records),
		"inserted": inserted,
	}).Info("bank sync complete")
	return inserted, nil
}

// Debts

func (s *FinanceService) AddDebt(ctx context.Context, debt *model.Debt) error {
	if debt.Amount < 0 {
		return fmt.Errorf("%w: debt amount must be non-negative", engine.ErrInvalidInput)
	}
	return s.store.CreateDebt(ctx, debt)
}

func (s *FinanceService) GetDebt(ctx context.Context, debtID string) (*model.Debt, error) {
	return s.store.GetDebt(ctx, debtID)
}

func (s *FinanceService) DeleteDebt(ctx context.Context, debtID string) error {
	return s.store.DeleteDebt(ctx, debtID)
}

func (s *FinanceService) ListDebts(ctx context.Context, userID string) ([]*model.Debt, error) {
	return s.store.ListDebts(ctx, userID)
}

// Goals

func (s *FinanceService) CreateGoal(ctx context.Context, goal *model.FinancialGoal) error {
	return s.store.CreateGoal(ctx, goal)
}

func (s *FinanceService) GetGoal(ctx context.Context, goalID string) (*model.FinancialGoal, error) {
	return s.store.GetGoal(ctx, goalID)
}

func (s *FinanceService) UpdateGoal(ctx context.Context, goal *model.FinancialGoal) error {
	return s.store.UpdateGoal(ctx, goal)
}

func (s *FinanceService) DeleteGoal(ctx context.Context, goalID string) error {
	return s.store.DeleteGoal(ctx, goalID)
}

func (s *FinanceService) ListGoals(ctx context.Context, userID string) ([]*model.FinancialGoal, error) {
	return s.store.ListGoals(ctx, userID)
}

// userSeries loads the analysis window and buckets transactions into the
// monthly income and expense series plus per-category expense totals.
func (s *FinanceService) userSeries(ctx context.Context, userID string, now time.Time) (engine.MonthlySeries, engine.MonthlySeries, map[string]float64, error) {
	start := now.AddDate(0, -historyMonths, 0)
	income := engine.MonthlySeries{}
	expense := engine.MonthlySeries{}
	categories := map[string]float64{}

	pageToken := ""
	for {
		txns, next, err := s.store.ListTransactions(ctx, userID, &start, &now, 500, pageToken)
		if err != nil {
			return nil, nil, nil, err
		}
		for _, txn := range txns {
			if txn.Pending {
				continue
			}
			month := engine.NormalizeMonth(txn.Date)
			switch txn.Type {
			case model.TransactionIncome:
				income[month] += txn.Amount
			case model.TransactionExpense:
				expense[month] += txn.Amount
				categories[txn.Category] += txn.Amount
			}
		}
		if next == "" {
			break
		}
		pageToken = next
	}
	return income, expense, categories, nil
}

func (s *FinanceService) userDebts(ctx context.Context, userID string) (map[string]float64, error) {
	debts, err := s.store.ListDebts(ctx, userID)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]float64, len(debts))
	for _, d := range debts {
		byName[d.Name] += d.Amount
	}
	return byName, nil
}

// HealthReport is the full financial-health response.
type HealthReport struct {
	Health          engine.HealthScore       `json:"health"`
	Metrics         engine.FinancialMetrics  `json:"metrics"`
	Recommendations engine.RecommendationSet `json:"recommendations"`
}

// FinancialHealth scores the last 12 months and attaches prioritized
// recommendations and goal targets merged with the user's stored goals.
func (s *FinanceService) FinancialHealth(ctx context.Context, userID string, balance float64) (*HealthReport, error) {
	income, expense, categories, err := s.userSeries(ctx, userID, time.Now())
	if err != nil {
		return nil, err
	}
	debts, err := s.userDebts(ctx, userID)
	if err != nil {
		return nil, err
	}

	health, metrics := s.scorer.Score(income, expense, balance, debts)

	stored, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	current := make([]engine.GoalRecommendation, 0, len(stored))
	for _, g := range stored {
		current = append(current, engine.GoalRecommendation{
			Type:          g.Type,
			Title:         g.Title,
			TargetAmount:  g.TargetAmount,
			CurrentAmount: g.CurrentAmount,
			Priority:      engine.PriorityTier(g.Priority),
			Timeframe:     g.Timeframe,
			Description:   g.Description,
		})
	}

	return &HealthReport{
		Health:          health,
		Metrics:         metrics,
		Recommendations: s.advisor.Recommend(health, metrics, categories, current),
	}, nil
}

// CashflowReport bundles the forecast, risk findings, and improvement
// suggestions.
type CashflowReport struct {
	Forecast    *engine.ForecastResult `json:"forecast,omitempty"`
	Risks       []engine.RiskFinding   `json:"risks"`
	Suggestions []engine.Suggestion    `json:"suggestions"`
}

// Cashflow projects the user's cash flow and detects risks. A forecast that
// cannot be computed for lack of history leaves Forecast nil but still
// reports risks and suggestions.
func (s *FinanceService) Cashflow(ctx context.Context, userID string, balance float64, monthsAhead int) (*CashflowReport, error) {
	income, expense, categories, err := s.userSeries(ctx, userID, time.Now())
	if err != nil {
		return nil, err
	}

	report := &CashflowReport{
		Risks:       s.analyzer.DetectRisks(income, expense, balance),
		Suggestions: s.analyzer.SuggestImprovements(income, expense, balance, categories),
	}

	forecast, err := s.analyzer.Forecast(income, expense, balance, monthsAhead)
	switch {
	case err == nil:
		report.Forecast = forecast
	case errors.Is(err, engine.ErrInsufficientData):
		// Valid outcome: not enough history yet.
	default:
		return nil, err
	}
	return report, nil
}

// TaxReport is the annual estimate plus savings suggestions.
type TaxReport struct {
	Estimate    engine.AnnualTaxEstimate `json:"estimate"`
	Suggestions []engine.TaxSuggestion   `json:"suggestions"`
}

// Tax estimates the user's liability for the given calendar year.
func (s *FinanceService) Tax(ctx context.Context, userID string, year int) (*TaxReport, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)

	income := engine.MonthlySeries{}
	var expenses []engine.ExpenseItem

	pageToken := ""
	for {
		txns, next, err := s.store.ListTransactions(ctx, userID, &start, &end, 500, pageToken)
		if err != nil {
			return nil, err
		}
		for _, txn := range txns {
			if txn.Pending {
				continue
			}
			switch txn.Type {
			case model.TransactionIncome:
				income[engine.NormalizeMonth(txn.Date)] += txn.Amount
			case model.TransactionExpense:
				expenses = append(expenses, engine.ExpenseItem{
					Category:    txn.Category,
					Amount:      txn.Amount,
					VATRateType: txn.VATRateType,
				})
			}
		}
		if next == "" {
			break
		}
		pageToken = next
	}

	return &TaxReport{
		Estimate:    s.estimator.AnnualEstimate(income, expenses, year),
		Suggestions: s.estimator.SavingsSuggestions(income, expenses, year),
	}, nil
}
