package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Severity grades a risk finding.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RiskFinding is an ephemeral alert emitted by the risk detector. Findings
// are listed in detection order, not severity order.
type RiskFinding struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Details  string   `json:"details"`
}

// ForecastResult projects income, expense, net, and running balance for the
// requested number of future months.
type ForecastResult struct {
	Months       []string  `json:"months"`
	Income       []float64 `json:"income"`
	Expense      []float64 `json:"expense"`
	Net          []float64 `json:"net"`
	Balance      []float64 `json:"balance"`
	FinalBalance float64   `json:"final_balance"`
}

// CategoryAmount pairs an expense category with its total.
type CategoryAmount struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Suggestion is one cash-flow improvement block.
type Suggestion struct {
	Type        string           `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Categories  []CategoryAmount `json:"categories,omitempty"`
	Actions     []string         `json:"actions"`
}

// RiskThresholds configures the independent risk checks. The zero value is
// not usable; start from DefaultRiskThresholds.
type RiskThresholds struct {
	LowBalance       float64 // alert below this cash balance
	NegativeCashflow float64 // alert when net cashflow falls below
	ExpenseSpike     float64 // trailing 3-month avg vs overall avg multiplier
	IncomeDrop       float64 // trailing 3-month avg vs overall avg multiplier
	RunwayMonths     float64 // alert below this many months of runway
	ForecastHorizon  int     // months projected for the future-balance check
}

// DefaultRiskThresholds returns the standard alert thresholds.
func DefaultRiskThresholds() RiskThresholds {
	return RiskThresholds{
		LowBalance:       5000,
		NegativeCashflow: 0,
		ExpenseSpike:     1.5,
		IncomeDrop:       0.7,
		RunwayMonths:     3,
		ForecastHorizon:  3,
	}
}

// CashflowAnalyzer projects future cash flow and detects threshold-crossing
// risks. Stateless; safe for concurrent use.
type CashflowAnalyzer struct {
	thresholds RiskThresholds
}

func NewCashflowAnalyzer(thresholds RiskThresholds) *CashflowAnalyzer {
	return &CashflowAnalyzer{thresholds: thresholds}
}

// Forecast extrapolates each series by applying its compound trend
// multiplicatively to the previous projected value, compounding month over
// month. Both series pass through ValidateSeries first; it returns
// ErrInsufficientData with fewer than 2 months of history.
func (a *CashflowAnalyzer) Forecast(income, expense MonthlySeries, balance float64, monthsAhead int) (*ForecastResult, error) {
	if err := ValidateSeries(income); err != nil {
		return nil, err
	}
	if err := ValidateSeries(expense); err != nil {
		return nil, err
	}
	months := UnionMonths(income, expense)
	if len(months) < 2 {
		return nil, ErrInsufficientData
	}
	if monthsAhead <= 0 {
		monthsAhead = a.thresholds.ForecastHorizon
	}

	incomeValues := make([]float64, len(months))
	expenseValues := make([]float64, len(months))
	for i, month := range months {
		incomeValues[i] = income[month]
		expenseValues[i] = expense[month]
	}
	incomeTrend := compoundTrend(incomeValues)
	expenseTrend := compoundTrend(expenseValues)

	lastMonth, err := time.Parse("2006-01", months[len(months)-1])
	if err != nil {
		return nil, fmt.Errorf("%w: month key %q is not YYYY-MM", ErrInvalidInput, months[len(months)-1])
	}

	result := &ForecastResult{
		Months:  make([]string, monthsAhead),
		Income:  make([]float64, monthsAhead),
		Expense: make([]float64, monthsAhead),
		Net:     make([]float64, monthsAhead),
		Balance: make([]float64, monthsAhead),
	}

	lastIncome := incomeValues[len(incomeValues)-1]
	lastExpense := expenseValues[len(expenseValues)-1]
	runningBalance := balance

	for i := 0; i < monthsAhead; i++ {
		result.Months[i] = lastMonth.AddDate(0, i+1, 0).Format("2006-01")

		lastIncome = math.Max(0, lastIncome*(1+incomeTrend))
		lastExpense = math.Max(0, lastExpense*(1+expenseTrend))
		net := lastIncome - lastExpense
		runningBalance += net

		result.Income[i] = lastIncome
		result.Expense[i] = lastExpense
		result.Net[i] = net
		result.Balance[i] = runningBalance
	}
	result.FinalBalance = result.Balance[monthsAhead-1]
	return result, nil
}

// DetectRisks runs the independent risk checks against the thresholds. Every
// check runs regardless of earlier findings and appends at most one finding.
func (a *CashflowAnalyzer) DetectRisks(income, expense MonthlySeries, balance float64) []RiskFinding {
	t := a.thresholds
	m := Aggregate(income, expense, balance)
	risks := []RiskFinding{}

	if m.CurrentBalance < t.LowBalance {
		risks = append(risks, finding("low_balance", SeverityHigh,
			fmt.Sprintf("Low cash balance: %.2f", m.CurrentBalance),
			fmt.Sprintf("Your current cash balance is below %.0f.", t.LowBalance)))
	}

	if m.NetCashflow < t.NegativeCashflow {
		risks = append(risks, finding("negative_cashflow", SeverityHigh,
			fmt.Sprintf("Negative net cashflow: %.2f", m.NetCashflow),
			"Expenses have exceeded income over the observed period."))
	}

	if len(expense) >= 3 {
		recent := trailingAverage(expense, 3)
		if recent > m.AvgMonthlyExpense*t.ExpenseSpike {
			risks = append(risks, finding("expense_spike", SeverityMedium,
				fmt.Sprintf("Expense spike detected: %.2f", recent),
				"Your average expenses over the last 3 months are well above your overall average."))
		}
	}

	if len(income) >= 3 {
		recent := trailingAverage(income, 3)
		if recent < m.AvgMonthlyIncome*t.IncomeDrop {
			risks = append(risks, finding("income_drop", SeverityHigh,
				fmt.Sprintf("Income drop detected: %.2f", recent),
				"Your average income over the last 3 months is well below your overall average."))
		}
	}

	if float64(m.RunwayMonths) < t.RunwayMonths {
		risks = append(risks, finding("low_runway", SeverityCritical,
			fmt.Sprintf("Low cash runway: %.1f months", float64(m.RunwayMonths)),
			fmt.Sprintf("At the current expense rate your cash could be exhausted within %.1f months.", float64(m.RunwayMonths))))
	}

	if forecast, err := a.Forecast(income, expense, balance, t.ForecastHorizon); err == nil {
		for i, projected := range forecast.Balance {
			if projected < 0 {
				monthsToNegative := i + 1
				risks = append(risks, finding("future_cashflow_problem", SeverityHigh,
					fmt.Sprintf("Upcoming cash shortfall: within %d months", monthsToNegative),
					fmt.Sprintf("If the current trend continues, your balance could turn negative within %d months.", monthsToNegative)))
				break
			}
		}
	}

	return risks
}

// SuggestImprovements produces cash-flow improvement suggestion blocks.
// expenseCategories maps category names to totals and may be nil.
func (a *CashflowAnalyzer) SuggestImprovements(income, expense MonthlySeries, balance float64, expenseCategories map[string]float64) []Suggestion {
	m := Aggregate(income, expense, balance)
	risks := a.DetectRisks(income, expense, balance)

	var suggestions []Suggestion

	severe := false
	for _, r := range risks {
		if r.Severity == SeverityCritical || r.Severity == SeverityHigh {
			severe = true
			break
		}
	}
	if severe {
		suggestions = append(suggestions, Suggestion{
			Type:        "emergency",
			Title:       "Urgent Cash Flow Repair",
			Description: "Serious cash flow problems were detected. Immediate action is needed.",
			Actions: []string{
				"Defer all non-essential spending",
				"Accelerate collection of outstanding receivables",
				"Negotiate longer payment terms on upcoming bills",
				"Look for short-term alternative income sources",
			},
		})
	}

	if len(expenseCategories) > 0 && m.NetCashflow < 0 {
		top := TopCategories(expenseCategories, 3)
		suggestions = append(suggestions, Suggestion{
			Type:        "expense_reduction",
			Title:       "Expense Reduction Opportunities",
			Description: "You can save in your highest expense categories:",
			Categories:  top,
			Actions: []string{
				fmt.Sprintf("Cut spending in the %q category by 10-15%%", top[0].Name),
				"Review fixed costs and look for alternative suppliers",
				"Audit subscriptions and other recurring payments",
			},
		})
	}

	if m.IncomeTrend < 0 || m.AvgMonthlyIncome < m.AvgMonthlyExpense*1.2 {
		suggestions = append(suggestions, Suggestion{
			Type:        "income_increase",
			Title:       "Income Growth Strategies",
			Description: "Growing income would improve your cash flow:",
			Actions: []string{
				"Offer additional services to existing customers",
				"Review your pricing strategy",
				"Reach out to new prospective customers",
				"Build passive income sources",
			},
		})
	}

	suggestions = append(suggestions, Suggestion{
		Type:        "cashflow_management",
		Title:       "Cash Flow Management Improvements",
		Description: "These practices keep cash flow under control:",
		Actions: []string{
			"Maintain a regular cash flow forecast and budget",
			"Put payments and collections on a schedule",
			"Set aside a cash reserve of 3-6 months of expenses",
			"Consider short-term investments for idle cash",
		},
	})

	if m.Volatility > 0.3 {
		suggestions = append(suggestions, Suggestion{
			Type:        "cashflow_smoothing",
			Title:       "Cash Flow Smoothing",
			Description: "Your cash flow is irregular; these steps reduce swings:",
			Actions: []string{
				"Structure customer contracts around regular payments",
				"Diversify customers across different sectors",
				"Use deposits and upfront payments to regularize inflows",
				"Spread large payments over installments",
			},
		})
	}

	return suggestions
}

// TopCategories returns the n largest categories by amount, ties broken by
// name for determinism.
func TopCategories(categories map[string]float64, n int) []CategoryAmount {
	all := make([]CategoryAmount, 0, len(categories))
	for name, amount := range categories {
		all = append(all, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Amount != all[j].Amount {
			return all[i].Amount > all[j].Amount
		}
		return all[i].Name < all[j].Name
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}

// trailingAverage averages the last n values of the series in key order,
// using the series' own keys rather than the union universe.
func trailingAverage(s MonthlySeries, n int) float64 {
	values := sortedValues(s)
	if len(values) < n {
		n = len(values)
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for _, v := range values[len(values)-n:] {
		sum += v
	}
	return sum / float64(n)
}

func finding(riskType string, severity Severity, message, details string) RiskFinding {
	return RiskFinding{
		ID:       uuid.New().String(),
		Type:     riskType,
		Severity: severity,
		Message:  message,
		Details:  details,
	}
}
