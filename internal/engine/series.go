package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// Sentinel errors returned by the engine. Callers should test with errors.Is:
// insufficient data is a valid non-exceptional outcome of forecasting, and
// invalid input is raised only at the validation boundary, never inside the
// pure computations.
var (
	ErrInsufficientData = errors.New("insufficient data: at least 2 months of history required")
	ErrInvalidInput     = errors.New("invalid input")
)

// MonthlySeries maps a normalized "YYYY-MM" month key to a non-negative
// monetary amount. Missing months are treated as zero.
type MonthlySeries map[string]float64

// Ratio is a float64 that marshals non-finite values as null so that reports
// containing sentinel infinities (e.g. runway with zero expenses) remain
// valid JSON.
type Ratio float64

func (r Ratio) MarshalJSON() ([]byte, error) {
	f := float64(r)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// MonthPoint is one month of the merged income/expense series.
type MonthPoint struct {
	Month      string  `json:"month"`
	Income     float64 `json:"income"`
	Expense    float64 `json:"expense"`
	Net        float64 `json:"net"`
	Cumulative float64 `json:"cumulative"`
}

// FinancialMetrics is the derived, immutable view computed from the income
// and expense series plus scalar balance/debt inputs. It is recomputed on
// every call and never persisted.
type FinancialMetrics struct {
	TotalIncome         float64      `json:"total_income"`
	TotalExpense        float64      `json:"total_expense"`
	NetCashflow         float64      `json:"net_cashflow"`
	AvgMonthlyIncome    float64      `json:"avg_monthly_income"`
	AvgMonthlyExpense   float64      `json:"avg_monthly_expense"`
	CurrentBalance      float64      `json:"current_balance"`
	IncomeTrend         float64      `json:"income_trend"`
	ExpenseTrend        float64      `json:"expense_trend"`
	IncomeGrowth        float64      `json:"income_growth"`
	CashflowRatio       Ratio        `json:"cashflow_ratio"`
	CashflowEfficiency  float64      `json:"cashflow_efficiency"`
	SavingsRatio        float64      `json:"savings_ratio"`
	EmergencyFundMonths Ratio        `json:"emergency_fund_months"`
	RunwayMonths        Ratio        `json:"runway_months"`
	DebtToIncomeRatio   Ratio        `json:"debt_to_income_ratio"`
	Volatility          float64      `json:"volatility"`
	Monthly             []MonthPoint `json:"monthly"`
}

// NormalizeMonth converts a time to its "YYYY-MM" series key.
func NormalizeMonth(t time.Time) string {
	return t.Format("2006-01")
}

// ValidateSeries rejects malformed month keys and out-of-range amounts at the
// boundary. The pure computations assume validated series: a negative first
// value would otherwise push the compound trend into NaN territory.
func ValidateSeries(s MonthlySeries) error {
	for month, amount := range s {
		if _, err := time.Parse("2006-01", month); err != nil || len(month) != 7 {
			return fmt.Errorf("%w: month key %q is not YYYY-MM", ErrInvalidInput, month)
		}
		if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
			return fmt.Errorf("%w: amount %v for month %s is out of range", ErrInvalidInput, amount, month)
		}
	}
	return nil
}

// UnionMonths returns the sorted union of the month keys of all given series.
func UnionMonths(series ...MonthlySeries) []string {
	seen := make(map[string]bool)
	for _, s := range series {
		for month := range s {
			seen[month] = true
		}
	}
	months := make([]string, 0, len(seen))
	for month := range seen {
		months = append(months, month)
	}
	sort.Strings(months)
	return months
}

// sortedValues returns the series values in chronological key order.
func sortedValues(s MonthlySeries) []float64 {
	months := make([]string, 0, len(s))
	for month := range s {
		months = append(months, month)
	}
	sort.Strings(months)
	values := make([]float64, len(months))
	for i, month := range months {
		values[i] = s[month]
	}
	return values
}

// Aggregate merges the sparse income and expense series into a dense ordered
// series and derives the full metrics view. balance is the caller's current
// cash balance; pass 0 when unknown. Degenerate inputs (empty series, zero
// denominators) yield zero or infinite sentinel values, never a fault.
func Aggregate(income, expense MonthlySeries, balance float64) FinancialMetrics {
	months := UnionMonths(income, expense)

	monthly := make([]MonthPoint, len(months))
	incomeValues := make([]float64, len(months))
	expenseValues := make([]float64, len(months))
	netValues := make([]float64, len(months))
	cumulative := balance
	var totalIncome, totalExpense float64

	for i, month := range months {
		in := income[month]
		out := expense[month]
		net := in - out
		cumulative += net
		totalIncome += in
		totalExpense += out
		incomeValues[i] = in
		expenseValues[i] = out
		netValues[i] = net
		monthly[i] = MonthPoint{Month: month, Income: in, Expense: out, Net: net, Cumulative: cumulative}
	}

	m := FinancialMetrics{
		TotalIncome:  totalIncome,
		TotalExpense: totalExpense,
		NetCashflow:  totalIncome - totalExpense,
		Monthly:      monthly,
	}
	if n := float64(len(months)); n > 0 {
		m.AvgMonthlyIncome = totalIncome / n
		m.AvgMonthlyExpense = totalExpense / n
	}
	m.CurrentBalance = balance + m.NetCashflow
	m.IncomeTrend = compoundTrend(incomeValues)
	m.ExpenseTrend = compoundTrend(expenseValues)
	m.IncomeGrowth = incomeGrowth(income)

	if m.AvgMonthlyExpense > 0 {
		// Floored at zero: a balance already below water means no runway,
		// not negative months.
		m.RunwayMonths = Ratio(math.Max(0, m.CurrentBalance) / m.AvgMonthlyExpense)
	} else {
		m.RunwayMonths = Ratio(math.Inf(1))
	}
	if totalExpense > 0 {
		m.CashflowRatio = Ratio(totalIncome / totalExpense)
		m.EmergencyFundMonths = Ratio(balance / (totalExpense / 12))
	} else {
		m.CashflowRatio = Ratio(math.Inf(1))
		m.EmergencyFundMonths = Ratio(math.Inf(1))
	}
	if totalIncome > 0 {
		m.CashflowEfficiency = m.NetCashflow / totalIncome
		m.SavingsRatio = math.Max(0, m.NetCashflow) / totalIncome
	}
	m.Volatility = volatility(netValues)
	return m
}

// compoundTrend estimates the average monthly growth rate from the first and
// last values: (last/first)^(1/(n-1)) - 1. This is a compound-growth-rate
// estimator, not a least-squares slope. A first value of zero yields 0.
func compoundTrend(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	first := values[0]
	last := values[len(values)-1]
	if first <= 0 {
		return 0
	}
	n := float64(len(values) - 1)
	return math.Pow(last/first, 1/n) - 1
}

// incomeGrowth is the total growth over the observed window (last/first - 1),
// defined only once three or more months of income are present.
func incomeGrowth(income MonthlySeries) float64 {
	if len(income) < 3 {
		return 0
	}
	values := sortedValues(income)
	if values[0] <= 0 {
		return 0
	}
	return values[len(values)-1]/values[0] - 1
}

// volatility is the coefficient of variation of the net series: sample
// standard deviation over the absolute mean, 0 for a zero mean.
func volatility(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	if mean == 0 {
		return 0
	}
	var squares float64
	for _, v := range values {
		d := v - mean
		squares += d * d
	}
	return math.Sqrt(squares/(n-1)) / math.Abs(mean)
}
