package engine

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMonth(t *testing.T) {
	got := NormalizeMonth(time.Date(2025, time.March, 17, 10, 30, 0, 0, time.UTC))
	assert.Equal(t, "2025-03", got)
}

func TestValidateSeries(t *testing.T) {
	tests := []struct {
		name    string
		series  MonthlySeries
		wantErr bool
	}{
		{"valid", MonthlySeries{"2025-01": 1000, "2025-02": 0}, false},
		{"empty", MonthlySeries{}, false},
		{"bad key format", MonthlySeries{"2025/01": 1000}, true},
		{"full date key", MonthlySeries{"2025-01-15": 1000}, true},
		{"month out of range", MonthlySeries{"2025-13": 1000}, true},
		{"negative amount", MonthlySeries{"2025-01": -50}, true},
		{"NaN amount", MonthlySeries{"2025-01": math.NaN()}, true},
		{"infinite amount", MonthlySeries{"2025-01": math.Inf(1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSeries(tt.series)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidInput)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestUnionMonths(t *testing.T) {
	income := MonthlySeries{"2025-03": 1, "2025-01": 1}
	expense := MonthlySeries{"2025-02": 1, "2025-03": 1}
	assert.Equal(t, []string{"2025-01", "2025-02", "2025-03"}, UnionMonths(income, expense))
}

func TestAggregateBasics(t *testing.T) {
	income := MonthlySeries{"2025-01": 10000, "2025-02": 12000, "2025-03": 11000}
	expense := MonthlySeries{"2025-01": 8000, "2025-02": 9000, "2025-03": 8500}

	m := Aggregate(income, expense, 20000)

	assert.InDelta(t, 33000, m.TotalIncome, 1e-9)
	assert.InDelta(t, 25500, m.TotalExpense, 1e-9)
	assert.InDelta(t, 7500, m.NetCashflow, 1e-9)
	assert.InDelta(t, 11000, m.AvgMonthlyIncome, 1e-9)
	assert.InDelta(t, 8500, m.AvgMonthlyExpense, 1e-9)
	assert.InDelta(t, 27500, m.CurrentBalance, 1e-9)
	assert.InDelta(t, 33000.0/25500.0, float64(m.CashflowRatio), 1e-9)
	assert.InDelta(t, 7500.0/33000.0, m.SavingsRatio, 1e-9)
	assert.InDelta(t, 27500.0/8500.0, float64(m.RunwayMonths), 1e-9)
	assert.InDelta(t, 20000/(25500.0/12), float64(m.EmergencyFundMonths), 1e-9)

	require.Len(t, m.Monthly, 3)
	assert.Equal(t, "2025-01", m.Monthly[0].Month)
	assert.InDelta(t, 22000, m.Monthly[0].Cumulative, 1e-9)
	assert.InDelta(t, 27500, m.Monthly[2].Cumulative, 1e-9)
}

// Identical income and expense series must net to exactly zero.
func TestAggregateIdenticalSeries(t *testing.T) {
	s := MonthlySeries{"2025-01": 5000, "2025-02": 7000, "2025-03": 6000}
	m := Aggregate(s, s, 1000)

	assert.Zero(t, m.NetCashflow)
	assert.Zero(t, m.SavingsRatio)
	assert.InDelta(t, 1, float64(m.CashflowRatio), 1e-9)
	assert.InDelta(t, 1000, m.CurrentBalance, 1e-9)
}

func TestAggregateSparseSeries(t *testing.T) {
	// Months missing from one side count as zero.
	income := MonthlySeries{"2025-01": 1000}
	expense := MonthlySeries{"2025-02": 400}
	m := Aggregate(income, expense, 0)

	require.Len(t, m.Monthly, 2)
	assert.InDelta(t, 1000, m.Monthly[0].Net, 1e-9)
	assert.InDelta(t, -400, m.Monthly[1].Net, 1e-9)
	assert.InDelta(t, 600, m.CurrentBalance, 1e-9)
}

func TestAggregateRunwayFloorsAtZero(t *testing.T) {
	income := MonthlySeries{"2025-01": 1000, "2025-02": 1000}
	expense := MonthlySeries{"2025-01": 3000, "2025-02": 3000}

	m := Aggregate(income, expense, 0)

	assert.Negative(t, m.CurrentBalance)
	assert.Equal(t, 0.0, float64(m.RunwayMonths))
}

func TestAggregateEmpty(t *testing.T) {
	m := Aggregate(MonthlySeries{}, MonthlySeries{}, 500)

	assert.Zero(t, m.TotalIncome)
	assert.Zero(t, m.NetCashflow)
	assert.InDelta(t, 500, m.CurrentBalance, 1e-9)
	assert.True(t, math.IsInf(float64(m.RunwayMonths), 1))
	assert.True(t, math.IsInf(float64(m.CashflowRatio), 1))
	assert.Empty(t, m.Monthly)
}

func TestCompoundTrend(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"flat", []float64{100, 100, 100}, 0},
		{"doubling over one step", []float64{100, 200}, 1},
		{"two steps to 4x", []float64{100, 200, 400}, 1},
		{"declining", []float64{400, 200, 100}, -0.5},
		{"single value", []float64{100}, 0},
		{"empty", nil, 0},
		{"zero first value", []float64{0, 100}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, compoundTrend(tt.values), 1e-9)
		})
	}
}

func TestIncomeGrowth(t *testing.T) {
	tests := []struct {
		name   string
		income MonthlySeries
		want   float64
	}{
		{"two months only", MonthlySeries{"2025-01": 100, "2025-02": 200}, 0},
		{"growth", MonthlySeries{"2025-01": 100, "2025-02": 150, "2025-03": 120}, 0.2},
		{"zero first month", MonthlySeries{"2025-01": 0, "2025-02": 100, "2025-03": 100}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, incomeGrowth(tt.income), 1e-9)
		})
	}
}

func TestVolatility(t *testing.T) {
	assert.Zero(t, volatility([]float64{1000, 1000, 1000}))
	assert.Zero(t, volatility([]float64{1000}))
	assert.Zero(t, volatility([]float64{100, -100})) // mean zero

	// {100, 200, 300}: mean 200, sample stdev 100, cv 0.5
	assert.InDelta(t, 0.5, volatility([]float64{100, 200, 300}), 1e-9)
}

func TestRatioJSON(t *testing.T) {
	type report struct {
		Runway Ratio `json:"runway"`
	}

	out, err := json.Marshal(report{Runway: Ratio(math.Inf(1))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"runway":null}`, string(out))

	out, err = json.Marshal(report{Runway: 2.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"runway":2.5}`, string(out))
}
