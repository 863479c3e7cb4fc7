package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncomeTax(t *testing.T) {
	e := NewTaxEstimator(DefaultTaxConfig())

	tests := []struct {
		name       string
		income     float64
		deductions float64
		wantTax    float64
	}{
		{"zero income", 0, 0, 0},
		{"first bracket only", 20000, 0, 3000},
		{"bracket boundary", 32000, 0, 4800},
		{"spans two brackets", 50000, 0, 8400}, // 32000*0.15 + 18000*0.20
		{"spans three brackets", 100000, 0, 20500},
		{"top bracket", 1000000, 0, 329500},
		{"deductions reduce taxable", 50000, 18000, 4800},
		{"deductions exceed income", 10000, 50000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.IncomeTax(tt.income, tt.deductions)
			assert.InDelta(t, tt.wantTax, got.TotalTax, 1e-9)
		})
	}
}

func TestIncomeTaxBreakdown(t *testing.T) {
	e := NewTaxEstimator(DefaultTaxConfig())

	est := e.IncomeTax(100000, 0)

	require.Len(t, est.Brackets, 3)
	assert.Equal(t, "0 - 32000", est.Brackets[0].Range)
	assert.Equal(t, "32000 - 70000", est.Brackets[1].Range)
	assert.Equal(t, "70000 - 250000", est.Brackets[2].Range)

	// Per-band amounts always sum back to the taxable income.
	var amounts, taxes float64
	for _, b := range est.Brackets {
		amounts += b.Amount
		taxes += b.Tax
	}
	assert.InDelta(t, est.TaxableIncome, amounts, 1e-9)
	assert.InDelta(t, est.TotalTax, taxes, 1e-9)

	assert.InDelta(t, est.TotalTax/100000, est.EffectiveRate, 1e-9)
	assert.InDelta(t, 100000-est.TotalTax, est.NetIncome, 1e-9)
}

func TestIncomeTaxOpenTopBracket(t *testing.T) {
	e := NewTaxEstimator(DefaultTaxConfig())

	est := e.IncomeTax(1000000, 0)
	require.Len(t, est.Brackets, 5)
	assert.Equal(t, "880000+", est.Brackets[4].Range)
	assert.InDelta(t, 120000, est.Brackets[4].Amount, 1e-9)
}

func TestDeductions(t *testing.T) {
	e := NewTaxEstimator(DefaultTaxConfig())

	expenses := []ExpenseItem{
		{Category: "business_expenses", Amount: 10000},
		{Category: "healthcare", Amount: 2000},
		{Category: "business_expenses", Amount: 5000},
		{Category: "groceries", Amount: 3000}, // not deductible
	}

	result := e.Deductions(expenses)
	assert.InDelta(t, 16000, result.Total, 1e-9) // 15000*1.0 + 2000*0.5

	require.Len(t, result.ByCategory, 2)
	// Per-category rows follow table order, not input order.
	assert.Equal(t, "business_expenses", result.ByCategory[0].Category)
	assert.InDelta(t, 15000, result.ByCategory[0].Amount, 1e-9)
	assert.Equal(t, "healthcare", result.ByCategory[1].Category)
	assert.InDelta(t, 1000, result.ByCategory[1].Amount, 1e-9)
}

func TestVAT(t *testing.T) {
	e := NewTaxEstimator(DefaultTaxConfig())

	items := []ExpenseItem{
		{Category: "a", Amount: 1000, VATRateType: "standard"},
		{Category: "b", Amount: 1000, VATRateType: "reduced"},
		{Category: "c", Amount: 1000, VATRateType: "special"},
		{Category: "d", Amount: 1000, VATRateType: "unknown"}, // falls back to standard
		{Category: "e", Amount: 1000},                         // empty type, standard
	}

	result := e.VAT(items)
	assert.InDelta(t, 5000, result.TotalAmount, 1e-9)
	assert.InDelta(t, 0.18*3000+0.08*1000+0.01*1000, result.TotalVAT, 1e-9)

	require.Len(t, result.ByRate, 3)
	assert.Equal(t, "standard", result.ByRate[0].Type)
	assert.InDelta(t, 540, result.ByRate[0].VAT, 1e-9)
	assert.InDelta(t, 80, result.ByRate[1].VAT, 1e-9)
	assert.InDelta(t, 10, result.ByRate[2].VAT, 1e-9)
}

func TestAnnualEstimate(t *testing.T) {
	e := NewTaxEstimator(DefaultTaxConfig())

	income := MonthlySeries{}
	for _, month := range []string{"01", "02", "03", "04", "05", "06", "07", "08", "09", "10", "11", "12"} {
		income["2025-"+month] = 10000
	}
	expenses := []ExpenseItem{
		{Category: "business_expenses", Amount: 20000, VATRateType: "standard"},
	}

	est := e.AnnualEstimate(income, expenses, 2025)

	assert.Equal(t, 2025, est.Year)
	assert.InDelta(t, 120000, est.AnnualIncome, 1e-9)
	assert.InDelta(t, 20000, est.Deductions.Total, 1e-9)
	assert.InDelta(t, 100000, est.IncomeTax.TaxableIncome, 1e-9)
	assert.InDelta(t, 0.18*20000, est.VAT.TotalVAT, 1e-9)
	assert.InDelta(t, est.IncomeTax.TotalTax+est.VAT.TotalVAT, est.TotalLiability, 1e-9)
}

func suggestionTypes(suggestions []TaxSuggestion) []string {
	types := make([]string, len(suggestions))
	for i, s := range suggestions {
		types[i] = s.Type
	}
	return types
}

func TestSavingsSuggestionsIncomeBalance(t *testing.T) {
	e := NewTaxEstimator(DefaultTaxConfig())

	income := MonthlySeries{"2025-01": 1000, "2025-02": 30000, "2025-03": 1000}
	types := suggestionTypes(e.SavingsSuggestions(income, nil, 2025))
	assert.Contains(t, types, "income_balance")

	flat := MonthlySeries{"2025-01": 10000, "2025-02": 10000}
	types = suggestionTypes(e.SavingsSuggestions(flat, nil, 2025))
	assert.NotContains(t, types, "income_balance")
}

func TestSavingsSuggestionsRecategorization(t *testing.T) {
	e := NewTaxEstimator(DefaultTaxConfig())

	income := MonthlySeries{"2025-01": 50000, "2025-02": 50000}
	expenses := []ExpenseItem{
		{Category: "office supplies", Amount: 10000},
		{Category: "office supplies", Amount: 5000}, // same category suggested once
		{Category: "medical bills", Amount: 2000},
	}

	suggestions := e.SavingsSuggestions(income, expenses, 2025)
	types := suggestionTypes(suggestions)

	recategorizations := 0
	for _, typ := range types {
		if typ == "expense_recategorization" {
			recategorizations++
		}
	}
	assert.Equal(t, 2, recategorizations)
	assert.Contains(t, types, "deduction_increase")

	for _, s := range suggestions {
		if s.Type == "deduction_increase" {
			// 16000 of new deductions, all in the 27% band.
			assert.Equal(t, "medium", s.SavingPotential)
		}
	}
}

func TestSavingsSuggestionsHighIncome(t *testing.T) {
	e := NewTaxEstimator(DefaultTaxConfig())

	income := MonthlySeries{"2025-01": 150000, "2025-02": 150000}
	types := suggestionTypes(e.SavingsSuggestions(income, nil, 2025))
	assert.Contains(t, types, "business_structure")
	assert.Contains(t, types, "retirement_contribution")
}

func TestSavingsSuggestionsRetirementCovered(t *testing.T) {
	e := NewTaxEstimator(DefaultTaxConfig())

	income := MonthlySeries{"2025-01": 10000, "2025-02": 10000}
	expenses := []ExpenseItem{
		{Category: "retirement_contributions", Amount: 5000},
	}
	types := suggestionTypes(e.SavingsSuggestions(income, expenses, 2025))
	assert.NotContains(t, types, "retirement_contribution")
}

func TestSimilarDeductibleCategory(t *testing.T) {
	e := NewTaxEstimator(DefaultTaxConfig())

	tests := []struct {
		category string
		want     string
		ok       bool
	}{
		{"Office Rent", "business_expenses", true},
		{"pharmacy visits", "healthcare", true},
		{"online course", "education", true},
		{"charity drive", "donations", true},
		{"car insurance", "insurance", true},
		{"pension top-up", "retirement_contributions", true},
		{"groceries", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			got, ok := e.similarDeductibleCategory(tt.category)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
