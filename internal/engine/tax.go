package engine

import (
	"fmt"
	"math"
	"strings"
)

// TaxBracket is one progressive band. Ranges are [Min, Max) with
// math.Inf(1) as the Max of the open top band.
type TaxBracket struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Rate float64 `json:"rate"`
}

// VATRate is one named VAT rate bucket.
type VATRate struct {
	Type string  `json:"type"`
	Rate float64 `json:"rate"`
}

// DeductibleRate is the fraction of a category's spend that is deductible.
type DeductibleRate struct {
	Category string  `json:"category"`
	Rate     float64 `json:"rate"`
}

// TaxConfig holds the ordered bracket, VAT, and deduction tables. The tables
// are ordered slices, never maps: bracket application and reporting rely on
// ascending order.
type TaxConfig struct {
	Brackets        []TaxBracket
	VATRates        []VATRate
	DeductibleRates []DeductibleRate
}

// DefaultTaxConfig returns the standard progressive brackets, VAT rates, and
// deductible-category table.
func DefaultTaxConfig() TaxConfig {
	return TaxConfig{
		Brackets: []TaxBracket{
			{Min: 0, Max: 32000, Rate: 0.15},
			{Min: 32000, Max: 70000, Rate: 0.20},
			{Min: 70000, Max: 250000, Rate: 0.27},
			{Min: 250000, Max: 880000, Rate: 0.35},
			{Min: 880000, Max: math.Inf(1), Rate: 0.40},
		},
		VATRates: []VATRate{
			{Type: "standard", Rate: 0.18},
			{Type: "reduced", Rate: 0.08},
			{Type: "special", Rate: 0.01},
		},
		DeductibleRates: []DeductibleRate{
			{Category: "business_expenses", Rate: 1.0},
			{Category: "healthcare", Rate: 0.5},
			{Category: "education", Rate: 0.5},
			{Category: "donations", Rate: 0.1},
			{Category: "insurance", Rate: 0.8},
			{Category: "retirement_contributions", Rate: 0.7},
		},
	}
}

// ExpenseItem is a single categorized expense fed to the tax calculations.
type ExpenseItem struct {
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	VATRateType string  `json:"vat_rate_type,omitempty"`
}

// BracketTax is one row of the audit breakdown, emitted in ascending-bracket
// order.
type BracketTax struct {
	Range  string  `json:"range"`
	Rate   float64 `json:"rate"`
	Amount float64 `json:"amount"`
	Tax    float64 `json:"tax"`
}

// TaxEstimate is the result of the progressive income-tax computation.
type TaxEstimate struct {
	AnnualIncome  float64      `json:"annual_income"`
	Deductions    float64      `json:"deductions"`
	TaxableIncome float64      `json:"taxable_income"`
	TotalTax      float64      `json:"total_tax"`
	EffectiveRate float64      `json:"effective_tax_rate"`
	NetIncome     float64      `json:"net_income"`
	Brackets      []BracketTax `json:"tax_brackets_applied"`
}

// CategoryDeduction is the deductible total of one category.
type CategoryDeduction struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// DeductionResult reports deductible amounts, per category in table order.
type DeductionResult struct {
	Total      float64             `json:"total_deductible"`
	ByCategory []CategoryDeduction `json:"by_category"`
}

// VATBucket is the VAT collected under one rate type.
type VATBucket struct {
	Type string  `json:"type"`
	Rate float64 `json:"rate"`
	VAT  float64 `json:"vat"`
}

// VATResult aggregates VAT across transactions by rate bucket.
type VATResult struct {
	TotalVAT    float64     `json:"total_vat"`
	TotalAmount float64     `json:"total_amount"`
	ByRate      []VATBucket `json:"vat_by_rate"`
}

// AnnualTaxEstimate combines deductions, progressive income tax, and VAT into
// a single year's estimated liability.
type AnnualTaxEstimate struct {
	Year           int             `json:"tax_year"`
	AnnualIncome   float64         `json:"annual_income"`
	Deductions     DeductionResult `json:"deductions"`
	IncomeTax      TaxEstimate     `json:"income_tax"`
	VAT            VATResult       `json:"vat"`
	TotalLiability float64         `json:"total_tax_liability"`
}

// TaxSuggestion is one tax-savings recommendation.
type TaxSuggestion struct {
	Type            string `json:"type"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	SavingPotential string `json:"saving_potential"`
	Difficulty      string `json:"implementation_difficulty"`
}

// TaxEstimator applies the configured tables. Stateless; safe for concurrent
// use.
type TaxEstimator struct {
	cfg TaxConfig
}

func NewTaxEstimator(cfg TaxConfig) *TaxEstimator {
	return &TaxEstimator{cfg: cfg}
}

// IncomeTax applies the ascending progressive brackets to the income left
// after deductions. The breakdown covers exactly the taxable income: the
// per-band amounts sum to it.
func (e *TaxEstimator) IncomeTax(annualIncome, deductions float64) TaxEstimate {
	taxableIncome := math.Max(0, annualIncome-deductions)

	var totalTax float64
	remaining := taxableIncome
	var applied []BracketTax

	for _, b := range e.cfg.Brackets {
		if remaining <= 0 {
			break
		}
		width := b.Max - b.Min
		amount := remaining
		if amount > width {
			amount = width
		}
		tax := amount * b.Rate
		totalTax += tax
		remaining -= amount

		applied = append(applied, BracketTax{
			Range:  formatBracketRange(b),
			Rate:   b.Rate,
			Amount: amount,
			Tax:    tax,
		})
	}

	var effectiveRate float64
	if annualIncome > 0 {
		effectiveRate = totalTax / annualIncome
	}
	return TaxEstimate{
		AnnualIncome:  annualIncome,
		Deductions:    deductions,
		TaxableIncome: taxableIncome,
		TotalTax:      totalTax,
		EffectiveRate: effectiveRate,
		NetIncome:     annualIncome - totalTax,
		Brackets:      applied,
	}
}

// Deductions applies the deductible-rate table to categorized expenses.
// Categories outside the table contribute nothing. Per-category totals come
// back in table order.
func (e *TaxEstimator) Deductions(expenses []ExpenseItem) DeductionResult {
	byCategory := make(map[string]float64)
	var total float64
	for _, expense := range expenses {
		rate, ok := e.deductibleRate(expense.Category)
		if !ok {
			continue
		}
		deductible := expense.Amount * rate
		total += deductible
		byCategory[expense.Category] += deductible
	}

	result := DeductionResult{Total: total}
	for _, d := range e.cfg.DeductibleRates {
		if amount, ok := byCategory[d.Category]; ok {
			result.ByCategory = append(result.ByCategory, CategoryDeduction{Category: d.Category, Amount: amount})
		}
	}
	return result
}

// VAT sums value-added tax per transaction. An unknown or empty rate type
// falls back to the standard rate and bucket.
func (e *TaxEstimator) VAT(items []ExpenseItem) VATResult {
	byType := make(map[string]float64)
	var totalVAT, totalAmount float64
	for _, item := range items {
		rate := e.vatRate(item.VATRateType)
		vat := item.Amount * rate.Rate
		totalVAT += vat
		totalAmount += item.Amount
		byType[rate.Type] += vat
	}

	result := VATResult{TotalVAT: totalVAT, TotalAmount: totalAmount}
	for _, r := range e.cfg.VATRates {
		result.ByRate = append(result.ByRate, VATBucket{Type: r.Type, Rate: r.Rate, VAT: byType[r.Type]})
	}
	return result
}

// AnnualEstimate computes the full tax-liability estimate for one year from
// the monthly income series and the year's categorized expenses.
func (e *TaxEstimator) AnnualEstimate(income MonthlySeries, expenses []ExpenseItem, year int) AnnualTaxEstimate {
	var annualIncome float64
	for _, amount := range income {
		annualIncome += amount
	}

	deductions := e.Deductions(expenses)
	incomeTax := e.IncomeTax(annualIncome, deductions.Total)
	vat := e.VAT(expenses)

	return AnnualTaxEstimate{
		Year:           year,
		AnnualIncome:   annualIncome,
		Deductions:     deductions,
		IncomeTax:      incomeTax,
		VAT:            vat,
		TotalLiability: incomeTax.TotalTax + vat.TotalVAT,
	}
}

// SavingsSuggestions points out simple tax-reduction opportunities: spreading
// income, recategorizing expenses into deductible categories, raising
// retirement contributions, and incorporation at high income.
func (e *TaxEstimator) SavingsSuggestions(income MonthlySeries, expenses []ExpenseItem, year int) []TaxSuggestion {
	var suggestions []TaxSuggestion
	current := e.AnnualEstimate(income, expenses, year)

	if current.AnnualIncome > 0 {
		var top, low float64
		first := true
		for _, amount := range income {
			if first {
				top, low = amount, amount
				first = false
				continue
			}
			top = math.Max(top, amount)
			low = math.Min(low, amount)
		}
		if top > low*2 {
			suggestions = append(suggestions, TaxSuggestion{
				Type:            "income_balance",
				Title:           "Balance Income Across the Year",
				Description:     "Spreading income more evenly across the year can keep more of it in lower tax brackets.",
				SavingPotential: "medium",
				Difficulty:      "medium",
			})
		}
	}

	var deductionPotential float64
	suggested := make(map[string]bool)
	for _, expense := range expenses {
		if _, ok := e.deductibleRate(expense.Category); ok {
			continue
		}
		similar, ok := e.similarDeductibleCategory(expense.Category)
		if !ok {
			continue
		}
		rate, _ := e.deductibleRate(similar)
		deductionPotential += expense.Amount * rate
		if !suggested[expense.Category] {
			suggested[expense.Category] = true
			suggestions = append(suggestions, TaxSuggestion{
				Type:            "expense_recategorization",
				Title:           fmt.Sprintf("Recategorize Expenses: %s", expense.Category),
				Description:     fmt.Sprintf("Consider categorizing %q expenses as %q where appropriate.", expense.Category, similar),
				SavingPotential: "low-medium",
				Difficulty:      "easy",
			})
		}
	}

	if deductionPotential > 0 {
		improved := e.IncomeTax(current.AnnualIncome, current.Deductions.Total+deductionPotential)
		saving := current.IncomeTax.TotalTax - improved.TotalTax
		if saving > 0 {
			potential := "medium"
			if saving > 5000 {
				potential = "high"
			}
			suggestions = append(suggestions, TaxSuggestion{
				Type:            "deduction_increase",
				Title:           "Increase Tax Deductions",
				Description:     fmt.Sprintf("Better expense categorization could save roughly %.2f in tax.", saving),
				SavingPotential: potential,
				Difficulty:      "easy",
			})
		}
	}

	if current.AnnualIncome > 250000 {
		suggestions = append(suggestions, TaxSuggestion{
			Type:            "business_structure",
			Title:           "Consider Incorporating",
			Description:     "At your income level a company structure may be more tax-efficient than personal income tax.",
			SavingPotential: "high",
			Difficulty:      "hard",
		})
	}

	var retirementTotal float64
	for _, expense := range expenses {
		if expense.Category == "retirement_contributions" {
			retirementTotal += expense.Amount
		}
	}
	if retirementTotal < current.AnnualIncome*0.1 {
		suggestions = append(suggestions, TaxSuggestion{
			Type:            "retirement_contribution",
			Title:           "Increase Retirement Contributions",
			Description:     "Raising retirement contributions captures their deduction rate.",
			SavingPotential: "medium",
			Difficulty:      "easy",
		})
	}

	return suggestions
}

func (e *TaxEstimator) deductibleRate(category string) (float64, bool) {
	for _, d := range e.cfg.DeductibleRates {
		if d.Category == category {
			return d.Rate, true
		}
	}
	return 0, false
}

func (e *TaxEstimator) vatRate(rateType string) VATRate {
	for _, r := range e.cfg.VATRates {
		if r.Type == rateType {
			return r
		}
	}
	// Unknown or empty rate types bill at the first (standard) rate.
	return e.cfg.VATRates[0]
}

// similarDeductibleCategory maps a non-deductible category label to the
// closest deductible category by keyword.
func (e *TaxEstimator) similarDeductibleCategory(category string) (string, bool) {
	c := strings.ToLower(category)
	var match string
	switch {
	case containsAny(c, "office", "equipment", "business", "work", "software", "supplies"):
		match = "business_expenses"
	case containsAny(c, "health", "medical", "doctor", "pharmacy"):
		match = "healthcare"
	case containsAny(c, "education", "course", "training", "seminar", "book"):
		match = "education"
	case containsAny(c, "donation", "charity"):
		match = "donations"
	case containsAny(c, "insurance"):
		match = "insurance"
	case containsAny(c, "retirement", "pension"):
		match = "retirement_contributions"
	default:
		return "", false
	}
	if _, ok := e.deductibleRate(match); !ok {
		return "", false
	}
	return match, true
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func formatBracketRange(b TaxBracket) string {
	if math.IsInf(b.Max, 1) {
		return fmt.Sprintf("%.0f+", b.Min)
	}
	return fmt.Sprintf("%.0f - %.0f", b.Min, b.Max)
}
