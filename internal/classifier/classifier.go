// Package classifier assigns spending categories to transactions using a
// tiered rule pipeline: merchant mappings first, then keyword rules, then a
// low-confidence fallback. It fulfils the classifier contract consumed by
// the finance service; a trained model can replace it behind the same
// interface.
package classifier

import (
	"sort"
	"strings"
)

// Input is the transaction view handed to the classifier.
type Input struct {
	Name         string  `json:"name"`
	MerchantName string  `json:"merchant_name"`
	Amount       float64 `json:"amount"`
}

// CategoryScore is one candidate category with its confidence.
type CategoryScore struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Prediction is the classifier output.
type Prediction struct {
	Category        string          `json:"category"`
	Confidence      float64         `json:"confidence"`
	IsTaxDeductible bool            `json:"is_tax_deductible"`
	TopPredictions  []CategoryScore `json:"top_predictions"`
	Source          string          `json:"source"` // "merchant_map", "keyword", "fallback"
}

// Classifier is the contract the finance service consumes.
type Classifier interface {
	Classify(in Input) Prediction
}

// deductibleCategories mirrors the estimator's deductible-rate table: a
// transaction landing in one of these is flagged for the deduction finder.
var deductibleCategories = map[string]bool{
	"business_expenses":        true,
	"healthcare":               true,
	"education":                true,
	"donations":                true,
	"insurance":                true,
	"retirement_contributions": true,
}

// merchantCategories maps well-known merchants to categories with high
// confidence.
var merchantCategories = map[string]CategoryScore{
	"staples":        {Category: "business_expenses", Confidence: 0.9},
	"office depot":   {Category: "business_expenses", Confidence: 0.9},
	"aws":            {Category: "business_expenses", Confidence: 0.95},
	"google cloud":   {Category: "business_expenses", Confidence: 0.95},
	"github":         {Category: "business_expenses", Confidence: 0.9},
	"zoom":           {Category: "business_expenses", Confidence: 0.85},
	"red cross":      {Category: "donations", Confidence: 0.95},
	"unicef":         {Category: "donations", Confidence: 0.95},
	"salvation army": {Category: "donations", Confidence: 0.95},
	"cvs pharmacy":   {Category: "healthcare", Confidence: 0.9},
	"walgreens":      {Category: "healthcare", Confidence: 0.9},
	"coursera":       {Category: "education", Confidence: 0.9},
	"udemy":          {Category: "education", Confidence: 0.9},
	"mcdonalds":      {Category: "meals", Confidence: 0.9},
	"starbucks":      {Category: "meals", Confidence: 0.9},
	"uber eats":      {Category: "meals", Confidence: 0.9},
	"shell":          {Category: "transport", Confidence: 0.85},
	"uber":           {Category: "transport", Confidence: 0.8},
	"netflix":        {Category: "subscriptions", Confidence: 0.95},
	"spotify":        {Category: "subscriptions", Confidence: 0.95},
}

// keywordRule scores a category when any of its keywords appears. Rules are
// an ordered slice: earlier rules win ties.
type keywordRule struct {
	category   string
	confidence float64
	keywords   []string
}

var keywordRules = []keywordRule{
	{"business_expenses", 0.7, []string{"office", "software", "hosting", "consulting", "supplies", "equipment", "coworking"}},
	{"healthcare", 0.7, []string{"pharmacy", "clinic", "doctor", "dental", "hospital", "medical"}},
	{"education", 0.7, []string{"course", "training", "seminar", "tuition", "textbook", "workshop"}},
	{"donations", 0.7, []string{"donation", "charity", "fundraiser"}},
	{"insurance", 0.75, []string{"insurance", "premium", "policy"}},
	{"retirement_contributions", 0.75, []string{"retirement", "pension", "superannuation", "401k"}},
	// Fixed obligations score above the generic business keywords so e.g.
	// "office rent" lands in rent, not business_expenses.
	{"rent", 0.75, []string{"rent", "lease", "landlord"}},
	{"utilities", 0.7, []string{"electric", "water bill", "gas bill", "internet", "phone bill"}},
	{"payroll", 0.7, []string{"salary", "payroll", "wages"}},
	{"meals", 0.6, []string{"restaurant", "cafe", "coffee", "lunch", "dinner"}},
	{"transport", 0.6, []string{"fuel", "parking", "taxi", "train", "flight"}},
	{"subscriptions", 0.6, []string{"subscription", "membership"}},
}

const fallbackCategory = "uncategorized"

// RuleBased is the default Classifier implementation.
type RuleBased struct{}

func NewRuleBased() *RuleBased {
	return &RuleBased{}
}

// Classify runs the tiers in order and returns the best match plus up to
// three ranked alternatives.
func (c *RuleBased) Classify(in Input) Prediction {
	text := strings.ToLower(strings.TrimSpace(in.MerchantName + " " + in.Name))

	// Tier 1: merchant mappings.
	for merchant, score := range merchantCategories {
		if strings.Contains(text, merchant) {
			return prediction(score.Category, score.Confidence, "merchant_map", scoreKeywords(text))
		}
	}

	// Tier 2: keyword rules, best score wins.
	if scores := scoreKeywords(text); len(scores) > 0 {
		best := scores[0]
		return prediction(best.Category, best.Confidence, "keyword", scores)
	}

	return prediction(fallbackCategory, 0.2, "fallback", nil)
}

// scoreKeywords scores every keyword rule against the text and returns the
// matches ranked by confidence, rule order breaking ties.
func scoreKeywords(text string) []CategoryScore {
	var scores []CategoryScore
	for _, rule := range keywordRules {
		matches := 0
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		confidence := rule.confidence
		if matches > 1 {
			confidence = min(confidence+0.1, 0.95)
		}
		scores = append(scores, CategoryScore{Category: rule.category, Confidence: confidence})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Confidence > scores[j].Confidence })
	if len(scores) > 3 {
		scores = scores[:3]
	}
	return scores
}

func prediction(category string, confidence float64, source string, top []CategoryScore) Prediction {
	if len(top) == 0 || top[0].Category != category {
		top = append([]CategoryScore{{Category: category, Confidence: confidence}}, top...)
		if len(top) > 3 {
			top = top[:3]
		}
	}
	return Prediction{
		Category:        category,
		Confidence:      confidence,
		IsTaxDeductible: deductibleCategories[category],
		TopPredictions:  top,
		Source:          source,
	}
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
