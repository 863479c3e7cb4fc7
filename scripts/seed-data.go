//go:build ignore
// +build ignore

// Seeds a running server with a year of small-business activity so the
// health, cashflow, and tax reports have data to chew on.
//
//	go run scripts/seed-data.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

var apiURL = envOr("API_URL", "http://localhost:8080")

func main() {
	email := envOr("SEED_EMAIL", "demo@finpulse.local")
	password := envOr("SEED_PASSWORD", "demo-password-123")

	log.Printf("seeding demo data via %s", apiURL)

	token, err := registerAndLogin(email, password)
	if err != nil {
		log.Fatalf("auth failed: %v", err)
	}

	now := time.Now().UTC()
	count := 0
	for i := 12; i >= 1; i-- {
		month := now.AddDate(0, -i, 0)
		for _, txn := range monthlyActivity(month, i) {
			if err := post("/api/v1/transactions", token, txn); err != nil {
				log.Fatalf("seed transaction: %v", err)
			}
			count++
		}
	}

	if err := post("/api/v1/debts", token, map[string]interface{}{
		"name":   "Equipment loan",
		"amount": 18000.0,
	}); err != nil {
		log.Fatalf("seed debt: %v", err)
	}

	if err := post("/api/v1/goals", token, map[string]interface{}{
		"type":          "emergency_fund",
		"title":         "Six month buffer",
		"target_amount": 42000.0,
		"priority":      "high",
		"timeframe":     "short",
	}); err != nil {
		log.Fatalf("seed goal: %v", err)
	}

	log.Printf("done: %d transactions, 1 debt, 1 goal for %s", count, email)
}

// monthlyActivity returns one month of transactions with mild growth so the
// trend metrics have something to detect.
func monthlyActivity(month time.Time, monthsAgo int) []map[string]interface{} {
	day := func(d int) time.Time {
		return time.Date(month.Year(), month.Month(), d, 12, 0, 0, 0, time.UTC)
	}
	growth := 1.0 + 0.02*float64(12-monthsAgo)
	return []map[string]interface{}{
		{"type": "income", "amount": 11000 * growth, "date": day(3), "name": "Client invoice", "category": "income"},
		{"type": "income", "amount": 2400.0, "date": day(17), "name": "Retainer payment", "category": "income"},
		{"type": "expense", "amount": 2800.0, "date": day(1), "name": "Office rent payment", "category": "rent"},
		{"type": "expense", "amount": 1900.0, "date": day(5), "name": "Payroll run", "category": "payroll"},
		{"type": "expense", "amount": 650 * growth, "date": day(9), "name": "Wholesale supplies", "category": "business_expenses"},
		{"type": "expense", "amount": 320.0, "date": day(12), "name": "Cloud hosting", "category": "software"},
		{"type": "expense", "amount": 410.0, "date": day(20), "name": "Liability insurance premium", "category": "insurance"},
	}
}

func registerAndLogin(email, password string) (string, error) {
	// Registration may 409 on reruns, which is fine.
	_ = post("/auth/register", "", map[string]string{
		"email":    email,
		"name":     "Demo Owner",
		"password": password,
	})

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}
	resp, err := http.Post(apiURL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login returned %s", resp.Status)
	}

	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out["token"], nil
}

func post(path, token string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned %s", path, resp.Status)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
