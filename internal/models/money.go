package models

import "github.com/shopspring/decimal"

// Money carries amounts as strings on the wire and in the store; arithmetic
// goes through decimal to avoid float drift.
type Money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func (m Money) IsZero() bool {
	if m.Amount == "" {
		return true
	}
	d, err := decimal.NewFromString(m.Amount)
	return err == nil && d.IsZero()
}

// Add returns m + other. Currencies are not reconciled here; callers only add
// amounts they already know share a currency.
func (m Money) Add(other Money) (Money, error) {
	a, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return Money{}, err
	}
	b, err := decimal.NewFromString(other.Amount)
	if err != nil {
		return Money{}, err
	}
	cur := m.Currency
	if cur == "" {
		cur = other.Currency
	}
	return Money{Amount: a.Add(b).String(), Currency: cur}, nil
}
