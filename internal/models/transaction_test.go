package models

import (
	"testing"
	"time"
)

func TestTransactionIsValid(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name       string
		state      TransactionState
		expiration time.Time
		want       bool
	}{
		{"active before expiry", StateTransactionReceived, now.Add(time.Minute), true},
		{"active mid-flow", StateQuoteResponded, now.Add(time.Minute), true},
		{"declined", StateTransactionDeclined, now.Add(time.Minute), false},
		{"cancelled", StateTransactionCancelled, now.Add(time.Minute), false},
		{"expired", StateTransactionReceived, now.Add(-time.Second), false},
		{"expires exactly now", StateTransactionReceived, now, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := Transaction{State: tc.state, Expiration: tc.expiration}
			if got := tx.IsValid(now); got != tc.want {
				t.Errorf("IsValid() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTransactionIsRefund(t *testing.T) {
	tx := Transaction{}
	if tx.IsRefund() {
		t.Error("transaction without original id should not be a refund")
	}
	tx.OriginalTransactionID = "abc-123"
	if !tx.IsRefund() {
		t.Error("transaction with original id should be a refund")
	}
}

func TestStateIsTerminal(t *testing.T) {
	for _, s := range []TransactionState{StateFinancialResponse, StateTransactionDeclined, StateTransactionCancelled} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []TransactionState{StateTransactionReceived, StateAuthSent, StateFulfillmentSent} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestQuoteIsExpired(t *testing.T) {
	now := time.Now()
	q := Quote{Expiration: now.Add(time.Second)}
	if q.IsExpired(now) {
		t.Error("quote expiring in the future should not be expired")
	}
	q.Expiration = now
	if !q.IsExpired(now) {
		t.Error("quote expiring exactly now should be expired")
	}
}

func TestMoneyAdd(t *testing.T) {
	a := Money{Amount: "400", Currency: "USD"}
	b := Money{Amount: "4.50", Currency: "USD"}
	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if sum.Amount != "404.5" || sum.Currency != "USD" {
		t.Errorf("Add() = %+v, want 404.5 USD", sum)
	}
}

func TestMoneyIsZero(t *testing.T) {
	if !(Money{}).IsZero() {
		t.Error("empty money should be zero")
	}
	if !(Money{Amount: "0", Currency: "USD"}).IsZero() {
		t.Error("zero amount should be zero")
	}
	if (Money{Amount: "0.01", Currency: "USD"}).IsZero() {
		t.Error("nonzero amount should not be zero")
	}
}

func TestCloneContent(t *testing.T) {
	m := LpsMessage{Content: map[int]string{0: "0100", 4: "000000040000"}}
	clone := m.CloneContent()
	clone[0] = "0110"
	if m.Content[0] != "0100" {
		t.Error("mutating the clone must not touch the original")
	}
}
