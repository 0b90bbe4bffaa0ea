package ilp

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/finbridge/lps-adaptor/internal/models"
)

func TestCalculateFulfilIsDeterministic(t *testing.T) {
	s := NewService(nil, "secret")

	a, err := s.CalculateFulfil("packet-1")
	if err != nil {
		t.Fatalf("CalculateFulfil() error: %v", err)
	}
	b, err := s.CalculateFulfil("packet-1")
	if err != nil {
		t.Fatalf("CalculateFulfil() error: %v", err)
	}
	if a != b {
		t.Errorf("same packet produced %q and %q", a, b)
	}

	other, err := s.CalculateFulfil("packet-2")
	if err != nil {
		t.Fatalf("CalculateFulfil() error: %v", err)
	}
	if a == other {
		t.Error("different packets must not share a fulfilment")
	}

	otherSecret, err := NewService(nil, "other").CalculateFulfil("packet-1")
	if err != nil {
		t.Fatalf("CalculateFulfil() error: %v", err)
	}
	if a == otherSecret {
		t.Error("different secrets must not share a fulfilment")
	}

	if _, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(a); err != nil {
		t.Errorf("fulfilment %q is not unpadded base64url: %v", a, err)
	}
}

func TestConditionHashesFulfilment(t *testing.T) {
	s := NewService(nil, "secret")
	fulfilment, err := s.CalculateFulfil("packet-1")
	if err != nil {
		t.Fatalf("CalculateFulfil() error: %v", err)
	}

	condition, err := CalculateCondition(fulfilment)
	if err != nil {
		t.Fatalf("CalculateCondition() error: %v", err)
	}

	raw, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(fulfilment)
	if err != nil {
		t.Fatalf("decode fulfilment: %v", err)
	}
	sum := sha256.Sum256(raw)
	want := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(sum[:])
	if condition != want {
		t.Errorf("condition = %q, want sha256 of the fulfilment bytes", condition)
	}

	if _, err := CalculateCondition("not base64url!!"); err == nil {
		t.Error("malformed fulfilment must not hash")
	}
}

// A local quote must stay verifiable: fulfilling the packet reproduces the
// condition committed at quote time.
func TestLocalQuoteRoundTrips(t *testing.T) {
	s := NewService(nil, "secret")

	packet, condition, err := s.localQuote("tx-1", models.Money{Amount: "404", Currency: "USD"})
	if err != nil {
		t.Fatalf("localQuote() error: %v", err)
	}

	fulfilment, err := s.CalculateFulfil(packet)
	if err != nil {
		t.Fatalf("CalculateFulfil() error: %v", err)
	}
	got, err := CalculateCondition(fulfilment)
	if err != nil {
		t.Fatalf("CalculateCondition() error: %v", err)
	}
	if got != condition {
		t.Errorf("derived condition %q does not match quoted condition %q", got, condition)
	}
}
