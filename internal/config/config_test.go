package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8082" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.TCPListenAddr != ":5000" {
		t.Errorf("TCPListenAddr = %q", cfg.TCPListenAddr)
	}
	if cfg.FeeCurrency != "USD" {
		t.Errorf("FeeCurrency = %q", cfg.FeeCurrency)
	}
	if cfg.Relay.LpsID != "lps1" || cfg.Relay.Dialect != "A" {
		t.Errorf("Relay = %+v", cfg.Relay)
	}
	if cfg.Relay.TransactionExpiryWindow != 30*time.Second {
		t.Errorf("TransactionExpiryWindow = %v", cfg.Relay.TransactionExpiryWindow)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LPS_ID", "atm9")
	t.Setenv("LPS_DIALECT", "B")
	t.Setenv("TRANSACTION_EXPIRY_SECONDS", "120")
	t.Setenv("RESPONSE_CODE_INVALID", "N9")

	cfg := Load()
	if cfg.Relay.LpsID != "atm9" || cfg.Relay.Dialect != "B" {
		t.Errorf("Relay = %+v", cfg.Relay)
	}
	if cfg.Relay.TransactionExpiryWindow != 2*time.Minute {
		t.Errorf("TransactionExpiryWindow = %v", cfg.Relay.TransactionExpiryWindow)
	}
	if cfg.Relay.ResponseCodes.InvalidTransaction != "N9" {
		t.Errorf("InvalidTransaction code = %q", cfg.Relay.ResponseCodes.InvalidTransaction)
	}
	if cfg.Relay.ResponseCodes.Approved != "00" {
		t.Error("untouched codes must keep their defaults")
	}
}

func TestExpiryRejectsBadValues(t *testing.T) {
	for _, v := range []string{"0", "-5", "abc"} {
		t.Setenv("TRANSACTION_EXPIRY_SECONDS", v)
		if got := Load().Relay.TransactionExpiryWindow; got != 30*time.Second {
			t.Errorf("TRANSACTION_EXPIRY_SECONDS=%q gave window %v, want default", v, got)
		}
	}
}

func TestDefaultResponseCodes(t *testing.T) {
	codes := DefaultResponseCodes()
	if codes.Approved != "00" || codes.NoAction != "21" || codes.InvalidTransaction != "N0" ||
		codes.DoNotHonour != "05" || codes.NoIssuer != "15" {
		t.Errorf("codes = %+v", codes)
	}
}
