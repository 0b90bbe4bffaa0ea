package config

import (
	"os"
	"strconv"
	"time"
)

// ResponseCodes maps the workflow's response-type enum to legacy wire codes.
// Defaults follow the switch's standard action-code table; every entry is
// overridable per deployment.
type ResponseCodes struct {
	Approved           string
	InvalidTransaction string
	NoAction           string
	DoNotHonour        string
	NoIssuer           string
}

func DefaultResponseCodes() ResponseCodes {
	return ResponseCodes{
		Approved:           "00",
		InvalidTransaction: "N0",
		NoAction:           "21",
		DoNotHonour:        "05",
		NoIssuer:           "15",
	}
}

// RelayConfig configures one legacy source: its identity, dialect variant,
// expiry window and response-code table.
type RelayConfig struct {
	LpsID                   string
	Dialect                 string // "A" | "B"
	TransactionExpiryWindow time.Duration
	ResponseCodes           ResponseCodes
}

type Config struct {
	DatabaseURL      string
	RedisURL         string
	NatsURL          string
	KafkaBrokers     string
	SchemeBaseURL    string
	FspID            string
	IlpSecret        string
	Port             string
	TCPListenAddr    string
	AdaptorFeeAmount string
	FeeCurrency      string
	Relay            RelayConfig
}

func Load() *Config {
	expirySeconds := 30
	if v := os.Getenv("TRANSACTION_EXPIRY_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			expirySeconds = n
		}
	}

	codes := DefaultResponseCodes()
	codes.Approved = getenv("RESPONSE_CODE_APPROVED", codes.Approved)
	codes.InvalidTransaction = getenv("RESPONSE_CODE_INVALID", codes.InvalidTransaction)
	codes.NoAction = getenv("RESPONSE_CODE_NO_ACTION", codes.NoAction)
	codes.DoNotHonour = getenv("RESPONSE_CODE_DO_NOT_HONOUR", codes.DoNotHonour)
	codes.NoIssuer = getenv("RESPONSE_CODE_NO_ISSUER", codes.NoIssuer)

	return &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         getenv("REDIS_URL", "localhost:6379"),
		NatsURL:          getenv("NATS_URL", "nats://localhost:4222"),
		KafkaBrokers:     getenv("KAFKA_BROKERS", "localhost:9092"),
		SchemeBaseURL:    getenv("SCHEME_BASE_URL", "http://localhost:3000"),
		FspID:            getenv("FSP_ID", "lps-adaptor"),
		IlpSecret:        getenv("ILP_SECRET", "secret"),
		Port:             getenv("PORT", "8082"),
		TCPListenAddr:    getenv("TCP_LISTEN_ADDR", ":5000"),
		AdaptorFeeAmount: getenv("ADAPTOR_FEE_AMOUNT", "0"),
		FeeCurrency:      getenv("FEE_CURRENCY", "USD"),
		Relay: RelayConfig{
			LpsID:                   getenv("LPS_ID", "lps1"),
			Dialect:                 getenv("LPS_DIALECT", "A"),
			TransactionExpiryWindow: time.Duration(expirySeconds) * time.Second,
			ResponseCodes:           codes,
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
