package repository

import (
	"database/sql"
	"errors"

	"github.com/finbridge/lps-adaptor/internal/models"
)

// Store bundles the adaptor's repositories over one database handle.
type Store struct {
	Transactions *TransactionRepository
	Parties      *PartyRepository
	Fees         *FeeRepository
	Messages     *LpsMessageRepository
	Quotes       *QuoteRepository
	Transfers    *TransferRepository

	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		Transactions: &TransactionRepository{db: db},
		Parties:      &PartyRepository{db: db},
		Fees:         &FeeRepository{db: db},
		Messages:     &LpsMessageRepository{db: db},
		Quotes:       &QuoteRepository{db: db},
		Transfers:    &TransferRepository{db: db},
		db:           db,
	}
}

// InitDB creates the schema if it does not exist yet. Transactions are never
// deleted and lps_messages are never updated; both carry audit weight.
func (s *Store) InitDB() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			transaction_request_id VARCHAR(64) PRIMARY KEY,
			transaction_id VARCHAR(64),
			lps_id VARCHAR(64) NOT NULL,
			lps_key VARCHAR(128) NOT NULL,
			amount VARCHAR(32) NOT NULL,
			currency VARCHAR(3) NOT NULL,
			scenario VARCHAR(16) NOT NULL,
			initiator VARCHAR(16) NOT NULL,
			initiator_type VARCHAR(16) NOT NULL,
			authentication_type VARCHAR(16),
			expiration TIMESTAMPTZ NOT NULL,
			state VARCHAR(32) NOT NULL,
			previous_state VARCHAR(32),
			original_transaction_id VARCHAR(64),
			refund_reason VARCHAR(128),
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_lps_key ON transactions(lps_key, state)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_transaction_id ON transactions(transaction_id)`,
		`CREATE TABLE IF NOT EXISTS transaction_parties (
			transaction_request_id VARCHAR(64) NOT NULL REFERENCES transactions(transaction_request_id),
			type VARCHAR(8) NOT NULL,
			id_type VARCHAR(32) NOT NULL,
			id_value VARCHAR(64) NOT NULL,
			sub_id_or_type VARCHAR(64),
			fsp_id VARCHAR(64),
			PRIMARY KEY (transaction_request_id, type)
		)`,
		`CREATE TABLE IF NOT EXISTS transaction_fees (
			id SERIAL PRIMARY KEY,
			transaction_request_id VARCHAR(64) NOT NULL REFERENCES transactions(transaction_request_id),
			type VARCHAR(16) NOT NULL,
			amount VARCHAR(32) NOT NULL,
			currency VARCHAR(3) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS lps_messages (
			id VARCHAR(64) PRIMARY KEY,
			lps_id VARCHAR(64) NOT NULL,
			lps_key VARCHAR(128) NOT NULL,
			type VARCHAR(32) NOT NULL,
			content JSONB NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lps_messages_match ON lps_messages(lps_id, (content->>'0'), (content->>'11'))`,
		`CREATE TABLE IF NOT EXISTS transaction_messages (
			transaction_request_id VARCHAR(64) NOT NULL REFERENCES transactions(transaction_request_id),
			lps_message_id VARCHAR(64) NOT NULL REFERENCES lps_messages(id),
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (transaction_request_id, lps_message_id)
		)`,
		`CREATE TABLE IF NOT EXISTS quotes (
			id VARCHAR(64) PRIMARY KEY,
			transaction_request_id VARCHAR(64) NOT NULL REFERENCES transactions(transaction_request_id),
			transaction_id VARCHAR(64),
			amount VARCHAR(32) NOT NULL,
			amount_currency VARCHAR(3) NOT NULL,
			fee_amount VARCHAR(32),
			fee_currency VARCHAR(3),
			transfer_amount VARCHAR(32),
			transfer_amount_currency VARCHAR(3),
			condition VARCHAR(256),
			ilp_packet TEXT,
			expiration TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS transfers (
			id VARCHAR(64) PRIMARY KEY,
			quote_id VARCHAR(64),
			transaction_request_id VARCHAR(64) NOT NULL REFERENCES transactions(transaction_request_id),
			fulfilment VARCHAR(256),
			state VARCHAR(16) NOT NULL,
			amount VARCHAR(32) NOT NULL,
			currency VARCHAR(3) NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	return err
}
