package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/finbridge/lps-adaptor/internal/models"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `transaction_request_id, COALESCE(transaction_id, ''), lps_id, lps_key,
	amount, currency, scenario, initiator, initiator_type, COALESCE(authentication_type, ''),
	expiration, state, COALESCE(previous_state, ''), COALESCE(original_transaction_id, ''),
	COALESCE(refund_reason, ''), created_at, updated_at`

func scanTransaction(row *sql.Row) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.TransactionRequestID, &t.TransactionID, &t.LpsID, &t.LpsKey,
		&t.Amount, &t.Currency, &t.Scenario, &t.Initiator, &t.InitiatorType,
		&t.AuthenticationType, &t.Expiration, &t.State, &t.PreviousState,
		&t.OriginalTransactionID, &t.RefundReason, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &t, nil
}

func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (
			transaction_request_id, transaction_id, lps_id, lps_key, amount, currency,
			scenario, initiator, initiator_type, authentication_type, expiration,
			state, previous_state, original_transaction_id, refund_reason
		) VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''), NULLIF($14, ''), NULLIF($15, ''))
	`, t.TransactionRequestID, t.TransactionID, t.LpsID, t.LpsKey, t.Amount, t.Currency,
		t.Scenario, t.Initiator, t.InitiatorType, t.AuthenticationType, t.Expiration,
		t.State, string(t.PreviousState), t.OriginalTransactionID, t.RefundReason)
	return err
}

func (r *TransactionRepository) GetByRequestID(ctx context.Context, id string) (*models.Transaction, error) {
	return scanTransaction(r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE transaction_request_id = $1`, id))
}

func (r *TransactionRepository) GetByMessageID(ctx context.Context, messageID string) (*models.Transaction, error) {
	return scanTransaction(r.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions t
		JOIN transaction_messages tm ON tm.transaction_request_id = t.transaction_request_id
		WHERE tm.lps_message_id = $1
		ORDER BY t.created_at DESC LIMIT 1`, messageID))
}

func (r *TransactionRepository) GetLatestByLpsKeyAndState(ctx context.Context, lpsKey string, state models.TransactionState) (*models.Transaction, error) {
	return scanTransaction(r.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE lps_key = $1 AND state = $2
		ORDER BY created_at DESC LIMIT 1`, lpsKey, state))
}

func (r *TransactionRepository) GetLatestByPayerIdentifier(ctx context.Context, idValue string, state models.TransactionState) (*models.Transaction, error) {
	return scanTransaction(r.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions t
		JOIN transaction_parties p ON p.transaction_request_id = t.transaction_request_id
		WHERE p.type = 'payer' AND p.id_value = $1 AND t.state = $2
		ORDER BY t.created_at DESC LIMIT 1`, idValue, state))
}

// UpdateState writes previous_state and state in one statement so concurrent
// handlers can never interleave between the read and the write.
func (r *TransactionRepository) UpdateState(ctx context.Context, id string, to models.TransactionState) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET previous_state = state, state = $1, updated_at = NOW()
		WHERE transaction_request_id = $2`, to, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *TransactionRepository) SetTransactionID(ctx context.Context, id, transactionID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET transaction_id = $1, updated_at = NOW()
		WHERE transaction_request_id = $2`, transactionID, id)
	return err
}

func (r *TransactionRepository) CancelPendingByLpsKey(ctx context.Context, lpsKey, excludeRequestID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET previous_state = state, state = $1, updated_at = NOW()
		WHERE lps_key = $2
		  AND transaction_request_id <> $3
		  AND NOT (state = ANY($4))`,
		models.StateTransactionCancelled, lpsKey, excludeRequestID, pq.Array(terminalStateStrings()))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func terminalStateStrings() []string {
	out := make([]string, len(models.TerminalStates))
	for i, s := range models.TerminalStates {
		out[i] = string(s)
	}
	return out
}
