package repository

import (
	"context"
	"database/sql"

	"github.com/finbridge/lps-adaptor/internal/models"
)

type TransferRepository struct {
	db *sql.DB
}

func NewTransferRepository(db *sql.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

const transferColumns = `id, COALESCE(quote_id, ''), transaction_request_id,
	COALESCE(fulfilment, ''), state, amount, currency, created_at, updated_at`

func (r *TransferRepository) Create(ctx context.Context, t *models.Transfer) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transfers (id, quote_id, transaction_request_id, fulfilment, state, amount, currency)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), $5, $6, $7)`,
		t.ID, t.QuoteID, t.TransactionRequestID, t.Fulfilment, t.State, t.Amount, t.Currency)
	return err
}

func (r *TransferRepository) GetByID(ctx context.Context, id string) (*models.Transfer, error) {
	return r.scan(r.db.QueryRowContext(ctx,
		`SELECT `+transferColumns+` FROM transfers WHERE id = $1`, id))
}

func (r *TransferRepository) GetByTransactionRequestID(ctx context.Context, transactionRequestID string) (*models.Transfer, error) {
	return r.scan(r.db.QueryRowContext(ctx, `
		SELECT `+transferColumns+` FROM transfers WHERE transaction_request_id = $1
		ORDER BY created_at DESC LIMIT 1`, transactionRequestID))
}

func (r *TransferRepository) UpdateState(ctx context.Context, id string, state models.TransferState) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transfers SET state = $1, updated_at = NOW() WHERE id = $2`, state, id)
	return err
}

func (r *TransferRepository) scan(row *sql.Row) (*models.Transfer, error) {
	var t models.Transfer
	err := row.Scan(&t.ID, &t.QuoteID, &t.TransactionRequestID, &t.Fulfilment,
		&t.State, &t.Amount, &t.Currency, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &t, nil
}
