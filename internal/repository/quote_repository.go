package repository

import (
	"context"
	"database/sql"

	"github.com/finbridge/lps-adaptor/internal/models"
)

type QuoteRepository struct {
	db *sql.DB
}

func NewQuoteRepository(db *sql.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

const quoteColumns = `id, transaction_request_id, COALESCE(transaction_id, ''),
	amount, amount_currency, COALESCE(fee_amount, ''), COALESCE(fee_currency, ''),
	COALESCE(transfer_amount, ''), COALESCE(transfer_amount_currency, ''),
	COALESCE(condition, ''), COALESCE(ilp_packet, ''), expiration, created_at, updated_at`

func (r *QuoteRepository) Create(ctx context.Context, q *models.Quote) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO quotes (
			id, transaction_request_id, transaction_id, amount, amount_currency,
			fee_amount, fee_currency, transfer_amount, transfer_amount_currency,
			condition, ilp_packet, expiration
		) VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), NULLIF($7, ''),
			NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), $12)`,
		q.ID, q.TransactionRequestID, q.TransactionID, q.Amount, q.AmountCurrency,
		q.FeeAmount, q.FeeCurrency, q.TransferAmount, q.TransferAmountCurrency,
		q.Condition, q.IlpPacket, q.Expiration)
	return err
}

func (r *QuoteRepository) GetByID(ctx context.Context, id string) (*models.Quote, error) {
	return r.scan(r.db.QueryRowContext(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id))
}

func (r *QuoteRepository) GetByTransactionRequestID(ctx context.Context, transactionRequestID string) (*models.Quote, error) {
	return r.scan(r.db.QueryRowContext(ctx, `
		SELECT `+quoteColumns+` FROM quotes WHERE transaction_request_id = $1
		ORDER BY created_at DESC LIMIT 1`, transactionRequestID))
}

func (r *QuoteRepository) GetByCondition(ctx context.Context, condition string) (*models.Quote, error) {
	return r.scan(r.db.QueryRowContext(ctx, `
		SELECT `+quoteColumns+` FROM quotes WHERE condition = $1
		ORDER BY created_at DESC LIMIT 1`, condition))
}

func (r *QuoteRepository) UpdateSchemeValues(ctx context.Context, q *models.Quote) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE quotes
		SET transfer_amount = $1, transfer_amount_currency = $2, fee_amount = $3,
			fee_currency = $4, condition = $5, ilp_packet = $6, expiration = $7,
			updated_at = NOW()
		WHERE id = $8`,
		q.TransferAmount, q.TransferAmountCurrency, q.FeeAmount, q.FeeCurrency,
		q.Condition, q.IlpPacket, q.Expiration, q.ID)
	return err
}

func (r *QuoteRepository) Expire(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE quotes SET expiration = NOW(), updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *QuoteRepository) scan(row *sql.Row) (*models.Quote, error) {
	var q models.Quote
	err := row.Scan(&q.ID, &q.TransactionRequestID, &q.TransactionID,
		&q.Amount, &q.AmountCurrency, &q.FeeAmount, &q.FeeCurrency,
		&q.TransferAmount, &q.TransferAmountCurrency,
		&q.Condition, &q.IlpPacket, &q.Expiration, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &q, nil
}
