package repository

import (
	"context"
	"database/sql"

	"github.com/finbridge/lps-adaptor/internal/models"
)

type PartyRepository struct {
	db *sql.DB
}

func NewPartyRepository(db *sql.DB) *PartyRepository {
	return &PartyRepository{db: db}
}

func (r *PartyRepository) Create(ctx context.Context, p *models.TransactionParty) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transaction_parties (transaction_request_id, type, id_type, id_value, sub_id_or_type, fsp_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))`,
		p.TransactionRequestID, p.Type, p.IDType, p.IDValue, p.SubIDOrType, p.FspID)
	return err
}

func (r *PartyRepository) Get(ctx context.Context, transactionRequestID string, typ models.PartyType) (*models.TransactionParty, error) {
	var p models.TransactionParty
	err := r.db.QueryRowContext(ctx, `
		SELECT transaction_request_id, type, id_type, id_value, COALESCE(sub_id_or_type, ''), COALESCE(fsp_id, '')
		FROM transaction_parties
		WHERE transaction_request_id = $1 AND type = $2`, transactionRequestID, typ,
	).Scan(&p.TransactionRequestID, &p.Type, &p.IDType, &p.IDValue, &p.SubIDOrType, &p.FspID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &p, nil
}

func (r *PartyRepository) UpdateFspID(ctx context.Context, transactionRequestID string, typ models.PartyType, fspID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE transaction_parties SET fsp_id = $1
		WHERE transaction_request_id = $2 AND type = $3`, fspID, transactionRequestID, typ)
	return err
}

type FeeRepository struct {
	db *sql.DB
}

func NewFeeRepository(db *sql.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

func (r *FeeRepository) Create(ctx context.Context, f *models.TransactionFee) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transaction_fees (transaction_request_id, type, amount, currency)
		VALUES ($1, $2, $3, $4)`, f.TransactionRequestID, f.Type, f.Amount, f.Currency)
	return err
}

func (r *FeeRepository) ListByTransaction(ctx context.Context, transactionRequestID string) ([]models.TransactionFee, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT transaction_request_id, type, amount, currency
		FROM transaction_fees WHERE transaction_request_id = $1
		ORDER BY id`, transactionRequestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fees []models.TransactionFee
	for rows.Next() {
		var f models.TransactionFee
		if err := rows.Scan(&f.TransactionRequestID, &f.Type, &f.Amount, &f.Currency); err != nil {
			return nil, err
		}
		fees = append(fees, f)
	}
	return fees, rows.Err()
}
