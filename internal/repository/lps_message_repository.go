package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/finbridge/lps-adaptor/internal/interfaces"
	"github.com/finbridge/lps-adaptor/internal/models"
)

type LpsMessageRepository struct {
	db *sql.DB
}

func NewLpsMessageRepository(db *sql.DB) *LpsMessageRepository {
	return &LpsMessageRepository{db: db}
}

func (r *LpsMessageRepository) Create(ctx context.Context, m *models.LpsMessage) error {
	content, err := json.Marshal(m.Content)
	if err != nil {
		return fmt.Errorf("marshal lps message content: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO lps_messages (id, lps_id, lps_key, type, content)
		VALUES ($1, $2, $3, $4, $5)`, m.ID, m.LpsID, m.LpsKey, m.Type, content)
	return err
}

func (r *LpsMessageRepository) GetByID(ctx context.Context, id string) (*models.LpsMessage, error) {
	return r.scan(r.db.QueryRowContext(ctx, `
		SELECT id, lps_id, lps_key, type, content, created_at, updated_at
		FROM lps_messages WHERE id = $1`, id))
}

func (r *LpsMessageRepository) Link(ctx context.Context, transactionRequestID, messageID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transaction_messages (transaction_request_id, lps_message_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, transactionRequestID, messageID)
	return err
}

func (r *LpsMessageRepository) GetLatestLinked(ctx context.Context, transactionRequestID string, typ models.LpsMessageType) (*models.LpsMessage, error) {
	return r.scan(r.db.QueryRowContext(ctx, `
		SELECT m.id, m.lps_id, m.lps_key, m.type, m.content, m.created_at, m.updated_at
		FROM lps_messages m
		JOIN transaction_messages tm ON tm.lps_message_id = m.id
		WHERE tm.transaction_request_id = $1 AND m.type = $2
		ORDER BY m.created_at DESC LIMIT 1`, transactionRequestID, typ))
}

// FindReversalMatch compares the reversal advice's original data elements
// against persisted field maps. MTI, transmission date/time and STAN must
// match; institution ids participate only when the advice carried them, and
// leading zeros are ignored on both sides.
func (r *LpsMessageRepository) FindReversalMatch(ctx context.Context, lpsID string, c interfaces.ReversalMatchCriteria) (*models.LpsMessage, error) {
	query := `
		SELECT id, lps_id, lps_key, type, content, created_at, updated_at
		FROM lps_messages
		WHERE lps_id = $1
		  AND content->>'0' = $2
		  AND content->>'7' = $3
		  AND content->>'11' = $4`
	args := []any{lpsID, c.MTI, c.Date, c.Stan}

	if c.AcquirerID != "" {
		args = append(args, c.AcquirerID)
		query += fmt.Sprintf(` AND ltrim(COALESCE(content->>'32', ''), '0') = $%d`, len(args))
	}
	if c.ForwarderID != "" {
		args = append(args, c.ForwarderID)
		query += fmt.Sprintf(` AND ltrim(COALESCE(content->>'33', ''), '0') = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC LIMIT 1`

	return r.scan(r.db.QueryRowContext(ctx, query, args...))
}

func (r *LpsMessageRepository) scan(row *sql.Row) (*models.LpsMessage, error) {
	var m models.LpsMessage
	var content []byte
	if err := row.Scan(&m.ID, &m.LpsID, &m.LpsKey, &m.Type, &content, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, wrapNotFound(err)
	}
	if err := json.Unmarshal(content, &m.Content); err != nil {
		return nil, fmt.Errorf("unmarshal lps message content: %w", err)
	}
	return &m, nil
}
