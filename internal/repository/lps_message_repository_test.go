package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/finbridge/lps-adaptor/internal/interfaces"
	"github.com/finbridge/lps-adaptor/internal/models"
)

var messageColumns = []string{"id", "lps_id", "lps_key", "type", "content", "created_at", "updated_at"}

func messageRow(rows *sqlmock.Rows, id string, createdAt time.Time) *sqlmock.Rows {
	return rows.AddRow(id, "lps1", "lps1TERM0001ACCEPT001", "financialRequest",
		[]byte(`{"0":"0200","7":"0701104523","11":"123456"}`), createdAt, createdAt)
}

// Two audit records satisfy the criteria; the query must hand back the newer
// one, so the advice reverses the retry rather than the first attempt.
func TestFindReversalMatchPrefersNewest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	older := time.Date(2026, 7, 1, 10, 40, 0, 0, time.UTC)
	newer := older.Add(5 * time.Minute)
	rows := sqlmock.NewRows(messageColumns)
	messageRow(rows, "msg-retry", newer)
	messageRow(rows, "msg-first", older)

	mock.ExpectQuery(`FROM lps_messages WHERE lps_id = \$1 AND content->>'0' = \$2 AND content->>'7' = \$3 AND content->>'11' = \$4 ORDER BY created_at DESC LIMIT 1`).
		WithArgs("lps1", "0200", "0701104523", "123456").
		WillReturnRows(rows)

	repo := NewLpsMessageRepository(db)
	m, err := repo.FindReversalMatch(context.Background(), "lps1", interfaces.ReversalMatchCriteria{
		MTI:  "0200",
		Stan: "123456",
		Date: "0701104523",
	})
	if err != nil {
		t.Fatalf("FindReversalMatch() error: %v", err)
	}
	if m.ID != "msg-retry" {
		t.Errorf("matched message = %q, want the newest candidate", m.ID)
	}
	if m.Content[11] != "123456" {
		t.Errorf("content = %+v", m.Content)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFindReversalMatchInstitutionClauses(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows(messageColumns)
	messageRow(rows, "msg-1", time.Date(2026, 7, 1, 10, 40, 0, 0, time.UTC))

	mock.ExpectQuery(`ltrim\(COALESCE\(content->>'32', ''\), '0'\) = \$5 AND ltrim\(COALESCE\(content->>'33', ''\), '0'\) = \$6 ORDER BY created_at DESC LIMIT 1`).
		WithArgs("lps1", "0200", "0701104523", "123456", "12345", "678").
		WillReturnRows(rows)

	repo := NewLpsMessageRepository(db)
	m, err := repo.FindReversalMatch(context.Background(), "lps1", interfaces.ReversalMatchCriteria{
		MTI:         "0200",
		Stan:        "123456",
		Date:        "0701104523",
		AcquirerID:  "12345",
		ForwarderID: "678",
	})
	if err != nil {
		t.Fatalf("FindReversalMatch() error: %v", err)
	}
	if m.ID != "msg-1" {
		t.Errorf("matched message = %q", m.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFindReversalMatchNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`ORDER BY created_at DESC LIMIT 1`).
		WillReturnRows(sqlmock.NewRows(messageColumns))

	repo := NewLpsMessageRepository(db)
	_, err = repo.FindReversalMatch(context.Background(), "lps1", interfaces.ReversalMatchCriteria{
		MTI:  "0420",
		Stan: "000001",
		Date: "0701104523",
	})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
