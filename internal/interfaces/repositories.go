package interfaces

import (
	"context"

	"github.com/finbridge/lps-adaptor/internal/models"
)

// TransactionRepository is the sole arbiter of transaction state. Every state
// transition is a single conditional UPDATE that writes previousState and
// state together; callers check the returned row count to detect lost races.
type TransactionRepository interface {
	Create(ctx context.Context, t *models.Transaction) error
	GetByRequestID(ctx context.Context, transactionRequestID string) (*models.Transaction, error)
	// GetByMessageID returns the most recently created transaction linked to
	// the given lps message.
	GetByMessageID(ctx context.Context, messageID string) (*models.Transaction, error)
	// GetLatestByLpsKeyAndState returns the most recent transaction for the
	// legacy session in the given state.
	GetLatestByLpsKeyAndState(ctx context.Context, lpsKey string, state models.TransactionState) (*models.Transaction, error)
	// GetLatestByPayerIdentifier returns the most recent transaction whose
	// payer matches the identifier and whose state matches.
	GetLatestByPayerIdentifier(ctx context.Context, idValue string, state models.TransactionState) (*models.Transaction, error)
	// UpdateState atomically sets previousState to the current state and
	// state to the new value. Returns rows affected.
	UpdateState(ctx context.Context, transactionRequestID string, to models.TransactionState) (int64, error)
	SetTransactionID(ctx context.Context, transactionRequestID, transactionID string) error
	// CancelPendingByLpsKey cancels every non-terminal transaction sharing
	// the lps key, except the one named by excludeRequestID (which may be
	// empty). Returns the number of transactions cancelled.
	CancelPendingByLpsKey(ctx context.Context, lpsKey, excludeRequestID string) (int64, error)
}

type PartyRepository interface {
	Create(ctx context.Context, p *models.TransactionParty) error
	Get(ctx context.Context, transactionRequestID string, typ models.PartyType) (*models.TransactionParty, error)
	UpdateFspID(ctx context.Context, transactionRequestID string, typ models.PartyType, fspID string) error
}

type FeeRepository interface {
	Create(ctx context.Context, f *models.TransactionFee) error
	ListByTransaction(ctx context.Context, transactionRequestID string) ([]models.TransactionFee, error)
}

// ReversalMatchCriteria carries the original-data-elements fields a reversal
// advice must match against the audit log. Empty AcquirerID/ForwarderID means
// the id was absent (all zeros) and is excluded from the match.
type ReversalMatchCriteria struct {
	MTI         string
	Stan        string
	Date        string
	AcquirerID  string
	ForwarderID string
}

type LpsMessageRepository interface {
	Create(ctx context.Context, m *models.LpsMessage) error
	GetByID(ctx context.Context, id string) (*models.LpsMessage, error)
	// Link ties a message to a transaction (many-to-many audit trail).
	Link(ctx context.Context, transactionRequestID, messageID string) error
	// GetLatestLinked returns the most recent message of the given type
	// linked to the transaction.
	GetLatestLinked(ctx context.Context, transactionRequestID string, typ models.LpsMessageType) (*models.LpsMessage, error)
	// FindReversalMatch returns the most recently created message for the
	// lps whose persisted content matches the criteria, or ErrNotFound.
	FindReversalMatch(ctx context.Context, lpsID string, c ReversalMatchCriteria) (*models.LpsMessage, error)
}

type QuoteRepository interface {
	Create(ctx context.Context, q *models.Quote) error
	GetByID(ctx context.Context, id string) (*models.Quote, error)
	GetByTransactionRequestID(ctx context.Context, transactionRequestID string) (*models.Quote, error)
	// GetByCondition correlates an inbound transfer prepare, which carries
	// only the ILP condition, back to its quote.
	GetByCondition(ctx context.Context, condition string) (*models.Quote, error)
	// UpdateSchemeValues writes the scheme-confirmed pricing once.
	UpdateSchemeValues(ctx context.Context, q *models.Quote) error
	// Expire forces the quote's expiration to now.
	Expire(ctx context.Context, id string) error
}

type TransferRepository interface {
	Create(ctx context.Context, t *models.Transfer) error
	GetByID(ctx context.Context, id string) (*models.Transfer, error)
	GetByTransactionRequestID(ctx context.Context, transactionRequestID string) (*models.Transfer, error)
	UpdateState(ctx context.Context, id string, state models.TransferState) error
}
