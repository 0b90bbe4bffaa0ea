package interfaces

import (
	"context"
	"time"

	"github.com/finbridge/lps-adaptor/internal/models"
)

// Publisher pushes a job onto a named queue. Delivery is at-least-once;
// consumers must tolerate replays.
type Publisher interface {
	Publish(ctx context.Context, queue string, payload any) error
	Close() error
}

// Consumer runs fn for every job on the named queue until ctx is cancelled.
// A failing fn is logged by the implementation and never stops the loop.
type Consumer interface {
	Consume(ctx context.Context, queue string, fn func(ctx context.Context, payload []byte) error)
}

// Codec is the external legacy bitmap codec: byte buffer to field map and
// back. Field 0 carries the MTI.
type Codec interface {
	Encode(fields map[int]string) ([]byte, error)
	Decode(data []byte) (map[int]string, error)
}

// Lock is a coarse processing lease used for replay protection.
type Lock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// SchemeClient issues the named outbound interoperability calls. Every call
// carries fspiop-source/destination, date and content-type headers.
type SchemeClient interface {
	GetParties(ctx context.Context, idType, idValue string) error
	PostTransactionRequests(ctx context.Context, destination string, body *models.TransactionRequestsPost) error
	PutTransactionRequestsError(ctx context.Context, destination, transactionRequestID string, e *models.ErrorInformation) error
	PostQuotes(ctx context.Context, destination string, body *models.QuotesPost) error
	PutQuotes(ctx context.Context, destination, quoteID string, body *models.QuotesPutResponse) error
	PutQuotesError(ctx context.Context, destination, quoteID string, e *models.ErrorInformation) error
	PostTransfers(ctx context.Context, destination string, body *models.TransfersPost) error
	PutTransfers(ctx context.Context, destination, transferID string, body *models.TransfersPutResponse) error
	PutTransfersError(ctx context.Context, destination, transferID string, e *models.ErrorInformation) error
	PutAuthorizations(ctx context.Context, destination, transactionRequestID string, body *models.AuthorizationsPutResponse) error
	PutAuthorizationsError(ctx context.Context, destination, transactionRequestID string, e *models.ErrorInformation) error
}

// IlpService is the external ILP capability: packet/condition generation for
// quote responses and fulfilment derivation for transfers.
type IlpService interface {
	QuoteResponse(ctx context.Context, transactionID string, amount models.Money) (packet, condition string, err error)
	CalculateFulfil(packet string) (string, error)
}
