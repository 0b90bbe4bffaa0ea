package models

import "time"

// Quote is one pricing computation for a transaction. The ID is the scheme
// quote id. Scheme-confirmed values (condition, ilpPacket, transfer amount)
// are written once by the quote-response path.
type Quote struct {
	ID                     string
	TransactionRequestID   string
	TransactionID          string
	Amount                 string
	AmountCurrency         string
	FeeAmount              string
	FeeCurrency            string
	TransferAmount         string
	TransferAmountCurrency string
	Condition              string
	IlpPacket              string
	Expiration             time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (q *Quote) IsExpired(now time.Time) bool {
	return !q.Expiration.After(now)
}

type TransferState string

const (
	TransferStateReceived  TransferState = "received"
	TransferStateReserved  TransferState = "reserved"
	TransferStateCommitted TransferState = "committed"
	TransferStateAborted   TransferState = "aborted"
)

// Transfer is one settlement attempt. State advances monotonically
// received -> reserved -> committed, or to aborted.
type Transfer struct {
	ID                   string
	QuoteID              string
	TransactionRequestID string
	Fulfilment           string
	State                TransferState
	Amount               string
	Currency             string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
