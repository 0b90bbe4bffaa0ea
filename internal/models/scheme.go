package models

import "time"

// Scheme error codes surfaced to the interoperability counterparty.
const (
	SchemeErrGeneric            = "2001"
	SchemeErrInvalidTransaction = "3300"
	SchemeErrTransactionInvalid = "3301"
	SchemeErrQuoteExpired       = "3302"
	SchemeErrQuoteNotFound      = "3305"
	SchemeErrQuoteIDNotFound    = "3205"
	SchemeErrTransferInvalid    = "5105"
)

type ErrorInformation struct {
	ErrorCode        string `json:"errorCode"`
	ErrorDescription string `json:"errorDescription"`
}

// PartiesResult is the body of the scheme's PUT /parties/{type}/{id} callback.
type PartiesResult struct {
	Party struct {
		PartyIDInfo PartyIdentifier `json:"partyIdInfo"`
		Name        string          `json:"name,omitempty"`
	} `json:"party"`
}

// TransactionRequestsPost opens a transaction request with the payer fsp.
type TransactionRequestsPost struct {
	TransactionRequestID string          `json:"transactionRequestId"`
	Payee                PartyIdentifier `json:"payee"`
	Payer                PartyIdentifier `json:"payer"`
	Amount               Money           `json:"amount"`
	TransactionType      TransactionType `json:"transactionType"`
	AuthenticationType   string          `json:"authenticationType,omitempty"`
	Expiration           time.Time       `json:"expiration"`
}

// TransactionRequestsPutResponse is the scheme's answer carrying the assigned
// transaction id.
type TransactionRequestsPutResponse struct {
	TransactionID           string `json:"transactionId"`
	TransactionRequestState string `json:"transactionRequestState"` // RECEIVED | PENDING | ACCEPTED | REJECTED
}

type QuotesPost struct {
	QuoteID              string          `json:"quoteId"`
	TransactionID        string          `json:"transactionId"`
	TransactionRequestID string          `json:"transactionRequestId"`
	Payee                PartyIdentifier `json:"payee"`
	Payer                PartyIdentifier `json:"payer"`
	AmountType           string          `json:"amountType"`
	Amount               Money           `json:"amount"`
	TransactionType      TransactionType `json:"transactionType"`
	Expiration           time.Time       `json:"expiration"`
}

type QuotesPutResponse struct {
	TransferAmount Money     `json:"transferAmount"`
	PayeeFspFee    *Money    `json:"payeeFspFee,omitempty"`
	Condition      string    `json:"condition"`
	IlpPacket      string    `json:"ilpPacket"`
	Expiration     time.Time `json:"expiration"`
}

type TransfersPost struct {
	TransferID string    `json:"transferId"`
	PayeeFsp   string    `json:"payeeFsp"`
	PayerFsp   string    `json:"payerFsp"`
	Amount     Money     `json:"amount"`
	IlpPacket  string    `json:"ilpPacket"`
	Condition  string    `json:"condition"`
	Expiration time.Time `json:"expiration"`
}

type TransfersPutResponse struct {
	Fulfilment    string    `json:"fulfilment,omitempty"`
	TransferState string    `json:"transferState"` // RECEIVED | RESERVED | COMMITTED | ABORTED
	CompletedAt   time.Time `json:"completedTimestamp,omitempty"`
}

// AuthorizationsPutResponse forwards the OTP collected on the legacy side.
type AuthorizationsPutResponse struct {
	AuthenticationInfo struct {
		Authentication      string `json:"authentication"`
		AuthenticationValue string `json:"authenticationValue"`
	} `json:"authenticationInfo"`
	ResponseType string `json:"responseType"` // ENTERED | REJECTED | RESEND
}
