package models

import "time"

type TransactionState string

const (
	StateTransactionReceived      TransactionState = "transactionReceived"
	StateTransactionSent          TransactionState = "transactionSent"
	StateTransactionResponded     TransactionState = "transactionResponded"
	StateQuoteReceived            TransactionState = "quoteReceived"
	StateQuoteResponded           TransactionState = "quoteResponded"
	StateAuthReceived             TransactionState = "authReceived"
	StateAuthSent                 TransactionState = "authSent"
	StateFinancialRequestReceived TransactionState = "financialRequestReceived"
	StateFinancialRequestSent     TransactionState = "financialRequestSent"
	StateTransferReceived         TransactionState = "transferReceived"
	StateFulfillmentSent          TransactionState = "fulfillmentSent"
	StateFulfillmentResponse      TransactionState = "fulfillmentResponse"
	StateFinancialResponse        TransactionState = "financialResponse"
	StateTransactionDeclined      TransactionState = "transactionDeclined"
	StateTransactionCancelled     TransactionState = "transactionCancelled"
)

// TerminalStates are the states a transaction can never leave.
var TerminalStates = []TransactionState{
	StateFinancialResponse,
	StateTransactionDeclined,
	StateTransactionCancelled,
}

func (s TransactionState) IsTerminal() bool {
	for _, t := range TerminalStates {
		if s == t {
			return true
		}
	}
	return false
}

type TransactionScenario string

const (
	ScenarioWithdrawal TransactionScenario = "WITHDRAWAL"
	ScenarioRefund     TransactionScenario = "REFUND"
	ScenarioTransfer   TransactionScenario = "TRANSFER"
)

type InitiatorType string

const (
	InitiatorTypeAgent  InitiatorType = "AGENT"
	InitiatorTypeDevice InitiatorType = "DEVICE"
)

// TransactionType pairs the initiator with the scenario, as derived from the
// legacy processing code.
type TransactionType struct {
	Initiator     string              `json:"initiator"`
	InitiatorType InitiatorType       `json:"initiatorType"`
	Scenario      TransactionScenario `json:"scenario"`
}

// Transaction is one legacy- or scheme-initiated money movement attempt.
// TransactionRequestID is generated by the adaptor; TransactionID is assigned
// by the scheme later and stays empty until then.
type Transaction struct {
	TransactionRequestID  string
	TransactionID         string
	LpsID                 string
	LpsKey                string
	Amount                string
	Currency              string
	Scenario              TransactionScenario
	Initiator             string
	InitiatorType         InitiatorType
	AuthenticationType    string
	Expiration            time.Time
	State                 TransactionState
	PreviousState         TransactionState
	OriginalTransactionID string
	RefundReason          string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// IsValid reports whether the transaction can still make progress: it has not
// been declined or cancelled and has not passed its expiration.
func (t *Transaction) IsValid(now time.Time) bool {
	if t.State == StateTransactionDeclined || t.State == StateTransactionCancelled {
		return false
	}
	return now.Before(t.Expiration)
}

func (t *Transaction) IsRefund() bool {
	return t.OriginalTransactionID != ""
}

type PartyType string

const (
	PartyTypePayer PartyType = "payer"
	PartyTypePayee PartyType = "payee"
)

// TransactionParty identifies one side of a transaction. FspID is empty until
// party resolution completes.
type TransactionParty struct {
	TransactionRequestID string
	Type                 PartyType
	IDType               string
	IDValue              string
	SubIDOrType          string
	FspID                string
}

type FeeType string

const (
	FeeTypeLps     FeeType = "lps"
	FeeTypeAdaptor FeeType = "adaptor"
)

// TransactionFee is append-only; fees are summed at quote time.
type TransactionFee struct {
	TransactionRequestID string
	Type                 FeeType
	Amount               string
	Currency             string
}
