package models

import "time"

// ResponseType is the small enum a workflow handler resolves into a legacy
// wire response code through the relay's configured table.
type ResponseType string

const (
	ResponseApproved    ResponseType = "approved"
	ResponseInvalid     ResponseType = "invalid"
	ResponseNoAction    ResponseType = "noAction"
	ResponseDoNotHonour ResponseType = "doNotHonour"
	ResponseNoIssuer    ResponseType = "noIssuer"
)

// PartyIdentifier names one side of a legacy transaction in scheme terms.
type PartyIdentifier struct {
	PartyIDType    string `json:"partyIdType"`
	PartyIDValue   string `json:"partyIdValue"`
	PartySubIDType string `json:"partySubIdOrType,omitempty"`
	FspID          string `json:"fspId,omitempty"`
}

// LegacyAuthorizationRequest rides the LegacyAuthorizationRequests queue from
// the relay to the workflow.
type LegacyAuthorizationRequest struct {
	LpsID                            string          `json:"lpsId"`
	LpsKey                           string          `json:"lpsKey"`
	LpsAuthorizationRequestMessageID string          `json:"lpsAuthorizationRequestMessageId"`
	Amount                           Money           `json:"amount"`
	LpsFee                           Money           `json:"lpsFee"`
	Payer                            PartyIdentifier `json:"payer"`
	Payee                            PartyIdentifier `json:"payee"`
	TransactionType                  TransactionType `json:"transactionType"`
	Expiration                       time.Time       `json:"expiration"`
}

// LegacyFinancialRequest rides the LegacyFinancialRequests queue. The OTP
// collected at the terminal travels in AuthenticationValue.
type LegacyFinancialRequest struct {
	LpsID                        string `json:"lpsId"`
	LpsKey                       string `json:"lpsKey"`
	LpsFinancialRequestMessageID string `json:"lpsFinancialRequestMessageId"`
	AuthenticationType           string `json:"authenticationType"`
	AuthenticationValue          string `json:"authenticationValue"`
}

// LegacyReversalRequest rides the LegacyReversalRequests queue. It references
// both the matched financial-request audit record and the reversal advice's
// own record.
type LegacyReversalRequest struct {
	LpsID                        string `json:"lpsId"`
	LpsKey                       string `json:"lpsKey"`
	LpsFinancialRequestMessageID string `json:"lpsFinancialRequestMessageId"`
	LpsReversalRequestMessageID  string `json:"lpsReversalRequestMessageId"`
}

// LegacyAuthorizationResponse rides the <lpsId>AuthorizationResponses queue
// back to the relay. Fees and TransferAmount are set only on approval.
type LegacyAuthorizationResponse struct {
	LpsID                            string       `json:"lpsId"`
	LpsAuthorizationRequestMessageID string       `json:"lpsAuthorizationRequestMessageId"`
	Response                         ResponseType `json:"response"`
	Fees                             *Money       `json:"fees,omitempty"`
	TransferAmount                   *Money       `json:"transferAmount,omitempty"`
}

type LegacyFinancialResponse struct {
	LpsID                        string       `json:"lpsId"`
	LpsFinancialRequestMessageID string       `json:"lpsFinancialRequestMessageId"`
	Response                     ResponseType `json:"response"`
}

type LegacyReversalResponse struct {
	LpsID                       string       `json:"lpsId"`
	LpsReversalRequestMessageID string       `json:"lpsReversalRequestMessageId"`
	Response                    ResponseType `json:"response"`
}

// Queue names. Request queues are shared; response queues are per legacy
// source and derived from the lps id.
const (
	QueueLegacyAuthorizationRequests = "LegacyAuthorizationRequests"
	QueueLegacyFinancialRequests     = "LegacyFinancialRequests"
	QueueLegacyReversalRequests      = "LegacyReversalRequests"
)

func AuthorizationResponsesQueue(lpsID string) string { return lpsID + "AuthorizationResponses" }
func FinancialResponsesQueue(lpsID string) string     { return lpsID + "FinancialResponses" }
func ReversalResponsesQueue(lpsID string) string      { return lpsID + "ReversalResponses" }
