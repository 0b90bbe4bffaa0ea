package models

import "time"

type LpsMessageType string

const (
	MessageTypeAuthorizationRequest  LpsMessageType = "authorizationRequest"
	MessageTypeAuthorizationResponse LpsMessageType = "authorizationResponse"
	MessageTypeFinancialRequest      LpsMessageType = "financialRequest"
	MessageTypeFinancialResponse     LpsMessageType = "financialResponse"
	MessageTypeReversalRequest       LpsMessageType = "reversalRequest"
	MessageTypeReversalResponse      LpsMessageType = "reversalResponse"
)

// LpsMessage is the immutable audit record of one inbound legacy message.
// Content holds the decoded field map keyed by ISO field number (0 = MTI).
// Responses to the legacy side are built by cloning a prior request's content,
// and reversal matching runs against these records, so they are never mutated
// or deleted.
type LpsMessage struct {
	ID        string
	LpsID     string
	LpsKey    string
	Type      LpsMessageType
	Content   map[int]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CloneContent returns a copy of the persisted field map safe to overwrite
// when building a response.
func (m *LpsMessage) CloneContent() map[int]string {
	out := make(map[int]string, len(m.Content))
	for k, v := range m.Content {
		out[k] = v
	}
	return out
}
