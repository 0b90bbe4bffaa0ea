package iso

import (
	"context"

	"github.com/finbridge/lps-adaptor/internal/config"
	"github.com/finbridge/lps-adaptor/internal/interfaces"
	"github.com/finbridge/lps-adaptor/internal/models"
)

// MapperA speaks the 0xxx MTI family. Its wire format identifies the terminal
// per message, so the lps key folds in the terminal and card-acceptor ids,
// and its original data elements carry both institution ids.
type MapperA struct {
	base
}

func NewMapperA(cfg config.RelayConfig, messages interfaces.LpsMessageRepository) *MapperA {
	return &MapperA{base: base{
		lpsID:        cfg.LpsID,
		expiryWindow: cfg.TransactionExpiryWindow,
		codes:        cfg.ResponseCodes,
		messages:     messages,
		requestTypes: map[string]models.LpsMessageType{
			"0100": models.MessageTypeAuthorizationRequest,
			"0200": models.MessageTypeFinancialRequest,
			"0420": models.MessageTypeReversalRequest,
		},
		responseMTIs: map[models.LpsMessageType]string{
			models.MessageTypeAuthorizationRequest: "0110",
			models.MessageTypeFinancialRequest:     "0210",
			models.MessageTypeReversalRequest:      "0430",
		},
		odeHasForwarder:  true,
		currencyTable:    map[string]string{},
		fallbackCurrency: "USD",
	}}
}

func (m *MapperA) LpsKey(fields map[int]string) string {
	return m.lpsID + fields[FieldTerminalID] + fields[FieldCardAcceptorID]
}

func (m *MapperA) FromAuthorizationRequest(messageID string, fields map[int]string) (*models.LegacyAuthorizationRequest, error) {
	return m.fromAuthorizationRequest(messageID, m.LpsKey(fields), fields)
}

func (m *MapperA) FromFinancialRequest(messageID string, fields map[int]string) (*models.LegacyFinancialRequest, error) {
	return m.fromFinancialRequest(messageID, m.LpsKey(fields), fields)
}

func (m *MapperA) FromReversalAdvice(ctx context.Context, messageID string, fields map[int]string) (*models.LegacyReversalRequest, error) {
	return m.fromReversalAdvice(ctx, messageID, m.LpsKey(fields), fields)
}
