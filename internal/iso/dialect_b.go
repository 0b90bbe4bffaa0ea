package iso

import (
	"context"

	"github.com/finbridge/lps-adaptor/internal/config"
	"github.com/finbridge/lps-adaptor/internal/interfaces"
	"github.com/finbridge/lps-adaptor/internal/models"
)

// MapperB speaks the 1xxx MTI family. Its wire format carries no per-terminal
// identifier, so the lps id alone keys the session, and its original data
// elements stop after the acquiring institution id.
type MapperB struct {
	base
}

func NewMapperB(cfg config.RelayConfig, messages interfaces.LpsMessageRepository) *MapperB {
	return &MapperB{base: base{
		lpsID:        cfg.LpsID,
		expiryWindow: cfg.TransactionExpiryWindow,
		codes:        cfg.ResponseCodes,
		messages:     messages,
		requestTypes: map[string]models.LpsMessageType{
			"1100": models.MessageTypeAuthorizationRequest,
			"1200": models.MessageTypeFinancialRequest,
			"1420": models.MessageTypeReversalRequest,
		},
		responseMTIs: map[models.LpsMessageType]string{
			models.MessageTypeAuthorizationRequest: "1110",
			models.MessageTypeFinancialRequest:     "1210",
			models.MessageTypeReversalRequest:      "1430",
		},
		odeHasForwarder:  false,
		currencyTable:    map[string]string{},
		fallbackCurrency: "USD",
	}}
}

func (m *MapperB) LpsKey(fields map[int]string) string {
	return m.lpsID
}

func (m *MapperB) FromAuthorizationRequest(messageID string, fields map[int]string) (*models.LegacyAuthorizationRequest, error) {
	return m.fromAuthorizationRequest(messageID, m.LpsKey(fields), fields)
}

func (m *MapperB) FromFinancialRequest(messageID string, fields map[int]string) (*models.LegacyFinancialRequest, error) {
	return m.fromFinancialRequest(messageID, m.LpsKey(fields), fields)
}

func (m *MapperB) FromReversalAdvice(ctx context.Context, messageID string, fields map[int]string) (*models.LegacyReversalRequest, error) {
	return m.fromReversalAdvice(ctx, messageID, m.LpsKey(fields), fields)
}
