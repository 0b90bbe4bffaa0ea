package iso

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finbridge/lps-adaptor/internal/config"
	"github.com/finbridge/lps-adaptor/internal/interfaces"
	"github.com/finbridge/lps-adaptor/internal/models"
)

// Mapper is the per-dialect strategy between legacy field maps and the domain
// message types. One instance serves one relay; the relay never inspects raw
// fields itself.
type Mapper interface {
	LpsKey(fields map[int]string) string
	MessageType(mti string) (models.LpsMessageType, error)
	CalculateFee(fields map[int]string) (models.Money, error)
	TransactionType(fields map[int]string) (models.TransactionType, error)

	FromAuthorizationRequest(messageID string, fields map[int]string) (*models.LegacyAuthorizationRequest, error)
	ToAuthorizationResponse(original *models.LpsMessage, resp *models.LegacyAuthorizationResponse) (map[int]string, error)
	FromFinancialRequest(messageID string, fields map[int]string) (*models.LegacyFinancialRequest, error)
	ToFinancialResponse(original *models.LpsMessage, resp *models.LegacyFinancialResponse) (map[int]string, error)
	FromReversalAdvice(ctx context.Context, messageID string, fields map[int]string) (*models.LegacyReversalRequest, error)
	ToReversalAdviceResponse(original *models.LpsMessage, resp *models.LegacyReversalResponse) (map[int]string, error)
}

// NewMapper builds the dialect variant named by the relay config.
func NewMapper(cfg config.RelayConfig, messages interfaces.LpsMessageRepository) (Mapper, error) {
	switch cfg.Dialect {
	case "A":
		return NewMapperA(cfg, messages), nil
	case "B":
		return NewMapperB(cfg, messages), nil
	default:
		return nil, fmt.Errorf("unknown dialect %q", cfg.Dialect)
	}
}

// base holds the mapping logic both dialects share. The variant fills in the
// MTI tables and the key/original-data layout differences.
type base struct {
	lpsID        string
	expiryWindow time.Duration
	codes        config.ResponseCodes
	messages     interfaces.LpsMessageRepository

	requestTypes    map[string]models.LpsMessageType
	responseMTIs    map[models.LpsMessageType]string
	odeHasForwarder bool

	// currencyTable maps legacy numeric currency codes to ISO alpha codes.
	// Unmapped codes resolve to the fallback currency; see CalculateFee.
	currencyTable    map[string]string
	fallbackCurrency string
}

func (b *base) MessageType(mti string) (models.LpsMessageType, error) {
	t, ok := b.requestTypes[mti]
	if !ok {
		return "", fmt.Errorf("unsupported mti %q", mti)
	}
	return t, nil
}

func (b *base) currency(fields map[int]string) string {
	if code, ok := fields[FieldCurrencyCode]; ok {
		if alpha, ok := b.currencyTable[code]; ok {
			return alpha
		}
	}
	return b.fallbackCurrency
}

func (b *base) CalculateFee(fields map[int]string) (models.Money, error) {
	amount, err := parseFee(fields[FieldFee])
	if err != nil {
		return models.Money{}, err
	}
	return models.Money{Amount: amount, Currency: b.currency(fields)}, nil
}

func (b *base) TransactionType(fields map[int]string) (models.TransactionType, error) {
	code := fields[FieldProcessingCode]
	if len(code) < 2 {
		return models.TransactionType{}, fmt.Errorf("processing code not valid: %q", code)
	}
	switch code[len(code)-2:] {
	case "01":
		return models.TransactionType{
			Initiator:     "PAYEE",
			InitiatorType: models.InitiatorTypeAgent,
			Scenario:      models.ScenarioWithdrawal,
		}, nil
	case "02":
		return models.TransactionType{
			Initiator:     "PAYEE",
			InitiatorType: models.InitiatorTypeDevice,
			Scenario:      models.ScenarioWithdrawal,
		}, nil
	default:
		return models.TransactionType{}, fmt.Errorf("processing code not valid: %q", code)
	}
}

func (b *base) responseCode(t models.ResponseType) (string, error) {
	switch t {
	case models.ResponseApproved:
		return b.codes.Approved, nil
	case models.ResponseInvalid:
		return b.codes.InvalidTransaction, nil
	case models.ResponseNoAction:
		return b.codes.NoAction, nil
	case models.ResponseDoNotHonour:
		return b.codes.DoNotHonour, nil
	case models.ResponseNoIssuer:
		return b.codes.NoIssuer, nil
	default:
		return "", fmt.Errorf("no wire code configured for response type %q", t)
	}
}

// respond clones the original request's persisted content and overwrites only
// the indicator and response code, so every untouched legacy field round-trips
// unchanged.
func (b *base) respond(original *models.LpsMessage, resp models.ResponseType) (map[int]string, error) {
	requestType, err := b.MessageType(original.Content[FieldMTI])
	if err != nil {
		return nil, err
	}
	mti, ok := b.responseMTIs[requestType]
	if !ok {
		return nil, fmt.Errorf("no response mti for message type %q", requestType)
	}
	code, err := b.responseCode(resp)
	if err != nil {
		return nil, err
	}

	out := original.CloneContent()
	out[FieldMTI] = mti
	out[FieldResponseCode] = code
	return out, nil
}

func (b *base) fromAuthorizationRequest(messageID, lpsKey string, fields map[int]string) (*models.LegacyAuthorizationRequest, error) {
	txType, err := b.TransactionType(fields)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(fields[FieldAmount])
	if err != nil {
		return nil, err
	}
	fee, err := b.CalculateFee(fields)
	if err != nil {
		return nil, err
	}

	return &models.LegacyAuthorizationRequest{
		LpsID:                            b.lpsID,
		LpsKey:                           lpsKey,
		LpsAuthorizationRequestMessageID: messageID,
		Amount:                           models.Money{Amount: amount, Currency: b.currency(fields)},
		LpsFee:                           fee,
		Payer: models.PartyIdentifier{
			PartyIDType:  "MSISDN",
			PartyIDValue: fields[FieldPayerAccount],
		},
		Payee: models.PartyIdentifier{
			PartyIDType:    "DEVICE",
			PartyIDValue:   fields[FieldTerminalID],
			PartySubIDType: fields[FieldCardAcceptorID],
		},
		TransactionType: txType,
		Expiration:      time.Now().Add(b.expiryWindow),
	}, nil
}

func (b *base) ToAuthorizationResponse(original *models.LpsMessage, resp *models.LegacyAuthorizationResponse) (map[int]string, error) {
	out, err := b.respond(original, resp.Response)
	if err != nil {
		return nil, err
	}
	if resp.Fees != nil {
		fee, err := formatFee(resp.Fees.Amount)
		if err != nil {
			return nil, err
		}
		out[FieldFee] = fee
	}
	if resp.TransferAmount != nil {
		amount, err := formatAmount(resp.TransferAmount.Amount)
		if err != nil {
			return nil, err
		}
		out[FieldAmount] = amount
	}
	return out, nil
}

func (b *base) fromFinancialRequest(messageID, lpsKey string, fields map[int]string) (*models.LegacyFinancialRequest, error) {
	return &models.LegacyFinancialRequest{
		LpsID:                        b.lpsID,
		LpsKey:                       lpsKey,
		LpsFinancialRequestMessageID: messageID,
		AuthenticationType:           "OTP",
		AuthenticationValue:          fields[FieldPayeeAccount],
	}, nil
}

func (b *base) ToFinancialResponse(original *models.LpsMessage, resp *models.LegacyFinancialResponse) (map[int]string, error) {
	return b.respond(original, resp.Response)
}

func (b *base) fromReversalAdvice(ctx context.Context, messageID, lpsKey string, fields map[int]string) (*models.LegacyReversalRequest, error) {
	ode, err := parseOriginalData(fields[FieldOriginalData], b.odeHasForwarder)
	if err != nil {
		return nil, err
	}

	match, err := b.messages.FindReversalMatch(ctx, b.lpsID, ode.criteria())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNoReversalMatch
		}
		return nil, err
	}

	return &models.LegacyReversalRequest{
		LpsID:                        b.lpsID,
		LpsKey:                       lpsKey,
		LpsFinancialRequestMessageID: match.ID,
		LpsReversalRequestMessageID:  messageID,
	}, nil
}

func (b *base) ToReversalAdviceResponse(original *models.LpsMessage, resp *models.LegacyReversalResponse) (map[int]string, error) {
	return b.respond(original, resp.Response)
}
