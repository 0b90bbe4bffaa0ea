package iso

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finbridge/lps-adaptor/internal/config"
	"github.com/finbridge/lps-adaptor/internal/interfaces"
	"github.com/finbridge/lps-adaptor/internal/models"
)

type stubMessages struct {
	match    *models.LpsMessage
	criteria interfaces.ReversalMatchCriteria
}

func (s *stubMessages) Create(ctx context.Context, m *models.LpsMessage) error { return nil }
func (s *stubMessages) GetByID(ctx context.Context, id string) (*models.LpsMessage, error) {
	return nil, models.ErrNotFound
}
func (s *stubMessages) Link(ctx context.Context, transactionRequestID, messageID string) error {
	return nil
}
func (s *stubMessages) GetLatestLinked(ctx context.Context, transactionRequestID string, typ models.LpsMessageType) (*models.LpsMessage, error) {
	return nil, models.ErrNotFound
}
func (s *stubMessages) FindReversalMatch(ctx context.Context, lpsID string, c interfaces.ReversalMatchCriteria) (*models.LpsMessage, error) {
	s.criteria = c
	if s.match == nil {
		return nil, models.ErrNotFound
	}
	return s.match, nil
}

func relayConfig(dialect string) config.RelayConfig {
	return config.RelayConfig{
		LpsID:                   "lps1",
		Dialect:                 dialect,
		TransactionExpiryWindow: 30 * time.Second,
		ResponseCodes:           config.DefaultResponseCodes(),
	}
}

func authFields() map[int]string {
	return map[int]string{
		FieldMTI:            "0100",
		FieldProcessingCode: "010101",
		FieldAmount:         "40000",
		FieldStan:           "123456",
		FieldFee:            "D00000400",
		FieldTerminalID:     "TERM0001",
		FieldCardAcceptorID: "ACCEPT001",
		FieldPayerAccount:   "254700000001",
	}
}

func TestFromAuthorizationRequestAmounts(t *testing.T) {
	m := NewMapperA(relayConfig("A"), &stubMessages{})

	req, err := m.FromAuthorizationRequest("msg-1", authFields())
	if err != nil {
		t.Fatalf("FromAuthorizationRequest() error: %v", err)
	}
	if req.Amount.Amount != "400" || req.Amount.Currency != "USD" {
		t.Errorf("amount = %+v, want 400 USD", req.Amount)
	}
	if req.LpsFee.Amount != "4" || req.LpsFee.Currency != "USD" {
		t.Errorf("lpsFee = %+v, want 4 USD", req.LpsFee)
	}
	if req.LpsAuthorizationRequestMessageID != "msg-1" {
		t.Errorf("message id = %q", req.LpsAuthorizationRequestMessageID)
	}
}

func TestCalculateFeeDefaultsToZero(t *testing.T) {
	m := NewMapperA(relayConfig("A"), &stubMessages{})
	fields := authFields()
	delete(fields, FieldFee)

	fee, err := m.CalculateFee(fields)
	if err != nil {
		t.Fatalf("CalculateFee() error: %v", err)
	}
	if fee.Amount != "0" {
		t.Errorf("fee = %q, want 0", fee.Amount)
	}
}

func TestTransactionTypeTable(t *testing.T) {
	m := NewMapperA(relayConfig("A"), &stubMessages{})

	cases := []struct {
		code     string
		initType models.InitiatorType
		wantErr  bool
	}{
		{"010101", models.InitiatorTypeAgent, false},
		{"010102", models.InitiatorTypeDevice, false},
		{"010199", "", true},
		{"0", "", true},
	}
	for _, tc := range cases {
		tt, err := m.TransactionType(map[int]string{FieldProcessingCode: tc.code})
		if tc.wantErr {
			if err == nil {
				t.Errorf("TransactionType(%q) expected error", tc.code)
			}
			continue
		}
		if err != nil {
			t.Errorf("TransactionType(%q) error: %v", tc.code, err)
			continue
		}
		if tt.InitiatorType != tc.initType || tt.Scenario != models.ScenarioWithdrawal {
			t.Errorf("TransactionType(%q) = %+v", tc.code, tt)
		}
	}
}

func TestMessageTypeTables(t *testing.T) {
	a := NewMapperA(relayConfig("A"), &stubMessages{})
	b := NewMapperB(relayConfig("B"), &stubMessages{})

	for mti, want := range map[string]models.LpsMessageType{
		"0100": models.MessageTypeAuthorizationRequest,
		"0200": models.MessageTypeFinancialRequest,
		"0420": models.MessageTypeReversalRequest,
	} {
		got, err := a.MessageType(mti)
		if err != nil || got != want {
			t.Errorf("A.MessageType(%s) = %v, %v", mti, got, err)
		}
	}
	for mti, want := range map[string]models.LpsMessageType{
		"1100": models.MessageTypeAuthorizationRequest,
		"1200": models.MessageTypeFinancialRequest,
		"1420": models.MessageTypeReversalRequest,
	} {
		got, err := b.MessageType(mti)
		if err != nil || got != want {
			t.Errorf("B.MessageType(%s) = %v, %v", mti, got, err)
		}
	}
	if _, err := a.MessageType("0800"); err == nil {
		t.Error("unknown MTI should error")
	}
}

func TestLpsKeyPerDialect(t *testing.T) {
	fields := authFields()
	a := NewMapperA(relayConfig("A"), &stubMessages{})
	if got := a.LpsKey(fields); got != "lps1TERM0001ACCEPT001" {
		t.Errorf("dialect A key = %q", got)
	}
	b := NewMapperB(relayConfig("B"), &stubMessages{})
	if got := b.LpsKey(fields); got != "lps1" {
		t.Errorf("dialect B key = %q", got)
	}
}

// The response must be the original request's persisted content with only the
// indicator, response code, fee and amount slots overwritten.
func TestAuthorizationResponseRoundTrip(t *testing.T) {
	m := NewMapperA(relayConfig("A"), &stubMessages{})
	original := &models.LpsMessage{ID: "msg-1", Content: authFields()}

	fee := models.Money{Amount: "4", Currency: "USD"}
	amount := models.Money{Amount: "404", Currency: "USD"}
	out, err := m.ToAuthorizationResponse(original, &models.LegacyAuthorizationResponse{
		Response:       models.ResponseApproved,
		Fees:           &fee,
		TransferAmount: &amount,
	})
	if err != nil {
		t.Fatalf("ToAuthorizationResponse() error: %v", err)
	}

	if out[FieldMTI] != "0110" {
		t.Errorf("mti = %q, want 0110", out[FieldMTI])
	}
	if out[FieldResponseCode] != "00" {
		t.Errorf("response code = %q, want 00", out[FieldResponseCode])
	}
	if out[FieldFee] != "D00000400" {
		t.Errorf("fee = %q, want D00000400", out[FieldFee])
	}
	if out[FieldAmount] != "000000040400" {
		t.Errorf("amount = %q, want 000000040400", out[FieldAmount])
	}

	changed := map[int]bool{FieldMTI: true, FieldResponseCode: true, FieldFee: true, FieldAmount: true}
	for k, v := range original.Content {
		if changed[k] {
			continue
		}
		if out[k] != v {
			t.Errorf("field %d changed: %q -> %q", k, v, out[k])
		}
	}
}

func TestFinancialResponseUsesConfiguredCodes(t *testing.T) {
	cfg := relayConfig("A")
	cfg.ResponseCodes.InvalidTransaction = "N9"
	m := NewMapperA(cfg, &stubMessages{})
	original := &models.LpsMessage{Content: map[int]string{FieldMTI: "0200", FieldStan: "000001"}}

	out, err := m.ToFinancialResponse(original, &models.LegacyFinancialResponse{Response: models.ResponseInvalid})
	if err != nil {
		t.Fatalf("ToFinancialResponse() error: %v", err)
	}
	if out[FieldMTI] != "0210" || out[FieldResponseCode] != "N9" {
		t.Errorf("got mti=%q code=%q", out[FieldMTI], out[FieldResponseCode])
	}
}

func TestResponseCodeUnmappedType(t *testing.T) {
	m := NewMapperA(relayConfig("A"), &stubMessages{})
	original := &models.LpsMessage{Content: map[int]string{FieldMTI: "0200"}}
	if _, err := m.ToFinancialResponse(original, &models.LegacyFinancialResponse{Response: "bogus"}); err == nil {
		t.Error("unmapped response type should error")
	}
}

func TestParseOriginalData(t *testing.T) {
	// 0200 + 123456 + 0701104523 + acquirer 00000012345 + forwarder 00000000000
	raw := "020012345607011045230000001234500000000000"
	o, err := parseOriginalData(raw, true)
	if err != nil {
		t.Fatalf("parseOriginalData() error: %v", err)
	}
	if o.mti != "0200" || o.stan != "123456" || o.dateTime != "0701104523" {
		t.Errorf("parsed %+v", o)
	}
	if o.acquirerID != "12345" {
		t.Errorf("acquirer = %q, want leading zeros stripped", o.acquirerID)
	}
	if o.forwarderID != "" {
		t.Error("all-zero forwarder should be treated as absent")
	}
}

func TestParseOriginalDataWithoutForwarder(t *testing.T) {
	raw := "0200123456070110452300000012345"
	o, err := parseOriginalData(raw, false)
	if err != nil {
		t.Fatalf("parseOriginalData() error: %v", err)
	}
	if o.forwarderID != "" {
		t.Errorf("forwarder = %q, want empty", o.forwarderID)
	}
	if _, err := parseOriginalData("0200", true); err == nil {
		t.Error("short subfield should error")
	}
}

func TestFromReversalAdviceMatch(t *testing.T) {
	msgs := &stubMessages{match: &models.LpsMessage{ID: "fin-msg-9"}}
	m := NewMapperA(relayConfig("A"), msgs)

	fields := map[int]string{
		FieldMTI:            "0420",
		FieldTerminalID:     "TERM0001",
		FieldCardAcceptorID: "ACCEPT001",
		FieldOriginalData:   "020012345607011045230000001234500000000000",
	}
	req, err := m.FromReversalAdvice(context.Background(), "rev-msg-1", fields)
	if err != nil {
		t.Fatalf("FromReversalAdvice() error: %v", err)
	}
	if req.LpsFinancialRequestMessageID != "fin-msg-9" {
		t.Errorf("matched message = %q", req.LpsFinancialRequestMessageID)
	}
	if req.LpsReversalRequestMessageID != "rev-msg-1" {
		t.Errorf("reversal message = %q", req.LpsReversalRequestMessageID)
	}
	if msgs.criteria.MTI != "0200" || msgs.criteria.Stan != "123456" || msgs.criteria.Date != "0701104523" {
		t.Errorf("criteria = %+v", msgs.criteria)
	}
	if msgs.criteria.AcquirerID != "12345" || msgs.criteria.ForwarderID != "" {
		t.Errorf("institution ids = %+v", msgs.criteria)
	}
}

func TestFromReversalAdviceNoMatch(t *testing.T) {
	m := NewMapperA(relayConfig("A"), &stubMessages{})
	fields := map[int]string{
		FieldMTI:          "0420",
		FieldOriginalData: "020012345607011045230000001234500000000000",
	}
	_, err := m.FromReversalAdvice(context.Background(), "rev-msg-1", fields)
	if !errors.Is(err, models.ErrNoReversalMatch) {
		t.Errorf("err = %v, want ErrNoReversalMatch", err)
	}
}

func TestNewMapperUnknownDialect(t *testing.T) {
	if _, err := NewMapper(relayConfig("C"), &stubMessages{}); err == nil {
		t.Error("unknown dialect should error")
	}
}
