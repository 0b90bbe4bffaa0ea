package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finbridge/lps-adaptor/internal/models"
	"github.com/finbridge/lps-adaptor/internal/telemetry"
)

const reversalLockTTL = 30 * time.Second

// HandleLegacyAuthorization reacts to an authorization request decoded off
// the legacy socket. Any other in-flight transaction on the same legacy
// session is stale and gets cancelled before the new one is created.
func (w *Workflow) HandleLegacyAuthorization(ctx context.Context, req *models.LegacyAuthorizationRequest) error {
	if err := w.legacyAuthorization(ctx, req); err != nil {
		w.enqueueAuthorizationResponse(ctx, req.LpsAuthorizationRequestMessageID, models.ResponseInvalid, nil, nil)
		return w.fail("legacyAuthorization", err)
	}
	return nil
}

func (w *Workflow) legacyAuthorization(ctx context.Context, req *models.LegacyAuthorizationRequest) error {
	cancelled, err := w.transactions.CancelPendingByLpsKey(ctx, req.LpsKey, "")
	if err != nil {
		return fmt.Errorf("cancel stale transactions: %w", err)
	}
	if cancelled > 0 {
		telemetry.Logger.Info("Cancelled stale transactions for session",
			zap.String("lps_key", req.LpsKey), zap.Int64("count", cancelled))
	}

	t := &models.Transaction{
		TransactionRequestID: uuid.NewString(),
		LpsID:                req.LpsID,
		LpsKey:               req.LpsKey,
		Amount:               req.Amount.Amount,
		Currency:             req.Amount.Currency,
		Scenario:             req.TransactionType.Scenario,
		Initiator:            req.TransactionType.Initiator,
		InitiatorType:        req.TransactionType.InitiatorType,
		AuthenticationType:   "OTP",
		Expiration:           w.now().Add(w.cfg.Relay.TransactionExpiryWindow),
		State:                models.StateTransactionReceived,
	}
	if err := w.transactions.Create(ctx, t); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	payer := &models.TransactionParty{
		TransactionRequestID: t.TransactionRequestID,
		Type:                 models.PartyTypePayer,
		IDType:               req.Payer.PartyIDType,
		IDValue:              req.Payer.PartyIDValue,
		SubIDOrType:          req.Payer.PartySubIDType,
	}
	payee := &models.TransactionParty{
		TransactionRequestID: t.TransactionRequestID,
		Type:                 models.PartyTypePayee,
		IDType:               req.Payee.PartyIDType,
		IDValue:              req.Payee.PartyIDValue,
		SubIDOrType:          req.Payee.PartySubIDType,
	}
	if err := w.parties.Create(ctx, payer); err != nil {
		return fmt.Errorf("create payer: %w", err)
	}
	if err := w.parties.Create(ctx, payee); err != nil {
		return fmt.Errorf("create payee: %w", err)
	}

	if !req.LpsFee.IsZero() {
		fee := &models.TransactionFee{
			TransactionRequestID: t.TransactionRequestID,
			Type:                 models.FeeTypeLps,
			Amount:               req.LpsFee.Amount,
			Currency:             req.LpsFee.Currency,
		}
		if err := w.fees.Create(ctx, fee); err != nil {
			return fmt.Errorf("record lps fee: %w", err)
		}
	}

	if err := w.messages.Link(ctx, t.TransactionRequestID, req.LpsAuthorizationRequestMessageID); err != nil {
		return fmt.Errorf("link authorization message: %w", err)
	}

	if err := w.scheme.GetParties(ctx, req.Payer.PartyIDType, req.Payer.PartyIDValue); err != nil {
		return fmt.Errorf("request party resolution: %w", err)
	}
	return nil
}

// HandleLegacyFinancialRequest forwards the OTP collected at the terminal as
// the scheme authorization answer. Failures are logged only; the legacy side
// gets no response on this path.
func (w *Workflow) HandleLegacyFinancialRequest(ctx context.Context, req *models.LegacyFinancialRequest) error {
	t, err := w.transactions.GetLatestByLpsKeyAndState(ctx, req.LpsKey, models.StateAuthSent)
	if err != nil {
		return w.fail("legacyFinancialRequest", fmt.Errorf("find authorized transaction for %s: %w", req.LpsKey, err))
	}

	if err := w.messages.Link(ctx, t.TransactionRequestID, req.LpsFinancialRequestMessageID); err != nil {
		return w.fail("legacyFinancialRequest", err)
	}
	if err := w.transition(ctx, t.TransactionRequestID, models.StateFinancialRequestReceived); err != nil {
		return w.fail("legacyFinancialRequest", err)
	}

	payer, err := w.parties.Get(ctx, t.TransactionRequestID, models.PartyTypePayer)
	if err != nil {
		return w.fail("legacyFinancialRequest", err)
	}

	body := &models.AuthorizationsPutResponse{ResponseType: "ENTERED"}
	body.AuthenticationInfo.Authentication = req.AuthenticationType
	body.AuthenticationInfo.AuthenticationValue = req.AuthenticationValue
	if err := w.scheme.PutAuthorizations(ctx, payer.FspID, t.TransactionRequestID, body); err != nil {
		return w.fail("legacyFinancialRequest", err)
	}

	return w.transition(ctx, t.TransactionRequestID, models.StateFinancialRequestSent)
}

// HandleLegacyReversal undoes a matched prior request. The handler is
// replay-safe twice over: a short Redis lease keeps concurrent deliveries
// out, and a refund transaction already linked to this advice makes any later
// delivery a no-op.
func (w *Workflow) HandleLegacyReversal(ctx context.Context, req *models.LegacyReversalRequest) error {
	acquired, err := w.lock.Acquire(ctx, req.LpsReversalRequestMessageID, reversalLockTTL)
	if err != nil {
		return w.fail("legacyReversal", err)
	}
	if !acquired {
		telemetry.Logger.Info("Reversal already being processed",
			zap.String("message_id", req.LpsReversalRequestMessageID))
		return nil
	}

	if err := w.legacyReversal(ctx, req); err != nil {
		if releaseErr := w.lock.Release(ctx, req.LpsReversalRequestMessageID); releaseErr != nil {
			telemetry.Logger.Error("Failed to release reversal lease", zap.Error(releaseErr))
		}
		w.enqueueReversalResponse(ctx, req.LpsReversalRequestMessageID, models.ResponseInvalid)
		return w.fail("legacyReversal", err)
	}
	return nil
}

func (w *Workflow) legacyReversal(ctx context.Context, req *models.LegacyReversalRequest) error {
	// Idempotency: a refund already hanging off this advice means the work
	// was done on a previous delivery.
	if existing, err := w.transactions.GetByMessageID(ctx, req.LpsReversalRequestMessageID); err == nil {
		if existing.Scenario == models.ScenarioRefund {
			telemetry.Logger.Info("Reversal already handled",
				zap.String("message_id", req.LpsReversalRequestMessageID),
				zap.String("refund_transaction", existing.TransactionRequestID))
			return nil
		}
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	original, err := w.transactions.GetByMessageID(ctx, req.LpsFinancialRequestMessageID)
	if err != nil {
		return fmt.Errorf("find original transaction: %w", err)
	}

	if !original.State.IsTerminal() {
		if err := w.transition(ctx, original.TransactionRequestID, models.StateTransactionCancelled); err != nil {
			return err
		}
	}

	quote, err := w.quotes.GetByTransactionRequestID(ctx, original.TransactionRequestID)
	switch {
	case err == nil:
		if !quote.IsExpired(w.now()) {
			if err := w.quotes.Expire(ctx, quote.ID); err != nil {
				return fmt.Errorf("expire quote: %w", err)
			}
		}
	case !errors.Is(err, models.ErrNotFound):
		return err
	}

	transfer, err := w.transfers.GetByTransactionRequestID(ctx, original.TransactionRequestID)
	if errors.Is(err, models.ErrNotFound) || (err == nil && transfer.State != models.TransferStateCommitted) {
		// No money moved; cancelling the original is the whole job.
		telemetry.Logger.Info("Reversal needs no refund, transfer never committed",
			zap.String("transaction_request_id", original.TransactionRequestID))
		return nil
	}
	if err != nil {
		return err
	}

	return w.createRefund(ctx, req, original)
}

// createRefund mirrors the original transaction with payer and payee swapped
// and opens the refund quote with the counterparty.
func (w *Workflow) createRefund(ctx context.Context, req *models.LegacyReversalRequest, original *models.Transaction) error {
	refund := &models.Transaction{
		TransactionRequestID:  uuid.NewString(),
		LpsID:                 original.LpsID,
		LpsKey:                original.LpsKey,
		Amount:                original.Amount,
		Currency:              original.Currency,
		Scenario:              models.ScenarioRefund,
		Initiator:             original.Initiator,
		InitiatorType:         original.InitiatorType,
		AuthenticationType:    original.AuthenticationType,
		Expiration:            w.now().Add(w.cfg.Relay.TransactionExpiryWindow),
		State:                 models.StateTransactionReceived,
		OriginalTransactionID: original.TransactionID,
		RefundReason:          "reversal advice received",
	}
	if err := w.transactions.Create(ctx, refund); err != nil {
		return fmt.Errorf("create refund transaction: %w", err)
	}

	origPayer, err := w.parties.Get(ctx, original.TransactionRequestID, models.PartyTypePayer)
	if err != nil {
		return err
	}
	origPayee, err := w.parties.Get(ctx, original.TransactionRequestID, models.PartyTypePayee)
	if err != nil {
		return err
	}

	// Money flows back: the original payee pays, the original payer receives.
	refundPayer := *origPayee
	refundPayer.TransactionRequestID = refund.TransactionRequestID
	refundPayer.Type = models.PartyTypePayer
	refundPayee := *origPayer
	refundPayee.TransactionRequestID = refund.TransactionRequestID
	refundPayee.Type = models.PartyTypePayee
	if err := w.parties.Create(ctx, &refundPayer); err != nil {
		return err
	}
	if err := w.parties.Create(ctx, &refundPayee); err != nil {
		return err
	}

	if err := w.messages.Link(ctx, refund.TransactionRequestID, req.LpsReversalRequestMessageID); err != nil {
		return err
	}

	quote := &models.Quote{
		ID:                   uuid.NewString(),
		TransactionRequestID: refund.TransactionRequestID,
		TransactionID:        original.TransactionID,
		Amount:               refund.Amount,
		AmountCurrency:       refund.Currency,
		Expiration:           w.now().Add(w.cfg.Relay.TransactionExpiryWindow),
	}
	if err := w.quotes.Create(ctx, quote); err != nil {
		return fmt.Errorf("create refund quote: %w", err)
	}

	body := &models.QuotesPost{
		QuoteID:              quote.ID,
		TransactionID:        original.TransactionID,
		TransactionRequestID: refund.TransactionRequestID,
		Payer: models.PartyIdentifier{
			PartyIDType:    refundPayer.IDType,
			PartyIDValue:   refundPayer.IDValue,
			PartySubIDType: refundPayer.SubIDOrType,
			FspID:          refundPayer.FspID,
		},
		Payee: models.PartyIdentifier{
			PartyIDType:    refundPayee.IDType,
			PartyIDValue:   refundPayee.IDValue,
			PartySubIDType: refundPayee.SubIDOrType,
			FspID:          refundPayee.FspID,
		},
		AmountType: "SEND",
		Amount:     models.Money{Amount: refund.Amount, Currency: refund.Currency},
		TransactionType: models.TransactionType{
			Initiator:     refund.Initiator,
			InitiatorType: refund.InitiatorType,
			Scenario:      models.ScenarioRefund,
		},
		Expiration: quote.Expiration,
	}
	if err := w.scheme.PostQuotes(ctx, refundPayee.FspID, body); err != nil {
		return fmt.Errorf("post refund quote: %w", err)
	}
	return nil
}
