package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finbridge/lps-adaptor/internal/models"
	"github.com/finbridge/lps-adaptor/internal/telemetry"
)

// HandlePartiesResponse reacts to the scheme's party-resolution callback:
// record the payer's fsp and open the transaction request with it.
func (w *Workflow) HandlePartiesResponse(ctx context.Context, idValue string, result *models.PartiesResult) error {
	t, err := w.transactions.GetLatestByPayerIdentifier(ctx, idValue, models.StateTransactionReceived)
	if err != nil {
		return w.fail("partiesResponse", fmt.Errorf("no pending transaction for party %s: %w", idValue, err))
	}

	fspID := result.Party.PartyIDInfo.FspID
	if fspID == "" {
		return w.fail("partiesResponse", fmt.Errorf("party %s resolved without an fsp", idValue))
	}
	if err := w.parties.UpdateFspID(ctx, t.TransactionRequestID, models.PartyTypePayer, fspID); err != nil {
		return w.fail("partiesResponse", err)
	}

	payee, err := w.parties.Get(ctx, t.TransactionRequestID, models.PartyTypePayee)
	if err != nil {
		return w.fail("partiesResponse", err)
	}

	body := &models.TransactionRequestsPost{
		TransactionRequestID: t.TransactionRequestID,
		Payer: models.PartyIdentifier{
			PartyIDType:  result.Party.PartyIDInfo.PartyIDType,
			PartyIDValue: idValue,
			FspID:        fspID,
		},
		Payee: models.PartyIdentifier{
			PartyIDType:    payee.IDType,
			PartyIDValue:   payee.IDValue,
			PartySubIDType: payee.SubIDOrType,
		},
		Amount: models.Money{Amount: t.Amount, Currency: t.Currency},
		TransactionType: models.TransactionType{
			Initiator:     t.Initiator,
			InitiatorType: t.InitiatorType,
			Scenario:      t.Scenario,
		},
		AuthenticationType: t.AuthenticationType,
		Expiration:         t.Expiration,
	}
	if err := w.scheme.PostTransactionRequests(ctx, fspID, body); err != nil {
		return w.fail("partiesResponse", err)
	}

	return w.transition(ctx, t.TransactionRequestID, models.StateTransactionSent)
}

// HandleTransactionRequestResponse records the scheme-assigned transaction id
// and, for accepted refunds, opens the quote immediately.
func (w *Workflow) HandleTransactionRequestResponse(ctx context.Context, transactionRequestID string, resp *models.TransactionRequestsPutResponse) error {
	if err := w.transactionRequestResponse(ctx, transactionRequestID, resp); err != nil {
		payer, partyErr := w.parties.Get(ctx, transactionRequestID, models.PartyTypePayer)
		destination := ""
		if partyErr == nil {
			destination = payer.FspID
		}
		if sendErr := w.scheme.PutTransactionRequestsError(ctx, destination, transactionRequestID, &models.ErrorInformation{
			ErrorCode:        models.SchemeErrGeneric,
			ErrorDescription: err.Error(),
		}); sendErr != nil {
			telemetry.Logger.Error("Failed to send transaction request error", zap.Error(sendErr))
		}
		return w.fail("transactionRequestResponse", err)
	}
	return nil
}

func (w *Workflow) transactionRequestResponse(ctx context.Context, transactionRequestID string, resp *models.TransactionRequestsPutResponse) error {
	t, err := w.transactions.GetByRequestID(ctx, transactionRequestID)
	if err != nil {
		return err
	}

	if resp.TransactionID != "" {
		if err := w.transactions.SetTransactionID(ctx, transactionRequestID, resp.TransactionID); err != nil {
			return err
		}
		t.TransactionID = resp.TransactionID
	}

	if resp.TransactionRequestState == "REJECTED" {
		return w.transition(ctx, transactionRequestID, models.StateTransactionCancelled)
	}
	if err := w.transition(ctx, transactionRequestID, models.StateTransactionResponded); err != nil {
		return err
	}

	if t.Scenario != models.ScenarioRefund || !t.IsValid(w.now()) {
		return nil
	}

	// Refunds skip the terminal round-trip: quote straight away, with the
	// money flowing back the other way.
	payer, err := w.parties.Get(ctx, transactionRequestID, models.PartyTypePayer)
	if err != nil {
		return err
	}
	payee, err := w.parties.Get(ctx, transactionRequestID, models.PartyTypePayee)
	if err != nil {
		return err
	}

	quote := &models.Quote{
		ID:                   uuid.NewString(),
		TransactionRequestID: transactionRequestID,
		TransactionID:        t.TransactionID,
		Amount:               t.Amount,
		AmountCurrency:       t.Currency,
		Expiration:           w.now().Add(w.cfg.Relay.TransactionExpiryWindow),
	}
	if err := w.quotes.Create(ctx, quote); err != nil {
		return err
	}

	body := &models.QuotesPost{
		QuoteID:              quote.ID,
		TransactionID:        t.TransactionID,
		TransactionRequestID: transactionRequestID,
		Payer:                partyIdentifier(payer),
		Payee:                partyIdentifier(payee),
		AmountType:           "SEND",
		Amount:               models.Money{Amount: t.Amount, Currency: t.Currency},
		TransactionType: models.TransactionType{
			Initiator:     t.Initiator,
			InitiatorType: t.InitiatorType,
			Scenario:      models.ScenarioRefund,
		},
		Expiration: quote.Expiration,
	}
	return w.scheme.PostQuotes(ctx, payee.FspID, body)
}

// HandleQuoteRequest answers the payer fsp's quote for a pending withdrawal:
// total the fees, price the transfer, commit to the ILP condition.
func (w *Workflow) HandleQuoteRequest(ctx context.Context, source string, req *models.QuotesPost) error {
	t, err := w.transactions.GetByRequestID(ctx, req.TransactionRequestID)
	if err != nil || !t.IsValid(w.now()) {
		if sendErr := w.scheme.PutQuotesError(ctx, source, req.QuoteID, &models.ErrorInformation{
			ErrorCode:        models.SchemeErrInvalidTransaction,
			ErrorDescription: "transaction invalid or expired",
		}); sendErr != nil {
			telemetry.Logger.Error("Failed to send quote error", zap.Error(sendErr))
		}
		if t != nil {
			w.enqueueInvalidFor(ctx, t, models.MessageTypeAuthorizationRequest)
		}
		if err == nil {
			err = fmt.Errorf("transaction %s invalid at quote time", req.TransactionRequestID)
		}
		return w.fail("quoteRequest", err)
	}

	if err := w.transition(ctx, t.TransactionRequestID, models.StateQuoteReceived); err != nil {
		return w.fail("quoteRequest", err)
	}

	if w.cfg.AdaptorFeeAmount != "" && w.cfg.AdaptorFeeAmount != "0" {
		adaptorFee := &models.TransactionFee{
			TransactionRequestID: t.TransactionRequestID,
			Type:                 models.FeeTypeAdaptor,
			Amount:               w.cfg.AdaptorFeeAmount,
			Currency:             w.cfg.FeeCurrency,
		}
		if err := w.fees.Create(ctx, adaptorFee); err != nil {
			return w.fail("quoteRequest", err)
		}
	}

	fees, err := w.fees.ListByTransaction(ctx, t.TransactionRequestID)
	if err != nil {
		return w.fail("quoteRequest", err)
	}
	totalFee, err := sumFees(fees, w.cfg.FeeCurrency)
	if err != nil {
		return w.fail("quoteRequest", err)
	}
	transferAmount, err := req.Amount.Add(totalFee)
	if err != nil {
		return w.fail("quoteRequest", err)
	}

	packet, condition, err := w.ilp.QuoteResponse(ctx, req.TransactionID, transferAmount)
	if err != nil {
		return w.fail("quoteRequest", err)
	}

	quote := &models.Quote{
		ID:                     req.QuoteID,
		TransactionRequestID:   t.TransactionRequestID,
		TransactionID:          req.TransactionID,
		Amount:                 req.Amount.Amount,
		AmountCurrency:         req.Amount.Currency,
		FeeAmount:              totalFee.Amount,
		FeeCurrency:            totalFee.Currency,
		TransferAmount:         transferAmount.Amount,
		TransferAmountCurrency: transferAmount.Currency,
		Condition:              condition,
		IlpPacket:              packet,
		Expiration:             w.now().Add(w.cfg.Relay.TransactionExpiryWindow),
	}
	if err := w.quotes.Create(ctx, quote); err != nil {
		return w.fail("quoteRequest", err)
	}

	reply := &models.QuotesPutResponse{
		TransferAmount: transferAmount,
		PayeeFspFee:    &totalFee,
		Condition:      condition,
		IlpPacket:      packet,
		Expiration:     quote.Expiration,
	}
	if err := w.scheme.PutQuotes(ctx, source, req.QuoteID, reply); err != nil {
		return w.fail("quoteRequest", err)
	}

	return w.transition(ctx, t.TransactionRequestID, models.StateQuoteResponded)
}

// HandleAuthorizationRequest answers the payer fsp's authorization-status
// query by pushing the priced approval down to the terminal.
func (w *Workflow) HandleAuthorizationRequest(ctx context.Context, source, transactionRequestID string) error {
	sendError := func(code, desc string) {
		if err := w.scheme.PutAuthorizationsError(ctx, source, transactionRequestID, &models.ErrorInformation{
			ErrorCode:        code,
			ErrorDescription: desc,
		}); err != nil {
			telemetry.Logger.Error("Failed to send authorization error", zap.Error(err))
		}
	}

	t, err := w.transactions.GetByRequestID(ctx, transactionRequestID)
	if err != nil || !t.IsValid(w.now()) {
		sendError(models.SchemeErrInvalidTransaction, "transaction invalid or expired")
		if err == nil {
			err = fmt.Errorf("transaction %s invalid at authorization time", transactionRequestID)
		}
		return w.fail("authorizationRequest", err)
	}

	if err := w.transition(ctx, transactionRequestID, models.StateAuthReceived); err != nil {
		return w.fail("authorizationRequest", err)
	}

	quote, err := w.quotes.GetByTransactionRequestID(ctx, transactionRequestID)
	if errors.Is(err, models.ErrNotFound) {
		sendError(models.SchemeErrQuoteNotFound, "no quote for transaction")
		return w.fail("authorizationRequest", err)
	}
	if err != nil {
		return w.fail("authorizationRequest", err)
	}
	if quote.IsExpired(w.now()) {
		sendError(models.SchemeErrQuoteExpired, "quote expired")
		return w.fail("authorizationRequest", fmt.Errorf("quote %s expired", quote.ID))
	}

	authMsg, err := w.messages.GetLatestLinked(ctx, transactionRequestID, models.MessageTypeAuthorizationRequest)
	if err != nil {
		return w.fail("authorizationRequest", err)
	}

	w.enqueueAuthorizationResponse(ctx, authMsg.ID, models.ResponseApproved,
		&models.Money{Amount: quote.FeeAmount, Currency: quote.FeeCurrency},
		&models.Money{Amount: quote.TransferAmount, Currency: quote.TransferAmountCurrency})

	return w.transition(ctx, transactionRequestID, models.StateAuthSent)
}

// HandleQuoteResponse reacts to the counterparty pricing a refund quote this
// adaptor posted: persist the confirmed pricing and open the transfer.
func (w *Workflow) HandleQuoteResponse(ctx context.Context, source, quoteID string, resp *models.QuotesPutResponse) error {
	quote, err := w.quotes.GetByID(ctx, quoteID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			if sendErr := w.scheme.PutQuotesError(ctx, source, quoteID, &models.ErrorInformation{
				ErrorCode:        models.SchemeErrQuoteIDNotFound,
				ErrorDescription: "unknown quote id",
			}); sendErr != nil {
				telemetry.Logger.Error("Failed to send quote error", zap.Error(sendErr))
			}
		}
		return w.fail("quoteResponse", err)
	}
	t, err := w.transactions.GetByRequestID(ctx, quote.TransactionRequestID)
	if err != nil {
		return w.fail("quoteResponse", err)
	}

	quote.TransferAmount = resp.TransferAmount.Amount
	quote.TransferAmountCurrency = resp.TransferAmount.Currency
	if resp.PayeeFspFee != nil {
		quote.FeeAmount = resp.PayeeFspFee.Amount
		quote.FeeCurrency = resp.PayeeFspFee.Currency
	}
	quote.Condition = resp.Condition
	quote.IlpPacket = resp.IlpPacket
	quote.Expiration = resp.Expiration
	if err := w.quotes.UpdateSchemeValues(ctx, quote); err != nil {
		return w.fail("quoteResponse", err)
	}

	if !t.IsValid(w.now()) || quote.IsExpired(w.now()) {
		w.rejectSettlement(ctx, t, source, quote.ID, "", models.SchemeErrQuoteExpired, "transaction or quote expired")
		return w.fail("quoteResponse", fmt.Errorf("transaction %s not settleable", t.TransactionRequestID))
	}

	if err := w.transition(ctx, t.TransactionRequestID, models.StateQuoteReceived); err != nil {
		return w.fail("quoteResponse", err)
	}

	payer, err := w.parties.Get(ctx, t.TransactionRequestID, models.PartyTypePayer)
	if err != nil {
		return w.fail("quoteResponse", err)
	}
	payee, err := w.parties.Get(ctx, t.TransactionRequestID, models.PartyTypePayee)
	if err != nil {
		return w.fail("quoteResponse", err)
	}

	transfer := &models.Transfer{
		ID:                   uuid.NewString(),
		QuoteID:              quote.ID,
		TransactionRequestID: t.TransactionRequestID,
		State:                models.TransferStateReceived,
		Amount:               resp.TransferAmount.Amount,
		Currency:             resp.TransferAmount.Currency,
	}
	if err := w.transfers.Create(ctx, transfer); err != nil {
		return w.fail("quoteResponse", err)
	}

	body := &models.TransfersPost{
		TransferID: transfer.ID,
		PayerFsp:   payer.FspID,
		PayeeFsp:   payee.FspID,
		Amount:     resp.TransferAmount,
		IlpPacket:  resp.IlpPacket,
		Condition:  resp.Condition,
		Expiration: resp.Expiration,
	}
	if err := w.scheme.PostTransfers(ctx, payee.FspID, body); err != nil {
		return w.fail("quoteResponse", err)
	}
	return nil
}

// HandleTransferRequest reacts to the payer fsp preparing the settlement
// transfer for a withdrawal: derive the fulfilment and commit.
func (w *Workflow) HandleTransferRequest(ctx context.Context, source string, req *models.TransfersPost) error {
	quote, err := w.quotes.GetByCondition(ctx, req.Condition)
	if err != nil {
		if sendErr := w.scheme.PutTransfersError(ctx, source, req.TransferID, &models.ErrorInformation{
			ErrorCode:        models.SchemeErrTransferInvalid,
			ErrorDescription: "no quote for transfer",
		}); sendErr != nil {
			telemetry.Logger.Error("Failed to send transfer error", zap.Error(sendErr))
		}
		return w.fail("transferRequest", err)
	}

	t, err := w.transactions.GetByRequestID(ctx, quote.TransactionRequestID)
	if err != nil {
		return w.fail("transferRequest", err)
	}

	if !t.IsValid(w.now()) {
		w.rejectSettlement(ctx, t, source, "", req.TransferID, models.SchemeErrTransactionInvalid, "transaction invalid")
		return w.fail("transferRequest", fmt.Errorf("transaction %s invalid at transfer time", t.TransactionRequestID))
	}
	if quote.IsExpired(w.now()) {
		w.rejectSettlement(ctx, t, source, "", req.TransferID, models.SchemeErrQuoteExpired, "quote expired")
		return w.fail("transferRequest", fmt.Errorf("quote %s expired at transfer time", quote.ID))
	}

	fulfilment, err := w.ilp.CalculateFulfil(req.IlpPacket)
	if err != nil {
		return w.fail("transferRequest", err)
	}

	transfer := &models.Transfer{
		ID:                   req.TransferID,
		QuoteID:              quote.ID,
		TransactionRequestID: t.TransactionRequestID,
		Fulfilment:           fulfilment,
		State:                models.TransferStateReserved,
		Amount:               req.Amount.Amount,
		Currency:             req.Amount.Currency,
	}
	if err := w.transfers.Create(ctx, transfer); err != nil {
		return w.fail("transferRequest", err)
	}
	if err := w.transition(ctx, t.TransactionRequestID, models.StateTransferReceived); err != nil {
		return w.fail("transferRequest", err)
	}

	body := &models.TransfersPutResponse{
		Fulfilment:    fulfilment,
		TransferState: "COMMITTED",
		CompletedAt:   w.now(),
	}
	if err := w.scheme.PutTransfers(ctx, source, req.TransferID, body); err != nil {
		return w.fail("transferRequest", err)
	}

	return w.transition(ctx, t.TransactionRequestID, models.StateFulfillmentSent)
}

// HandleTransferResponse closes the loop on a settlement: a committed
// transfer releases the approved legacy response, financial or reversal
// depending on which side of a refund this transaction is.
func (w *Workflow) HandleTransferResponse(ctx context.Context, transferID string, resp *models.TransfersPutResponse) error {
	transfer, err := w.transfers.GetByID(ctx, transferID)
	if err != nil {
		return w.fail("transferResponse", err)
	}

	if resp.TransferState != "COMMITTED" {
		if resp.TransferState == "ABORTED" {
			if err := w.transfers.UpdateState(ctx, transferID, models.TransferStateAborted); err != nil {
				return w.fail("transferResponse", err)
			}
		}
		telemetry.Logger.Warn("Transfer did not commit",
			zap.String("transfer_id", transferID), zap.String("state", resp.TransferState))
		return nil
	}

	if err := w.transfers.UpdateState(ctx, transferID, models.TransferStateCommitted); err != nil {
		return w.fail("transferResponse", err)
	}

	t, err := w.transactions.GetByRequestID(ctx, transfer.TransactionRequestID)
	if err != nil {
		return w.fail("transferResponse", err)
	}
	if err := w.transition(ctx, t.TransactionRequestID, models.StateFulfillmentResponse); err != nil {
		return w.fail("transferResponse", err)
	}

	if t.IsRefund() {
		msg, err := w.messages.GetLatestLinked(ctx, t.TransactionRequestID, models.MessageTypeReversalRequest)
		if err != nil {
			return w.fail("transferResponse", err)
		}
		w.enqueueReversalResponse(ctx, msg.ID, models.ResponseApproved)
	} else {
		msg, err := w.messages.GetLatestLinked(ctx, t.TransactionRequestID, models.MessageTypeFinancialRequest)
		if err != nil {
			return w.fail("transferResponse", err)
		}
		w.enqueueFinancialResponse(ctx, msg.ID, models.ResponseApproved)
	}

	return w.transition(ctx, t.TransactionRequestID, models.StateFinancialResponse)
}

// ErrorCallback is an inbound scheme error. Exactly one of QuoteID and
// TransferID names the step that failed.
type ErrorCallback struct {
	QuoteID    string
	TransferID string
	Info       models.ErrorInformation
}

// HandleErrorResponse cancels the owning transaction and mirrors the failure
// to the legacy side on whichever response queue matches where the
// transaction was in its life.
func (w *Workflow) HandleErrorResponse(ctx context.Context, cb *ErrorCallback) error {
	var t *models.Transaction
	var err error
	fromTransfer := false

	switch {
	case cb.QuoteID != "":
		var quote *models.Quote
		if quote, err = w.quotes.GetByID(ctx, cb.QuoteID); err == nil {
			t, err = w.transactions.GetByRequestID(ctx, quote.TransactionRequestID)
		}
	case cb.TransferID != "":
		fromTransfer = true
		var transfer *models.Transfer
		if transfer, err = w.transfers.GetByID(ctx, cb.TransferID); err == nil {
			t, err = w.transactions.GetByRequestID(ctx, transfer.TransactionRequestID)
		}
	default:
		err = errors.New("error callback names neither quote nor transfer")
	}
	if err != nil {
		return w.fail("errorResponse", err)
	}

	telemetry.Logger.Warn("Scheme reported error",
		zap.String("transaction_request_id", t.TransactionRequestID),
		zap.String("error_code", cb.Info.ErrorCode),
		zap.String("description", cb.Info.ErrorDescription))

	if t.IsValid(w.now()) {
		if err := w.transition(ctx, t.TransactionRequestID, models.StateTransactionCancelled); err != nil {
			return w.fail("errorResponse", err)
		}
	}

	switch {
	case t.IsRefund():
		w.enqueueInvalidFor(ctx, t, models.MessageTypeReversalRequest)
	case fromTransfer:
		w.enqueueInvalidFor(ctx, t, models.MessageTypeFinancialRequest)
	default:
		w.enqueueInvalidFor(ctx, t, models.MessageTypeAuthorizationRequest)
	}
	return nil
}

// HandleTransactionRequestError cancels a transaction whose transaction
// request the payer fsp rejected with an error callback.
func (w *Workflow) HandleTransactionRequestError(ctx context.Context, transactionRequestID string, info *models.ErrorInformation) error {
	t, err := w.transactions.GetByRequestID(ctx, transactionRequestID)
	if err != nil {
		return w.fail("transactionRequestError", err)
	}

	telemetry.Logger.Warn("Transaction request errored",
		zap.String("transaction_request_id", transactionRequestID),
		zap.String("error_code", info.ErrorCode))

	if t.IsValid(w.now()) {
		if err := w.transition(ctx, transactionRequestID, models.StateTransactionCancelled); err != nil {
			return w.fail("transactionRequestError", err)
		}
	}
	w.enqueueInvalidFor(ctx, t, models.MessageTypeAuthorizationRequest)
	return nil
}

// enqueueInvalidFor sends the "invalid" legacy response correlated to the
// transaction's most recent message of the given type. Missing audit links
// are logged; there is nothing to answer without one.
func (w *Workflow) enqueueInvalidFor(ctx context.Context, t *models.Transaction, typ models.LpsMessageType) {
	msg, err := w.messages.GetLatestLinked(ctx, t.TransactionRequestID, typ)
	if err != nil {
		telemetry.Logger.Error("No linked message for legacy error response",
			zap.String("transaction_request_id", t.TransactionRequestID),
			zap.String("message_type", string(typ)), zap.Error(err))
		return
	}
	switch typ {
	case models.MessageTypeAuthorizationRequest:
		w.enqueueAuthorizationResponse(ctx, msg.ID, models.ResponseInvalid, nil, nil)
	case models.MessageTypeFinancialRequest:
		w.enqueueFinancialResponse(ctx, msg.ID, models.ResponseInvalid)
	case models.MessageTypeReversalRequest:
		w.enqueueReversalResponse(ctx, msg.ID, models.ResponseInvalid)
	}
}

// rejectSettlement surfaces a settlement-time failure both to the scheme and
// to the legacy side. The error callback goes to the transfer when one is in
// flight, otherwise to the quote.
func (w *Workflow) rejectSettlement(ctx context.Context, t *models.Transaction, destination, quoteID, transferID, code, desc string) {
	info := &models.ErrorInformation{ErrorCode: code, ErrorDescription: desc}
	switch {
	case transferID != "":
		if err := w.scheme.PutTransfersError(ctx, destination, transferID, info); err != nil {
			telemetry.Logger.Error("Failed to send transfer error", zap.Error(err))
		}
	case quoteID != "":
		if err := w.scheme.PutQuotesError(ctx, destination, quoteID, info); err != nil {
			telemetry.Logger.Error("Failed to send quote error", zap.Error(err))
		}
	}
	if t.IsRefund() {
		w.enqueueInvalidFor(ctx, t, models.MessageTypeReversalRequest)
	} else {
		w.enqueueInvalidFor(ctx, t, models.MessageTypeFinancialRequest)
	}
}

func partyIdentifier(p *models.TransactionParty) models.PartyIdentifier {
	return models.PartyIdentifier{
		PartyIDType:    p.IDType,
		PartyIDValue:   p.IDValue,
		PartySubIDType: p.SubIDOrType,
		FspID:          p.FspID,
	}
}
