package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finbridge/lps-adaptor/internal/config"
	"github.com/finbridge/lps-adaptor/internal/interfaces"
	"github.com/finbridge/lps-adaptor/internal/models"
	"github.com/finbridge/lps-adaptor/internal/telemetry"
)

// Workflow drives the transaction lifecycle. Handlers communicate only
// through the store and the named queues; two handlers racing on the same
// transaction are arbitrated by the store's atomic state transition.
type Workflow struct {
	transactions interfaces.TransactionRepository
	parties      interfaces.PartyRepository
	fees         interfaces.FeeRepository
	messages     interfaces.LpsMessageRepository
	quotes       interfaces.QuoteRepository
	transfers    interfaces.TransferRepository
	pub          interfaces.Publisher
	scheme       interfaces.SchemeClient
	ilp          interfaces.IlpService
	lock         interfaces.Lock
	cfg          *config.Config

	now func() time.Time
}

func NewWorkflow(
	transactions interfaces.TransactionRepository,
	parties interfaces.PartyRepository,
	fees interfaces.FeeRepository,
	messages interfaces.LpsMessageRepository,
	quotes interfaces.QuoteRepository,
	transfers interfaces.TransferRepository,
	pub interfaces.Publisher,
	scheme interfaces.SchemeClient,
	ilpService interfaces.IlpService,
	lock interfaces.Lock,
	cfg *config.Config,
) *Workflow {
	return &Workflow{
		transactions: transactions,
		parties:      parties,
		fees:         fees,
		messages:     messages,
		quotes:       quotes,
		transfers:    transfers,
		pub:          pub,
		scheme:       scheme,
		ilp:          ilpService,
		lock:         lock,
		cfg:          cfg,
		now:          time.Now,
	}
}

// RunConsumers starts one consumer per legacy request queue. Each job is
// handled independently; a failing job never blocks its queue.
func (w *Workflow) RunConsumers(ctx context.Context, cons interfaces.Consumer) {
	go cons.Consume(ctx, models.QueueLegacyAuthorizationRequests, func(ctx context.Context, payload []byte) error {
		var req models.LegacyAuthorizationRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return err
		}
		return w.HandleLegacyAuthorization(ctx, &req)
	})
	go cons.Consume(ctx, models.QueueLegacyFinancialRequests, func(ctx context.Context, payload []byte) error {
		var req models.LegacyFinancialRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return err
		}
		return w.HandleLegacyFinancialRequest(ctx, &req)
	})
	go cons.Consume(ctx, models.QueueLegacyReversalRequests, func(ctx context.Context, payload []byte) error {
		var req models.LegacyReversalRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return err
		}
		return w.HandleLegacyReversal(ctx, &req)
	})
}

// transition moves a transaction to the next state. The repository writes
// previousState and state in one statement; a zero row count means the
// transaction vanished, which is a bug worth surfacing.
func (w *Workflow) transition(ctx context.Context, transactionRequestID string, to models.TransactionState) error {
	rows, err := w.transactions.UpdateState(ctx, transactionRequestID, to)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("transaction %s not found for transition to %s", transactionRequestID, to)
	}
	telemetry.StateTransitions.WithLabelValues(string(to)).Inc()
	telemetry.Logger.Info("Transaction state transition",
		zap.String("transaction_request_id", transactionRequestID),
		zap.String("to_state", string(to)))
	return nil
}

func (w *Workflow) fail(handler string, err error) error {
	telemetry.HandlerFailures.WithLabelValues(handler).Inc()
	telemetry.Logger.Error("Handler failed", zap.String("handler", handler), zap.Error(err))
	return err
}

func (w *Workflow) enqueueAuthorizationResponse(ctx context.Context, messageID string, resp models.ResponseType, fees, transferAmount *models.Money) {
	err := w.pub.Publish(ctx, models.AuthorizationResponsesQueue(w.cfg.Relay.LpsID), &models.LegacyAuthorizationResponse{
		LpsID:                            w.cfg.Relay.LpsID,
		LpsAuthorizationRequestMessageID: messageID,
		Response:                         resp,
		Fees:                             fees,
		TransferAmount:                   transferAmount,
	})
	if err != nil {
		telemetry.Logger.Error("Failed to enqueue authorization response", zap.Error(err))
	}
}

func (w *Workflow) enqueueFinancialResponse(ctx context.Context, messageID string, resp models.ResponseType) {
	err := w.pub.Publish(ctx, models.FinancialResponsesQueue(w.cfg.Relay.LpsID), &models.LegacyFinancialResponse{
		LpsID:                        w.cfg.Relay.LpsID,
		LpsFinancialRequestMessageID: messageID,
		Response:                     resp,
	})
	if err != nil {
		telemetry.Logger.Error("Failed to enqueue financial response", zap.Error(err))
	}
}

func (w *Workflow) enqueueReversalResponse(ctx context.Context, messageID string, resp models.ResponseType) {
	err := w.pub.Publish(ctx, models.ReversalResponsesQueue(w.cfg.Relay.LpsID), &models.LegacyReversalResponse{
		LpsID:                       w.cfg.Relay.LpsID,
		LpsReversalRequestMessageID: messageID,
		Response:                    resp,
	})
	if err != nil {
		telemetry.Logger.Error("Failed to enqueue reversal response", zap.Error(err))
	}
}

// sumFees totals the transaction's recorded fees. Currencies follow the first
// recorded fee; the adaptor never mixes fee currencies within a transaction.
func sumFees(fees []models.TransactionFee, fallbackCurrency string) (models.Money, error) {
	total := decimal.Zero
	currency := fallbackCurrency
	for i, f := range fees {
		d, err := decimal.NewFromString(f.Amount)
		if err != nil {
			return models.Money{}, fmt.Errorf("fee amount %q: %w", f.Amount, err)
		}
		total = total.Add(d)
		if i == 0 && f.Currency != "" {
			currency = f.Currency
		}
	}
	return models.Money{Amount: total.String(), Currency: currency}, nil
}
