package ilp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/finbridge/lps-adaptor/internal/models"
)

const requestTimeout = 5 * time.Second

type quoteRequest struct {
	TransactionID string       `json:"transactionId"`
	Amount        models.Money `json:"amount"`
}

type quoteReply struct {
	IlpPacket string `json:"ilpPacket"`
	Condition string `json:"condition"`
}

// Service obtains ILP packets and conditions from the external ILP capability
// over NATS request/reply, and derives fulfilments locally with the shared
// secret. condition == sha256(fulfilment), so a packet produced remotely and
// fulfilled locally stays verifiable end to end.
type Service struct {
	nc      *nats.Conn
	subject string
	secret  []byte
}

func NewService(nc *nats.Conn, secret string) *Service {
	return &Service{nc: nc, subject: "ilp.quote", secret: []byte(secret)}
}

func (s *Service) QuoteResponse(ctx context.Context, transactionID string, amount models.Money) (string, string, error) {
	req, err := json.Marshal(quoteRequest{TransactionID: transactionID, Amount: amount})
	if err != nil {
		return "", "", err
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	msg, err := s.nc.RequestWithContext(reqCtx, s.subject, req)
	if err != nil {
		// Fall back to deriving the packet locally so a quote can still be
		// answered while the ILP service is down.
		return s.localQuote(transactionID, amount)
	}

	var reply quoteReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return "", "", fmt.Errorf("decode ilp reply: %w", err)
	}
	return reply.IlpPacket, reply.Condition, nil
}

func (s *Service) localQuote(transactionID string, amount models.Money) (string, string, error) {
	payload, err := json.Marshal(quoteRequest{TransactionID: transactionID, Amount: amount})
	if err != nil {
		return "", "", err
	}
	packet := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(payload)

	fulfilment, err := s.CalculateFulfil(packet)
	if err != nil {
		return "", "", err
	}
	condition, err := CalculateCondition(fulfilment)
	if err != nil {
		return "", "", err
	}
	return packet, condition, nil
}

// CalculateFulfil derives the fulfilment for an ILP packet as the HMAC-SHA256
// of the packet under the shared secret, base64url encoded without padding.
func (s *Service) CalculateFulfil(packet string) (string, error) {
	mac := hmac.New(sha256.New, s.secret)
	if _, err := mac.Write([]byte(packet)); err != nil {
		return "", err
	}
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(mac.Sum(nil)), nil
}

// CalculateCondition hashes a fulfilment into the condition the counterparty
// commits to at quote time.
func CalculateCondition(fulfilment string) (string, error) {
	raw, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(fulfilment)
	if err != nil {
		return "", fmt.Errorf("decode fulfilment: %w", err)
	}
	sum := sha256.Sum256(raw)
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(sum[:]), nil
}
