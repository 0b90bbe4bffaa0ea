package relay

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finbridge/lps-adaptor/internal/config"
	"github.com/finbridge/lps-adaptor/internal/interfaces"
	"github.com/finbridge/lps-adaptor/internal/iso"
	"github.com/finbridge/lps-adaptor/internal/models"
	"github.com/finbridge/lps-adaptor/internal/telemetry"
)

// Relay bridges one live legacy socket to the job queues. It owns the socket
// for its whole life: inbound frames are decoded and published one at a time,
// and three response-queue consumers write encoded replies back through a
// shared write lock.
//
// Frames are length-prefixed with a 2-byte big-endian header on both
// directions; the payload inside is the bitmap message the codec understands.
type Relay struct {
	conn     net.Conn
	cfg      config.RelayConfig
	mapper   iso.Mapper
	codec    interfaces.Codec
	messages interfaces.LpsMessageRepository
	pub      interfaces.Publisher
	cons     interfaces.Consumer

	writeMu   sync.Mutex
	closeOnce sync.Once
	cancel    context.CancelFunc
}

// New binds a relay to a live connection. A relay without a socket is
// useless, so a nil conn fails construction outright.
func New(
	conn net.Conn,
	cfg config.RelayConfig,
	mapper iso.Mapper,
	codec interfaces.Codec,
	messages interfaces.LpsMessageRepository,
	pub interfaces.Publisher,
	cons interfaces.Consumer,
) (*Relay, error) {
	if conn == nil {
		return nil, errors.New("relay requires a live connection")
	}
	return &Relay{
		conn:     conn,
		cfg:      cfg,
		mapper:   mapper,
		codec:    codec,
		messages: messages,
		pub:      pub,
		cons:     cons,
	}, nil
}

// Start launches the response-queue consumers and the inbound read loop, then
// blocks until the socket dies or ctx is cancelled.
func (r *Relay) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)

	go r.cons.Consume(ctx, models.AuthorizationResponsesQueue(r.cfg.LpsID), r.handleAuthorizationResponse)
	go r.cons.Consume(ctx, models.FinancialResponsesQueue(r.cfg.LpsID), r.handleFinancialResponse)
	go r.cons.Consume(ctx, models.ReversalResponsesQueue(r.cfg.LpsID), r.handleReversalResponse)

	r.readLoop(ctx)
}

func (r *Relay) readLoop(ctx context.Context) {
	header := make([]byte, 2)
	for {
		if _, err := io.ReadFull(r.conn, header); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				telemetry.Logger.Error("Socket read failed",
					zap.String("lps_id", r.cfg.LpsID), zap.Error(err))
			}
			return
		}
		payload := make([]byte, binary.BigEndian.Uint16(header))
		if _, err := io.ReadFull(r.conn, payload); err != nil {
			telemetry.Logger.Error("Socket read failed mid-frame",
				zap.String("lps_id", r.cfg.LpsID), zap.Error(err))
			return
		}

		// One frame at a time per connection; ordering on a session matters
		// more than throughput.
		r.handleFrame(ctx, payload)
	}
}

func (r *Relay) handleFrame(ctx context.Context, payload []byte) {
	fields, err := r.codec.Decode(payload)
	if err != nil {
		telemetry.DecodeFailures.WithLabelValues(r.cfg.LpsID).Inc()
		telemetry.Logger.Error("Dropping undecodable frame",
			zap.String("lps_id", r.cfg.LpsID), zap.Error(err))
		return
	}

	mti := fields[iso.FieldMTI]
	msgType, err := r.mapper.MessageType(mti)
	if err != nil {
		telemetry.DecodeFailures.WithLabelValues(r.cfg.LpsID).Inc()
		telemetry.Logger.Warn("Dropping message with unrecognized mti",
			zap.String("lps_id", r.cfg.LpsID), zap.String("mti", mti))
		return
	}

	msg := &models.LpsMessage{
		ID:      uuid.NewString(),
		LpsID:   r.cfg.LpsID,
		LpsKey:  r.mapper.LpsKey(fields),
		Type:    msgType,
		Content: fields,
	}
	if err := r.messages.Create(ctx, msg); err != nil {
		telemetry.Logger.Error("Failed to persist lps message",
			zap.String("lps_id", r.cfg.LpsID), zap.Error(err))
		return
	}
	telemetry.LegacyMessages.WithLabelValues(r.cfg.LpsID, string(msgType), "in").Inc()

	switch msgType {
	case models.MessageTypeAuthorizationRequest:
		r.dispatchAuthorization(ctx, msg, fields)
	case models.MessageTypeFinancialRequest:
		r.dispatchFinancial(ctx, msg, fields)
	case models.MessageTypeReversalRequest:
		r.dispatchReversal(ctx, msg, fields)
	}
}

func (r *Relay) dispatchAuthorization(ctx context.Context, msg *models.LpsMessage, fields map[int]string) {
	req, err := r.mapper.FromAuthorizationRequest(msg.ID, fields)
	if err != nil {
		telemetry.Logger.Error("Authorization mapping failed",
			zap.String("lps_id", r.cfg.LpsID), zap.String("message_id", msg.ID), zap.Error(err))
		r.publish(ctx, models.AuthorizationResponsesQueue(r.cfg.LpsID), &models.LegacyAuthorizationResponse{
			LpsID:                            r.cfg.LpsID,
			LpsAuthorizationRequestMessageID: msg.ID,
			Response:                         models.ResponseInvalid,
		})
		return
	}
	r.publish(ctx, models.QueueLegacyAuthorizationRequests, req)
}

func (r *Relay) dispatchFinancial(ctx context.Context, msg *models.LpsMessage, fields map[int]string) {
	req, err := r.mapper.FromFinancialRequest(msg.ID, fields)
	if err != nil {
		telemetry.Logger.Error("Financial mapping failed",
			zap.String("lps_id", r.cfg.LpsID), zap.String("message_id", msg.ID), zap.Error(err))
		r.publish(ctx, models.FinancialResponsesQueue(r.cfg.LpsID), &models.LegacyFinancialResponse{
			LpsID:                        r.cfg.LpsID,
			LpsFinancialRequestMessageID: msg.ID,
			Response:                     models.ResponseInvalid,
		})
		return
	}
	r.publish(ctx, models.QueueLegacyFinancialRequests, req)
}

// dispatchReversal is the one synchronous failure path: an unmatched reversal
// has no transaction to track, so the decline goes straight to the socket
// without touching a queue.
func (r *Relay) dispatchReversal(ctx context.Context, msg *models.LpsMessage, fields map[int]string) {
	req, err := r.mapper.FromReversalAdvice(ctx, msg.ID, fields)
	if err != nil {
		telemetry.Logger.Warn("Reversal advice did not match, declining",
			zap.String("lps_id", r.cfg.LpsID), zap.String("message_id", msg.ID), zap.Error(err))
		decline, mapErr := r.mapper.ToReversalAdviceResponse(msg, &models.LegacyReversalResponse{
			LpsID:                       r.cfg.LpsID,
			LpsReversalRequestMessageID: msg.ID,
			Response:                    models.ResponseNoAction,
		})
		if mapErr != nil {
			telemetry.Logger.Error("Failed to build reversal decline", zap.Error(mapErr))
			return
		}
		r.write(decline, models.MessageTypeReversalResponse)
		return
	}
	r.publish(ctx, models.QueueLegacyReversalRequests, req)
}

func (r *Relay) publish(ctx context.Context, queue string, payload any) {
	if err := r.pub.Publish(ctx, queue, payload); err != nil {
		telemetry.Logger.Error("Failed to publish job",
			zap.String("queue", queue), zap.Error(err))
	}
}

func (r *Relay) handleAuthorizationResponse(ctx context.Context, payload []byte) error {
	var resp models.LegacyAuthorizationResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return fmt.Errorf("decode authorization response job: %w", err)
	}
	original, err := r.messages.GetByID(ctx, resp.LpsAuthorizationRequestMessageID)
	if err != nil {
		return fmt.Errorf("load original authorization request: %w", err)
	}
	fields, err := r.mapper.ToAuthorizationResponse(original, &resp)
	if err != nil {
		return err
	}
	return r.write(fields, models.MessageTypeAuthorizationResponse)
}

func (r *Relay) handleFinancialResponse(ctx context.Context, payload []byte) error {
	var resp models.LegacyFinancialResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return fmt.Errorf("decode financial response job: %w", err)
	}
	original, err := r.messages.GetByID(ctx, resp.LpsFinancialRequestMessageID)
	if err != nil {
		return fmt.Errorf("load original financial request: %w", err)
	}
	fields, err := r.mapper.ToFinancialResponse(original, &resp)
	if err != nil {
		return err
	}
	return r.write(fields, models.MessageTypeFinancialResponse)
}

func (r *Relay) handleReversalResponse(ctx context.Context, payload []byte) error {
	var resp models.LegacyReversalResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return fmt.Errorf("decode reversal response job: %w", err)
	}
	original, err := r.messages.GetByID(ctx, resp.LpsReversalRequestMessageID)
	if err != nil {
		return fmt.Errorf("load original reversal advice: %w", err)
	}
	fields, err := r.mapper.ToReversalAdviceResponse(original, &resp)
	if err != nil {
		return err
	}
	return r.write(fields, models.MessageTypeReversalResponse)
}

// write encodes a field map and delivers it best-effort to the socket.
// Consumers for the three response queues share the socket, so the frame
// write is serialized.
func (r *Relay) write(fields map[int]string, msgType models.LpsMessageType) error {
	payload, err := r.codec.Encode(fields)
	if err != nil {
		return fmt.Errorf("encode legacy response: %w", err)
	}
	if len(payload) > 0xFFFF {
		return fmt.Errorf("encoded frame too large: %d bytes", len(payload))
	}

	frame := make([]byte, 2+len(payload))
	binary.BigEndian.PutUint16(frame, uint16(len(payload)))
	copy(frame[2:], payload)

	r.writeMu.Lock()
	_, err = r.conn.Write(frame)
	r.writeMu.Unlock()
	if err != nil {
		telemetry.Logger.Error("Socket write failed",
			zap.String("lps_id", r.cfg.LpsID), zap.Error(err))
		return nil
	}
	telemetry.LegacyMessages.WithLabelValues(r.cfg.LpsID, string(msgType), "out").Inc()
	return nil
}

// Close stops the consumers and releases the socket. Safe to call more than
// once.
func (r *Relay) Close() error {
	var err error
	r.closeOnce.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
		err = r.conn.Close()
	})
	return err
}
