package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LegacyMessages counts decoded/encoded legacy messages per source.
	LegacyMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lps_adaptor_legacy_messages_total",
		Help: "Legacy messages relayed, by lps id, message type and direction.",
	}, []string{"lps_id", "type", "direction"})

	// DecodeFailures counts inbound frames the relay could not decode or
	// classify.
	DecodeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lps_adaptor_decode_failures_total",
		Help: "Inbound legacy frames dropped for decode or classification errors.",
	}, []string{"lps_id"})

	// HandlerFailures counts workflow handler invocations that returned an
	// error.
	HandlerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lps_adaptor_handler_failures_total",
		Help: "Workflow handler failures, by handler.",
	}, []string{"handler"})

	// StateTransitions counts transaction state transitions.
	StateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lps_adaptor_state_transitions_total",
		Help: "Transaction state transitions, by target state.",
	}, []string{"state"})
)
