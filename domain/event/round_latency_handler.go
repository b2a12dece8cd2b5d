package event

import (
	"log/slog"
	"time"
)

type RoundLatencyHandler struct {
	log              *slog.Logger
	latencyThreshold time.Duration
}

func NewRoundLatencyHandler(log *slog.Logger, latencyThreshold time.Duration) *RoundLatencyHandler {
	return &RoundLatencyHandler{log: log, latencyThreshold: latencyThreshold}
}

func (h *RoundLatencyHandler) Handle(e Event) {
	if payload, ok := e.Payload.(CoordinationCompleted); ok {
		h.log.Info("telemetry: round latency",
			"conversation_id", payload.Conversation,
			"specialists", len(payload.Selected),
			"failed", len(payload.Failed),
			"lead_time_ms", payload.Duration.Milliseconds(),
		)

		if payload.Duration > h.latencyThreshold {
			h.log.Warn("slow coordination round", "lead_time", payload.Duration)
		}
	}
}
