package event

import (
	"fmt"
	"log/slog"

	"council-lab/errors"
)

// ChannelCapacityHandler watches the fill level of internal channels
// and warns before a saturated buffer starts dropping events.
type ChannelCapacityHandler struct {
	log                  *slog.Logger
	lowCapacityThreshold int
}

func NewChannelCapacityHandler(log *slog.Logger, lowCapacityThreshold int) *ChannelCapacityHandler {
	return &ChannelCapacityHandler{log: log, lowCapacityThreshold: lowCapacityThreshold}
}

func (h ChannelCapacityHandler) Handle(event Event) {
	if event.Type != ChannelCapacityType {
		return
	}
	payload, ok := event.Payload.(ChannelCapacity)
	if !ok {
		h.log.Error(errors.ErrInvalidPayload.Error())
		return
	}

	h.log.Debug(fmt.Sprintf("Channel %s usage: %d / %d", payload.ChannelName, payload.Length, payload.Capacity))
	if payload.Capacity <= 0 {
		// Unbuffered channels have no fill level to watch
		return
	}
	capacityLeft := payload.Capacity - payload.Length
	if capacityLeft <= h.lowCapacityThreshold {
		h.log.Warn(fmt.Sprintf("Channel %s almost full, capacity left: %d", payload.ChannelName, capacityLeft))
	}
}
