package event

import (
	"log/slog"

	"council-lab/errors"
)

// MessagePostedHandler counts records landing in conversations,
// whoever authored them. The tally feeds the operator stats surface.
type MessagePostedHandler struct {
	log     *slog.Logger
	counter *Counter
}

func NewMessagePostedHandler(log *slog.Logger, counter *Counter) *MessagePostedHandler {
	return &MessagePostedHandler{log: log, counter: counter}
}

func (p *MessagePostedHandler) Handle(event Event) {
	if event.Type != MessagePostedType {
		return
	}
	if _, ok := event.Payload.(MessagePosted); !ok {
		p.log.Error(errors.ErrInvalidPayload.Error())
		return
	}
	p.counter.Increment(MessagePostedType)
}
