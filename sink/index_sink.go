package sink

import (
	"context"
	"fmt"
	"log/slog"

	"council-lab/domain/event"
	"council-lab/repositories"
)

// IndexSink feeds the full-text index from the event stream, off the
// request path. A message that fails to index stays readable through
// history; it just won't surface in search until re-indexed.
type IndexSink struct {
	repository repositories.ISearchRepository
	log        *slog.Logger
}

func NewIndexSink(repository repositories.ISearchRepository, log *slog.Logger) IndexSink {
	return IndexSink{repository: repository, log: log}
}

func (s IndexSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessagePosted:
		return s.repository.Index(evt.Message, evt.OwnerID)
	default:
		s.log.Debug(fmt.Sprintf("Not implemented event : %v", evt))
		return nil
	}
}
