package scraper

import (
	"context"

	"go.uber.org/zap"

	"github.com/seyi-sanmi/atlas/internal/event"
)

// sink assigns the scrape ID and fans the result out to the event store and
// publisher. Sink failures are logged; the record is still returned.
func (s *Scraper) sink(ctx context.Context, result *event.Scrape, logger *zap.Logger) {
	publish := s.deps.Publisher != nil && s.cfg.Topic != ""
	if s.deps.Events == nil && !publish {
		return
	}

	id, err := s.deps.IDs.NewID()
	if err != nil {
		logger.Warn("scrape id generation failed; skipping sinks", zap.Error(err))
		return
	}
	result.ID = id

	if s.deps.Events != nil {
		if err := s.deps.Events.SaveEvent(ctx, *result); err != nil {
			logger.Warn("event store write failed", zap.String("scrape_id", id), zap.Error(err))
		}
	}
	if publish {
		msgID, err := s.deps.Publisher.Publish(ctx, s.cfg.Topic, *result)
		if err != nil {
			logger.Warn("event publish failed", zap.String("scrape_id", id), zap.Error(err))
			return
		}
		logger.Debug("event published", zap.String("scrape_id", id), zap.String("message_id", msgID))
	}
}
