package usecase

import (
	"context"

	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/port"
)

func requireSession(session *domain.Session) error {
	if session == nil || session.UserID == "" {
		return domain.ErrUnauthenticated
	}
	return nil
}

// publishEvent отправляет событие после успешной записи. Ошибка только логируется:
// запись уже выполнена и не должна откатываться из-за брокера.
func publishEvent(ctx context.Context, events port.EventPublisherPort, logger port.LoggerPort, routingKey string, payload interface{}) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, routingKey, payload); err != nil {
		logger.Warn("Failed to publish domain event", port.Fields{"routing_key": routingKey, "error": err.Error()})
	}
}

// overlayFavorites возвращает записи с флагом избранного, взятым из набора ids.
func overlayFavorites(listings []domain.Listing, ids []string) []domain.Listing {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		_, fav := set[l.ID]
		out = append(out, l.WithFavorite(fav))
	}
	return out
}
