package feed

import (
	"context"
	"encoding/json"
	"log/slog"

	"complaintdesk/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// Forward relays events arriving on a Redis subscription into the hub until ctx
// is cancelled or the subscription channel closes.
func (m *ManagerService) Forward(ctx context.Context, ch <-chan *redis.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var ev models.ComplaintEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				m.Log.Warn("bad event on redis channel", slog.String("channel", msg.Channel), slog.String("error", err.Error()))
				continue
			}
			if err := m.Publish(ctx, ev); err != nil {
				return nil
			}
		}
	}
}
