// Package notifier publishes post-commit notifications over redis pub/sub.
// Delivery to devices is somebody else's job.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/srgjo27/eventpass/internal/core/domain"
)

func UserChannel(userID string) string {
	return "notifications:" + userID
}

func OfferChannel(eventID uuid.UUID) string {
	return "transfer-offers:" + eventID.String()
}

// OfferAnnouncement is what listeners on an event's offer channel receive.
// It never carries the claim code.
type OfferAnnouncement struct {
	OfferID        uuid.UUID `json:"offerId"`
	RegistrationID uuid.UUID `json:"registrationId"`
	EventID        uuid.UUID `json:"eventId"`
	FromUserID     string    `json:"fromUserId"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

type RedisNotifier struct {
	client redis.Cmdable
}

func NewRedisNotifier(client redis.Cmdable) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) Notify(ctx context.Context, msg domain.Notification) error {
	return n.publish(ctx, UserChannel(msg.UserID), msg)
}

func (n *RedisNotifier) BroadcastOffer(ctx context.Context, offer *domain.TransferOffer) error {
	return n.publish(ctx, OfferChannel(offer.EventID), OfferAnnouncement{
		OfferID:        offer.ID,
		RegistrationID: offer.RegistrationID,
		EventID:        offer.EventID,
		FromUserID:     offer.FromUserID,
		ExpiresAt:      offer.ExpiresAt,
	})
}

func (n *RedisNotifier) publish(ctx context.Context, channel string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", channel, err)
	}
	if err := n.client.Publish(ctx, channel, raw).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

type Noop struct{}

func (Noop) Notify(context.Context, domain.Notification) error           { return nil }
func (Noop) BroadcastOffer(context.Context, *domain.TransferOffer) error { return nil }
