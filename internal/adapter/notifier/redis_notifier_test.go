package notifier_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/srgjo27/eventpass/internal/adapter/notifier"
	"github.com/srgjo27/eventpass/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 10, 19, 0, 0, 0, time.UTC)

func TestNotify_PublishesToUserChannel(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	n := notifier.NewRedisNotifier(db)

	msg := domain.Notification{
		Type:           domain.NotifyRegistrationPromoted,
		UserID:         "user-42",
		EventID:        uuid.New(),
		RegistrationID: uuid.New(),
		OccurredAt:     now,
	}
	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	mockRedis.ExpectPublish("notifications:user-42", raw).SetVal(1)

	assert.NoError(t, n.Notify(context.Background(), msg))
	if err := mockRedis.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestBroadcastOffer_OmitsClaimCode(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	n := notifier.NewRedisNotifier(db)

	offer := &domain.TransferOffer{
		ID:             uuid.New(),
		RegistrationID: uuid.New(),
		EventID:        uuid.New(),
		FromUserID:     "alice",
		Code:           "SECRETCODE",
		Status:         domain.OfferPending,
		ExpiresAt:      now.Add(30 * time.Minute),
	}
	raw, err := json.Marshal(notifier.OfferAnnouncement{
		OfferID:        offer.ID,
		RegistrationID: offer.RegistrationID,
		EventID:        offer.EventID,
		FromUserID:     "alice",
		ExpiresAt:      offer.ExpiresAt,
	})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "SECRETCODE")

	mockRedis.ExpectPublish("transfer-offers:"+offer.EventID.String(), raw).SetVal(0)

	assert.NoError(t, n.BroadcastOffer(context.Background(), offer))
	if err := mockRedis.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestNotify_PublishError(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	n := notifier.NewRedisNotifier(db)
	msg := domain.Notification{Type: domain.NotifyCheckedIn, UserID: "bob", OccurredAt: now}
	raw, _ := json.Marshal(msg)

	mockRedis.ExpectPublish("notifications:bob", raw).SetErr(errors.New("broken pipe"))

	assert.ErrorContains(t, n.Notify(context.Background(), msg), "notifications:bob")
}
