package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/eventpass/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOffer(t *testing.T) *domain.TransferOffer {
	t.Helper()
	reg := domain.NewRegistration(uuid.New(), "user-a", "", t0)
	require.NoError(t, reg.Confirm("ABC234", t0))
	return domain.NewTransferOffer(reg, "OFFERCODE2", t0, 30*time.Minute)
}

func TestTransferOffer_AcceptOnce(t *testing.T) {
	offer := newOffer(t)

	require.NoError(t, offer.Accept("user-b", t0.Add(time.Minute)))
	assert.Equal(t, domain.OfferAccepted, offer.Status)
	assert.Equal(t, "user-b", *offer.ToUserID)

	assert.ErrorIs(t, offer.Accept("user-c", t0.Add(2*time.Minute)), domain.ErrNotPending)
	assert.Equal(t, "user-b", *offer.ToUserID)
}

func TestTransferOffer_AcceptBoundary(t *testing.T) {
	offer := newOffer(t)
	assert.NoError(t, offer.Accept("user-b", offer.ExpiresAt))
}

func TestTransferOffer_LazyExpiry(t *testing.T) {
	offer := newOffer(t)
	late := t0.Add(31 * time.Minute)

	assert.Equal(t, domain.OfferPending, offer.Status)
	assert.Equal(t, domain.OfferExpired, offer.EffectiveStatus(late))
	assert.ErrorIs(t, offer.Accept("user-b", late), domain.ErrExpired)
	assert.Nil(t, offer.ToUserID)

	assert.True(t, offer.Expire(late))
	assert.False(t, offer.Expire(late))
	assert.ErrorIs(t, offer.Accept("user-b", t0), domain.ErrExpired)
}

func TestTransferOffer_SelfTransfer(t *testing.T) {
	offer := newOffer(t)
	assert.ErrorIs(t, offer.Accept("user-a", t0), domain.ErrSelfTransfer)
	assert.Equal(t, domain.OfferPending, offer.Status)
}

func TestTransferOffer_Cancel(t *testing.T) {
	offer := newOffer(t)
	assert.ErrorIs(t, offer.Cancel("user-b", t0), domain.ErrNotOwner)
	require.NoError(t, offer.Cancel("user-a", t0))
	assert.Equal(t, domain.OfferCancelled, offer.Status)
	assert.ErrorIs(t, offer.Accept("user-b", t0), domain.ErrNotPending)
	assert.ErrorIs(t, offer.Cancel("user-a", t0), domain.ErrNotPending)
}
