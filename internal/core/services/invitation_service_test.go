package services_test

import (
	"testing"

	"github.com/srgjo27/eventpass/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvitation_OneCodePerChannel(t *testing.T) {
	f := newFixture(t)
	ev := f.event(t, nil, false)

	first, created, err := f.invites.Create(f.ctx, ev.ID, "Instagram", "org-1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, first.Code, 8)
	assert.Equal(t, "instagram", first.Channel)

	again, created, err := f.invites.Create(f.ctx, ev.ID, "instagram ", "org-2")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	email, created, err := f.invites.Create(f.ctx, ev.ID, "email", "org-1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.Code, email.Code)

	list, err := f.invites.List(f.ctx, ev.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestInvitation_Rejections(t *testing.T) {
	f := newFixture(t)
	ev := f.event(t, nil, false)

	_, _, err := f.invites.Create(f.ctx, ev.ID, " ", "org")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = f.invites.Create(f.ctx, unknownEventID, "email", "org")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.invites.List(f.ctx, unknownEventID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
