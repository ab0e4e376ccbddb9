package cache_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/srgjo27/eventpass/internal/adapter/cache"
	"github.com/srgjo27/eventpass/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapacityCache_Miss(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	c := cache.NewRedisCapacityCache(db, 30*time.Second)
	eventID := uuid.New()

	mockRedis.ExpectGet(fmt.Sprintf("capacity:%s", eventID)).RedisNil()

	got, err := c.Get(context.Background(), eventID)
	require.NoError(t, err)
	assert.Nil(t, got)

	if err := mockRedis.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestCapacityCache_SetThenHit(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	c := cache.NewRedisCapacityCache(db, 30*time.Second)

	total, remaining := 10, 4
	snapshot := domain.Capacity{EventID: uuid.New(), Total: &total, Confirmed: 6, Remaining: &remaining, Waitlisted: 2}
	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)
	key := fmt.Sprintf("capacity:%s", snapshot.EventID)
	genKey := fmt.Sprintf("capacity:gen:%s", snapshot.EventID)

	mockRedis.ExpectGet(genKey).RedisNil()
	mockRedis.ExpectEval(cache.SetIfGenerationScript, []string{genKey, key}, "0", string(raw), "30000").SetVal(int64(1))
	mockRedis.ExpectGet(key).SetVal(string(raw))

	gen, err := c.Generation(context.Background(), snapshot.EventID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	stored, err := c.Set(context.Background(), snapshot, gen)
	require.NoError(t, err)
	assert.True(t, stored)

	got, err := c.Get(context.Background(), snapshot.EventID)
	require.NoError(t, err)
	assert.Equal(t, snapshot, *got)

	if err := mockRedis.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestCapacityCache_SetDropsStaleGeneration(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	c := cache.NewRedisCapacityCache(db, time.Minute)

	snapshot := domain.Capacity{EventID: uuid.New(), Confirmed: 3}
	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)
	key := fmt.Sprintf("capacity:%s", snapshot.EventID)
	genKey := fmt.Sprintf("capacity:gen:%s", snapshot.EventID)

	mockRedis.ExpectGet(genKey).SetVal("4")
	mockRedis.ExpectEval(cache.SetIfGenerationScript, []string{genKey, key}, "4", string(raw), "60000").SetVal(int64(0))

	gen, err := c.Generation(context.Background(), snapshot.EventID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), gen)

	stored, err := c.Set(context.Background(), snapshot, gen)
	require.NoError(t, err)
	assert.False(t, stored)

	if err := mockRedis.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestCapacityCache_Invalidate(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	c := cache.NewRedisCapacityCache(db, time.Minute)
	eventID := uuid.New()
	key := fmt.Sprintf("capacity:%s", eventID)
	genKey := fmt.Sprintf("capacity:gen:%s", eventID)

	mockRedis.ExpectIncr(genKey).SetVal(1)
	mockRedis.ExpectDel(key).SetVal(1)
	require.NoError(t, c.Invalidate(context.Background(), eventID))

	mockRedis.ExpectIncr(genKey).SetVal(2)
	mockRedis.ExpectDel(key).SetErr(errors.New("connection refused"))
	assert.Error(t, c.Invalidate(context.Background(), eventID))

	mockRedis.ExpectIncr(genKey).SetErr(errors.New("connection refused"))
	assert.Error(t, c.Invalidate(context.Background(), eventID))

	if err := mockRedis.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestCapacityCache_CorruptEntry(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	c := cache.NewRedisCapacityCache(db, time.Minute)
	eventID := uuid.New()

	mockRedis.ExpectGet(fmt.Sprintf("capacity:%s", eventID)).SetVal("{not json")
	_, err := c.Get(context.Background(), eventID)
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	var c cache.Noop
	got, err := c.Get(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, got)
	gen, err := c.Generation(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Zero(t, gen)
	stored, err := c.Set(context.Background(), domain.Capacity{}, gen)
	assert.NoError(t, err)
	assert.False(t, stored)
	assert.NoError(t, c.Invalidate(context.Background(), uuid.New()))
}
