package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiyas/continuity/internal/application/continuity"
	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
	"github.com/qiyas/continuity/pkg/types/common"
)

func newMockedClient(t *testing.T) (*Client, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	client := &Client{
		rdb:    db,
		logger: logging.NewNopLogger(),
	}
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return client, mock
}

func sampleContext() *continuity.PreviousYearContext {
	return &continuity.PreviousYearContext{
		Matched:           true,
		Confidence:        0.91,
		PreviousIndexCode: "ETARI-2024",
		MatchedRequirement: &continuity.PreviousRequirement{
			ID:         common.ID("req-prev-1"),
			Code:       "REQ-1-2",
			QuestionAr: "هل توجد سياسة معتمدة؟",
			AnswerAr:   "نعم، السياسة معتمدة ومنشورة",
		},
	}
}

func TestContextCache_GetHit(t *testing.T) {
	client, mock := newMockedClient(t)
	cache := NewContextCache(client, "test", logging.NewNopLogger())

	value := sampleContext()
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	mock.ExpectGet("test:prevctx:req-1").SetVal(string(raw))

	got, ok := cache.Get(context.Background(), common.ID("req-1"))
	require.True(t, ok)
	assert.Equal(t, value.PreviousIndexCode, got.PreviousIndexCode)
	assert.InDelta(t, value.Confidence, got.Confidence, 1e-9)
	require.NotNil(t, got.MatchedRequirement)
	assert.Equal(t, "REQ-1-2", got.MatchedRequirement.Code)
}

func TestContextCache_GetMiss(t *testing.T) {
	client, mock := newMockedClient(t)
	cache := NewContextCache(client, "test", logging.NewNopLogger())

	mock.ExpectGet("test:prevctx:req-missing").RedisNil()

	got, ok := cache.Get(context.Background(), common.ID("req-missing"))
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestContextCache_CorruptEntryEvicted(t *testing.T) {
	client, mock := newMockedClient(t)
	cache := NewContextCache(client, "test", logging.NewNopLogger())

	mock.ExpectGet("test:prevctx:req-bad").SetVal("{not json")
	mock.ExpectDel("test:prevctx:req-bad").SetVal(1)

	got, ok := cache.Get(context.Background(), common.ID("req-bad"))
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestContextCache_Set(t *testing.T) {
	client, mock := newMockedClient(t)
	cache := NewContextCache(client, "test", logging.NewNopLogger())

	value := sampleContext()
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	mock.ExpectSet("test:prevctx:req-1", raw, 10*time.Minute).SetVal("OK")

	cache.Set(context.Background(), common.ID("req-1"), value, 10*time.Minute)
}

func TestContextCache_Invalidate(t *testing.T) {
	client, mock := newMockedClient(t)
	cache := NewContextCache(client, "test", logging.NewNopLogger())

	mock.ExpectDel("test:prevctx:req-1", "test:prevctx:req-2").SetVal(2)

	err := cache.Invalidate(context.Background(), common.ID("req-1"), common.ID("req-2"))
	assert.NoError(t, err)
}

func TestContextCache_InvalidateEmptyIsNoop(t *testing.T) {
	client, _ := newMockedClient(t)
	cache := NewContextCache(client, "test", logging.NewNopLogger())

	assert.NoError(t, cache.Invalidate(context.Background()))
}

func TestContextCache_InvalidateAll(t *testing.T) {
	client, mock := newMockedClient(t)
	cache := NewContextCache(client, "test", logging.NewNopLogger())

	mock.ExpectScan(0, "test:prevctx:*", 100).SetVal([]string{"test:prevctx:a", "test:prevctx:b"}, 0)
	mock.ExpectDel("test:prevctx:a", "test:prevctx:b").SetVal(2)

	assert.NoError(t, cache.InvalidateAll(context.Background()))
}

func TestContextCache_DefaultPrefix(t *testing.T) {
	client, mock := newMockedClient(t)
	cache := NewContextCache(client, "", logging.NewNopLogger())

	mock.ExpectGet("qiyas:prevctx:req-1").RedisNil()

	_, ok := cache.Get(context.Background(), common.ID("req-1"))
	assert.False(t, ok)
}
