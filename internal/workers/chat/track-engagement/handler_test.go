// internal/workers/chat/track-engagement/handler_test.go
package trackengagement

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	apperrors "expo-chat-workers/internal/common/errors"
	"expo-chat-workers/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockIndexer struct {
	IndexFunc func(ctx context.Context, index string, body []byte) error

	lastIndex string
	lastBody  []byte
	calls     int
}

func (m *MockIndexer) Index(ctx context.Context, index string, body []byte) error {
	m.calls++
	m.lastIndex = index
	m.lastBody = body
	if m.IndexFunc != nil {
		return m.IndexFunc(ctx, index, body)
	}
	return nil
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Index:      "chat-engagement",
		CounterTTL: 24 * time.Hour,
		Timeout:    5 * time.Second,
	}
}

func createTestInput() *Input {
	return &Input{
		SessionID:  "session-001",
		Intent:     "sponsorship_cost",
		Topic:      "sponsorship",
		TemplateID: "sponsorship-cost",
	}
}

func newMiniredisClient(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_IndexesEvent(t *testing.T) {
	indexer := &MockIndexer{}
	handler := NewHandler(createTestConfig(), indexer, nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	require.NotNil(t, output)
	assert.NotEmpty(t, output.EventID)
	assert.Equal(t, "chat-engagement", indexer.lastIndex)
	assert.Equal(t, 1, indexer.calls)

	var event engagementEvent
	require.NoError(t, json.Unmarshal(indexer.lastBody, &event))
	assert.Equal(t, output.EventID, event.EventID)
	assert.Equal(t, "session-001", event.SessionID)
	assert.Equal(t, "sponsorship_cost", event.Intent)
	assert.Equal(t, "sponsorship", event.Topic)
	assert.Equal(t, "sponsorship-cost", event.TemplateID)

	_, err = time.Parse(time.RFC3339, event.OccurredAt)
	assert.NoError(t, err)
}

func TestHandler_Execute_IndexFailure(t *testing.T) {
	indexer := &MockIndexer{
		IndexFunc: func(ctx context.Context, index string, body []byte) error {
			return errors.New("cluster unavailable")
		},
	}
	handler := NewHandler(createTestConfig(), indexer, nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.ErrorIs(t, err, ErrIndexFailed)
	assert.Nil(t, output)

	bpmnErr := apperrors.ConvertToBPMNError(handler.standardError(err))
	assert.Equal(t, "ENGAGEMENT_INDEX_FAILED", bpmnErr.Code)
	assert.True(t, bpmnErr.Retryable)
	assert.Equal(t, 3, bpmnErr.Retries)
}

// ==========================
// Counter Tests
// ==========================

func TestHandler_Execute_BumpsIntentCounter(t *testing.T) {
	client := newMiniredisClient(t)
	handler := NewHandler(createTestConfig(), &MockIndexer{}, client, logger.NewTestLogger(t))

	first, err := handler.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.IntentCount)

	second, err := handler.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.IntentCount)

	ttl, err := client.TTL(context.Background(), "chat:engagement:intent:sponsorship_cost").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestHandler_Execute_CountersIsolatedPerIntent(t *testing.T) {
	client := newMiniredisClient(t)
	handler := NewHandler(createTestConfig(), &MockIndexer{}, client, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	other := createTestInput()
	other.Intent = "general_query"
	output, err := handler.Execute(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, int64(1), output.IntentCount)
}

func TestHandler_Execute_NoRedisClient(t *testing.T) {
	handler := NewHandler(createTestConfig(), &MockIndexer{}, nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, int64(0), output.IntentCount)
}

func TestHandler_Execute_RedisDownIsNonFatal(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	handler := NewHandler(createTestConfig(), &MockIndexer{}, client, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, int64(0), output.IntentCount)
	assert.NotEmpty(t, output.EventID)
}
