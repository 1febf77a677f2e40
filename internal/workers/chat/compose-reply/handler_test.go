// internal/workers/chat/compose-reply/handler_test.go
package composereply

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	apperrors "expo-chat-workers/internal/common/errors"
	"expo-chat-workers/internal/common/logger"
	"expo-chat-workers/internal/knowledge/tree"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type stubKnowledge struct {
	tree tree.Tree
}

func (s *stubKnowledge) Build(_ context.Context) tree.Tree {
	return s.tree
}

func testKnowledgeTree() tree.Tree {
	return tree.Tree{
		"event": tree.Tree{
			"name":  "Horizon Tech Expo 2026",
			"dates": "August 7-8, 2026",
		},
		"tickets": tree.Tree{"general": float64(299)},
	}
}

func createTestHandler(t *testing.T) *Handler {
	return NewHandler(
		&Config{MaxReplyLength: 2000, SessionTTL: 30 * time.Minute, Timeout: 5 * time.Second},
		&stubKnowledge{tree: testKnowledgeTree()},
		nil,
		logger.NewTestLogger(t),
	)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name     string
		template string
		expected string
	}{
		{
			name:     "resolves knowledge markers",
			template: "The expo runs [get:event.dates].",
			expected: "The expo runs August 7-8, 2026.",
		},
		{
			name:     "numeric value",
			template: "General admission: $[get:tickets.general]",
			expected: "General admission: $299",
		},
		{
			name:     "missing path keeps readable placeholder",
			template: "Parking: [get:venue.parking]",
			expected: "Parking: [Data for venue.parking not found]",
		},
		{
			name:     "plain template passes through",
			template: "Thanks for reaching out!",
			expected: "Thanks for reaching out!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := createTestHandler(t)

			output, err := handler.Execute(context.Background(), &Input{
				TemplateText: tt.template,
				Intent:       "general_query",
			})

			require.NoError(t, err)
			require.NotNil(t, output)
			assert.Equal(t, tt.expected, output.Reply)
			assert.False(t, output.Truncated)

			_, err = time.Parse(time.RFC3339, output.ComposedAt)
			assert.NoError(t, err)
		})
	}
}

func TestHandler_Execute_MissingTemplate(t *testing.T) {
	handler := createTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{TemplateText: ""})

	assert.ErrorIs(t, err, ErrMissingTemplate)
	assert.Nil(t, output)

	bpmnErr := apperrors.ConvertToBPMNError(handler.standardError(err))
	assert.Equal(t, "TEMPLATE_VALIDATION_FAILED", bpmnErr.Code)
	assert.False(t, bpmnErr.Retryable)
}

func TestHandler_Execute_TruncatesLongReply(t *testing.T) {
	handler := NewHandler(
		&Config{MaxReplyLength: 20, SessionTTL: time.Minute, Timeout: 5 * time.Second},
		&stubKnowledge{tree: testKnowledgeTree()},
		nil,
		logger.NewTestLogger(t),
	)

	output, err := handler.Execute(context.Background(), &Input{
		TemplateText: strings.Repeat("expo ", 20),
	})

	require.NoError(t, err)
	assert.Len(t, output.Reply, 20)
	assert.True(t, output.Truncated)
}

func TestHandler_Execute_TruncationKeepsRuneBoundary(t *testing.T) {
	// "für" puts a two-byte rune across the 6-byte limit; the cut must
	// back off rather than emit half a rune.
	handler := NewHandler(
		&Config{MaxReplyLength: 6, SessionTTL: time.Minute, Timeout: 5 * time.Second},
		&stubKnowledge{tree: tree.Tree{}},
		nil,
		logger.NewTestLogger(t),
	)

	output, err := handler.Execute(context.Background(), &Input{
		TemplateText: "Tag für Sponsoren",
	})

	require.NoError(t, err)
	assert.True(t, output.Truncated)
	assert.True(t, utf8.ValidString(output.Reply))
	assert.Equal(t, "Tag f", output.Reply)
}

// ==========================
// Session History Tests
// ==========================

func TestHandler_Execute_StoresSessionReply(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectSet("chat:session:session-001:lastReply", "The expo runs August 7-8, 2026.", 30*time.Minute).
		SetVal("OK")

	handler := NewHandler(
		&Config{MaxReplyLength: 2000, SessionTTL: 30 * time.Minute, Timeout: 5 * time.Second},
		&stubKnowledge{tree: testKnowledgeTree()},
		db,
		logger.NewTestLogger(t),
	)

	output, err := handler.Execute(context.Background(), &Input{
		TemplateText: "The expo runs [get:event.dates].",
		SessionID:    "session-001",
	})

	require.NoError(t, err)
	assert.Equal(t, "The expo runs August 7-8, 2026.", output.Reply)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_RedisFailureIsNonFatal(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectSet("chat:session:session-002:lastReply", "Hello", time.Minute).
		SetErr(assert.AnError)

	handler := NewHandler(
		&Config{MaxReplyLength: 2000, SessionTTL: time.Minute, Timeout: 5 * time.Second},
		&stubKnowledge{tree: tree.Tree{}},
		db,
		logger.NewTestLogger(t),
	)

	output, err := handler.Execute(context.Background(), &Input{
		TemplateText: "Hello",
		SessionID:    "session-002",
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello", output.Reply)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_NoSessionSkipsRedis(t *testing.T) {
	db, mock := redismock.NewClientMock()

	handler := NewHandler(
		&Config{MaxReplyLength: 2000, SessionTTL: time.Minute, Timeout: 5 * time.Second},
		&stubKnowledge{tree: tree.Tree{}},
		db,
		logger.NewTestLogger(t),
	)

	_, err := handler.Execute(context.Background(), &Input{TemplateText: "Hello"})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
