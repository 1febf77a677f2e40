// internal/workers/chat/track-engagement/handler.go
package trackengagement

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "expo-chat-workers/internal/common/errors"
	"expo-chat-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "track-engagement"
)

var (
	ErrIndexFailed = errors.New("ENGAGEMENT_INDEX_FAILED")
)

// DocumentIndexer abstracts Elasticsearch indexing for tests.
type DocumentIndexer interface {
	Index(ctx context.Context, index string, body []byte) error
}

// ESIndexer adapts *elasticsearch.Client to DocumentIndexer.
type ESIndexer struct {
	Client *elasticsearch.Client
}

func (e *ESIndexer) Index(ctx context.Context, index string, body []byte) error {
	res, err := e.Client.Index(
		index,
		bytes.NewReader(body),
		e.Client.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index response: %s", res.Status())
	}
	return nil
}

type Handler struct {
	config  *Config
	indexer DocumentIndexer
	redis   *redis.Client
	logger  logger.Logger
}

// NewHandler wires engagement tracking. redisClient may be nil; the
// per-intent counters are then skipped.
func NewHandler(config *Config, indexer DocumentIndexer, redisClient *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		indexer: indexer,
		redis:   redisClient,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		bpmnErr := apperrors.ConvertToBPMNError(h.standardError(err))
		h.failJob(client, job, bpmnErr.Code, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

// standardError maps an execute failure onto the shared error taxonomy.
func (h *Handler) standardError(err error) *apperrors.StandardError {
	if errors.Is(err, ErrIndexFailed) {
		return apperrors.NewEngagementIndexFailedError(h.config.Index, err)
	}
	return apperrors.NewBusinessRuleError("Engagement tracking failed", err.Error())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	event := engagementEvent{
		EventID:    uuid.New().String(),
		SessionID:  input.SessionID,
		Intent:     input.Intent,
		Topic:      input.Topic,
		TemplateID: input.TemplateID,
		Fallback:   input.Fallback,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	if err := h.indexer.Index(ctx, h.config.Index, body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}

	count := h.bumpIntentCounter(ctx, input.Intent)

	return &Output{
		EventID:     event.EventID,
		IntentCount: count,
		IndexedAt:   event.OccurredAt,
	}, nil
}

// bumpIntentCounter maintains a rolling per-intent counter in redis for
// the live dashboard. Best effort: failures return 0 and never fail the
// job, the indexed event remains the source of truth.
func (h *Handler) bumpIntentCounter(ctx context.Context, intent string) int64 {
	if h.redis == nil || intent == "" {
		return 0
	}

	key := "chat:engagement:intent:" + intent
	count, err := h.redis.Incr(ctx, key).Result()
	if err != nil {
		h.logger.Warn("failed to bump intent counter", map[string]interface{}{
			"intent": intent,
			"error":  err,
		})
		return 0
	}
	if count == 1 {
		// First hit sets the expiry window.
		if err := h.redis.Expire(ctx, key, h.config.CounterTTL).Err(); err != nil {
			h.logger.Warn("failed to set counter expiry", map[string]interface{}{
				"intent": intent,
				"error":  err,
			})
		}
	}
	return count
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
