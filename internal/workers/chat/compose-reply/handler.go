// internal/workers/chat/compose-reply/handler.go
package composereply

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	apperrors "expo-chat-workers/internal/common/errors"
	"expo-chat-workers/internal/common/logger"
	"expo-chat-workers/internal/common/metrics"
	"expo-chat-workers/internal/knowledge"
	"expo-chat-workers/internal/knowledge/tree"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "compose-reply"
)

var (
	ErrMissingTemplate = errors.New("TEMPLATE_VALIDATION_FAILED")
)

// KnowledgeSource yields the composed knowledge tree replies are
// resolved against. Satisfied by *knowledge.Builder.
type KnowledgeSource interface {
	Build(ctx context.Context) tree.Tree
}

type Handler struct {
	config    *Config
	knowledge KnowledgeSource
	redis     *redis.Client
	logger    logger.Logger
}

// NewHandler wires the reply composer. redisClient may be nil; session
// history is then skipped.
func NewHandler(config *Config, source KnowledgeSource, redisClient *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		knowledge: source,
		redis:     redisClient,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	if errors.Is(err, ErrMissingTemplate) {
		return apperrors.NewTemplateValidationFailedError(err.Error())
	}
	return apperrors.NewBusinessRuleError("Reply composition failed", err.Error())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.TemplateText == "" {
		return nil, fmt.Errorf("%w: templateText is required", ErrMissingTemplate)
	}

	knowledgeTree := h.knowledge.Build(ctx)
	reply := knowledge.ResolveTemplate(input.TemplateText, knowledgeTree)

	truncated := false
	if h.config.MaxReplyLength > 0 && len(reply) > h.config.MaxReplyLength {
		// Back off to a rune boundary so the cut never splits a
		// multi-byte character.
		cut := h.config.MaxReplyLength
		for cut > 0 && !utf8.RuneStart(reply[cut]) {
			cut--
		}
		reply = reply[:cut]
		truncated = true
	}

	intent := input.Intent
	if intent == "" {
		intent = "unknown"
	}
	metrics.RepliesComposed.WithLabelValues(intent).Inc()

	h.storeSessionReply(ctx, input.SessionID, reply)

	return &Output{
		Reply:      reply,
		Truncated:  truncated,
		ComposedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// storeSessionReply keeps the latest reply per session so support staff
// can pick up a conversation mid-flight. Best effort: a redis outage
// never fails the job.
func (h *Handler) storeSessionReply(ctx context.Context, sessionID, reply string) {
	if h.redis == nil || sessionID == "" {
		return
	}

	key := "chat:session:" + sessionID + ":lastReply"
	if err := h.redis.Set(ctx, key, reply, h.config.SessionTTL).Err(); err != nil {
		h.logger.Warn("failed to store session reply", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err,
		})
	}
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
