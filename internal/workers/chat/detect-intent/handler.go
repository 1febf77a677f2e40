// internal/workers/chat/detect-intent/handler.go
package detectintent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "expo-chat-workers/internal/common/errors"
	"expo-chat-workers/internal/common/logger"
	"expo-chat-workers/internal/knowledge"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "detect-intent"
)

var (
	ErrEmptyMessage = errors.New("EMPTY_MESSAGE")
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	if errors.Is(err, ErrEmptyMessage) {
		return apperrors.NewEmptyMessageError()
	}
	return apperrors.NewBusinessRuleError("Intent detection failed", err.Error())
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, fmt.Errorf("%w: sessionId %s", ErrEmptyMessage, input.SessionID)
	}

	result := knowledge.DetectIntent(input.Message)
	keyword := knowledge.MatchedKeyword(input.Message)

	h.logger.Debug("message classified", map[string]interface{}{
		"sessionId": input.SessionID,
		"intent":    result.Intent,
		"topic":     result.Topic,
		"keyword":   keyword,
	})

	return &Output{
		Intent:         result.Intent,
		Topic:          result.Topic,
		MatchedKeyword: keyword,
		DetectedAt:     time.Now().UTC().Format(time.RFC3339),
	}, nil
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
