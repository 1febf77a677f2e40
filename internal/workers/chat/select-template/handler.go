// internal/workers/chat/select-template/handler.go
package selecttemplate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "expo-chat-workers/internal/common/errors"
	"expo-chat-workers/internal/common/logger"
	"expo-chat-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "select-template"
)

var (
	ErrTemplateNotFound = errors.New("TEMPLATE_NOT_FOUND")
)

type Handler struct {
	config *Config
	logger logger.Logger

	mu       sync.RWMutex
	registry *registry.ReplyRegistry
	loadedAt time.Time
}

func NewHandler(config *Config, log logger.Logger) (*Handler, error) {
	reg, err := registry.LoadRegistry(config.RegistryPath)
	if err != nil {
		return nil, apperrors.NewRegistryLoadFailedError(err)
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reply registry: %w", err)
	}

	return &Handler{
		config:   config,
		registry: reg,
		loadedAt: time.Now(),
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}, nil
}

// loadRegistry returns the cached registry, re-reading the file once the
// configured TTL has passed so registry-updater edits go live without a
// restart. A failed or invalid reload keeps serving the last good
// registry.
func (h *Handler) loadRegistry() *registry.ReplyRegistry {
	h.mu.RLock()
	if h.config.CacheTTL <= 0 || time.Since(h.loadedAt) < h.config.CacheTTL {
		reg := h.registry
		h.mu.RUnlock()
		return reg
	}
	h.mu.RUnlock()

	reg, err := registry.LoadRegistry(h.config.RegistryPath)
	if err == nil {
		err = reg.Validate()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err != nil {
		h.logger.Warn("reply registry reload failed, keeping cached registry", map[string]interface{}{
			"path":  h.config.RegistryPath,
			"error": err,
		})
	} else {
		h.registry = reg
	}
	h.loadedAt = time.Now()

	return h.registry
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
		bpmnErr := apperrors.ConvertToBPMNError(h.standardError(err, &input))
		h.failJob(client, job, bpmnErr.Code, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

// standardError maps an execute failure onto the shared error taxonomy.
func (h *Handler) standardError(err error, input *Input) *apperrors.StandardError {
	if errors.Is(err, ErrTemplateNotFound) {
		return apperrors.NewTemplateNotFoundError(fmt.Sprintf("%s/%s", input.Intent, input.Topic))
	}
	return apperrors.NewBusinessRuleError("Template selection failed", err.Error())
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	reg := h.loadRegistry()

	if tmpl, ok := reg.Select(input.Intent, input.Topic); ok {
		return &Output{
			TemplateID:      tmpl.ID,
			TemplateText:    tmpl.Text,
			TemplateVersion: tmpl.Version,
		}, nil
	}

	// Unknown intents route to the configured fallback intent before
	// giving up entirely.
	if input.Intent != h.config.FallbackIntent {
		if tmpl, ok := reg.Select(h.config.FallbackIntent, input.Topic); ok {
			h.logger.Warn("no template for intent, using fallback", map[string]interface{}{
				"intent":     input.Intent,
				"topic":      input.Topic,
				"templateId": tmpl.ID,
			})
			return &Output{
				TemplateID:      tmpl.ID,
				TemplateText:    tmpl.Text,
				TemplateVersion: tmpl.Version,
				FallbackUsed:    true,
			}, nil
		}
	}

	return nil, fmt.Errorf("%w: intent=%s topic=%s", ErrTemplateNotFound, input.Intent, input.Topic)
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
