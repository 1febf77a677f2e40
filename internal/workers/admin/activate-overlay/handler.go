// internal/workers/admin/activate-overlay/handler.go
package activateoverlay

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	apperrors "expo-chat-workers/internal/common/errors"
	"expo-chat-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

const (
	TaskType = "activate-overlay"
)

var (
	ErrValidationFailed = errors.New("OVERLAY_VALIDATION_FAILED")
	ErrActivationFailed = errors.New("OVERLAY_ACTIVATION_FAILED")
)

// Invalidator drops cached overlay state after an activation so the
// next knowledge build sees the new overlay immediately.
type Invalidator interface {
	Invalidate()
}

type Handler struct {
	config      *Config
	db          *sql.DB
	schema      *gojsonschema.Schema
	invalidator Invalidator
	logger      logger.Logger
}

// NewHandler wires overlay activation. invalidator may be nil when no
// loader cache is running in this process.
func NewHandler(config *Config, db *sql.DB, invalidator Invalidator, log logger.Logger) (*Handler, error) {
	var schema *gojsonschema.Schema
	if config.SchemaPath != "" {
		raw, err := os.ReadFile(config.SchemaPath)
		if err != nil {
			return nil, fmt.Errorf("read overlay schema: %w", err)
		}
		schema, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compile overlay schema: %w", err)
		}
	}

	return &Handler{
		config:      config,
		db:          db,
		schema:      schema,
		invalidator: invalidator,
		logger:      log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}, nil
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
	if errors.Is(err, ErrValidationFailed) {
		return apperrors.NewOverlayValidationFailedError(err.Error())
	}
	return apperrors.NewOverlayActivationFailedError(err)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := h.validateOverlay(input.Overlay); err != nil {
		return nil, err
	}

	overlayID := uuid.New().String()
	activatedAt := time.Now().UTC()

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", ErrActivationFailed, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE knowledge_overlays SET is_active = FALSE WHERE is_active = TRUE`)
	if err != nil {
		return nil, fmt.Errorf("%w: deactivate: %v", ErrActivationFailed, err)
	}
	deactivated, _ := res.RowsAffected()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO knowledge_overlays (id, overlay, is_active, updated_by, comment, updated_at)
		VALUES ($1, $2, TRUE, $3, $4, $5)`,
		overlayID, string(input.Overlay), input.UpdatedBy, input.Comment, activatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: insert: %v", ErrActivationFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", ErrActivationFailed, err)
	}

	if h.invalidator != nil {
		h.invalidator.Invalidate()
	}

	h.logger.Info("overlay activated", map[string]interface{}{
		"overlayId":   overlayID,
		"deactivated": deactivated,
		"updatedBy":   input.UpdatedBy,
	})

	return &Output{
		OverlayID:   overlayID,
		ActivatedAt: activatedAt.Format(time.RFC3339),
		Deactivated: int(deactivated),
	}, nil
}

func (h *Handler) validateOverlay(overlay json.RawMessage) error {
	if len(overlay) == 0 {
		return fmt.Errorf("%w: overlay is required", ErrValidationFailed)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(overlay, &parsed); err != nil {
		return fmt.Errorf("%w: overlay must be a JSON object: %v", ErrValidationFailed, err)
	}

	if h.schema == nil {
		return nil
	}

	result, err := h.schema.Validate(gojsonschema.NewBytesLoader(overlay))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(msgs, "; "))
	}
	return nil
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
