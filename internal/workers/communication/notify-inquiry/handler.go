// internal/workers/communication/notify-inquiry/handler.go
package notifyinquiry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	awsclients "expo-chat-workers/internal/common/aws"
	apperrors "expo-chat-workers/internal/common/errors"
	"expo-chat-workers/internal/common/logger"
	"expo-chat-workers/internal/common/validation"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "notify-inquiry"
)

var (
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
	ErrInvalidContact         = errors.New("invalid contact email")
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config    *Config
	db        *sql.DB
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) (*Handler, error) {
	ctx := context.Background()

	sesClient, err := awsclients.NewSESClient(ctx, config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("create SES client: %w", err)
	}
	snsClient, err := awsclients.NewSNSClient(ctx, config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("create SNS client: %w", err)
	}

	return &Handler{
		config:    config,
		db:        db,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
		sesClient: sesClient,
		snsClient: snsClient,
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
	if errors.Is(err, ErrInvalidContact) {
		return apperrors.NewBusinessRuleError("Inquiry contact failed validation", err.Error())
	}
	if errors.Is(err, ErrNotificationSendFailed) {
		return apperrors.NewNotificationSendFailedError("email", err)
	}
	return apperrors.NewBusinessRuleError("Inquiry notification rejected", err.Error())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.InquiryID == "" {
		return nil, fmt.Errorf("inquiryId is required")
	}
	if !validation.ValidateEmail(input.ContactEmail) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidContact, input.ContactEmail)
	}

	subject, body := h.renderNotification(input)

	sentAt := time.Now().UTC().Format(time.RFC3339)
	notificationID := uuid.New().String()

	var channels []string

	if h.config.EmailEnabled && h.config.SalesTeamEmail != "" {
		if err := h.sendEmail(ctx, h.config.SalesTeamEmail, input.ContactEmail, subject, body); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error":     err,
				"inquiryId": input.InquiryID,
			})
			h.recordNotification(ctx, notificationID, input.InquiryID, channels, StatusFailed, sentAt)
			return &Output{NotificationID: notificationID, Status: StatusFailed, SentAt: sentAt}, nil
		}
		channels = append(channels, "email")
	}

	// High-priority inquiries also page the on-call sales phone.
	if h.config.SMSEnabled && input.Priority == PriorityHigh && validation.ValidatePhone(h.config.SalesOnCallPhone) {
		if err := h.sendSMS(ctx, h.config.SalesOnCallPhone, h.smsSummary(input)); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error":     err,
				"inquiryId": input.InquiryID,
			})
			h.recordNotification(ctx, notificationID, input.InquiryID, channels, StatusFailed, sentAt)
			return &Output{NotificationID: notificationID, Status: StatusFailed, Channels: channels, SentAt: sentAt}, nil
		}
		channels = append(channels, "sms")
	}

	status := StatusDisabled
	if len(channels) > 0 {
		status = StatusSent
	}

	h.recordNotification(ctx, notificationID, input.InquiryID, channels, status, sentAt)

	return &Output{
		NotificationID: notificationID,
		Status:         status,
		Channels:       channels,
		SentAt:         sentAt,
	}, nil
}

func (h *Handler) renderNotification(input *Input) (string, string) {
	data := map[string]interface{}{
		"inquiryId":    input.InquiryID,
		"companyName":  input.CompanyName,
		"contactEmail": input.ContactEmail,
		"contactPhone": input.ContactPhone,
		"intent":       input.Intent,
		"priority":     input.Priority,
		"message":      input.Message,
	}
	for k, v := range input.Metadata {
		data[k] = v
	}

	subject := renderTemplate("New sponsor inquiry from {{companyName}} ({{intent}})", data)
	body := renderTemplate(
		"Inquiry {{inquiryId}} from {{companyName}}.\n"+
			"Contact: {{contactEmail}} {{contactPhone}}\n"+
			"Intent: {{intent}}, priority: {{priority}}\n\n"+
			"{{message}}",
		data,
	)
	return subject, body
}

func (h *Handler) smsSummary(input *Input) string {
	return renderTemplate("High priority inquiry {{inquiryId}} from {{companyName}} ({{intent}}). Check email.",
		map[string]interface{}{
			"inquiryId":   input.InquiryID,
			"companyName": input.CompanyName,
			"intent":      input.Intent,
		})
}

func (h *Handler) sendEmail(ctx context.Context, to, replyTo, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source:           aws.String(h.config.FromEmail),
		ReplyToAddresses: []string{replyTo},
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

// recordNotification keeps the audit trail. Best effort: a failed insert
// never fails the job, the notification already went out.
func (h *Handler) recordNotification(ctx context.Context, id, inquiryID string, channels []string, status, sentAt string) {
	if h.db == nil {
		return
	}

	_, err := h.db.ExecContext(ctx, `
		INSERT INTO notification_log (id, inquiry_id, channels, status, sent_at)
		VALUES ($1, $2, $3, $4, $5)`,
		id, inquiryID, strings.Join(channels, ","), status, sentAt)
	if err != nil {
		h.logger.Warn("failed to record notification", map[string]interface{}{
			"notificationId": id,
			"error":          err,
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

// Simplified template rendering with placeholder removal for missing values
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// Remove any remaining placeholders (missing values)
	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
