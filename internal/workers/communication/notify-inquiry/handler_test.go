// internal/workers/communication/notify-inquiry/handler_test.go
package notifyinquiry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "expo-chat-workers/internal/common/errors"
	"expo-chat-workers/internal/common/logger"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESClient struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)

	lastInput *ses.SendEmailInput
	calls     int
}

func (m *MockSESClient) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls++
	m.lastInput = params
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, params, optFns...)
	}
	return &ses.SendEmailOutput{}, nil
}

type MockSNSClient struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)

	lastInput *sns.PublishInput
	calls     int
}

func (m *MockSNSClient) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls++
	m.lastInput = params
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, params, optFns...)
	}
	return &sns.PublishOutput{}, nil
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		SalesTeamEmail:   "sales@horizontechexpo.com",
		SalesOnCallPhone: "+12065550100",
		FromEmail:        "noreply@horizontechexpo.com",
		EmailEnabled:     true,
		SMSEnabled:       true,
		Timeout:          5 * time.Second,
	}
}

func createTestHandler(t *testing.T, config *Config, sesClient SESService, snsClient SNSService) *Handler {
	return &Handler{
		config:    config,
		logger:    logger.NewTestLogger(t).WithFields(map[string]interface{}{"taskType": TaskType}),
		sesClient: sesClient,
		snsClient: snsClient,
	}
}

func createTestInput() *Input {
	return &Input{
		InquiryID:    "inquiry-001",
		CompanyName:  "Acme Corp",
		ContactEmail: "cto@acme.example",
		ContactPhone: "+12065550199",
		Intent:       "sponsorship_cost",
		Priority:     PriorityNormal,
		Message:      "Interested in the gold tier, what does it include?",
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_EmailNotification(t *testing.T) {
	sesClient := &MockSESClient{}
	snsClient := &MockSNSClient{}
	handler := createTestHandler(t, createTestConfig(), sesClient, snsClient)

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.Equal(t, []string{"email"}, output.Channels)
	assert.NotEmpty(t, output.NotificationID)
	assert.Equal(t, 1, sesClient.calls)
	assert.Equal(t, 0, snsClient.calls)

	sent := sesClient.lastInput
	assert.Equal(t, []string{"sales@horizontechexpo.com"}, sent.Destination.ToAddresses)
	assert.Equal(t, "noreply@horizontechexpo.com", *sent.Source)
	assert.Equal(t, []string{"cto@acme.example"}, sent.ReplyToAddresses)
	assert.Contains(t, *sent.Message.Subject.Data, "Acme Corp")
	assert.Contains(t, *sent.Message.Subject.Data, "sponsorship_cost")
	assert.Contains(t, *sent.Message.Body.Text.Data, "inquiry-001")
	assert.Contains(t, *sent.Message.Body.Text.Data, "gold tier")
}

func TestHandler_Execute_HighPriorityEscalatesToSMS(t *testing.T) {
	sesClient := &MockSESClient{}
	snsClient := &MockSNSClient{}
	handler := createTestHandler(t, createTestConfig(), sesClient, snsClient)

	input := createTestInput()
	input.Priority = PriorityHigh

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.Equal(t, []string{"email", "sms"}, output.Channels)
	assert.Equal(t, 1, snsClient.calls)

	assert.Equal(t, "+12065550100", *snsClient.lastInput.PhoneNumber)
	assert.Contains(t, *snsClient.lastInput.Message, "inquiry-001")
	assert.Contains(t, *snsClient.lastInput.Message, "Acme Corp")
}

func TestHandler_Execute_NormalPrioritySkipsSMS(t *testing.T) {
	snsClient := &MockSNSClient{}
	handler := createTestHandler(t, createTestConfig(), &MockSESClient{}, snsClient)

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.NotContains(t, output.Channels, "sms")
	assert.Equal(t, 0, snsClient.calls)
}

func TestHandler_Execute_AllChannelsDisabled(t *testing.T) {
	config := createTestConfig()
	config.EmailEnabled = false
	config.SMSEnabled = false
	handler := createTestHandler(t, config, &MockSESClient{}, &MockSNSClient{})

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, output.Status)
	assert.Empty(t, output.Channels)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_InvalidContactEmail(t *testing.T) {
	handler := createTestHandler(t, createTestConfig(), &MockSESClient{}, &MockSNSClient{})

	input := createTestInput()
	input.ContactEmail = "not-an-email"

	output, err := handler.Execute(context.Background(), input)

	assert.ErrorIs(t, err, ErrInvalidContact)
	assert.Nil(t, output)

	bpmnErr := apperrors.ConvertToBPMNError(handler.standardError(err))
	assert.Equal(t, "BUSINESS_RULE_VIOLATION", bpmnErr.Code)
	assert.Equal(t, 0, bpmnErr.Retries)
}

func TestHandler_StandardError_SendFailure(t *testing.T) {
	handler := createTestHandler(t, createTestConfig(), &MockSESClient{}, &MockSNSClient{})

	err := fmt.Errorf("%w: ses throttled", ErrNotificationSendFailed)
	bpmnErr := apperrors.ConvertToBPMNError(handler.standardError(err))

	assert.Equal(t, "NOTIFICATION_SEND_FAILED", bpmnErr.Code)
	assert.True(t, bpmnErr.Retryable)
	assert.Equal(t, 3, bpmnErr.Retries)
}

func TestHandler_Execute_MissingInquiryID(t *testing.T) {
	handler := createTestHandler(t, createTestConfig(), &MockSESClient{}, &MockSNSClient{})

	input := createTestInput()
	input.InquiryID = ""

	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.Nil(t, output)
}

func TestHandler_Execute_EmailFailure(t *testing.T) {
	sesClient := &MockSESClient{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("ses throttled")
		},
	}
	handler := createTestHandler(t, createTestConfig(), sesClient, &MockSNSClient{})

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, output.Status)
	assert.NotEmpty(t, output.NotificationID)
}

func TestHandler_Execute_SMSFailureAfterEmail(t *testing.T) {
	snsClient := &MockSNSClient{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("sns unavailable")
		},
	}
	handler := createTestHandler(t, createTestConfig(), &MockSESClient{}, snsClient)

	input := createTestInput()
	input.Priority = PriorityHigh

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, output.Status)
	assert.Equal(t, []string{"email"}, output.Channels)
}

// ==========================
// Audit Trail Tests
// ==========================

func TestHandler_Execute_RecordsNotification(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO notification_log`).
		WithArgs(sqlmock.AnyArg(), "inquiry-001", "email", StatusSent, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	handler := createTestHandler(t, createTestConfig(), &MockSESClient{}, &MockSNSClient{})
	handler.db = db

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_InsertFailureIsNonFatal(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO notification_log`).
		WillReturnError(assert.AnError)

	handler := createTestHandler(t, createTestConfig(), &MockSESClient{}, &MockSNSClient{})
	handler.db = db

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
