// internal/workers/data-access/query-financials/handler_test.go
package queryfinancials

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "expo-chat-workers/internal/common/errors"
	"expo-chat-workers/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:  5 * time.Second,
		CacheTTL: time.Minute,
	}
}

func newMiniredisClient(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func expectRevenueQuery(mock sqlmock.Sqlmock) {
	rows := sqlmock.NewRows([]string{"tier", "deals", "revenue"}).
		AddRow("platinum", 2, 100000.0).
		AddRow("gold", 5, 75000.0)
	mock.ExpectQuery(`SELECT tier, COUNT\(\*\) AS deals, COALESCE\(SUM\(amount\), 0\) AS revenue FROM sponsorship_deals`).
		WillReturnRows(rows)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name           string
		input          *Input
		mockQuery      func(mock sqlmock.Sqlmock)
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:      "sponsorship revenue by tier",
			input:     &Input{QueryType: string(QueryTypeSponsorshipRevenue)},
			mockQuery: expectRevenueQuery,
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 2, output.RowCount)
				assert.GreaterOrEqual(t, output.QueryExecutionTime, int64(0))

				data := output.Data.([]map[string]interface{})
				assert.Equal(t, "platinum", data[0]["tier"])
				assert.Equal(t, 100000.0, data[0]["revenue"])
			},
		},
		{
			name:  "ticket sales by type",
			input: &Input{QueryType: string(QueryTypeTicketSales)},
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"ticket_type", "sold", "revenue"}).
					AddRow("general", 120, 35880.0).
					AddRow("vip", 18, 13482.0)
				mock.ExpectQuery(`SELECT ticket_type, COUNT\(\*\) AS sold, COALESCE\(SUM\(price\), 0\) AS revenue FROM ticket_orders`).
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 2, output.RowCount)

				data := output.Data.([]map[string]interface{})
				assert.Equal(t, "general", data[0]["ticketType"])
				assert.Equal(t, 120, data[0]["sold"])
			},
		},
		{
			name:  "inquiry volume by intent",
			input: &Input{QueryType: string(QueryTypeInquiryVolume)},
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"intent", "inquiries"}).
					AddRow("sponsorship_cost", 42)
				mock.ExpectQuery(`SELECT intent, COUNT\(\*\) AS inquiries FROM sponsor_inquiries`).
					WithArgs(7).
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)

				data := output.Data.([]map[string]interface{})
				assert.Equal(t, "sponsorship_cost", data[0]["intent"])
			},
		},
		{
			name:  "sponsor pipeline for company",
			input: &Input{QueryType: string(QueryTypeSponsorPipeline), CompanyID: "Acme Corp"},
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "company", "tier", "status", "amount", "updated_at"}).
					AddRow("deal-1", "Acme Corp", "gold", "negotiating", 15000.0, "2026-08-01")
				mock.ExpectQuery(`SELECT id, company, tier, status, amount, updated_at FROM sponsorship_deals WHERE company = \$1`).
					WithArgs("Acme Corp").
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)

				data := output.Data.(map[string]interface{})
				assert.Equal(t, "gold", data["tier"])
				assert.Equal(t, "negotiating", data["status"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mockQuery(mock)

			handler := NewHandler(createTestConfig(), db, nil, logger.NewTestLogger(t))

			output, err := handler.Execute(context.Background(), tt.input)

			require.NoError(t, err)
			require.NotNil(t, output)
			assert.False(t, output.CacheHit)
			tt.validateOutput(t, output)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_InvalidQueryType(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	handler := NewHandler(createTestConfig(), db, nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{QueryType: "everything"})

	assert.ErrorIs(t, err, ErrInvalidQueryType)
	assert.Nil(t, output)
}

func TestHandler_Execute_QueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT tier`).WillReturnError(assert.AnError)

	handler := NewHandler(createTestConfig(), db, nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType: string(QueryTypeSponsorshipRevenue),
	})

	assert.ErrorIs(t, err, ErrQueryExecutionFailed)
	assert.Nil(t, output)
}

func TestHandler_Execute_NilInput(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	handler := NewHandler(createTestConfig(), db, nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), nil)

	assert.Error(t, err)
	assert.Nil(t, output)
}

func TestHandler_StandardError_Mapping(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, nil, logger.NewNoOpLogger())
	input := &Input{QueryType: "ticket_sales"}

	tests := []struct {
		name         string
		err          error
		expectedCode string
		retries      int
	}{
		{"timeout", ErrQueryTimeout, "QUERY_TIMEOUT", 2},
		{"invalid query type", ErrInvalidQueryType, "INVALID_QUERY_TYPE", 0},
		{"connection failure", ErrDatabaseConnectionFailed, "DATABASE_CONNECTION_FAILED", 3},
		{"execution failure", ErrQueryExecutionFailed, "QUERY_EXECUTION_FAILED", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := apperrors.ConvertToBPMNError(handler.standardError(tt.err, input))
			assert.Equal(t, tt.expectedCode, bpmnErr.Code)
			assert.Equal(t, tt.retries, bpmnErr.Retries)
		})
	}
}

// ==========================
// Cache Tests
// ==========================

func TestHandler_Execute_CachesResults(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// One DB round trip only, the second call must come from cache.
	expectRevenueQuery(mock)

	client := newMiniredisClient(t)
	handler := NewHandler(createTestConfig(), db, client, logger.NewTestLogger(t))
	input := &Input{QueryType: string(QueryTypeSponsorshipRevenue)}

	first, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Equal(t, 2, first.RowCount)

	second, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, 2, second.RowCount)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_CacheDisabled(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectRevenueQuery(mock)
	expectRevenueQuery(mock)

	client := newMiniredisClient(t)
	handler := NewHandler(
		&Config{Timeout: 5 * time.Second, CacheTTL: 0},
		db, client, logger.NewTestLogger(t),
	)
	input := &Input{QueryType: string(QueryTypeSponsorshipRevenue)}

	first, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, second.CacheHit)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_CacheKeyIncludesCompany(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, nil, logger.NewTestLogger(t))

	base := handler.cacheKey(&Input{QueryType: string(QueryTypeSponsorPipeline)})
	scoped := handler.cacheKey(&Input{QueryType: string(QueryTypeSponsorPipeline), CompanyID: "Acme Corp"})

	assert.Equal(t, "financials:sponsor_pipeline", base)
	assert.Equal(t, "financials:sponsor_pipeline:Acme Corp", scoped)
}
