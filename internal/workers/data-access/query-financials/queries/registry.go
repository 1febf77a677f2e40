// internal/workers/data-access/query-financials/queries/registry.go
package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrMissingParam     = errors.New("missing required parameter")
	ErrUnknownQueryType = errors.New("unknown query type")
)

type QueryType string

const (
	QueryTypeSponsorshipRevenue QueryType = "sponsorship_revenue"
	QueryTypeTicketSales        QueryType = "ticket_sales"
	QueryTypeInquiryVolume      QueryType = "inquiry_volume"
	QueryTypeSponsorPipeline    QueryType = "sponsor_pipeline"
)

// QueryFunc returns: data, rowCount, executionTime (ms), error
type QueryFunc func(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error)

var Registry = map[QueryType]QueryFunc{
	QueryTypeSponsorshipRevenue: SponsorshipRevenue,
	QueryTypeTicketSales:        TicketSales,
	QueryTypeInquiryVolume:      InquiryVolume,
	QueryTypeSponsorPipeline:    SponsorPipeline,
}

func Execute(ctx context.Context, db *sql.DB, queryType QueryType, params map[string]interface{}) (interface{}, int, int64, error) {
	fn, exists := Registry[queryType]
	if !exists {
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrUnknownQueryType, queryType)
	}
	return fn(ctx, db, params)
}
