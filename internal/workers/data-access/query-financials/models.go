// internal/workers/data-access/query-financials/models.go
package queryfinancials

import "expo-chat-workers/internal/workers/data-access/query-financials/queries"

type Input struct {
	QueryType string                 `json:"queryType"`
	CompanyID string                 `json:"companyId,omitempty"`
	Params    map[string]interface{} `json:"params,omitempty"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
	CacheHit           bool        `json:"cacheHit"`
}

type QueryType = queries.QueryType

var (
	QueryTypeSponsorshipRevenue = queries.QueryTypeSponsorshipRevenue
	QueryTypeTicketSales        = queries.QueryTypeTicketSales
	QueryTypeInquiryVolume      = queries.QueryTypeInquiryVolume
	QueryTypeSponsorPipeline    = queries.QueryTypeSponsorPipeline
)
