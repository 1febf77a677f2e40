// internal/workers/data-access/query-financials/queries/financials.go
package queries

import (
	"context"
	"database/sql"
	"time"
)

func SponsorshipRevenue(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT tier, COUNT(*) AS deals, COALESCE(SUM(amount), 0) AS revenue
		FROM sponsorship_deals
		WHERE status = 'signed'
		GROUP BY tier
		ORDER BY revenue DESC`)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var tier string
		var deals int
		var revenue float64
		if err := rows.Scan(&tier, &deals, &revenue); err != nil {
			return nil, 0, 0, err
		}
		results = append(results, map[string]interface{}{
			"tier":    tier,
			"deals":   deals,
			"revenue": revenue,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}

func TicketSales(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT ticket_type, COUNT(*) AS sold, COALESCE(SUM(price), 0) AS revenue
		FROM ticket_orders
		WHERE status = 'paid'
		GROUP BY ticket_type
		ORDER BY ticket_type`)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var ticketType string
		var sold int
		var revenue float64
		if err := rows.Scan(&ticketType, &sold, &revenue); err != nil {
			return nil, 0, 0, err
		}
		results = append(results, map[string]interface{}{
			"ticketType": ticketType,
			"sold":       sold,
			"revenue":    revenue,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}

func InquiryVolume(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	days := 7
	if d, ok := params["days"].(float64); ok && d > 0 {
		days = int(d)
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT intent, COUNT(*) AS inquiries
		FROM sponsor_inquiries
		WHERE created_at >= NOW() - ($1 || ' days')::interval
		GROUP BY intent
		ORDER BY inquiries DESC`, days)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var intent string
		var inquiries int
		if err := rows.Scan(&intent, &inquiries); err != nil {
			return nil, 0, 0, err
		}
		results = append(results, map[string]interface{}{
			"intent":    intent,
			"inquiries": inquiries,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}

func SponsorPipeline(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	companyID, ok := params["companyId"].(string)
	if !ok || companyID == "" {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	var id, company, tier, status string
	var amount float64
	var updatedAt string

	err := db.QueryRowContext(ctx, `
		SELECT id, company, tier, status, amount, updated_at
		FROM sponsorship_deals
		WHERE company = $1
		ORDER BY updated_at DESC
		LIMIT 1`, companyID).Scan(
		&id, &company, &tier, &status, &amount, &updatedAt,
	)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"id":        id,
		"company":   company,
		"tier":      tier,
		"status":    status,
		"amount":    amount,
		"updatedAt": updatedAt,
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}
