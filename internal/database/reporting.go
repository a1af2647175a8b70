package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Read-only projections over purchases ⋈ ticket ⋈ flight. These add no
// invariants of their own; callers are responsible for passing an identity
// they are allowed to report on.

const purchaseRecordColumns = `p.ticket_id, p.customer_email, p.purchase_date,
		       f.airline_name, f.flight_num, f.departure_airport, f.arrival_airport,
		       f.departure_time, f.arrival_time, f.price, f.status`

func collectPurchaseRecords(rows pgx.Rows) ([]PurchaseRecord, error) {
	var records []PurchaseRecord
	for rows.Next() {
		var rec PurchaseRecord
		err := rows.Scan(
			&rec.TicketID, &rec.CustomerEmail, &rec.PurchaseDate,
			&rec.AirlineName, &rec.FlightNum, &rec.DepartureAirport, &rec.ArrivalAirport,
			&rec.DepartureTime, &rec.ArrivalTime, &rec.Price, &rec.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read purchase records: %w", err)
	}
	return records, nil
}

// PurchasesByCustomer returns all purchases made by or for a customer
func (r *Repository) PurchasesByCustomer(ctx context.Context, email string) ([]PurchaseRecord, error) {
	query := `
		SELECT ` + purchaseRecordColumns + `
		FROM purchases p
		JOIN ticket t ON p.ticket_id = t.ticket_id
		JOIN flight f ON t.airline_name = f.airline_name AND t.flight_num = f.flight_num
		WHERE p.customer_email = $1
		ORDER BY p.purchase_date DESC, p.ticket_id DESC
	`

	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer purchases: %w", err)
	}
	defer rows.Close()

	return collectPurchaseRecords(rows)
}

// PurchasesByAgent returns all purchases an agent made on behalf of customers
func (r *Repository) PurchasesByAgent(ctx context.Context, agentEmail string) ([]PurchaseRecord, error) {
	query := `
		SELECT ` + purchaseRecordColumns + `
		FROM purchases p
		JOIN ticket t ON p.ticket_id = t.ticket_id
		JOIN flight f ON t.airline_name = f.airline_name AND t.flight_num = f.flight_num
		WHERE p.booking_agent_email = $1
		ORDER BY p.purchase_date DESC, p.ticket_id DESC
	`

	rows, err := r.pool.Query(ctx, query, agentEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to query agent purchases: %w", err)
	}
	defer rows.Close()

	return collectPurchaseRecords(rows)
}

// UpcomingFlightsForCustomer returns flights the customer holds tickets for
// that have not yet departed
func (r *Repository) UpcomingFlightsForCustomer(ctx context.Context, email string) ([]Flight, error) {
	query := `
		SELECT DISTINCT f.airline_name, f.flight_num, f.departure_airport, f.arrival_airport,
		       f.departure_time, f.arrival_time, f.price, f.status, f.airplane_id
		FROM flight f
		JOIN ticket t ON f.airline_name = t.airline_name AND f.flight_num = t.flight_num
		JOIN purchases p ON t.ticket_id = p.ticket_id
		WHERE p.customer_email = $1 AND f.departure_time > NOW()
		ORDER BY f.departure_time ASC
	`

	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming flights: %w", err)
	}
	defer rows.Close()

	return collectFlights(rows)
}

// CommissionReport summarizes an agent's earnings over a date range.
type CommissionReport struct {
	Total       float64 `json:"total"`
	TicketCount int     `json:"ticketCount"`
}

// AgentCommission totals the agent's commission (10% of ticket price) over
// purchases in [since, until]
func (r *Repository) AgentCommission(ctx context.Context, agentEmail string, since, until time.Time) (*CommissionReport, error) {
	query := `
		SELECT COALESCE(SUM(f.price), 0) * 0.10, COUNT(p.ticket_id)
		FROM purchases p
		JOIN ticket t ON p.ticket_id = t.ticket_id
		JOIN flight f ON t.airline_name = f.airline_name AND t.flight_num = f.flight_num
		WHERE p.booking_agent_email = $1
		  AND p.purchase_date BETWEEN $2 AND $3
	`

	var report CommissionReport
	err := r.pool.QueryRow(ctx, query, agentEmail, since, until).Scan(&report.Total, &report.TicketCount)
	if err != nil {
		return nil, fmt.Errorf("failed to query commission: %w", err)
	}

	return &report, nil
}

// TopCustomersForAgent returns the agent's customers ranked by tickets bought
func (r *Repository) TopCustomersForAgent(ctx context.Context, agentEmail string, limit int) ([]CustomerTicketCount, error) {
	query := `
		SELECT p.customer_email, COUNT(p.ticket_id)
		FROM purchases p
		WHERE p.booking_agent_email = $1
		GROUP BY p.customer_email
		ORDER BY COUNT(p.ticket_id) DESC, p.customer_email ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, agentEmail, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top customers: %w", err)
	}
	defer rows.Close()

	var counts []CustomerTicketCount
	for rows.Next() {
		var c CustomerTicketCount
		if err := rows.Scan(&c.CustomerEmail, &c.TicketCount); err != nil {
			return nil, fmt.Errorf("failed to scan top customer: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read top customers: %w", err)
	}

	return counts, nil
}

// TopDestinationsForAirline returns an airline's arrival airports ranked by
// tickets sold
func (r *Repository) TopDestinationsForAirline(ctx context.Context, airline string, limit int) ([]DestinationCount, error) {
	query := `
		SELECT f.arrival_airport, COUNT(t.ticket_id)
		FROM ticket t
		JOIN flight f ON t.airline_name = f.airline_name AND t.flight_num = f.flight_num
		WHERE f.airline_name = $1
		GROUP BY f.arrival_airport
		ORDER BY COUNT(t.ticket_id) DESC, f.arrival_airport ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, airline, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top destinations: %w", err)
	}
	defer rows.Close()

	var counts []DestinationCount
	for rows.Next() {
		var d DestinationCount
		if err := rows.Scan(&d.ArrivalAirport, &d.TicketCount); err != nil {
			return nil, fmt.Errorf("failed to scan destination: %w", err)
		}
		counts = append(counts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read top destinations: %w", err)
	}

	return counts, nil
}
