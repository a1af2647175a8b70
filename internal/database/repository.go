package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cx-tal-miterani/airline-reservation/internal/auth"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

const uniqueViolation = "23505"

// Repository handles all database operations
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// --- Principal Operations ---

// GetCustomerByEmail returns a customer by email
func (r *Repository) GetCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	query := `
		SELECT email, name, password_hash, building_number, street, city, state,
		       phone_number, passport_number, passport_expiration, passport_country, date_of_birth
		FROM customer
		WHERE email = $1
	`

	var c Customer
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&c.Email, &c.Name, &c.PasswordHash, &c.BuildingNumber, &c.Street,
		&c.City, &c.State, &c.PhoneNumber, &c.PassportNumber,
		&c.PassportExpiration, &c.PassportCountry, &c.DateOfBirth,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return &c, nil
}

// GetAgentByEmail returns a booking agent by email
func (r *Repository) GetAgentByEmail(ctx context.Context, email string) (*BookingAgent, error) {
	query := `
		SELECT email, password_hash, booking_agent_id, airline_name
		FROM booking_agent
		WHERE email = $1
	`

	var a BookingAgent
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&a.Email, &a.PasswordHash, &a.BookingAgentID, &a.Airline,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking agent: %w", err)
	}

	return &a, nil
}

// GetStaffByUsername returns an airline staff member by username
func (r *Repository) GetStaffByUsername(ctx context.Context, username string) (*AirlineStaff, error) {
	query := `
		SELECT username, password_hash, first_name, last_name, date_of_birth, airline_name
		FROM airline_staff
		WHERE username = $1
	`

	var s AirlineStaff
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&s.Username, &s.PasswordHash, &s.FirstName, &s.LastName, &s.DateOfBirth, &s.Airline,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get airline staff: %w", err)
	}

	return &s, nil
}

// CreateCustomer inserts a new customer
func (r *Repository) CreateCustomer(ctx context.Context, c *Customer) error {
	query := `
		INSERT INTO customer (
			email, name, password_hash, building_number, street, city, state,
			phone_number, passport_number, passport_expiration, passport_country, date_of_birth
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		c.Email, c.Name, c.PasswordHash, c.BuildingNumber, c.Street, c.City, c.State,
		c.PhoneNumber, c.PassportNumber, c.PassportExpiration, c.PassportCountry, c.DateOfBirth,
	)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// CreateAgent inserts a new booking agent
func (r *Repository) CreateAgent(ctx context.Context, a *BookingAgent) error {
	query := `
		INSERT INTO booking_agent (email, password_hash, booking_agent_id, airline_name)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, a.Email, a.PasswordHash, a.BookingAgentID, a.Airline)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create booking agent: %w", err)
	}
	return nil
}

// CreateStaff inserts a new airline staff member together with their default
// grants. The staff row and the grant rows commit atomically so a staff
// account never exists without its initial permissions.
func (r *Repository) CreateStaff(ctx context.Context, s *AirlineStaff, defaultGrants auth.GrantSet) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO airline_staff (username, password_hash, first_name, last_name, date_of_birth, airline_name)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.Username, s.PasswordHash, s.FirstName, s.LastName, s.DateOfBirth, s.Airline)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create airline staff: %w", err)
	}

	for _, g := range defaultGrants {
		_, err = tx.Exec(ctx, `
			INSERT INTO permission (staff_username, grant_name)
			VALUES ($1, $2)
			ON CONFLICT (staff_username, grant_name) DO NOTHING
		`, s.Username, g)
		if err != nil {
			return fmt.Errorf("failed to create default grant: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// --- Permission Operations ---

// GetGrants returns the set of grants held by a staff username
func (r *Repository) GetGrants(ctx context.Context, username string) (auth.GrantSet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT grant_name FROM permission WHERE staff_username = $1
	`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query permissions: %w", err)
	}
	defer rows.Close()

	var grants auth.GrantSet
	for rows.Next() {
		var g auth.Grant
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		grants = grants.Add(g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read permissions: %w", err)
	}

	return grants, nil
}

// EnsureGrant makes sure a (staff_username, grant) permission row exists.
// Granting an already-held grant is a no-op.
func (r *Repository) EnsureGrant(ctx context.Context, username string, grant auth.Grant) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO permission (staff_username, grant_name)
		VALUES ($1, $2)
		ON CONFLICT (staff_username, grant_name) DO NOTHING
	`, username, grant)
	if err != nil {
		return fmt.Errorf("failed to grant permission: %w", err)
	}
	return nil
}

// --- Flight Operations ---

const flightColumns = `airline_name, flight_num, departure_airport, arrival_airport,
		       departure_time, arrival_time, price, status, airplane_id`

func scanFlight(row pgx.Row) (*Flight, error) {
	var f Flight
	err := row.Scan(
		&f.AirlineName, &f.FlightNum, &f.DepartureAirport, &f.ArrivalAirport,
		&f.DepartureTime, &f.ArrivalTime, &f.Price, &f.Status, &f.AirplaneID,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetFlight returns a flight by its natural key
func (r *Repository) GetFlight(ctx context.Context, key FlightKey) (*Flight, error) {
	query := `
		SELECT ` + flightColumns + `
		FROM flight
		WHERE airline_name = $1 AND flight_num = $2
	`

	f, err := scanFlight(r.pool.QueryRow(ctx, query, key.AirlineName, key.FlightNum))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get flight: %w", err)
	}

	return f, nil
}

// CreateFlight inserts a new flight
func (r *Repository) CreateFlight(ctx context.Context, f *Flight) error {
	query := `
		INSERT INTO flight (
			airline_name, flight_num, departure_airport, arrival_airport,
			departure_time, arrival_time, price, status, airplane_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		f.AirlineName, f.FlightNum, f.DepartureAirport, f.ArrivalAirport,
		f.DepartureTime, f.ArrivalTime, f.Price, f.Status, f.AirplaneID,
	)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create flight: %w", err)
	}
	return nil
}

// UpdateFlightStatus updates the status of a flight
func (r *Repository) UpdateFlightStatus(ctx context.Context, key FlightKey, status FlightStatus) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE flight SET status = $1 WHERE airline_name = $2 AND flight_num = $3
	`, status, key.AirlineName, key.FlightNum)
	if err != nil {
		return fmt.Errorf("failed to update flight status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchFlights returns flights matching the given filter, soonest first.
// Filters combine with AND; city filters go through the airport table.
func (r *Repository) SearchFlights(ctx context.Context, search FlightSearch) ([]Flight, error) {
	query := `
		SELECT f.airline_name, f.flight_num, f.departure_airport, f.arrival_airport,
		       f.departure_time, f.arrival_time, f.price, f.status, f.airplane_id
		FROM flight f
		JOIN airport dep ON f.departure_airport = dep.airport_name
		JOIN airport arr ON f.arrival_airport = arr.airport_name
		WHERE 1=1
	`
	var args []interface{}

	if search.SourceCity != "" {
		args = append(args, search.SourceCity)
		query += fmt.Sprintf(" AND dep.airport_city = $%d", len(args))
	}
	if search.DestinationCity != "" {
		args = append(args, search.DestinationCity)
		query += fmt.Sprintf(" AND arr.airport_city = $%d", len(args))
	}
	if search.DepartureDate != nil {
		args = append(args, *search.DepartureDate)
		query += fmt.Sprintf(" AND f.departure_time::date = $%d::date", len(args))
	}

	query += " ORDER BY f.departure_time ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search flights: %w", err)
	}
	defer rows.Close()

	return collectFlights(rows)
}

// GetFlightsByNumAndDate returns flights with the given number departing or
// arriving on the given date, for the public status lookup.
func (r *Repository) GetFlightsByNumAndDate(ctx context.Context, flightNum string, date time.Time) ([]Flight, error) {
	query := `
		SELECT ` + flightColumns + `
		FROM flight
		WHERE flight_num = $1
		  AND (departure_time::date = $2::date OR arrival_time::date = $2::date)
	`

	rows, err := r.pool.Query(ctx, query, flightNum, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query flight status: %w", err)
	}
	defer rows.Close()

	return collectFlights(rows)
}

// GetFlightsByAirline returns all flights of one airline, soonest first
func (r *Repository) GetFlightsByAirline(ctx context.Context, airline string) ([]Flight, error) {
	query := `
		SELECT ` + flightColumns + `
		FROM flight
		WHERE airline_name = $1
		ORDER BY departure_time ASC
	`

	rows, err := r.pool.Query(ctx, query, airline)
	if err != nil {
		return nil, fmt.Errorf("failed to query flights: %w", err)
	}
	defer rows.Close()

	return collectFlights(rows)
}

func collectFlights(rows pgx.Rows) ([]Flight, error) {
	var flights []Flight
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flight: %w", err)
		}
		flights = append(flights, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read flights: %w", err)
	}
	return flights, nil
}

// --- Reference Data Operations ---

// CreateAirport inserts a new airport
func (r *Repository) CreateAirport(ctx context.Context, a *Airport) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO airport (airport_name, airport_city) VALUES ($1, $2)
	`, a.Name, a.City)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create airport: %w", err)
	}
	return nil
}

// CreateAirplane inserts a new airplane for an airline
func (r *Repository) CreateAirplane(ctx context.Context, a *Airplane) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO airplane (airline_name, airplane_id, seat_count) VALUES ($1, $2, $3)
	`, a.AirlineName, a.AirplaneID, a.SeatCount)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create airplane: %w", err)
	}
	return nil
}

// --- Purchase Operations ---

// CreateTicketPurchases materializes a purchase batch: one ticket row plus
// one purchase row per line, all inside a single transaction. If any insert
// fails the whole batch rolls back, so a ticket can never be observed
// without its purchase. Ticket IDs come back in line order.
func (r *Repository) CreateTicketPurchases(ctx context.Context, key FlightKey, lines []PurchaseLine) ([]int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ticketIDs := make([]int64, 0, len(lines))
	for _, line := range lines {
		var ticketID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO ticket (airline_name, flight_num)
			VALUES ($1, $2)
			RETURNING ticket_id
		`, key.AirlineName, key.FlightNum).Scan(&ticketID)
		if err != nil {
			return nil, fmt.Errorf("failed to create ticket: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO purchases (ticket_id, customer_email, booking_agent_email, purchase_date)
			VALUES ($1, $2, $3, $4)
		`, ticketID, line.CustomerEmail, line.BookingAgentEmail, line.PurchaseDate)
		if err != nil {
			return nil, fmt.Errorf("failed to create purchase: %w", err)
		}

		ticketIDs = append(ticketIDs, ticketID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit purchase batch: %w", err)
	}

	return ticketIDs, nil
}
