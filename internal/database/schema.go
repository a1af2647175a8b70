package database

import (
	"context"
	"fmt"
)

// CreateSchema creates the tables if they do not exist yet.
func (r *Repository) CreateSchema(ctx context.Context) error {
	schema := `
	-- Principals
	CREATE TABLE IF NOT EXISTS customer (
		email               TEXT PRIMARY KEY,
		name                TEXT NOT NULL DEFAULT '',
		password_hash       TEXT NOT NULL,
		building_number     TEXT NOT NULL DEFAULT '',
		street              TEXT NOT NULL DEFAULT '',
		city                TEXT NOT NULL DEFAULT '',
		state               TEXT NOT NULL DEFAULT '',
		phone_number        TEXT NOT NULL DEFAULT '',
		passport_number     TEXT NOT NULL DEFAULT '',
		passport_expiration TIMESTAMPTZ,
		passport_country    TEXT NOT NULL DEFAULT '',
		date_of_birth       TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS booking_agent (
		email               TEXT PRIMARY KEY,
		password_hash       TEXT NOT NULL,
		booking_agent_id    BIGINT NOT NULL UNIQUE,
		airline_name        TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS airline_staff (
		username        TEXT PRIMARY KEY,
		password_hash   TEXT NOT NULL,
		first_name      TEXT NOT NULL DEFAULT '',
		last_name       TEXT NOT NULL DEFAULT '',
		date_of_birth   TIMESTAMPTZ,
		airline_name    TEXT NOT NULL
	);

	-- Delegated staff grants
	CREATE TABLE IF NOT EXISTS permission (
		id              BIGSERIAL PRIMARY KEY,
		staff_username  TEXT NOT NULL REFERENCES airline_staff(username),
		grant_name      TEXT NOT NULL,
		UNIQUE (staff_username, grant_name)
	);

	-- Reference data
	CREATE TABLE IF NOT EXISTS airport (
		airport_name    TEXT PRIMARY KEY,
		airport_city    TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS airplane (
		airline_name    TEXT NOT NULL,
		airplane_id     TEXT NOT NULL,
		seat_count      INTEGER NOT NULL,
		PRIMARY KEY (airline_name, airplane_id)
	);

	CREATE TABLE IF NOT EXISTS flight (
		airline_name        TEXT NOT NULL,
		flight_num          TEXT NOT NULL,
		departure_airport   TEXT NOT NULL REFERENCES airport(airport_name),
		arrival_airport     TEXT NOT NULL REFERENCES airport(airport_name),
		departure_time      TIMESTAMPTZ NOT NULL,
		arrival_time        TIMESTAMPTZ NOT NULL,
		price               NUMERIC(10,2) NOT NULL DEFAULT 0,
		status              TEXT NOT NULL DEFAULT 'on_time',
		airplane_id         TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (airline_name, flight_num)
	);

	CREATE INDEX IF NOT EXISTS idx_flight_departure ON flight(departure_time);
	CREATE INDEX IF NOT EXISTS idx_flight_num ON flight(flight_num);

	-- Tickets and purchases. A ticket row is only ever created together
	-- with its purchase row, inside one transaction.
	CREATE TABLE IF NOT EXISTS ticket (
		ticket_id       BIGSERIAL PRIMARY KEY,
		airline_name    TEXT NOT NULL,
		flight_num      TEXT NOT NULL,
		FOREIGN KEY (airline_name, flight_num) REFERENCES flight(airline_name, flight_num)
	);

	CREATE TABLE IF NOT EXISTS purchases (
		ticket_id           BIGINT PRIMARY KEY REFERENCES ticket(ticket_id),
		customer_email      TEXT NOT NULL REFERENCES customer(email),
		booking_agent_email TEXT REFERENCES booking_agent(email),
		purchase_date       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_purchases_customer ON purchases(customer_email);
	CREATE INDEX IF NOT EXISTS idx_purchases_agent ON purchases(booking_agent_email);
	CREATE INDEX IF NOT EXISTS idx_purchases_date ON purchases(purchase_date);
	`

	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
