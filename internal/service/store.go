package service

import (
	"context"
	"time"

	"github.com/cx-tal-miterani/airline-reservation/internal/auth"
	"github.com/cx-tal-miterani/airline-reservation/internal/database"
)

// Store is the persistence surface the services need. *database.Repository
// implements it; tests substitute a mock.
type Store interface {
	// Principals
	GetCustomerByEmail(ctx context.Context, email string) (*database.Customer, error)
	GetAgentByEmail(ctx context.Context, email string) (*database.BookingAgent, error)
	GetStaffByUsername(ctx context.Context, username string) (*database.AirlineStaff, error)
	CreateCustomer(ctx context.Context, c *database.Customer) error
	CreateAgent(ctx context.Context, a *database.BookingAgent) error
	CreateStaff(ctx context.Context, s *database.AirlineStaff, defaultGrants auth.GrantSet) error

	// Permissions
	GetGrants(ctx context.Context, username string) (auth.GrantSet, error)
	EnsureGrant(ctx context.Context, username string, grant auth.Grant) error

	// Flights and reference data
	GetFlight(ctx context.Context, key database.FlightKey) (*database.Flight, error)
	CreateFlight(ctx context.Context, f *database.Flight) error
	UpdateFlightStatus(ctx context.Context, key database.FlightKey, status database.FlightStatus) error
	SearchFlights(ctx context.Context, search database.FlightSearch) ([]database.Flight, error)
	GetFlightsByNumAndDate(ctx context.Context, flightNum string, date time.Time) ([]database.Flight, error)
	GetFlightsByAirline(ctx context.Context, airline string) ([]database.Flight, error)
	CreateAirport(ctx context.Context, a *database.Airport) error
	CreateAirplane(ctx context.Context, a *database.Airplane) error

	// Purchases
	CreateTicketPurchases(ctx context.Context, key database.FlightKey, lines []database.PurchaseLine) ([]int64, error)

	// Reporting projections
	PurchasesByCustomer(ctx context.Context, email string) ([]database.PurchaseRecord, error)
	PurchasesByAgent(ctx context.Context, agentEmail string) ([]database.PurchaseRecord, error)
	UpcomingFlightsForCustomer(ctx context.Context, email string) ([]database.Flight, error)
	AgentCommission(ctx context.Context, agentEmail string, since, until time.Time) (*database.CommissionReport, error)
	TopCustomersForAgent(ctx context.Context, agentEmail string, limit int) ([]database.CustomerTicketCount, error)
	TopDestinationsForAirline(ctx context.Context, airline string, limit int) ([]database.DestinationCount, error)
}
