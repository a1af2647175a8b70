package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cx-tal-miterani/airline-reservation/internal/auth"
	"github.com/cx-tal-miterani/airline-reservation/internal/database"
)

const defaultTopLimit = 10

// ReportingService exposes the read-only projections, each scoped to the
// caller's own identity: customers see their purchases, agents see the
// purchases they brokered, staff see their airline's flights.
type ReportingService struct {
	store Store
}

// NewReportingService creates a new ReportingService
func NewReportingService(store Store) *ReportingService {
	return &ReportingService{store: store}
}

// Purchases returns the actor's purchase history.
func (s *ReportingService) Purchases(ctx context.Context, actor *auth.AuthContext) ([]database.PurchaseRecord, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: no session", ErrUnauthorized)
	}

	switch actor.Kind {
	case auth.KindCustomer:
		return s.store.PurchasesByCustomer(ctx, actor.Identity)
	case auth.KindBookingAgent:
		return s.store.PurchasesByAgent(ctx, actor.Identity)
	default:
		return nil, fmt.Errorf("%w: %s has no purchase history", ErrUnauthorized, actor.Kind)
	}
}

// UpcomingFlights returns flights the customer holds tickets for that have
// not yet departed.
func (s *ReportingService) UpcomingFlights(ctx context.Context, actor *auth.AuthContext) ([]database.Flight, error) {
	if actor == nil || actor.Kind != auth.KindCustomer {
		return nil, fmt.Errorf("%w: customers only", ErrUnauthorized)
	}
	return s.store.UpcomingFlightsForCustomer(ctx, actor.Identity)
}

// Commission totals the agent's own commission over [since, until].
func (s *ReportingService) Commission(ctx context.Context, actor *auth.AuthContext, since, until time.Time) (*database.CommissionReport, error) {
	if actor == nil || actor.Kind != auth.KindBookingAgent {
		return nil, fmt.Errorf("%w: booking agents only", ErrUnauthorized)
	}
	if until.Before(since) {
		return nil, fmt.Errorf("%w: range end precedes start", ErrInvalidRequest)
	}
	return s.store.AgentCommission(ctx, actor.Identity, since, until)
}

// TopCustomers ranks the agent's own customers by tickets bought.
func (s *ReportingService) TopCustomers(ctx context.Context, actor *auth.AuthContext, limit int) ([]database.CustomerTicketCount, error) {
	if actor == nil || actor.Kind != auth.KindBookingAgent {
		return nil, fmt.Errorf("%w: booking agents only", ErrUnauthorized)
	}
	if limit <= 0 {
		limit = defaultTopLimit
	}
	return s.store.TopCustomersForAgent(ctx, actor.Identity, limit)
}

// AirlineFlights lists the flights of the staff member's own airline. Any
// staff member may read them; no grant is required.
func (s *ReportingService) AirlineFlights(ctx context.Context, actor *auth.AuthContext) ([]database.Flight, error) {
	if actor == nil || actor.Kind != auth.KindAirlineStaff {
		return nil, fmt.Errorf("%w: airline staff only", ErrUnauthorized)
	}
	return s.store.GetFlightsByAirline(ctx, actor.Airline)
}

// TopDestinations ranks the staff member's airline destinations by tickets
// sold.
func (s *ReportingService) TopDestinations(ctx context.Context, actor *auth.AuthContext, limit int) ([]database.DestinationCount, error) {
	if actor == nil || actor.Kind != auth.KindAirlineStaff {
		return nil, fmt.Errorf("%w: airline staff only", ErrUnauthorized)
	}
	if limit <= 0 {
		limit = defaultTopLimit
	}
	return s.store.TopDestinationsForAirline(ctx, actor.Airline, limit)
}
