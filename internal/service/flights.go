package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cx-tal-miterani/airline-reservation/internal/auth"
	"github.com/cx-tal-miterani/airline-reservation/internal/database"
)

// FlightService covers the public flight lookups and the staff-only
// flight/reference-data mutations. Every mutation is grant-gated and scoped
// to the actor's affiliated airline.
type FlightService struct {
	store Store
	perms *PermissionService
}

// NewFlightService creates a new FlightService
func NewFlightService(store Store, perms *PermissionService) *FlightService {
	return &FlightService{store: store, perms: perms}
}

// Search returns flights matching the filter. Public; at least one filter
// field is required.
func (s *FlightService) Search(ctx context.Context, search database.FlightSearch) ([]database.Flight, error) {
	if search.SourceCity == "" && search.DestinationCity == "" && search.DepartureDate == nil {
		return nil, fmt.Errorf("%w: at least one search filter is required", ErrInvalidRequest)
	}
	return s.store.SearchFlights(ctx, search)
}

// Status returns the flights matching a flight number on a given departure
// or arrival date. Public.
func (s *FlightService) Status(ctx context.Context, flightNum string, date time.Time) ([]database.Flight, error) {
	if flightNum == "" || date.IsZero() {
		return nil, fmt.Errorf("%w: flight number and date are required", ErrInvalidRequest)
	}
	return s.store.GetFlightsByNumAndDate(ctx, flightNum, date)
}

// CreateFlight adds a flight for the actor's airline. Requires Admin.
func (s *FlightService) CreateFlight(ctx context.Context, actor *auth.AuthContext, f *database.Flight) error {
	if err := s.perms.Authorize(actor, auth.GrantAdmin); err != nil {
		return err
	}
	if f.FlightNum == "" || f.DepartureAirport == "" || f.ArrivalAirport == "" {
		return fmt.Errorf("%w: flight number and airports are required", ErrInvalidRequest)
	}
	if !f.ArrivalTime.After(f.DepartureTime) {
		return fmt.Errorf("%w: arrival must be after departure", ErrInvalidRequest)
	}

	f.AirlineName = actor.Airline
	if f.Status == "" {
		f.Status = database.FlightStatusOnTime
	}

	if err := s.store.CreateFlight(ctx, f); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create flight: %w", err)
	}
	return nil
}

// UpdateStatus changes a flight's operational status. Requires Operator and
// the flight must belong to the actor's airline.
func (s *FlightService) UpdateStatus(ctx context.Context, actor *auth.AuthContext, flightNum string, status database.FlightStatus) error {
	if err := s.perms.Authorize(actor, auth.GrantOperator); err != nil {
		return err
	}
	switch status {
	case database.FlightStatusOnTime, database.FlightStatusDelayed:
	default:
		return fmt.Errorf("%w: unknown flight status %q", ErrInvalidRequest, status)
	}

	key := database.FlightKey{AirlineName: actor.Airline, FlightNum: flightNum}
	if err := s.store.UpdateFlightStatus(ctx, key, status); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrUnknownFlight
		}
		return fmt.Errorf("update flight status: %w", err)
	}
	return nil
}

// AddAirplane registers an airplane for the actor's airline. Requires Operator.
func (s *FlightService) AddAirplane(ctx context.Context, actor *auth.AuthContext, airplaneID string, seatCount int) error {
	if err := s.perms.Authorize(actor, auth.GrantOperator); err != nil {
		return err
	}
	if airplaneID == "" || seatCount <= 0 {
		return fmt.Errorf("%w: airplane id and a positive seat count are required", ErrInvalidRequest)
	}

	err := s.store.CreateAirplane(ctx, &database.Airplane{
		AirlineName: actor.Airline,
		AirplaneID:  airplaneID,
		SeatCount:   seatCount,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("add airplane: %w", err)
	}
	return nil
}

// AddAirport registers an airport. Requires Admin.
func (s *FlightService) AddAirport(ctx context.Context, actor *auth.AuthContext, name, city string) error {
	if err := s.perms.Authorize(actor, auth.GrantAdmin); err != nil {
		return err
	}
	if name == "" || city == "" {
		return fmt.Errorf("%w: airport name and city are required", ErrInvalidRequest)
	}

	if err := s.store.CreateAirport(ctx, &database.Airport{Name: name, City: city}); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("add airport: %w", err)
	}
	return nil
}
