package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/cx-tal-miterani/airline-reservation/internal/auth"
	"github.com/cx-tal-miterani/airline-reservation/internal/database"
)

// MockStore is a mock implementation of service.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetCustomerByEmail(ctx context.Context, email string) (*database.Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Customer), args.Error(1)
}

func (m *MockStore) GetAgentByEmail(ctx context.Context, email string) (*database.BookingAgent, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.BookingAgent), args.Error(1)
}

func (m *MockStore) GetStaffByUsername(ctx context.Context, username string) (*database.AirlineStaff, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.AirlineStaff), args.Error(1)
}

func (m *MockStore) CreateCustomer(ctx context.Context, c *database.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockStore) CreateAgent(ctx context.Context, a *database.BookingAgent) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockStore) CreateStaff(ctx context.Context, s *database.AirlineStaff, defaultGrants auth.GrantSet) error {
	args := m.Called(ctx, s, defaultGrants)
	return args.Error(0)
}

func (m *MockStore) GetGrants(ctx context.Context, username string) (auth.GrantSet, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(auth.GrantSet), args.Error(1)
}

func (m *MockStore) EnsureGrant(ctx context.Context, username string, grant auth.Grant) error {
	args := m.Called(ctx, username, grant)
	return args.Error(0)
}

func (m *MockStore) GetFlight(ctx context.Context, key database.FlightKey) (*database.Flight, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Flight), args.Error(1)
}

func (m *MockStore) CreateFlight(ctx context.Context, f *database.Flight) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockStore) UpdateFlightStatus(ctx context.Context, key database.FlightKey, status database.FlightStatus) error {
	args := m.Called(ctx, key, status)
	return args.Error(0)
}

func (m *MockStore) SearchFlights(ctx context.Context, search database.FlightSearch) ([]database.Flight, error) {
	args := m.Called(ctx, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.Flight), args.Error(1)
}

func (m *MockStore) GetFlightsByNumAndDate(ctx context.Context, flightNum string, date time.Time) ([]database.Flight, error) {
	args := m.Called(ctx, flightNum, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.Flight), args.Error(1)
}

func (m *MockStore) GetFlightsByAirline(ctx context.Context, airline string) ([]database.Flight, error) {
	args := m.Called(ctx, airline)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.Flight), args.Error(1)
}

func (m *MockStore) CreateAirport(ctx context.Context, a *database.Airport) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockStore) CreateAirplane(ctx context.Context, a *database.Airplane) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockStore) CreateTicketPurchases(ctx context.Context, key database.FlightKey, lines []database.PurchaseLine) ([]int64, error) {
	args := m.Called(ctx, key, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockStore) PurchasesByCustomer(ctx context.Context, email string) ([]database.PurchaseRecord, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.PurchaseRecord), args.Error(1)
}

func (m *MockStore) PurchasesByAgent(ctx context.Context, agentEmail string) ([]database.PurchaseRecord, error) {
	args := m.Called(ctx, agentEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.PurchaseRecord), args.Error(1)
}

func (m *MockStore) UpcomingFlightsForCustomer(ctx context.Context, email string) ([]database.Flight, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.Flight), args.Error(1)
}

func (m *MockStore) AgentCommission(ctx context.Context, agentEmail string, since, until time.Time) (*database.CommissionReport, error) {
	args := m.Called(ctx, agentEmail, since, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.CommissionReport), args.Error(1)
}

func (m *MockStore) TopCustomersForAgent(ctx context.Context, agentEmail string, limit int) ([]database.CustomerTicketCount, error) {
	args := m.Called(ctx, agentEmail, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.CustomerTicketCount), args.Error(1)
}

func (m *MockStore) TopDestinationsForAirline(ctx context.Context, airline string, limit int) ([]database.DestinationCount, error) {
	args := m.Called(ctx, airline, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.DestinationCount), args.Error(1)
}
