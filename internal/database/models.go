package database

import (
	"time"

	"github.com/cx-tal-miterani/airline-reservation/internal/auth"
)

// Customer is a self-service traveller, keyed by email.
type Customer struct {
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	PasswordHash       string    `json:"-"`
	BuildingNumber     string    `json:"buildingNumber"`
	Street             string    `json:"street"`
	City               string    `json:"city"`
	State              string    `json:"state"`
	PhoneNumber        string    `json:"phoneNumber"`
	PassportNumber     string    `json:"passportNumber"`
	PassportExpiration time.Time `json:"passportExpiration"`
	PassportCountry    string    `json:"passportCountry"`
	DateOfBirth        time.Time `json:"dateOfBirth"`
}

// BookingAgent purchases tickets on behalf of customers and earns commission.
type BookingAgent struct {
	Email          string `json:"email"`
	PasswordHash   string `json:"-"`
	BookingAgentID int64  `json:"bookingAgentId"`
	Airline        string `json:"airline"`
}

// AirlineStaff is keyed by username, not email, and is affiliated with
// exactly one airline.
type AirlineStaff struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	DateOfBirth  time.Time `json:"dateOfBirth"`
	Airline      string    `json:"airline"`
}

// Permission is one delegated grant row for a staff username. A staff member
// holds a set of these; (staff_username, grant) is unique.
type Permission struct {
	ID            int64      `json:"id"`
	StaffUsername string     `json:"staffUsername"`
	Grant         auth.Grant `json:"grant"`
}

// FlightKey is the natural key of a flight.
type FlightKey struct {
	AirlineName string `json:"airlineName"`
	FlightNum   string `json:"flightNum"`
}

// FlightStatus represents the operational status of a flight.
type FlightStatus string

const (
	FlightStatusOnTime  FlightStatus = "on_time"
	FlightStatusDelayed FlightStatus = "delayed"
)

// Flight represents a scheduled flight.
type Flight struct {
	AirlineName      string       `json:"airlineName"`
	FlightNum        string       `json:"flightNum"`
	DepartureAirport string       `json:"departureAirport"`
	ArrivalAirport   string       `json:"arrivalAirport"`
	DepartureTime    time.Time    `json:"departureTime"`
	ArrivalTime      time.Time    `json:"arrivalTime"`
	Price            float64      `json:"price"`
	Status           FlightStatus `json:"status"`
	AirplaneID       string       `json:"airplaneId"`
}

// Key returns the flight's natural key.
func (f *Flight) Key() FlightKey {
	return FlightKey{AirlineName: f.AirlineName, FlightNum: f.FlightNum}
}

// Ticket is one seat-purchase instance for a flight. Tickets are created
// fresh per purchase and never updated or reused.
type Ticket struct {
	TicketID    int64  `json:"ticketId"`
	AirlineName string `json:"airlineName"`
	FlightNum   string `json:"flightNum"`
}

// Purchase owns exactly one ticket. A nil BookingAgentEmail marks a direct
// (self-service) purchase; non-nil marks an agent-assisted one. That
// nullability is the only direct/indirect discriminator in the system.
type Purchase struct {
	TicketID          int64     `json:"ticketId"`
	CustomerEmail     string    `json:"customerEmail"`
	BookingAgentEmail *string   `json:"bookingAgentEmail,omitempty"`
	PurchaseDate      time.Time `json:"purchaseDate"`
}

// PurchaseLine is one ticket+purchase pair to materialize inside a purchase
// batch. The whole batch commits or none of it does.
type PurchaseLine struct {
	CustomerEmail     string
	BookingAgentEmail *string
	PurchaseDate      time.Time
}

// Airport is reference data owned by airline admins.
type Airport struct {
	Name string `json:"name"`
	City string `json:"city"`
}

// Airplane is scoped to one airline.
type Airplane struct {
	AirlineName string `json:"airlineName"`
	AirplaneID  string `json:"airplaneId"`
	SeatCount   int    `json:"seatCount"`
}

// PurchaseRecord is a purchase joined with its flight, as shown to customers
// and agents when listing past purchases.
type PurchaseRecord struct {
	TicketID         int64        `json:"ticketId"`
	CustomerEmail    string       `json:"customerEmail"`
	PurchaseDate     time.Time    `json:"purchaseDate"`
	AirlineName      string       `json:"airlineName"`
	FlightNum        string       `json:"flightNum"`
	DepartureAirport string       `json:"departureAirport"`
	ArrivalAirport   string       `json:"arrivalAirport"`
	DepartureTime    time.Time    `json:"departureTime"`
	ArrivalTime      time.Time    `json:"arrivalTime"`
	Price            float64      `json:"price"`
	Status           FlightStatus `json:"status"`
}

// CustomerTicketCount is one row of an agent's top-customer report.
type CustomerTicketCount struct {
	CustomerEmail string `json:"customerEmail"`
	TicketCount   int    `json:"ticketCount"`
}

// DestinationCount is one row of a staff top-destination report.
type DestinationCount struct {
	ArrivalAirport string `json:"arrivalAirport"`
	TicketCount    int    `json:"ticketCount"`
}

// FlightSearch is the public flight search filter. At least one field must
// be set.
type FlightSearch struct {
	SourceCity      string
	DestinationCity string
	DepartureDate   *time.Time
}
