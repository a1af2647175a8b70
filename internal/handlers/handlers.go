package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/cx-tal-miterani/airline-reservation/internal/auth"
	"github.com/cx-tal-miterani/airline-reservation/internal/database"
	"github.com/cx-tal-miterani/airline-reservation/internal/service"
	"github.com/cx-tal-miterani/airline-reservation/internal/session"
)

const (
	dateLayout      = "2006-01-02"
	purchaseTimeout = 15 * time.Second
	sessionTTL      = 24 * time.Hour
)

// Handler contains HTTP handlers for the API
type Handler struct {
	identity *service.IdentityService
	booking  *service.BookingService
	flights  *service.FlightService
	perms    *service.PermissionService
	reports  *service.ReportingService
	sessions session.Store
}

// NewHandler creates a new Handler instance
func NewHandler(
	identity *service.IdentityService,
	booking *service.BookingService,
	flights *service.FlightService,
	perms *service.PermissionService,
	reports *service.ReportingService,
	sessions session.Store,
) *Handler {
	return &Handler{
		identity: identity,
		booking:  booking,
		flights:  flights,
		perms:    perms,
		reports:  reports,
		sessions: sessions,
	}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the core's typed failures onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		if actorFrom(r) == nil {
			respondError(w, http.StatusUnauthorized, "Authentication required")
		} else {
			respondError(w, http.StatusForbidden, "Insufficient permissions")
		}
	case errors.Is(err, service.ErrUnknownFlight):
		respondError(w, http.StatusNotFound, "Flight not found")
	case errors.Is(err, service.ErrUnknownPrincipal):
		respondError(w, http.StatusNotFound, "Account not found")
	case errors.Is(err, service.ErrAlreadyExists):
		respondError(w, http.StatusConflict, "Already exists")
	default:
		log.Printf("internal error on %s %s: %v", r.Method, r.URL.Path, err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// --- Registration ---

// RegisterCustomerRequest is the customer registration body
type RegisterCustomerRequest struct {
	Email              string `json:"email"`
	Password           string `json:"password"`
	Name               string `json:"name"`
	BuildingNumber     string `json:"buildingNumber"`
	Street             string `json:"street"`
	City               string `json:"city"`
	State              string `json:"state"`
	PhoneNumber        string `json:"phoneNumber"`
	PassportNumber     string `json:"passportNumber"`
	PassportExpiration string `json:"passportExpiration"`
	PassportCountry    string `json:"passportCountry"`
	DateOfBirth        string `json:"dateOfBirth"`
}

// RegisterCustomer handles POST /api/register/customer
func (h *Handler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req RegisterCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	passportExpiration, ok := parseOptionalDate(w, req.PassportExpiration)
	if !ok {
		return
	}
	dateOfBirth, ok := parseOptionalDate(w, req.DateOfBirth)
	if !ok {
		return
	}

	err := h.identity.RegisterCustomer(r.Context(), service.RegisterCustomerRequest{
		Email:              req.Email,
		Password:           req.Password,
		Name:               req.Name,
		BuildingNumber:     req.BuildingNumber,
		Street:             req.Street,
		City:               req.City,
		State:              req.State,
		PhoneNumber:        req.PhoneNumber,
		PassportNumber:     req.PassportNumber,
		PassportExpiration: passportExpiration,
		PassportCountry:    req.PassportCountry,
		DateOfBirth:        dateOfBirth,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"message": "Customer registered"})
}

// RegisterAgentRequest is the booking agent registration body
type RegisterAgentRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	BookingAgentID int64  `json:"bookingAgentId"`
}

// RegisterAgent handles POST /api/staff/agents (admin only)
func (h *Handler) RegisterAgent(w http.ResponseWriter, r *http.Request) {
	var req RegisterAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.identity.RegisterAgent(r.Context(), actorFrom(r), service.RegisterAgentRequest{
		Email:          req.Email,
		Password:       req.Password,
		BookingAgentID: req.BookingAgentID,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"message": "Booking agent registered"})
}

// RegisterStaffRequest is the airline staff registration body
type RegisterStaffRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
	Airline     string `json:"airline"`
}

// RegisterStaff handles POST /api/register/staff
func (h *Handler) RegisterStaff(w http.ResponseWriter, r *http.Request) {
	var req RegisterStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" || req.Airline == "" {
		respondError(w, http.StatusBadRequest, "Username, password and airline are required")
		return
	}

	dateOfBirth, ok := parseOptionalDate(w, req.DateOfBirth)
	if !ok {
		return
	}

	err := h.identity.RegisterStaff(r.Context(), service.RegisterStaffRequest{
		Username:    req.Username,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: dateOfBirth,
		Airline:     req.Airline,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"message": "Airline staff registered"})
}

// --- Login / Logout ---

// LoginRequest is the login body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Kind     string `json:"kind"`
}

// LoginResponse carries the session token and the caller's resolved context
type LoginResponse struct {
	Token   string           `json:"token"`
	Context auth.AuthContext `json:"context"`
}

// Login handles POST /api/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	kind, err := auth.ParsePrincipalKind(req.Kind)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Unknown account kind")
		return
	}

	ac, err := h.identity.Login(r.Context(), req.Username, req.Password, kind)
	if err != nil {
		if errors.Is(err, service.ErrUnknownPrincipal) || errors.Is(err, service.ErrWrongSecret) {
			// The precise reason stays server-side; confirming which
			// identifiers exist would leak account presence.
			log.Printf("login rejected for kind=%s: %v", kind, err)
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		respondServiceError(w, r, err)
		return
	}

	token, err := h.sessions.Create(r.Context(), *ac)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, LoginResponse{Token: token, Context: *ac})
}

// Logout handles POST /api/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := extractToken(r); token != "" {
		if err := h.sessions.Delete(r.Context(), token); err != nil {
			respondServiceError(w, r, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// --- Flights ---

// SearchFlights handles GET /api/flights
func (h *Handler) SearchFlights(w http.ResponseWriter, r *http.Request) {
	search := database.FlightSearch{
		SourceCity:      r.URL.Query().Get("source_city"),
		DestinationCity: r.URL.Query().Get("destination_city"),
	}
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Date must be YYYY-MM-DD")
			return
		}
		search.DepartureDate = &date
	}

	flights, err := h.flights.Search(r.Context(), search)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, flights)
}

// FlightStatus handles GET /api/flights/status
func (h *Handler) FlightStatus(w http.ResponseWriter, r *http.Request) {
	flightNum := r.URL.Query().Get("flight_num")
	raw := r.URL.Query().Get("date")
	if flightNum == "" || raw == "" {
		respondError(w, http.StatusBadRequest, "flight_num and date are required")
		return
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Date must be YYYY-MM-DD")
		return
	}

	flights, err := h.flights.Status(r.Context(), flightNum, date)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, flights)
}

// --- Purchases ---

// PurchaseRequest is the ticket purchase body. CustomerEmails may be empty
// for a customer's self-service purchase. TicketsPerCustomer defaults to 1
// when omitted; an explicit zero or negative count is rejected.
type PurchaseRequest struct {
	AirlineName        string   `json:"airlineName"`
	FlightNum          string   `json:"flightNum"`
	CustomerEmails     []string `json:"customerEmails"`
	TicketsPerCustomer *int     `json:"ticketsPerCustomer"`
}

// PurchaseResponse lists the tickets created by one purchase batch
type PurchaseResponse struct {
	TicketIDs []int64 `json:"ticketIds"`
}

// CreatePurchase handles POST /api/purchases
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.AirlineName == "" || req.FlightNum == "" {
		respondError(w, http.StatusBadRequest, "Airline and flight number are required")
		return
	}
	ticketsPerCustomer := 1
	if req.TicketsPerCustomer != nil {
		ticketsPerCustomer = *req.TicketsPerCustomer
	}

	// A stalled purchase must not hold its transaction open indefinitely;
	// on expiry the driver aborts and the batch rolls back.
	ctx, cancel := context.WithTimeout(r.Context(), purchaseTimeout)
	defer cancel()

	ticketIDs, err := h.booking.Purchase(ctx, actorFrom(r), service.PurchaseRequest{
		Flight:             database.FlightKey{AirlineName: req.AirlineName, FlightNum: req.FlightNum},
		CustomerEmails:     req.CustomerEmails,
		TicketsPerCustomer: ticketsPerCustomer,
		PurchaseDate:       time.Now(),
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, PurchaseResponse{TicketIDs: ticketIDs})
}

// GetPurchases handles GET /api/purchases
func (h *Handler) GetPurchases(w http.ResponseWriter, r *http.Request) {
	records, err := h.reports.Purchases(r.Context(), actorFrom(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// GetUpcomingFlights handles GET /api/flights/upcoming
func (h *Handler) GetUpcomingFlights(w http.ResponseWriter, r *http.Request) {
	flights, err := h.reports.UpcomingFlights(r.Context(), actorFrom(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, flights)
}

// --- Agent reporting ---

// GetCommission handles GET /api/agent/commission
func (h *Handler) GetCommission(w http.ResponseWriter, r *http.Request) {
	until := time.Now()
	since := until.AddDate(0, 0, -30)

	var err error
	if raw := r.URL.Query().Get("since"); raw != "" {
		if since, err = time.Parse(dateLayout, raw); err != nil {
			respondError(w, http.StatusBadRequest, "since must be YYYY-MM-DD")
			return
		}
	}
	if raw := r.URL.Query().Get("until"); raw != "" {
		if until, err = time.Parse(dateLayout, raw); err != nil {
			respondError(w, http.StatusBadRequest, "until must be YYYY-MM-DD")
			return
		}
		// Make the end date inclusive.
		until = until.AddDate(0, 0, 1).Add(-time.Second)
	}

	report, err := h.reports.Commission(r.Context(), actorFrom(r), since, until)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// GetTopCustomers handles GET /api/agent/top-customers
func (h *Handler) GetTopCustomers(w http.ResponseWriter, r *http.Request) {
	counts, err := h.reports.TopCustomers(r.Context(), actorFrom(r), 0)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, counts)
}

// --- Staff operations ---

// CreateFlightRequest is the flight creation body
type CreateFlightRequest struct {
	FlightNum        string    `json:"flightNum"`
	DepartureAirport string    `json:"departureAirport"`
	ArrivalAirport   string    `json:"arrivalAirport"`
	DepartureTime    time.Time `json:"departureTime"`
	ArrivalTime      time.Time `json:"arrivalTime"`
	Price            float64   `json:"price"`
	AirplaneID       string    `json:"airplaneId"`
}

// CreateFlight handles POST /api/staff/flights
func (h *Handler) CreateFlight(w http.ResponseWriter, r *http.Request) {
	var req CreateFlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.flights.CreateFlight(r.Context(), actorFrom(r), &database.Flight{
		FlightNum:        req.FlightNum,
		DepartureAirport: req.DepartureAirport,
		ArrivalAirport:   req.ArrivalAirport,
		DepartureTime:    req.DepartureTime,
		ArrivalTime:      req.ArrivalTime,
		Price:            req.Price,
		AirplaneID:       req.AirplaneID,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"message": "Flight created"})
}

// UpdateFlightStatusRequest is the status change body
type UpdateFlightStatusRequest struct {
	FlightNum string `json:"flightNum"`
	Status    string `json:"status"`
}

// UpdateFlightStatus handles PUT /api/staff/flights/status
func (h *Handler) UpdateFlightStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateFlightStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.flights.UpdateStatus(r.Context(), actorFrom(r), req.FlightNum, database.FlightStatus(req.Status))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Flight status updated"})
}

// AddAirplaneRequest is the airplane registration body
type AddAirplaneRequest struct {
	AirplaneID string `json:"airplaneId"`
	SeatCount  int    `json:"seatCount"`
}

// AddAirplane handles POST /api/staff/airplanes
func (h *Handler) AddAirplane(w http.ResponseWriter, r *http.Request) {
	var req AddAirplaneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.flights.AddAirplane(r.Context(), actorFrom(r), req.AirplaneID, req.SeatCount); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"message": "Airplane added"})
}

// AddAirportRequest is the airport registration body
type AddAirportRequest struct {
	Name string `json:"name"`
	City string `json:"city"`
}

// AddAirport handles POST /api/staff/airports
func (h *Handler) AddAirport(w http.ResponseWriter, r *http.Request) {
	var req AddAirportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.flights.AddAirport(r.Context(), actorFrom(r), req.Name, req.City); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"message": "Airport added"})
}

// GrantPermissionRequest is the permission grant body
type GrantPermissionRequest struct {
	Username string `json:"username"`
	Grant    string `json:"grant"`
}

// GrantPermission handles POST /api/staff/permissions
func (h *Handler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	var req GrantPermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	grant, err := auth.ParseGrant(req.Grant)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Unknown grant")
		return
	}

	if err := h.perms.GrantPermission(r.Context(), actorFrom(r), req.Username, grant); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Permission granted"})
}

// GetAirlineFlights handles GET /api/staff/flights
func (h *Handler) GetAirlineFlights(w http.ResponseWriter, r *http.Request) {
	flights, err := h.reports.AirlineFlights(r.Context(), actorFrom(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, flights)
}

// GetTopDestinations handles GET /api/staff/top-destinations
func (h *Handler) GetTopDestinations(w http.ResponseWriter, r *http.Request) {
	counts, err := h.reports.TopDestinations(r.Context(), actorFrom(r), 0)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, counts)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func parseOptionalDate(w http.ResponseWriter, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Dates must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}
