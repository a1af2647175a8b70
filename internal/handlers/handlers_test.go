package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cx-tal-miterani/airline-reservation/internal/auth"
	"github.com/cx-tal-miterani/airline-reservation/internal/database"
	"github.com/cx-tal-miterani/airline-reservation/internal/service"
	"github.com/cx-tal-miterani/airline-reservation/internal/service/mocks"
	"github.com/cx-tal-miterani/airline-reservation/internal/session"
)

type testEnv struct {
	store    *mocks.MockStore
	sessions *session.MemoryStore
	router   *mux.Router
}

func setupTest() *testEnv {
	store := new(mocks.MockStore)
	sessions := session.NewMemoryStore(time.Hour)

	perms := service.NewPermissionService(store)
	h := NewHandler(
		service.NewIdentityService(store, perms),
		service.NewBookingService(store),
		service.NewFlightService(store, perms),
		perms,
		service.NewReportingService(store),
		sessions,
	)

	r := mux.NewRouter()
	r.Use(SessionMiddleware(sessions))
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/register/customer", h.RegisterCustomer).Methods(http.MethodPost)
	api.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
	api.HandleFunc("/flights", h.SearchFlights).Methods(http.MethodGet)
	api.HandleFunc("/flights/status", h.FlightStatus).Methods(http.MethodGet)
	api.HandleFunc("/purchases", h.CreatePurchase).Methods(http.MethodPost)
	api.HandleFunc("/purchases", h.GetPurchases).Methods(http.MethodGet)
	api.HandleFunc("/staff/flights", h.CreateFlight).Methods(http.MethodPost)
	api.HandleFunc("/staff/flights/status", h.UpdateFlightStatus).Methods(http.MethodPut)
	api.HandleFunc("/staff/permissions", h.GrantPermission).Methods(http.MethodPost)
	api.HandleFunc("/staff/agents", h.RegisterAgent).Methods(http.MethodPost)

	return &testEnv{store: store, sessions: sessions, router: r}
}

// loginAs seeds a session directly and returns its bearer token.
func (e *testEnv) loginAs(t *testing.T, ac auth.AuthContext) string {
	t.Helper()
	token, err := e.sessions.Create(context.Background(), ac)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func testHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return hash
}

func TestHandler_SearchFlights(t *testing.T) {
	env := setupTest()

	env.store.On("SearchFlights", mock.Anything, database.FlightSearch{
		SourceCity:      "New York",
		DestinationCity: "Los Angeles",
	}).Return([]database.Flight{{AirlineName: "Pan America", FlightNum: "PA100"}}, nil)

	rec := env.do(http.MethodGet, "/api/flights?source_city=New+York&destination_city=Los+Angeles", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var flights []database.Flight
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&flights))
	assert.Len(t, flights, 1)
	assert.Equal(t, "PA100", flights[0].FlightNum)
}

func TestHandler_SearchFlights_NoFilter(t *testing.T) {
	env := setupTest()

	rec := env.do(http.MethodGet, "/api/flights", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env.store.AssertNotCalled(t, "SearchFlights", mock.Anything, mock.Anything)
}

func TestHandler_SearchFlights_BadDate(t *testing.T) {
	env := setupTest()

	rec := env.do(http.MethodGet, "/api/flights?date=tomorrow", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_FlightStatus_MissingParams(t *testing.T) {
	env := setupTest()

	rec := env.do(http.MethodGet, "/api/flights/status?flight_num=PA100", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Login(t *testing.T) {
	env := setupTest()

	hash := testHash(t, "alices-password")
	env.store.On("GetCustomerByEmail", mock.Anything, "alice@x.com").
		Return(&database.Customer{Email: "alice@x.com", PasswordHash: hash}, nil)

	rec := env.do(http.MethodPost, "/api/login", "", map[string]string{
		"username": "alice@x.com",
		"password": "alices-password",
		"kind":     "customer",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice@x.com", resp.Context.Identity)
	assert.Equal(t, auth.KindCustomer, resp.Context.Kind)

	// The token resolves to a live session.
	ac, err := env.sessions.Get(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", ac.Identity)
}

func TestHandler_Login_FailureIsUniform(t *testing.T) {
	env := setupTest()

	hash := testHash(t, "the-real-password")
	env.store.On("GetCustomerByEmail", mock.Anything, "alice@x.com").
		Return(&database.Customer{Email: "alice@x.com", PasswordHash: hash}, nil)
	env.store.On("GetCustomerByEmail", mock.Anything, "ghost@x.com").
		Return(nil, database.ErrNotFound)

	wrongSecret := env.do(http.MethodPost, "/api/login", "", map[string]string{
		"username": "alice@x.com", "password": "a-guess", "kind": "customer",
	})
	unknownAccount := env.do(http.MethodPost, "/api/login", "", map[string]string{
		"username": "ghost@x.com", "password": "a-guess", "kind": "customer",
	})

	// An attacker probing the login endpoint must not be able to tell a
	// wrong password from a nonexistent account.
	assert.Equal(t, http.StatusUnauthorized, wrongSecret.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownAccount.Code)
	assert.Equal(t, wrongSecret.Body.String(), unknownAccount.Body.String())
}

func TestHandler_Login_UnknownKind(t *testing.T) {
	env := setupTest()

	rec := env.do(http.MethodPost, "/api/login", "", map[string]string{
		"username": "alice@x.com", "password": "pw", "kind": "superuser",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Logout(t *testing.T) {
	env := setupTest()
	token := env.loginAs(t, auth.AuthContext{Identity: "alice@x.com", Kind: auth.KindCustomer})

	rec := env.do(http.MethodPost, "/api/logout", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err := env.sessions.Get(context.Background(), token)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestHandler_RegisterCustomer(t *testing.T) {
	env := setupTest()

	env.store.On("CreateCustomer", mock.Anything, mock.MatchedBy(func(c *database.Customer) bool {
		return c.Email == "alice@x.com" && c.PasswordHash != "alices-password"
	})).Return(nil)

	rec := env.do(http.MethodPost, "/api/register/customer", "", map[string]string{
		"email":    "alice@x.com",
		"password": "alices-password",
		"name":     "Alice",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	env.store.AssertExpectations(t)
}

func TestHandler_RegisterCustomer_Duplicate(t *testing.T) {
	env := setupTest()

	env.store.On("CreateCustomer", mock.Anything, mock.Anything).Return(database.ErrDuplicate)

	rec := env.do(http.MethodPost, "/api/register/customer", "", map[string]string{
		"email": "alice@x.com", "password": "pw",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandler_CreatePurchase_CustomerSelfService(t *testing.T) {
	env := setupTest()
	token := env.loginAs(t, auth.AuthContext{Identity: "alice@x.com", Kind: auth.KindCustomer})

	key := database.FlightKey{AirlineName: "Pan America", FlightNum: "PA100"}
	env.store.On("GetFlight", mock.Anything, key).
		Return(&database.Flight{AirlineName: "Pan America", FlightNum: "PA100"}, nil)
	env.store.On("CreateTicketPurchases", mock.Anything, key, mock.MatchedBy(func(lines []database.PurchaseLine) bool {
		return len(lines) == 1 && lines[0].CustomerEmail == "alice@x.com" && lines[0].BookingAgentEmail == nil
	})).Return([]int64{101}, nil)

	rec := env.do(http.MethodPost, "/api/purchases", token, map[string]interface{}{
		"airlineName": "Pan America",
		"flightNum":   "PA100",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp PurchaseResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []int64{101}, resp.TicketIDs)
	env.store.AssertExpectations(t)
}

func TestHandler_CreatePurchase_AgentBulk(t *testing.T) {
	env := setupTest()
	token := env.loginAs(t, auth.AuthContext{
		Identity: "agent@x.com", Kind: auth.KindBookingAgent, Airline: "Pan America",
	})

	key := database.FlightKey{AirlineName: "Pan America", FlightNum: "PA100"}
	env.store.On("GetCustomerByEmail", mock.Anything, "c1@x.com").
		Return(&database.Customer{Email: "c1@x.com"}, nil)
	env.store.On("GetCustomerByEmail", mock.Anything, "c2@x.com").
		Return(&database.Customer{Email: "c2@x.com"}, nil)
	env.store.On("GetFlight", mock.Anything, key).
		Return(&database.Flight{AirlineName: "Pan America", FlightNum: "PA100"}, nil)
	env.store.On("CreateTicketPurchases", mock.Anything, key, mock.MatchedBy(func(lines []database.PurchaseLine) bool {
		return len(lines) == 4 && *lines[0].BookingAgentEmail == "agent@x.com"
	})).Return([]int64{1, 2, 3, 4}, nil)

	rec := env.do(http.MethodPost, "/api/purchases", token, map[string]interface{}{
		"airlineName":        "Pan America",
		"flightNum":          "PA100",
		"customerEmails":     []string{"c1@x.com", "c2@x.com"},
		"ticketsPerCustomer": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp PurchaseResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.TicketIDs, 4)
}

func TestHandler_CreatePurchase_ExplicitZeroCount(t *testing.T) {
	env := setupTest()
	token := env.loginAs(t, auth.AuthContext{Identity: "alice@x.com", Kind: auth.KindCustomer})

	// A zero count is a caller error, not a request for one ticket.
	rec := env.do(http.MethodPost, "/api/purchases", token, map[string]interface{}{
		"airlineName":        "Pan America",
		"flightNum":          "PA100",
		"ticketsPerCustomer": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env.store.AssertNotCalled(t, "CreateTicketPurchases", mock.Anything, mock.Anything, mock.Anything)

	rec = env.do(http.MethodPost, "/api/purchases", token, map[string]interface{}{
		"airlineName":        "Pan America",
		"flightNum":          "PA100",
		"ticketsPerCustomer": -2,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_CreatePurchase_Unauthenticated(t *testing.T) {
	env := setupTest()

	rec := env.do(http.MethodPost, "/api/purchases", "", map[string]interface{}{
		"airlineName": "Pan America",
		"flightNum":   "PA100",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env.store.AssertNotCalled(t, "CreateTicketPurchases", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_CreatePurchase_UnknownFlight(t *testing.T) {
	env := setupTest()
	token := env.loginAs(t, auth.AuthContext{Identity: "alice@x.com", Kind: auth.KindCustomer})

	env.store.On("GetFlight", mock.Anything, mock.Anything).Return(nil, database.ErrNotFound)

	rec := env.do(http.MethodPost, "/api/purchases", token, map[string]interface{}{
		"airlineName": "Pan America",
		"flightNum":   "GHOST1",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_GetPurchases(t *testing.T) {
	env := setupTest()
	token := env.loginAs(t, auth.AuthContext{Identity: "alice@x.com", Kind: auth.KindCustomer})

	env.store.On("PurchasesByCustomer", mock.Anything, "alice@x.com").
		Return([]database.PurchaseRecord{{TicketID: 1, CustomerEmail: "alice@x.com"}}, nil)

	rec := env.do(http.MethodGet, "/api/purchases", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var records []database.PurchaseRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&records))
	assert.Len(t, records, 1)
}

func TestHandler_GrantPermission(t *testing.T) {
	env := setupTest()
	admin := env.loginAs(t, auth.AuthContext{
		Identity: "carol", Kind: auth.KindAirlineStaff,
		Grants: auth.GrantSet{auth.GrantAdmin}, Airline: "Pan America",
	})

	env.store.On("GetStaffByUsername", mock.Anything, "bob").
		Return(&database.AirlineStaff{Username: "bob", Airline: "Pan America"}, nil)
	env.store.On("EnsureGrant", mock.Anything, "bob", auth.GrantAdmin).Return(nil)

	rec := env.do(http.MethodPost, "/api/staff/permissions", admin, map[string]string{
		"username": "bob", "grant": "admin",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	env.store.AssertExpectations(t)
}

func TestHandler_GrantPermission_OperatorForbidden(t *testing.T) {
	env := setupTest()
	operator := env.loginAs(t, auth.AuthContext{
		Identity: "bob", Kind: auth.KindAirlineStaff,
		Grants: auth.GrantSet{auth.GrantOperator}, Airline: "Pan America",
	})

	rec := env.do(http.MethodPost, "/api/staff/permissions", operator, map[string]string{
		"username": "dave", "grant": "admin",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	env.store.AssertNotCalled(t, "EnsureGrant", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_GrantPermission_UnknownGrant(t *testing.T) {
	env := setupTest()
	admin := env.loginAs(t, auth.AuthContext{
		Identity: "carol", Kind: auth.KindAirlineStaff,
		Grants: auth.GrantSet{auth.GrantAdmin}, Airline: "Pan America",
	})

	rec := env.do(http.MethodPost, "/api/staff/permissions", admin, map[string]string{
		"username": "bob", "grant": "root",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_UpdateFlightStatus(t *testing.T) {
	env := setupTest()
	operator := env.loginAs(t, auth.AuthContext{
		Identity: "bob", Kind: auth.KindAirlineStaff,
		Grants: auth.GrantSet{auth.GrantOperator}, Airline: "Pan America",
	})

	key := database.FlightKey{AirlineName: "Pan America", FlightNum: "PA100"}
	env.store.On("UpdateFlightStatus", mock.Anything, key, database.FlightStatusDelayed).Return(nil)

	rec := env.do(http.MethodPut, "/api/staff/flights/status", operator, map[string]string{
		"flightNum": "PA100", "status": "delayed",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	env.store.AssertExpectations(t)
}

func TestHandler_RegisterAgent_RequiresAdminSession(t *testing.T) {
	env := setupTest()

	rec := env.do(http.MethodPost, "/api/staff/agents", "", map[string]interface{}{
		"email": "agent@x.com", "password": "pw", "bookingAgentId": 42,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	admin := env.loginAs(t, auth.AuthContext{
		Identity: "carol", Kind: auth.KindAirlineStaff,
		Grants: auth.GrantSet{auth.GrantAdmin}, Airline: "Pan America",
	})
	env.store.On("CreateAgent", mock.Anything, mock.MatchedBy(func(a *database.BookingAgent) bool {
		return a.Email == "agent@x.com" && a.Airline == "Pan America"
	})).Return(nil)

	rec = env.do(http.MethodPost, "/api/staff/agents", admin, map[string]interface{}{
		"email": "agent@x.com", "password": "pw", "bookingAgentId": 42,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	env.store.AssertExpectations(t)
}
