package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cx-tal-miterani/airline-reservation/internal/auth"
	"github.com/cx-tal-miterani/airline-reservation/internal/database"
	"github.com/cx-tal-miterani/airline-reservation/internal/service/mocks"
)

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return hash
}

func newIdentityService(store *mocks.MockStore) *IdentityService {
	return NewIdentityService(store, NewPermissionService(store))
}

func TestVerify_CustomerDispatch(t *testing.T) {
	store := new(mocks.MockStore)
	svc := newIdentityService(store)

	hash := mustHash(t, "alices-password")
	store.On("GetCustomerByEmail", mock.Anything, "alice@x.com").
		Return(&database.Customer{Email: "alice@x.com", PasswordHash: hash}, nil)

	p, err := svc.Verify(context.Background(), "alice@x.com", "alices-password", auth.KindCustomer)
	require.NoError(t, err)
	assert.Equal(t, auth.KindCustomer, p.Kind)
	assert.Equal(t, "alice@x.com", p.Identity())

	// Only the customer table is consulted; lookups never cross kinds.
	store.AssertNotCalled(t, "GetAgentByEmail", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "GetStaffByUsername", mock.Anything, mock.Anything)
}

func TestVerify_StaffDispatchByUsername(t *testing.T) {
	store := new(mocks.MockStore)
	svc := newIdentityService(store)

	hash := mustHash(t, "staff-password")
	store.On("GetStaffByUsername", mock.Anything, "alice").
		Return(&database.AirlineStaff{Username: "alice", PasswordHash: hash, Airline: "Pan America"}, nil)

	p, err := svc.Verify(context.Background(), "alice", "staff-password", auth.KindAirlineStaff)
	require.NoError(t, err)
	assert.Equal(t, auth.KindAirlineStaff, p.Kind)
	assert.Equal(t, "alice", p.Identity())

	store.AssertNotCalled(t, "GetCustomerByEmail", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "GetAgentByEmail", mock.Anything, mock.Anything)
}

func TestVerify_UnknownPrincipal(t *testing.T) {
	store := new(mocks.MockStore)
	svc := newIdentityService(store)

	store.On("GetCustomerByEmail", mock.Anything, "ghost@x.com").Return(nil, database.ErrNotFound)

	_, err := svc.Verify(context.Background(), "ghost@x.com", "whatever", auth.KindCustomer)
	assert.ErrorIs(t, err, ErrUnknownPrincipal)
}

func TestVerify_WrongSecret(t *testing.T) {
	store := new(mocks.MockStore)
	svc := newIdentityService(store)

	hash := mustHash(t, "the-real-password")
	store.On("GetAgentByEmail", mock.Anything, "agent@x.com").
		Return(&database.BookingAgent{Email: "agent@x.com", PasswordHash: hash}, nil)

	_, err := svc.Verify(context.Background(), "agent@x.com", "a-guess", auth.KindBookingAgent)
	assert.ErrorIs(t, err, ErrWrongSecret)
}

func TestVerify_InvalidKind(t *testing.T) {
	store := new(mocks.MockStore)
	svc := newIdentityService(store)

	_, err := svc.Verify(context.Background(), "alice@x.com", "secret", auth.PrincipalKind("superuser"))
	assert.ErrorIs(t, err, ErrInvalidRequest)

	store.AssertNotCalled(t, "GetCustomerByEmail", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "GetAgentByEmail", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "GetStaffByUsername", mock.Anything, mock.Anything)
}

func TestLogin_StaffResolvesGrantsAndAirline(t *testing.T) {
	store := new(mocks.MockStore)
	svc := newIdentityService(store)

	hash := mustHash(t, "staff-password")
	store.On("GetStaffByUsername", mock.Anything, "bob").
		Return(&database.AirlineStaff{Username: "bob", PasswordHash: hash, Airline: "Pan America"}, nil)
	store.On("GetGrants", mock.Anything, "bob").
		Return(auth.GrantSet{auth.GrantOperator}, nil)

	ac, err := svc.Login(context.Background(), "bob", "staff-password", auth.KindAirlineStaff)
	require.NoError(t, err)
	assert.Equal(t, "bob", ac.Identity)
	assert.Equal(t, auth.KindAirlineStaff, ac.Kind)
	assert.Equal(t, "Pan America", ac.Airline)
	assert.True(t, ac.Grants.Has(auth.GrantOperator))
	assert.False(t, ac.Grants.Has(auth.GrantAdmin))
}

func TestLogin_CustomerHasNoGrants(t *testing.T) {
	store := new(mocks.MockStore)
	svc := newIdentityService(store)

	hash := mustHash(t, "alices-password")
	store.On("GetCustomerByEmail", mock.Anything, "alice@x.com").
		Return(&database.Customer{Email: "alice@x.com", PasswordHash: hash}, nil)

	ac, err := svc.Login(context.Background(), "alice@x.com", "alices-password", auth.KindCustomer)
	require.NoError(t, err)
	assert.Empty(t, ac.Grants)
	assert.Empty(t, ac.Airline)

	store.AssertNotCalled(t, "GetGrants", mock.Anything, mock.Anything)
}

func TestRegisterCustomer_HashesPassword(t *testing.T) {
	store := new(mocks.MockStore)
	svc := newIdentityService(store)

	store.On("CreateCustomer", mock.Anything, mock.MatchedBy(func(c *database.Customer) bool {
		return c.Email == "alice@x.com" &&
			c.PasswordHash != "alices-password" &&
			auth.CheckPasswordHash("alices-password", c.PasswordHash)
	})).Return(nil)

	err := svc.RegisterCustomer(context.Background(), RegisterCustomerRequest{
		Email:    "alice@x.com",
		Password: "alices-password",
		Name:     "Alice",
	})
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestRegisterCustomer_Duplicate(t *testing.T) {
	store := new(mocks.MockStore)
	svc := newIdentityService(store)

	store.On("CreateCustomer", mock.Anything, mock.Anything).Return(database.ErrDuplicate)

	err := svc.RegisterCustomer(context.Background(), RegisterCustomerRequest{
		Email:    "alice@x.com",
		Password: "alices-password",
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestRegisterAgent_RequiresAdmin(t *testing.T) {
	store := new(mocks.MockStore)
	svc := newIdentityService(store)

	operator := staffActor("bob", auth.GrantOperator)
	err := svc.RegisterAgent(context.Background(), operator, RegisterAgentRequest{
		Email:          "agent@x.com",
		Password:       "agent-password",
		BookingAgentID: 42,
	})
	assert.ErrorIs(t, err, ErrUnauthorized)

	store.AssertNotCalled(t, "CreateAgent", mock.Anything, mock.Anything)
}

func TestRegisterAgent_AdminScopesAirline(t *testing.T) {
	store := new(mocks.MockStore)
	svc := newIdentityService(store)

	store.On("CreateAgent", mock.Anything, mock.MatchedBy(func(a *database.BookingAgent) bool {
		return a.Email == "agent@x.com" && a.Airline == "Pan America" && a.BookingAgentID == 42
	})).Return(nil)

	admin := staffActor("carol", auth.GrantAdmin)
	err := svc.RegisterAgent(context.Background(), admin, RegisterAgentRequest{
		Email:          "agent@x.com",
		Password:       "agent-password",
		BookingAgentID: 42,
	})
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestRegisterStaff_MissingFields(t *testing.T) {
	svc := newIdentityService(new(mocks.MockStore))

	err := svc.RegisterStaff(context.Background(), RegisterStaffRequest{Username: "bob"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
