package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cx-tal-miterani/airline-reservation/internal/auth"
	"github.com/cx-tal-miterani/airline-reservation/internal/database"
)

// Principal is the result of a successful credential check: exactly one of
// the kind-specific fields is set, matching Kind.
type Principal struct {
	Kind     auth.PrincipalKind
	Customer *database.Customer
	Agent    *database.BookingAgent
	Staff    *database.AirlineStaff
}

// Identity returns the principal's login identifier (email or username).
func (p *Principal) Identity() string {
	switch p.Kind {
	case auth.KindCustomer:
		return p.Customer.Email
	case auth.KindBookingAgent:
		return p.Agent.Email
	case auth.KindAirlineStaff:
		return p.Staff.Username
	}
	return ""
}

// IdentityService verifies credentials and registers principals.
type IdentityService struct {
	store Store
	perms *PermissionService
}

// NewIdentityService creates a new IdentityService
func NewIdentityService(store Store, perms *PermissionService) *IdentityService {
	return &IdentityService{store: store, perms: perms}
}

// Verify checks an (identifier, secret, kind) triple against stored records.
// The lookup table and identity column are chosen by kind; a lookup never
// crosses kinds. Returns ErrUnknownPrincipal when no record exists and
// ErrWrongSecret when the record exists but the secret does not match.
// Verify has no side effects; session creation is the caller's job.
func (s *IdentityService) Verify(ctx context.Context, identifier, secret string, kind auth.PrincipalKind) (*Principal, error) {
	var (
		principal Principal
		hash      string
	)

	switch kind {
	case auth.KindCustomer:
		c, err := s.store.GetCustomerByEmail(ctx, identifier)
		if err != nil {
			return nil, classifyLookupErr(err)
		}
		principal = Principal{Kind: kind, Customer: c}
		hash = c.PasswordHash
	case auth.KindBookingAgent:
		a, err := s.store.GetAgentByEmail(ctx, identifier)
		if err != nil {
			return nil, classifyLookupErr(err)
		}
		principal = Principal{Kind: kind, Agent: a}
		hash = a.PasswordHash
	case auth.KindAirlineStaff:
		st, err := s.store.GetStaffByUsername(ctx, identifier)
		if err != nil {
			return nil, classifyLookupErr(err)
		}
		principal = Principal{Kind: kind, Staff: st}
		hash = st.PasswordHash
	default:
		return nil, fmt.Errorf("%w: unknown principal kind %q", ErrInvalidRequest, kind)
	}

	if !auth.CheckPasswordHash(secret, hash) {
		return nil, ErrWrongSecret
	}

	return &principal, nil
}

func classifyLookupErr(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return ErrUnknownPrincipal
	}
	return fmt.Errorf("principal lookup: %w", err)
}

// Login verifies credentials and builds the auth context a session should
// carry: identity, kind, airline affiliation, and, for staff, the grant set
// resolved at this moment. The grants stay fixed for the session's lifetime.
func (s *IdentityService) Login(ctx context.Context, identifier, secret string, kind auth.PrincipalKind) (*auth.AuthContext, error) {
	principal, err := s.Verify(ctx, identifier, secret, kind)
	if err != nil {
		return nil, err
	}

	ac := &auth.AuthContext{
		Identity: principal.Identity(),
		Kind:     principal.Kind,
	}

	switch principal.Kind {
	case auth.KindBookingAgent:
		ac.Airline = principal.Agent.Airline
	case auth.KindAirlineStaff:
		ac.Airline = principal.Staff.Airline
		grants, err := s.perms.ResolveGrants(ctx, principal.Staff.Username)
		if err != nil {
			return nil, err
		}
		ac.Grants = grants
	}

	return ac, nil
}

// RegisterCustomerRequest carries the customer registration form.
type RegisterCustomerRequest struct {
	Email              string
	Password           string
	Name               string
	BuildingNumber     string
	Street             string
	City               string
	State              string
	PhoneNumber        string
	PassportNumber     string
	PassportExpiration time.Time
	PassportCountry    string
	DateOfBirth        time.Time
}

// RegisterCustomer creates a new customer account.
func (s *IdentityService) RegisterCustomer(ctx context.Context, req RegisterCustomerRequest) error {
	if req.Email == "" || req.Password == "" {
		return fmt.Errorf("%w: email and password are required", ErrInvalidRequest)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.store.CreateCustomer(ctx, &database.Customer{
		Email:              req.Email,
		Name:               req.Name,
		PasswordHash:       hash,
		BuildingNumber:     req.BuildingNumber,
		Street:             req.Street,
		City:               req.City,
		State:              req.State,
		PhoneNumber:        req.PhoneNumber,
		PassportNumber:     req.PassportNumber,
		PassportExpiration: req.PassportExpiration,
		PassportCountry:    req.PassportCountry,
		DateOfBirth:        req.DateOfBirth,
	})
	if err != nil {
		return classifyCreateErr(err)
	}
	return nil
}

// RegisterAgentRequest carries the booking agent registration form.
type RegisterAgentRequest struct {
	Email          string
	Password       string
	BookingAgentID int64
	Airline        string
}

// RegisterAgent creates a booking agent account. Agents are added by airline
// admins, so the actor must hold the Admin grant.
func (s *IdentityService) RegisterAgent(ctx context.Context, actor *auth.AuthContext, req RegisterAgentRequest) error {
	if err := s.perms.Authorize(actor, auth.GrantAdmin); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return fmt.Errorf("%w: email and password are required", ErrInvalidRequest)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.store.CreateAgent(ctx, &database.BookingAgent{
		Email:          req.Email,
		PasswordHash:   hash,
		BookingAgentID: req.BookingAgentID,
		Airline:        actor.Airline,
	})
	if err != nil {
		return classifyCreateErr(err)
	}
	return nil
}

// RegisterStaffRequest carries the airline staff registration form.
type RegisterStaffRequest struct {
	Username    string
	Password    string
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	Airline     string
}

// RegisterStaff creates a staff account with the default least-privilege
// grant: a fresh staff member starts as Operator and must be promoted to
// Admin by an existing admin.
func (s *IdentityService) RegisterStaff(ctx context.Context, req RegisterStaffRequest) error {
	if req.Username == "" || req.Password == "" || req.Airline == "" {
		return fmt.Errorf("%w: username, password and airline are required", ErrInvalidRequest)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.store.CreateStaff(ctx, &database.AirlineStaff{
		Username:     req.Username,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DateOfBirth:  req.DateOfBirth,
		Airline:      req.Airline,
	}, auth.GrantSet{auth.GrantOperator})
	if err != nil {
		return classifyCreateErr(err)
	}
	return nil
}

func classifyCreateErr(err error) error {
	if errors.Is(err, database.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return fmt.Errorf("principal create: %w", err)
}
