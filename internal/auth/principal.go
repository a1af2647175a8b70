package auth

import "fmt"

// PrincipalKind identifies which kind of account is authenticating.
// Lookup table and identity column depend on the kind, so it is a closed
// enum rather than a free-form string.
type PrincipalKind string

const (
	KindCustomer     PrincipalKind = "customer"
	KindBookingAgent PrincipalKind = "booking_agent"
	KindAirlineStaff PrincipalKind = "airline_staff"
)

// ParsePrincipalKind validates a kind string from the outside world.
func ParsePrincipalKind(s string) (PrincipalKind, error) {
	switch PrincipalKind(s) {
	case KindCustomer, KindBookingAgent, KindAirlineStaff:
		return PrincipalKind(s), nil
	default:
		return "", fmt.Errorf("unknown principal kind %q", s)
	}
}

// Grant is a delegated capability held by airline staff.
type Grant string

const (
	GrantAdmin    Grant = "admin"
	GrantOperator Grant = "operator"
)

// ParseGrant validates a grant string from the outside world.
func ParseGrant(s string) (Grant, error) {
	switch Grant(s) {
	case GrantAdmin, GrantOperator:
		return Grant(s), nil
	default:
		return "", fmt.Errorf("unknown grant %q", s)
	}
}

// GrantSet is the effective permission set of a staff member. It is small
// (two possible grants) and JSON-friendly, so a slice with set semantics.
type GrantSet []Grant

// Has reports whether the set contains g.
func (s GrantSet) Has(g Grant) bool {
	for _, have := range s {
		if have == g {
			return true
		}
	}
	return false
}

// Add returns the set with g included, without duplicates.
func (s GrantSet) Add(g Grant) GrantSet {
	if s.Has(g) {
		return s
	}
	return append(s, g)
}

// AuthContext is the authenticated caller of a core operation. It is built
// once at login and carried explicitly through every call; grants are the
// set resolved at login time and stay fixed for the session's lifetime.
type AuthContext struct {
	Identity string        `json:"identity"` // email or staff username
	Kind     PrincipalKind `json:"kind"`
	Grants   GrantSet      `json:"grants,omitempty"`
	Airline  string        `json:"airline,omitempty"` // staff and agent affiliation
}
