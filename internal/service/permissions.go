package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cx-tal-miterani/airline-reservation/internal/auth"
	"github.com/cx-tal-miterani/airline-reservation/internal/database"
)

// PermissionService resolves staff grants and answers authorization checks.
//
// Grants are resolved once at login and travel inside the session's
// AuthContext; Authorize only looks at that cached set. A grant added or
// removed mid-session takes effect at the principal's next login.
type PermissionService struct {
	store Store
}

// NewPermissionService creates a new PermissionService
func NewPermissionService(store Store) *PermissionService {
	return &PermissionService{store: store}
}

// ResolveGrants computes the effective grant set for a staff username.
func (s *PermissionService) ResolveGrants(ctx context.Context, username string) (auth.GrantSet, error) {
	grants, err := s.store.GetGrants(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("resolve grants: %w", err)
	}
	return grants, nil
}

// Authorize decides whether the actor may perform an action requiring the
// given grant. Denied when there is no actor, the actor is not airline
// staff, or the grant is missing from the session's cached set.
func (s *PermissionService) Authorize(actor *auth.AuthContext, required auth.Grant) error {
	if actor == nil {
		return fmt.Errorf("%w: no session", ErrUnauthorized)
	}
	if actor.Kind != auth.KindAirlineStaff {
		return fmt.Errorf("%w: %s is not airline staff", ErrUnauthorized, actor.Kind)
	}
	if !actor.Grants.Has(required) {
		return fmt.Errorf("%w: missing %s grant", ErrUnauthorized, required)
	}
	return nil
}

// GrantPermission ensures the target staff member holds the given grant.
// The actor must hold Admin and share the target's airline. Granting an
// already-held grant is a no-op, so the operation is safe to repeat.
//
// Live sessions of the target are not touched; the new grant is picked up
// at their next login.
func (s *PermissionService) GrantPermission(ctx context.Context, actor *auth.AuthContext, targetUsername string, grant auth.Grant) error {
	if err := s.Authorize(actor, auth.GrantAdmin); err != nil {
		return err
	}

	target, err := s.store.GetStaffByUsername(ctx, targetUsername)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrUnknownPrincipal
		}
		return fmt.Errorf("grant permission: %w", err)
	}
	if target.Airline != actor.Airline {
		return fmt.Errorf("%w: %s belongs to a different airline", ErrUnauthorized, targetUsername)
	}

	if err := s.store.EnsureGrant(ctx, targetUsername, grant); err != nil {
		return fmt.Errorf("grant permission: %w", err)
	}
	return nil
}
