package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cx-tal-miterani/airline-reservation/internal/auth"
	"github.com/cx-tal-miterani/airline-reservation/internal/database"
)

// BookingService converts purchase requests into atomic ticket+purchase
// batches. There is deliberately no seat-capacity check: the system has no
// inventory invariant and accepts unbounded purchases against a flight.
type BookingService struct {
	store Store
}

// NewBookingService creates a new BookingService
func NewBookingService(store Store) *BookingService {
	return &BookingService{store: store}
}

// PurchaseRequest describes one purchase batch against a single flight.
type PurchaseRequest struct {
	Flight             database.FlightKey
	CustomerEmails     []string
	TicketsPerCustomer int
	PurchaseDate       time.Time
}

// Purchase materializes the batch for the acting principal.
//
// A customer purchases for themselves only (empty CustomerEmails defaults to
// the actor). A booking agent purchases for one or more customers and is
// recorded as the agent on every row of the batch. All inserts run in one
// storage transaction; on any failure nothing is visible afterwards and the
// caller must resubmit the whole batch.
//
// Returned ticket IDs follow the fixed expansion order: one pass over the
// customers per ticket unit (outer loop = count, inner loop = customer).
func (s *BookingService) Purchase(ctx context.Context, actor *auth.AuthContext, req PurchaseRequest) ([]int64, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: no session", ErrUnauthorized)
	}
	if req.TicketsPerCustomer <= 0 {
		return nil, fmt.Errorf("%w: ticket count must be positive", ErrInvalidRequest)
	}

	var agentEmail *string
	customers := req.CustomerEmails

	switch actor.Kind {
	case auth.KindCustomer:
		if len(customers) == 0 {
			customers = []string{actor.Identity}
		}
		if len(customers) != 1 || customers[0] != actor.Identity {
			return nil, fmt.Errorf("%w: customers purchase for themselves only", ErrUnauthorized)
		}
	case auth.KindBookingAgent:
		if len(customers) == 0 {
			return nil, fmt.Errorf("%w: at least one customer is required", ErrInvalidRequest)
		}
		for _, email := range customers {
			if _, err := s.store.GetCustomerByEmail(ctx, email); err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return nil, fmt.Errorf("%w: customer %s", ErrUnknownPrincipal, email)
				}
				return nil, fmt.Errorf("customer lookup: %w", err)
			}
		}
		email := actor.Identity
		agentEmail = &email
	default:
		return nil, fmt.Errorf("%w: %s cannot purchase tickets", ErrUnauthorized, actor.Kind)
	}

	if _, err := s.store.GetFlight(ctx, req.Flight); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUnknownFlight
		}
		return nil, fmt.Errorf("flight lookup: %w", err)
	}

	purchaseDate := req.PurchaseDate
	if purchaseDate.IsZero() {
		purchaseDate = time.Now()
	}

	lines := expandBatch(customers, agentEmail, req.TicketsPerCustomer, purchaseDate)

	ticketIDs, err := s.store.CreateTicketPurchases(ctx, req.Flight, lines)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	return ticketIDs, nil
}

// expandBatch expands (customers, count) into ordered purchase lines. Every
// line of a batch carries the same agent attribution and purchase date.
func expandBatch(customers []string, agentEmail *string, ticketsPerCustomer int, purchaseDate time.Time) []database.PurchaseLine {
	lines := make([]database.PurchaseLine, 0, len(customers)*ticketsPerCustomer)
	for unit := 0; unit < ticketsPerCustomer; unit++ {
		for _, email := range customers {
			lines = append(lines, database.PurchaseLine{
				CustomerEmail:     email,
				BookingAgentEmail: agentEmail,
				PurchaseDate:      purchaseDate,
			})
		}
	}
	return lines
}
