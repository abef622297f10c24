package services

import (
	"context"

	"artistry-hub/internal/services/khalti"
	"artistry-hub/internal/status"
	"artistry-hub/models"
)

// Store is the persistence surface the services need. The PocketBase
// implementation lives in internal/store; tests substitute a mock.
type Store interface {
	EventByID(ctx context.Context, id string) (*models.Event, error)

	TicketFor(ctx context.Context, userID, eventID string) (*models.Ticket, error)
	TicketByID(ctx context.Context, id string) (*models.Ticket, error)
	// IssueTicket creates the ticket and decrements inventory as a
	// single logical unit. Returns status.ErrSoldOut when no inventory
	// is left and status.ErrAlreadyTicketed on a (user, event) clash.
	IssueTicket(ctx context.Context, t *models.Ticket) (*models.Ticket, error)
	SetRSVPStatus(ctx context.Context, ticketID, rsvpStatus string) error
	SetAttended(ctx context.Context, ticketID string) error

	ReviewByID(ctx context.Context, id string) (*models.Review, error)
	CreateReview(ctx context.Context, r *models.Review) (*models.Review, error)
	DeleteReview(ctx context.Context, reviewID string) error
}

// Gateway is the payment provider surface. Khalti is the only
// implementation; tests substitute a mock.
type Gateway interface {
	Initiate(ctx context.Context, r *khalti.InitiateRequest) (*khalti.InitiateResponse, error)
	Lookup(ctx context.Context, pidx string) (*status.Transaction, error)
}
