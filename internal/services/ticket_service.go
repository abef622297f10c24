package services

import (
	"context"
	"fmt"

	"artistry-hub/internal/status"
	"artistry-hub/models"
	"artistry-hub/monitoring"
	"artistry-hub/utils"
)

// TicketService owns the free RSVP lifecycle: request, organizer
// approval, and check-in. Paid issuance lives in PaymentService; both
// paths share the same store-level guarantees.
type TicketService struct {
	store Store
}

func NewTicketService(st Store) *TicketService {
	return &TicketService{store: st}
}

// RSVP books a free event. The returned code is shown to the holder
// exactly once; only its hash is stored.
func (s *TicketService) RSVP(ctx context.Context, userID, eventID string) (*models.Ticket, string, error) {
	event, err := s.store.EventByID(ctx, eventID)
	if err != nil {
		return nil, "", err
	}
	if event.Paid() {
		return nil, "", status.ErrPaymentRequired
	}
	if event.TicketsAvailable <= 0 {
		return nil, "", status.ErrSoldOut
	}
	if _, err := s.store.TicketFor(ctx, userID, eventID); err == nil {
		return nil, "", status.ErrAlreadyTicketed
	}

	code, err := utils.GenerateCode(4)
	if err != nil {
		return nil, "", fmt.Errorf("rsvp: code: %w", err)
	}
	hash, err := utils.HashCheckinCode(code)
	if err != nil {
		return nil, "", fmt.Errorf("rsvp: hash: %w", err)
	}

	ticket, err := s.store.IssueTicket(ctx, &models.Ticket{
		EventID:     eventID,
		UserID:      userID,
		RSVPStatus:  models.RSVPPending,
		Status:      models.TicketBooked,
		CheckinHash: hash,
	})
	if err != nil {
		return nil, "", err
	}

	monitoring.TrackTicketIssued("rsvp")
	return ticket, code, nil
}

// Approve moves a pending RSVP to approved. Only the event creator may
// do this.
func (s *TicketService) Approve(ctx context.Context, organizerID, ticketID string) error {
	return s.setApproval(ctx, organizerID, ticketID, models.RSVPApproved)
}

// Reject declines a pending RSVP.
func (s *TicketService) Reject(ctx context.Context, organizerID, ticketID string) error {
	return s.setApproval(ctx, organizerID, ticketID, models.RSVPRejected)
}

func (s *TicketService) setApproval(ctx context.Context, organizerID, ticketID, rsvpStatus string) error {
	ticket, err := s.store.TicketByID(ctx, ticketID)
	if err != nil {
		return err
	}
	event, err := s.store.EventByID(ctx, ticket.EventID)
	if err != nil {
		return err
	}
	if event.CreatedBy != organizerID {
		return status.ErrNotOwner
	}
	return s.store.SetRSVPStatus(ctx, ticketID, rsvpStatus)
}

// CheckIn marks an approved ticket as attended after verifying the
// holder's check-in code.
func (s *TicketService) CheckIn(ctx context.Context, organizerID, ticketID, code string) error {
	ticket, err := s.store.TicketByID(ctx, ticketID)
	if err != nil {
		return err
	}
	event, err := s.store.EventByID(ctx, ticket.EventID)
	if err != nil {
		return err
	}
	if event.CreatedBy != organizerID {
		return status.ErrNotOwner
	}
	// Every issued ticket carries a hash; one without can never pass.
	if ticket.CheckinHash == "" || !utils.VerifyCheckinCode(ticket.CheckinHash, code) {
		return status.ErrBadCheckinCode
	}
	return s.store.SetAttended(ctx, ticketID)
}
