package models

import (
	"time"
)

const (
	RSVPPending  = "pending"
	RSVPApproved = "approved"
	RSVPRejected = "rejected"

	TicketBooked   = "booked"
	TicketAttended = "attended"
)

// Ticket links a user to an event. The (user, event) pair is unique and
// doubles as the idempotency key for payment callback processing.
type Ticket struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	RSVPStatus  string    `json:"rsvp_status"` // pending, approved, rejected
	Status      string    `json:"status"`      // booked, attended
	Paid        bool      `json:"paid"`
	PaymentRef  string    `json:"payment_ref,omitempty"` // gateway pidx for paid tickets
	CheckinHash string    `json:"-"`                     // bcrypt hash of the check-in code
	Created     time.Time `json:"created"`
}
