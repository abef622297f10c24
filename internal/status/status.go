package status

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrEventNotFound         = errors.New("event: event not found")
	ErrSoldOut               = errors.New("event: no tickets available")
	ErrFreeEvent             = errors.New("payment: event does not require payment")
	ErrPaymentRequired       = errors.New("ticket: event requires payment, use the payment flow")
	ErrAlreadyTicketed       = errors.New("ticket: user already holds a ticket for this event")
	ErrTicketNotFound        = errors.New("ticket: ticket not found")
	ErrAmountMismatch        = errors.New("payment: amount does not match event price")
	ErrUpstream              = errors.New("payment: upstream gateway error")
	ErrVerificationFailed    = errors.New("payment: gateway verification failed")
	ErrUnresolvableReference = errors.New("payment: cannot resolve user and event from callback")
	ErrDuplicateReview       = errors.New("review: user already reviewed this event")
	ErrEventNotEnded         = errors.New("review: event has not ended yet")
	ErrNotTicketHolder       = errors.New("review: no approved ticket for this event")
	ErrBadCheckinCode        = errors.New("ticket: check-in code does not match")
	ErrInvalidRating         = errors.New("review: rating must be between 1 and 5")
	ErrReviewNotFound        = errors.New("review: review not found")
	ErrNotOwner              = errors.New("auth: caller does not own this resource")
)

// Gateway lookup statuses. Only Completed is good enough to mutate
// local state; everything else is reported, never acted on.
const (
	StatusCompleted    = "Completed"
	StatusPending      = "Pending"
	StatusRefunded     = "Refunded"
	StatusExpired      = "Expired"
	StatusUserCanceled = "User canceled"
)

// Transaction is the verified state of a payment as reported by the
// gateway lookup endpoint. The redirect alone is client-controlled and
// spoofable, so reconciliation only ever trusts this.
type Transaction struct {
	Pidx          string          `json:"pidx"`
	TransactionID string          `json:"transaction_id"`
	Status        string          `json:"status"`
	TotalAmount   decimal.Decimal `json:"total_amount"` // paisa
	Fee           decimal.Decimal `json:"fee"`
	Refunded      bool            `json:"refunded"`
}
