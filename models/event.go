package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventTypeOnline = "Online"
	EventTypeVenue  = "Venue"
)

type Event struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Category         string          `json:"category"`
	SubCategory      string          `json:"sub_category,omitempty"`
	Type             string          `json:"type"` // Online, Venue
	Location         string          `json:"location,omitempty"`
	Date             time.Time       `json:"date"`
	StartTime        time.Time       `json:"start_time"`
	EndTime          time.Time       `json:"end_time"`
	TicketQuantity   int             `json:"ticket_quantity"`
	TicketsAvailable int             `json:"tickets_available"`
	TicketPrice      decimal.Decimal `json:"ticket_price"` // NPR, zero for free events
	AverageRating    float64         `json:"average_rating"`
	RatingCount      int             `json:"rating_count"`
	Banner           string          `json:"banner,omitempty"`
	CreatedBy        string          `json:"created_by"`
	Created          time.Time       `json:"created"`
}

// Paid reports whether attending the event requires payment.
func (e *Event) Paid() bool {
	return e.TicketPrice.IsPositive()
}

// PricePaisa returns the ticket price in minor currency units, the unit
// the payment gateway speaks.
func (e *Event) PricePaisa() int64 {
	return e.TicketPrice.Mul(decimal.NewFromInt(100)).IntPart()
}

// Ended reports whether the event is over, which gates review creation.
func (e *Event) Ended(now time.Time) bool {
	return e.EndTime.Before(now)
}
