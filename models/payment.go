package models

import (
	"time"
)

// Session is the ephemeral payment state held in Redis between the
// initiate call and the gateway callback.
type Session struct {
	Pidx      string    `json:"pidx"`
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id"`
	Amount    int64     `json:"amount"` // paisa
	Status    string    `json:"status"` // pending, completed, cancelled
	CreatedAt time.Time `json:"created_at"`
}

// Quote is the read-only price answer for the payment initiate step.
type Quote struct {
	EventID     string `json:"event_id"`
	EventTitle  string `json:"event_title"`
	AmountPaisa int64  `json:"amount"`
}

// CallbackParams are the query parameters the gateway appends to the
// return URL. None of them are trusted until the lookup re-verification;
// the three identity carriers exist because callback delivery is not
// reliable about which channel preserves custom data.
type CallbackParams struct {
	Pidx            string
	Status          string
	TransactionID   string
	PurchaseOrderID string
	MerchantExtra   string // JSON {"user_id":...,"event_id":...}
	UID             string // raw query param fallback
	EID             string
}
