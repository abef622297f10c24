package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"artistry-hub/config"
	"artistry-hub/internal/services/khalti"
	"artistry-hub/internal/status"
	"artistry-hub/models"
	"artistry-hub/monitoring"
	"artistry-hub/utils"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// PaymentService owns the initiate -> redirect -> callback workflow and
// its reconciliation against local tickets and inventory.
type PaymentService struct {
	Redis   *redis.Client
	store   Store
	gateway Gateway
	notify  Notifier
	breaker *utils.CircuitBreaker
	cfg     *config.Config
}

func NewPaymentService(redisClient *redis.Client, st Store, gw Gateway, notify Notifier, cfg *config.Config) *PaymentService {
	return &PaymentService{
		Redis:   redisClient,
		store:   st,
		gateway: gw,
		notify:  notify,
		breaker: utils.NewCircuitBreaker("khalti"),
		cfg:     cfg,
	}
}

// Quote verifies that the user can buy into the event and returns the
// price in paisa. Performs no state mutation.
func (s *PaymentService) Quote(ctx context.Context, userID, eventID string) (*models.Quote, error) {
	event, err := s.store.EventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.Paid() {
		return nil, status.ErrFreeEvent
	}
	if event.TicketsAvailable <= 0 {
		return nil, status.ErrSoldOut
	}
	if _, err := s.store.TicketFor(ctx, userID, eventID); err == nil {
		return nil, status.ErrAlreadyTicketed
	}

	return &models.Quote{
		EventID:     event.ID,
		EventTitle:  event.Title,
		AmountPaisa: event.PricePaisa(),
	}, nil
}

// CreateSession re-verifies the client-sent amount against the event
// price and opens a payment session with the gateway. The (user, event)
// identity is embedded redundantly in the order id, the merchant
// metadata, and the return URL query because callback delivery is not
// reliable about which channel preserves custom data.
func (s *PaymentService) CreateSession(ctx context.Context, user *models.User, eventID string, amountPaisa int64) (*khalti.InitiateResponse, error) {
	quote, err := s.Quote(ctx, user.ID, eventID)
	if err != nil {
		return nil, err
	}
	if amountPaisa != quote.AmountPaisa {
		return nil, fmt.Errorf("sent %d, event costs %d: %w", amountPaisa, quote.AmountPaisa, status.ErrAmountMismatch)
	}

	nonce, err := utils.GenerateCode(4)
	if err != nil {
		return nil, fmt.Errorf("create session: nonce: %w", err)
	}

	returnURL, _ := url.Parse(s.cfg.CallbackURL())
	q := returnURL.Query()
	q.Set("uid", user.ID)
	q.Set("eid", eventID)
	returnURL.RawQuery = q.Encode()

	req := &khalti.InitiateRequest{
		ReturnURL:         returnURL.String(),
		WebsiteURL:        s.cfg.WebsiteURL,
		Amount:            decimal.NewFromInt(amountPaisa),
		PurchaseOrderID:   BuildOrderID(user.ID, eventID, nonce),
		PurchaseOrderName: quote.EventTitle,
		CustomerInfo:      khalti.CustomerInfo{Name: user.Name, Email: user.Email},
		MerchantExtra:     BuildMerchantExtra(user.ID, eventID),
	}

	started := time.Now()
	result, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		return s.gateway.Initiate(ctx, req)
	})
	monitoring.TrackGatewayCall("initiate", time.Since(started))
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	resp := result.(*khalti.InitiateResponse)

	s.saveSession(ctx, resp.Pidx, user.ID, eventID, amountPaisa)

	return resp, nil
}

func (s *PaymentService) saveSession(ctx context.Context, pidx, userID, eventID string, amount int64) {
	sessionKey := fmt.Sprintf("payment:%s", pidx)
	sessionData := map[string]any{
		"pidx":       pidx,
		"user_id":    userID,
		"event_id":   eventID,
		"amount":     amount,
		"status":     "pending",
		"created_at": time.Now().Unix(),
	}
	for k, v := range sessionData {
		s.Redis.HSet(ctx, sessionKey, k, v)
	}
	s.Redis.Expire(ctx, sessionKey, s.cfg.PaymentSessionTTL)
}

// CallbackResult tells the handler where to send the browser. The
// callback endpoint always answers with a redirect, never JSON.
type CallbackResult struct {
	Outcome  string `json:"outcome"` // success, cancelled, error
	Message  string `json:"message,omitempty"`
	EventID  string `json:"event_id,omitempty"`
	TicketID string `json:"ticket_id,omitempty"`

	// CheckinCode is the raw check-in code, present only on the delivery
	// that actually created the ticket. It is never reconstructable.
	CheckinCode string `json:"checkin_code,omitempty"`
}

// HandleCallback processes a gateway redirect or webhook retry. It is
// safe to invoke any number of times for the same logical payment: the
// (user, event) uniqueness constraint is the idempotency key.
func (s *PaymentService) HandleCallback(ctx context.Context, p *models.CallbackParams) *CallbackResult {
	if p.Status == status.StatusUserCanceled {
		monitoring.TrackCallback("cancelled")
		s.markSession(ctx, p.Pidx, "cancelled")
		return &CallbackResult{Outcome: "cancelled", Message: "payment was cancelled"}
	}

	if p.Pidx == "" {
		monitoring.TrackCallback("error")
		return &CallbackResult{Outcome: "error", Message: "missing pidx"}
	}

	// Never trust the redirect parameters; re-verify with the gateway.
	started := time.Now()
	result, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		return s.gateway.Lookup(ctx, p.Pidx)
	})
	monitoring.TrackGatewayCall("lookup", time.Since(started))
	if err != nil {
		monitoring.TrackCallback("verification_failed")
		return &CallbackResult{Outcome: "error", Message: "payment verification failed"}
	}
	tx := result.(*status.Transaction)

	if tx.Status != status.StatusCompleted {
		monitoring.TrackCallback("verification_failed")
		s.markSession(ctx, p.Pidx, "failed")
		return &CallbackResult{Outcome: "error", Message: fmt.Sprintf("payment not completed (gateway reports %q)", tx.Status)}
	}

	userID, eventID, err := ResolveIdentity(p)
	if err != nil {
		// Fail closed: a completed payment we cannot attribute must be
		// reported, never guessed at.
		monitoring.TrackCallback("unresolvable")
		return &CallbackResult{Outcome: "error", Message: "could not match payment to a user and event, contact support with your transaction id"}
	}

	event, err := s.store.EventByID(ctx, eventID)
	if err != nil {
		monitoring.TrackCallback("error")
		return &CallbackResult{Outcome: "error", Message: "event no longer exists"}
	}
	if !tx.TotalAmount.Equal(decimal.NewFromInt(event.PricePaisa())) {
		monitoring.TrackCallback("error")
		return &CallbackResult{Outcome: "error", Message: "paid amount does not match the ticket price"}
	}

	ticket, code, err := s.issueTicket(ctx, userID, eventID, p.Pidx)
	if err != nil {
		monitoring.TrackCallback("error")
		return &CallbackResult{Outcome: "error", Message: err.Error(), EventID: eventID}
	}

	s.markSession(ctx, p.Pidx, "completed")
	s.notify.PaymentCompleted(userID, eventID, p.Pidx)

	if code != "" {
		monitoring.TrackCallback("success")
		monitoring.TrackTicketIssued("paid")
	} else {
		monitoring.TrackCallback("duplicate")
	}

	return &CallbackResult{
		Outcome:     "success",
		EventID:     eventID,
		TicketID:    ticket.ID,
		CheckinCode: code,
	}
}

// issueTicket creates the approved ticket and decrements inventory,
// or recognizes a prior delivery of the same payment. A pre-existing
// ticket left in a non-approved state (a prior partial failure) is
// healed to approved. The returned code is non-empty only when this
// invocation created the ticket: the raw check-in code is handed out
// exactly once.
func (s *PaymentService) issueTicket(ctx context.Context, userID, eventID, pidx string) (ticket *models.Ticket, code string, err error) {
	existing, err := s.store.TicketFor(ctx, userID, eventID)
	if err == nil {
		if existing.RSVPStatus != models.RSVPApproved {
			if err := s.store.SetRSVPStatus(ctx, existing.ID, models.RSVPApproved); err != nil {
				return nil, "", fmt.Errorf("heal ticket approval: %w", err)
			}
			existing.RSVPStatus = models.RSVPApproved
		}
		return existing, "", nil
	}

	code, err = utils.GenerateCode(4)
	if err != nil {
		return nil, "", fmt.Errorf("issue ticket: code: %w", err)
	}
	hash, err := utils.HashCheckinCode(code)
	if err != nil {
		return nil, "", fmt.Errorf("issue ticket: hash: %w", err)
	}

	ticket, err = s.store.IssueTicket(ctx, &models.Ticket{
		EventID:     eventID,
		UserID:      userID,
		RSVPStatus:  models.RSVPApproved,
		Status:      models.TicketBooked,
		Paid:        true,
		PaymentRef:  pidx,
		CheckinHash: hash,
	})
	if errors.Is(err, status.ErrAlreadyTicketed) {
		// Lost the race against a concurrent delivery of this callback;
		// the other invocation created the ticket, which is success.
		existing, ferr := s.store.TicketFor(ctx, userID, eventID)
		if ferr != nil {
			return nil, "", ferr
		}
		return existing, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	return ticket, code, nil
}

func (s *PaymentService) markSession(ctx context.Context, pidx, state string) {
	if pidx == "" {
		return
	}
	s.Redis.HSet(ctx, fmt.Sprintf("payment:%s", pidx), "status", state)
}

// TicketStatus answers the read-only status query for (user, event).
type TicketStatus struct {
	Exists     bool   `json:"exists"`
	TicketID   string `json:"ticket_id,omitempty"`
	RSVPStatus string `json:"rsvp_status,omitempty"`
	Status     string `json:"status,omitempty"`
	Paid       bool   `json:"paid,omitempty"`
}

func (s *PaymentService) Status(ctx context.Context, userID, eventID string) (*TicketStatus, error) {
	ticket, err := s.store.TicketFor(ctx, userID, eventID)
	if errors.Is(err, status.ErrTicketNotFound) {
		return &TicketStatus{Exists: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &TicketStatus{
		Exists:     true,
		TicketID:   ticket.ID,
		RSVPStatus: ticket.RSVPStatus,
		Status:     ticket.Status,
		Paid:       ticket.Paid,
	}, nil
}
