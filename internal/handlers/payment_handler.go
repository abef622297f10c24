package handlers

import (
	"log/slog"
	"net/http"
	"net/url"

	"artistry-hub/config"
	"artistry-hub/internal/services"
	"artistry-hub/internal/store"
	"artistry-hub/models"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type PaymentHandler struct {
	app            *pocketbase.PocketBase
	paymentService *services.PaymentService
	cfg            *config.Config
}

func NewPaymentHandler(app *pocketbase.PocketBase, paymentService *services.PaymentService, cfg *config.Config) *PaymentHandler {
	return &PaymentHandler{app: app, paymentService: paymentService, cfg: cfg}
}

// Initiate - Price quote for a paid event. No state mutation.
func (h *PaymentHandler) Initiate(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}

	var req struct {
		EventID string `json:"event_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	quote, err := h.paymentService.Quote(e.Request.Context(), auth.Id, req.EventID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, quote)
}

// CreateSession - Open a gateway payment session and return the
// redirect URL. The client-sent amount is re-verified server side.
func (h *PaymentHandler) CreateSession(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}

	var req struct {
		EventID string `json:"event_id"`
		Amount  int64  `json:"amount"` // paisa
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	user := store.UserFromRecord(auth)
	resp, err := h.paymentService.CreateSession(e.Request.Context(), user, req.EventID, req.Amount)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"pidx":        resp.Pidx,
		"payment_url": resp.PaymentURL,
		"expires_at":  resp.ExpiresAt,
	})
}

// Callback - Public return target for the gateway. The caller is a
// browser mid-redirect, so every path, including panics, must end in a
// redirect to the status page, never a blank or hung response.
func (h *PaymentHandler) Callback(e *core.RequestEvent) error {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("payment callback panic", "panic", r)
			h.redirectStatus(e, &services.CallbackResult{
				Outcome: "error",
				Message: "payment processing failed, contact support",
			})
		}
	}()

	q := e.Request.URL.Query()
	params := &models.CallbackParams{
		Pidx:            q.Get("pidx"),
		Status:          q.Get("status"),
		TransactionID:   firstNonEmpty(q.Get("transaction_id"), q.Get("txnId")),
		PurchaseOrderID: q.Get("purchase_order_id"),
		MerchantExtra:   q.Get("merchant_extra"),
		UID:             q.Get("uid"),
		EID:             q.Get("eid"),
	}

	result := h.paymentService.HandleCallback(e.Request.Context(), params)

	slog.Info("payment callback processed",
		"pidx", params.Pidx,
		"outcome", result.Outcome,
		"event", result.EventID,
	)

	return h.redirectStatus(e, result)
}

func (h *PaymentHandler) redirectStatus(e *core.RequestEvent, result *services.CallbackResult) error {
	target, _ := url.Parse(h.cfg.FrontendURL + "/payment/status")
	q := target.Query()
	q.Set("outcome", result.Outcome)
	if result.Message != "" {
		q.Set("message", result.Message)
	}
	if result.EventID != "" {
		q.Set("event", result.EventID)
	}
	if result.TicketID != "" {
		q.Set("ticket", result.TicketID)
	}
	if result.CheckinCode != "" {
		q.Set("code", result.CheckinCode)
	}
	target.RawQuery = q.Encode()

	return e.Redirect(http.StatusSeeOther, target.String())
}

// Status - Does the caller hold a ticket for the event, and in what
// state. Read-only.
func (h *PaymentHandler) Status(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}

	st, err := h.paymentService.Status(e.Request.Context(), auth.Id, e.Request.PathValue("eventId"))
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, st)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
