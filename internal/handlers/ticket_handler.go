package handlers

import (
	"net/http"

	"artistry-hub/internal/services"
	"artistry-hub/internal/store"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type TicketHandler struct {
	app           *pocketbase.PocketBase
	ticketService *services.TicketService
}

func NewTicketHandler(app *pocketbase.PocketBase, ticketService *services.TicketService) *TicketHandler {
	return &TicketHandler{app: app, ticketService: ticketService}
}

// RSVP - Reserve a spot at a free event
func (h *TicketHandler) RSVP(e *core.RequestEvent) error {
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
	if req.EventID == "" {
		return apis.NewBadRequestError("event_id is required", nil)
	}

	ticket, code, err := h.ticketService.RSVP(e.Request.Context(), auth.Id, req.EventID)
	if err != nil {
		return apiError(err)
	}

	// The raw check-in code is returned exactly once.
	return e.JSON(http.StatusCreated, map[string]any{
		"ticket":       ticket,
		"checkin_code": code,
	})
}

// Mine - The caller's tickets with event context
func (h *TicketHandler) Mine(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}

	tickets, err := h.app.FindRecordsByFilter(
		"tickets",
		"user = {:user}",
		"-created",
		100,
		0,
		map[string]any{"user": auth.Id},
	)
	if err != nil {
		return apis.NewBadRequestError("Failed to list tickets", err)
	}

	result := []map[string]any{}
	for _, t := range tickets {
		entry := map[string]any{
			"ticket": store.TicketFromRecord(t),
		}
		if event, err := h.app.FindRecordById("events", t.GetString("event")); err == nil {
			entry["event_title"] = event.GetString("title")
			entry["event_date"] = event.GetDateTime("date")
		}
		result = append(result, entry)
	}

	return e.JSON(http.StatusOK, result)
}

// Approve - Approve a pending RSVP (event creator only)
func (h *TicketHandler) Approve(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}

	if err := h.ticketService.Approve(e.Request.Context(), auth.Id, e.Request.PathValue("id")); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Ticket approved"})
}

// Reject - Decline a pending RSVP (event creator only)
func (h *TicketHandler) Reject(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}

	if err := h.ticketService.Reject(e.Request.Context(), auth.Id, e.Request.PathValue("id")); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Ticket rejected"})
}

// CheckIn - Mark a ticket attended after verifying its check-in code
func (h *TicketHandler) CheckIn(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if err := h.ticketService.CheckIn(e.Request.Context(), auth.Id, e.Request.PathValue("id"), req.Code); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Checked in"})
}
