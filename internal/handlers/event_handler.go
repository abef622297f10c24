package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"artistry-hub/config"
	"artistry-hub/internal/store"
	"artistry-hub/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type EventHandler struct {
	app *pocketbase.PocketBase
	cfg *config.Config
}

func NewEventHandler(app *pocketbase.PocketBase, cfg *config.Config) *EventHandler {
	return &EventHandler{app: app, cfg: cfg}
}

type eventRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Category       string  `json:"category"`
	SubCategory    string  `json:"sub_category"`
	Type           string  `json:"type"`
	Location       string  `json:"location"`
	Date           string  `json:"date"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	TicketQuantity int     `json:"ticket_quantity"`
	TicketPrice    float64 `json:"ticket_price"`
}

func (r *eventRequest) validate() error {
	if r.Title == "" || r.Category == "" {
		return fmt.Errorf("title and category are required")
	}
	if r.Type != models.EventTypeOnline && r.Type != models.EventTypeVenue {
		return fmt.Errorf("type must be %q or %q", models.EventTypeOnline, models.EventTypeVenue)
	}
	// Location only matters when people have to show up somewhere.
	if r.Type == models.EventTypeVenue && r.Location == "" {
		return fmt.Errorf("location is required for venue events")
	}
	if r.TicketQuantity <= 0 {
		return fmt.Errorf("ticket_quantity must be positive")
	}
	if r.TicketPrice < 0 {
		return fmt.Errorf("ticket_price cannot be negative")
	}
	return nil
}

// Create - Create an event (Artist/Organizer only)
func (h *EventHandler) Create(e *core.RequestEvent) error {
	auth, err := requireRole(e, models.RoleArtist)
	if err != nil {
		return err
	}

	var req eventRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if err := req.validate(); err != nil {
		return apis.NewBadRequestError(err.Error(), nil)
	}

	collection, err := h.app.FindCollectionByNameOrId("events")
	if err != nil {
		return apiError(err)
	}

	rec := core.NewRecord(collection)
	applyEventRequest(rec, &req)
	rec.Set("tickets_available", req.TicketQuantity)
	rec.Set("created_by", auth.Id)

	if err := h.app.SaveWithContext(e.Request.Context(), rec); err != nil {
		return apis.NewBadRequestError("Failed to create event", err)
	}

	return e.JSON(http.StatusCreated, store.EventFromRecord(rec))
}

// Update - Edit an event (creator only)
func (h *EventHandler) Update(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}

	rec, err := h.app.FindRecordById("events", e.Request.PathValue("id"))
	if err != nil {
		return apis.NewNotFoundError("Event not found", nil)
	}
	if rec.GetString("created_by") != auth.Id {
		return apis.NewForbiddenError("Only the event creator may edit it", nil)
	}

	var req eventRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if err := req.validate(); err != nil {
		return apis.NewBadRequestError(err.Error(), nil)
	}

	// tickets_available keeps its issued-ticket history: only the delta
	// between old and new quantity is applied.
	delta := req.TicketQuantity - rec.GetInt("ticket_quantity")
	available := rec.GetInt("tickets_available") + delta
	if available < 0 {
		return apis.NewBadRequestError("cannot shrink quantity below tickets already issued", nil)
	}

	applyEventRequest(rec, &req)
	rec.Set("tickets_available", available)

	if err := h.app.SaveWithContext(e.Request.Context(), rec); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, store.EventFromRecord(rec))
}

// Delete - Remove an event (creator or admin)
func (h *EventHandler) Delete(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}

	rec, err := h.app.FindRecordById("events", e.Request.PathValue("id"))
	if err != nil {
		return apis.NewNotFoundError("Event not found", nil)
	}
	if rec.GetString("created_by") != auth.Id && !isAdmin(auth) {
		return apis.NewForbiddenError("Only the event creator may delete it", nil)
	}

	if err := h.app.DeleteWithContext(e.Request.Context(), rec); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Event deleted"})
}

// List - Browse events with optional filters
func (h *EventHandler) List(e *core.RequestEvent) error {
	q := e.Request.URL.Query()

	filters := []string{}
	params := dbx.Params{}

	if category := q.Get("category"); category != "" {
		filters = append(filters, "category = {:category}")
		params["category"] = category
	}
	if eventType := q.Get("type"); eventType != "" {
		filters = append(filters, "type = {:type}")
		params["type"] = eventType
	}
	if creator := q.Get("created_by"); creator != "" {
		filters = append(filters, "created_by = {:creator}")
		params["creator"] = creator
	}
	if q.Get("upcoming") == "true" {
		filters = append(filters, "end_time >= {:now}")
		params["now"] = time.Now().UTC().Format("2006-01-02 15:04:05.000Z")
	}

	filter := strings.Join(filters, " && ")

	records, err := h.app.FindRecordsByFilter("events", filter, "-date", 50, 0, params)
	if err != nil {
		return apis.NewBadRequestError("Failed to list events", err)
	}

	result := make([]*models.Event, 0, len(records))
	for _, rec := range records {
		result = append(result, store.EventFromRecord(rec))
	}

	return e.JSON(http.StatusOK, result)
}

// Get - Event details
func (h *EventHandler) Get(e *core.RequestEvent) error {
	rec, err := h.app.FindRecordById("events", e.Request.PathValue("id"))
	if err != nil {
		return apis.NewNotFoundError("Event not found", nil)
	}
	return e.JSON(http.StatusOK, store.EventFromRecord(rec))
}

// UploadBanner - Attach a banner image, stored on local disk
func (h *EventHandler) UploadBanner(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}

	rec, err := h.app.FindRecordById("events", e.Request.PathValue("id"))
	if err != nil {
		return apis.NewNotFoundError("Event not found", nil)
	}
	if rec.GetString("created_by") != auth.Id {
		return apis.NewForbiddenError("Only the event creator may change the banner", nil)
	}

	e.Request.Body = http.MaxBytesReader(e.Response, e.Request.Body, h.cfg.MaxUploadSize)

	file, header, err := e.Request.FormFile("banner")
	if err != nil {
		return apis.NewBadRequestError("banner file is required", err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return apis.NewBadRequestError("banner must be a jpg, png or webp image", nil)
	}

	if err := os.MkdirAll(h.cfg.UploadDir, 0o755); err != nil {
		return apiError(err)
	}

	path := filepath.Join(h.cfg.UploadDir, rec.Id+ext)
	dst, err := os.Create(path)
	if err != nil {
		return apiError(err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return apiError(err)
	}

	// Replace a previous banner with a different extension.
	if old := rec.GetString("banner"); old != "" && old != path {
		os.Remove(old)
	}

	rec.Set("banner", path)
	if err := h.app.SaveWithContext(e.Request.Context(), rec); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"banner": path})
}

// Attendees - Ticket holders for an event (creator only)
func (h *EventHandler) Attendees(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}

	eventID := e.Request.PathValue("id")
	rec, err := h.app.FindRecordById("events", eventID)
	if err != nil {
		return apis.NewNotFoundError("Event not found", nil)
	}
	if rec.GetString("created_by") != auth.Id && !isAdmin(auth) {
		return apis.NewForbiddenError("Only the event creator may list attendees", nil)
	}

	tickets, err := h.app.FindRecordsByFilter(
		"tickets",
		"event = {:event}",
		"-created",
		500,
		0,
		map[string]any{"event": eventID},
	)
	if err != nil {
		return apis.NewBadRequestError("Failed to list attendees", err)
	}

	result := []map[string]any{}
	for _, t := range tickets {
		entry := map[string]any{
			"ticket_id":   t.Id,
			"user_id":     t.GetString("user"),
			"rsvp_status": t.GetString("rsvp_status"),
			"status":      t.GetString("status"),
			"paid":        t.GetBool("paid"),
		}
		if user, err := h.app.FindRecordById("users", t.GetString("user")); err == nil {
			entry["name"] = user.GetString("name")
		}
		result = append(result, entry)
	}

	return e.JSON(http.StatusOK, result)
}

func applyEventRequest(rec *core.Record, req *eventRequest) {
	rec.Set("title", req.Title)
	rec.Set("description", req.Description)
	rec.Set("category", req.Category)
	rec.Set("sub_category", req.SubCategory)
	rec.Set("type", req.Type)
	rec.Set("location", req.Location)
	rec.Set("date", req.Date)
	rec.Set("start_time", req.StartTime)
	rec.Set("end_time", req.EndTime)
	rec.Set("ticket_quantity", req.TicketQuantity)
	rec.Set("ticket_price", req.TicketPrice)
}
