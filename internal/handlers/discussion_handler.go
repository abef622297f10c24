package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"artistry-hub/internal/services"
	"artistry-hub/internal/store"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// DiscussionHandler serves the append-only discussion log per event.
// No edit or delete is exposed.
type DiscussionHandler struct {
	app    *pocketbase.PocketBase
	notify services.Notifier
}

func NewDiscussionHandler(app *pocketbase.PocketBase, notify services.Notifier) *DiscussionHandler {
	return &DiscussionHandler{app: app, notify: notify}
}

// Post - Append a message to an event's discussion
func (h *DiscussionHandler) Post(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}

	eventID := e.Request.PathValue("id")
	if _, err := h.app.FindRecordById("events", eventID); err != nil {
		return apis.NewNotFoundError("Event not found", nil)
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" || len(req.Message) > 2000 {
		return apis.NewBadRequestError("message must be 1-2000 characters", nil)
	}

	collection, err := h.app.FindCollectionByNameOrId("discussions")
	if err != nil {
		return apiError(err)
	}

	rec := core.NewRecord(collection)
	rec.Set("event", eventID)
	rec.Set("user", auth.Id)
	rec.Set("message", req.Message)

	if err := h.app.SaveWithContext(e.Request.Context(), rec); err != nil {
		return apis.NewBadRequestError("Failed to post message", err)
	}

	discussion := store.DiscussionFromRecord(rec)
	h.notify.DiscussionPosted(discussion)

	return e.JSON(http.StatusCreated, discussion)
}

// List - Discussion messages for an event, newest first
func (h *DiscussionHandler) List(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("id")

	perPage := 50
	page := 1
	if v, err := strconv.Atoi(e.Request.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}

	records, err := h.app.FindRecordsByFilter(
		"discussions",
		"event = {:event}",
		"-created",
		perPage,
		(page-1)*perPage,
		map[string]any{"event": eventID},
	)
	if err != nil {
		return apis.NewBadRequestError("Failed to list discussion", err)
	}

	result := []map[string]any{}
	for _, rec := range records {
		entry := map[string]any{
			"message": store.DiscussionFromRecord(rec),
		}
		if user, err := h.app.FindRecordById("users", rec.GetString("user")); err == nil {
			entry["user_name"] = user.GetString("name")
		}
		result = append(result, entry)
	}

	return e.JSON(http.StatusOK, result)
}
