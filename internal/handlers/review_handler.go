package handlers

import (
	"net/http"

	"artistry-hub/internal/services"
	"artistry-hub/internal/store"
	"artistry-hub/models"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type ReviewHandler struct {
	app           *pocketbase.PocketBase
	reviewService *services.ReviewService
}

func NewReviewHandler(app *pocketbase.PocketBase, reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{app: app, reviewService: reviewService}
}

// Create - Review an attended event after it ends
func (h *ReviewHandler) Create(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	review, err := h.reviewService.Create(e.Request.Context(), auth.Id, e.Request.PathValue("id"), req.Rating, req.Comment)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusCreated, review)
}

// List - Reviews for an event
func (h *ReviewHandler) List(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("id")

	records, err := h.app.FindRecordsByFilter(
		"reviews",
		"event = {:event}",
		"-created",
		100,
		0,
		map[string]any{"event": eventID},
	)
	if err != nil {
		return apis.NewBadRequestError("Failed to list reviews", err)
	}

	result := []map[string]any{}
	for _, rec := range records {
		entry := map[string]any{
			"review": store.ReviewFromRecord(rec),
		}
		if user, err := h.app.FindRecordById("users", rec.GetString("user")); err == nil {
			entry["user_name"] = user.GetString("name")
		}
		result = append(result, entry)
	}

	return e.JSON(http.StatusOK, result)
}

// Delete - Remove a review (owner or admin)
func (h *ReviewHandler) Delete(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}

	requester := &models.User{ID: auth.Id, Role: auth.GetString("role")}
	if err := h.reviewService.Delete(e.Request.Context(), requester, e.Request.PathValue("id")); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Review deleted"})
}
