package handlers

import (
	"net/http"
	"strings"
	"time"

	"artistry-hub/internal/store"
	"artistry-hub/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/redis/go-redis/v9"
)

type AdminHandler struct {
	app   *pocketbase.PocketBase
	redis *redis.Client
}

func NewAdminHandler(app *pocketbase.PocketBase, redisClient *redis.Client) *AdminHandler {
	return &AdminHandler{app: app, redis: redisClient}
}

// ListUsers - All accounts, optionally filtered by name/email substring
func (h *AdminHandler) ListUsers(e *core.RequestEvent) error {
	if _, err := requireRole(e, models.RoleAdmin); err != nil {
		return err
	}

	filter := ""
	params := dbx.Params{}
	if search := e.Request.URL.Query().Get("search"); search != "" {
		filter = "name ~ {:search} || email ~ {:search}"
		params["search"] = search
	}

	records, err := h.app.FindRecordsByFilter("users", filter, "-created", 200, 0, params)
	if err != nil {
		return apis.NewBadRequestError("Failed to list users", err)
	}

	result := make([]*models.User, 0, len(records))
	for _, rec := range records {
		result = append(result, store.UserFromRecord(rec))
	}

	return e.JSON(http.StatusOK, result)
}

// BanUser - Soft-disable an account. Banned users cannot log in or use
// an existing token.
func (h *AdminHandler) BanUser(e *core.RequestEvent) error {
	admin, err := requireRole(e, models.RoleAdmin)
	if err != nil {
		return err
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	userID := e.Request.PathValue("id")
	if userID == admin.Id {
		return apis.NewBadRequestError("cannot ban yourself", nil)
	}

	rec, err := h.app.FindRecordById("users", userID)
	if err != nil {
		return apis.NewNotFoundError("User not found", nil)
	}

	rec.Set("is_banned", true)
	rec.Set("ban_reason", req.Reason)
	rec.Set("banned_at", types.NowDateTime())
	rec.Set("banned_by", admin.Id)

	if err := h.app.SaveWithContext(e.Request.Context(), rec); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, store.UserFromRecord(rec))
}

// UnbanUser - Lift a ban
func (h *AdminHandler) UnbanUser(e *core.RequestEvent) error {
	if _, err := requireRole(e, models.RoleAdmin); err != nil {
		return err
	}

	rec, err := h.app.FindRecordById("users", e.Request.PathValue("id"))
	if err != nil {
		return apis.NewNotFoundError("User not found", nil)
	}

	rec.Set("is_banned", false)
	rec.Set("ban_reason", "")
	rec.Set("banned_at", nil)
	rec.Set("banned_by", "")

	if err := h.app.SaveWithContext(e.Request.Context(), rec); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, store.UserFromRecord(rec))
}

// DeleteUser - Hard delete (explicit admin action; bans are the soft path)
func (h *AdminHandler) DeleteUser(e *core.RequestEvent) error {
	admin, err := requireRole(e, models.RoleAdmin)
	if err != nil {
		return err
	}

	userID := e.Request.PathValue("id")
	if userID == admin.Id {
		return apis.NewBadRequestError("cannot delete yourself", nil)
	}

	rec, err := h.app.FindRecordById("users", userID)
	if err != nil {
		return apis.NewNotFoundError("User not found", nil)
	}

	if err := h.app.DeleteWithContext(e.Request.Context(), rec); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "User deleted"})
}

// PaymentSessions - Dashboard over the ephemeral payment sessions in
// Redis, mainly for support: spotting payments stuck in pending.
func (h *AdminHandler) PaymentSessions(e *core.RequestEvent) error {
	if _, err := requireRole(e, models.RoleAdmin); err != nil {
		return err
	}

	ctx := e.Request.Context()

	keys, err := h.redis.Keys(ctx, "payment:*").Result()
	if err != nil {
		return apis.NewBadRequestError("Failed to read sessions", err)
	}

	sessions := []map[string]any{}
	for _, key := range keys {
		data, err := h.redis.HGetAll(ctx, key).Result()
		if err != nil || len(data) == 0 {
			continue
		}
		ttl, _ := h.redis.TTL(ctx, key).Result()
		sessions = append(sessions, map[string]any{
			"pidx":       strings.TrimPrefix(key, "payment:"),
			"user_id":    data["user_id"],
			"event_id":   data["event_id"],
			"amount":     data["amount"],
			"status":     data["status"],
			"expires_in": ttl.Round(time.Second).String(),
		})
	}

	return e.JSON(http.StatusOK, map[string]any{
		"count":    len(sessions),
		"sessions": sessions,
	})
}
