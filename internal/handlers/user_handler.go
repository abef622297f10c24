package handlers

import (
	"net/http"

	"artistry-hub/internal/store"
	"artistry-hub/models"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type UserHandler struct {
	app *pocketbase.PocketBase
}

func NewUserHandler(app *pocketbase.PocketBase) *UserHandler {
	return &UserHandler{app: app}
}

// Register - Create a new account
func (h *UserHandler) Register(e *core.RequestEvent) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
		Bio      string `json:"bio"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if req.Name == "" || req.Email == "" || len(req.Password) < 8 {
		return apis.NewBadRequestError("name, email and a password of at least 8 characters are required", nil)
	}
	if req.Role == "" {
		req.Role = models.RoleAttendee
	}
	// Admin accounts are provisioned, never self-registered.
	if req.Role == models.RoleAdmin || !models.ValidRole(req.Role) {
		return apis.NewBadRequestError("role must be Artist/Organizer or Attendee", nil)
	}

	collection, err := h.app.FindCollectionByNameOrId("users")
	if err != nil {
		return apiError(err)
	}

	rec := core.NewRecord(collection)
	rec.Set("name", req.Name)
	rec.Set("email", req.Email)
	rec.Set("password", req.Password)
	rec.Set("role", req.Role)
	rec.Set("bio", req.Bio)
	rec.Set("verified", false)

	if err := h.app.SaveWithContext(e.Request.Context(), rec); err != nil {
		if store.IsUniqueViolation(err) {
			return apis.NewApiError(http.StatusConflict, "name or email already taken", nil)
		}
		return apis.NewBadRequestError("Failed to create account", err)
	}

	return e.JSON(http.StatusCreated, store.UserFromRecord(rec))
}

// Login - Authenticate and return a bearer token
func (h *UserHandler) Login(e *core.RequestEvent) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	rec, err := h.app.FindAuthRecordByEmail("users", req.Email)
	if err != nil || !rec.ValidatePassword(req.Password) {
		return apis.NewUnauthorizedError("Invalid email or password", nil)
	}

	if rec.GetBool("is_banned") {
		return apis.NewForbiddenError("Account is banned: "+rec.GetString("ban_reason"), nil)
	}

	token, err := rec.NewAuthToken()
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"token": token,
		"user":  store.UserFromRecord(rec),
	})
}

// Me - Current user's profile
func (h *UserHandler) Me(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}
	return e.JSON(http.StatusOK, store.UserFromRecord(auth))
}

// Update - Edit a profile (self, or anyone for admins)
func (h *UserHandler) Update(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}

	userID := e.Request.PathValue("id")
	if userID != auth.Id && !isAdmin(auth) {
		return apis.NewForbiddenError("Can only edit your own profile", nil)
	}

	var req struct {
		Name *string `json:"name"`
		Bio  *string `json:"bio"`
		Role *string `json:"role"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	rec, err := h.app.FindRecordById("users", userID)
	if err != nil {
		return apis.NewNotFoundError("User not found", nil)
	}

	if req.Name != nil && *req.Name != "" {
		rec.Set("name", *req.Name)
	}
	if req.Bio != nil {
		rec.Set("bio", *req.Bio)
	}
	if req.Role != nil {
		// Role changes are an admin operation.
		if !isAdmin(auth) {
			return apis.NewForbiddenError("Only admins may change roles", nil)
		}
		if !models.ValidRole(*req.Role) {
			return apis.NewBadRequestError("invalid role", nil)
		}
		rec.Set("role", *req.Role)
	}

	if err := h.app.SaveWithContext(e.Request.Context(), rec); err != nil {
		if store.IsUniqueViolation(err) {
			return apis.NewApiError(http.StatusConflict, "name already taken", nil)
		}
		return apiError(err)
	}

	return e.JSON(http.StatusOK, store.UserFromRecord(rec))
}
