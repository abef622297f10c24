package handlers

import (
	"artistry-hub/models"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// requireAuth returns the authenticated user record or an HTTP error.
// Banned accounts are rejected on every authenticated call, not only
// at login.
func requireAuth(e *core.RequestEvent) (*core.Record, error) {
	if e.Auth == nil {
		return nil, apis.NewUnauthorizedError("Unauthorized", nil)
	}
	if e.Auth.GetBool("is_banned") {
		return nil, apis.NewForbiddenError("Account is banned", nil)
	}
	return e.Auth, nil
}

func requireRole(e *core.RequestEvent, roles ...string) (*core.Record, error) {
	auth, err := requireAuth(e)
	if err != nil {
		return nil, err
	}
	role := auth.GetString("role")
	for _, r := range roles {
		if role == r {
			return auth, nil
		}
	}
	return nil, apis.NewForbiddenError("Insufficient role", nil)
}

func isAdmin(auth *core.Record) bool {
	return auth.GetString("role") == models.RoleAdmin
}
