package auth

import (
	"context"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	RoleCoordinator = "coordinator"
	RoleNurse       = "nurse"
	RoleAdmin       = "admin"
)

type contextKey string

const IdentityKey contextKey = "identity"

// Identity is the authenticated caller. Services receive it as an explicit
// argument; it is never looked up from ambient state below the handler layer.
type Identity struct {
	NurseID uuid.UUID `json:"nurse_id"`
	Roles   []string  `json:"roles"`
}

func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

// IsCoordinator reports whether the caller may create rosters and assignments.
func (i Identity) IsCoordinator() bool {
	return i.HasRole(RoleCoordinator)
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// IdentityFromContext returns the identity stored by the auth middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(Identity)
	return id, ok
}

// CallerFrom extracts the caller for a handler. Requests without a resolvable
// nurse id are rejected with 401.
func CallerFrom(c echo.Context) (Identity, error) {
	id, ok := IdentityFromContext(c.Request().Context())
	if !ok || id.NurseID == uuid.Nil {
		return Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "caller identity required")
	}
	return id, nil
}

func RolesFromContext(ctx context.Context) []string {
	id, _ := IdentityFromContext(ctx)
	return id.Roles
}
