package auth

import "context"

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRolesKey contextKey = "user_roles"
)

// UserIDFromContext returns the authenticated user id, or "" when the
// request is unauthenticated (background evaluators, CLI).
func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

// RolesFromContext returns the authenticated user's roles.
func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(UserRolesKey).([]string)
	return roles
}

// ContextWithUser attaches a user identity to ctx. Used by the middleware
// and by tests.
func ContextWithUser(ctx context.Context, userID string, roles []string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, UserRolesKey, roles)
}

// HasRole reports whether the context carries one of the given roles.
// The admin role implies every other role.
func HasRole(ctx context.Context, roles ...string) bool {
	granted := RolesFromContext(ctx)
	for _, required := range roles {
		for _, has := range granted {
			if has == required || has == "admin" {
				return true
			}
		}
	}
	return false
}
