package shared

import "context"

type userIDContextKey struct{}

// ContextWithUserID stores the caller identity in context.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey{}, userID)
}

// UserIDFromContext extracts the caller identity from context. The identity is
// supplied by the external auth layer and trusted as-is.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDContextKey{}).(string)
	return id
}
