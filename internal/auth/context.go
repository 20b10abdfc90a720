package auth

import "context"

type contextKey struct{}

// Identity is the verified caller as asserted by the identity provider.
type Identity struct {
	UserID string
	Email  string
	Name   *string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// UserID returns the caller's user id, or "" when the request is
// unauthenticated.
func UserID(ctx context.Context) string {
	id, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return id.UserID
}
