package auth

import "context"

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the identity attached to ctx, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// CurrentUser returns the user id attached to ctx, or "" when anonymous.
func CurrentUser(ctx context.Context) string {
	id, _ := FromContext(ctx)
	return id.UserID
}
