package services

import (
	"context"

	"supportdesk/internal/domain"
)

type contextKey int

const callerKey contextKey = iota

// WithCaller attaches the authenticated submitter to the context. The
// transport layer calls this after validating credentials; anonymous
// submissions simply never set it.
func WithCaller(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, callerKey, user)
}

// CallerFromContext returns the authenticated submitter, if any.
func CallerFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(callerKey).(*domain.User)
	return user, ok && user != nil
}
