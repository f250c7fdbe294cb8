package session

import "context"

type ctxKey string

const sessionKey ctxKey = "mediwrap.session"

// WithSession stores the session in context.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// FromContext extracts the session if present.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*Session)
	return sess, ok && sess != nil && sess.IdentityID != ""
}
