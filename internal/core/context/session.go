// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// Session describes the desk user a request acts for.
// Defaults mirrors the site's per-user defaults (company, fiscal_year, ...)
// and feeds report filter default expressions.
type Session struct {
	User      string
	Defaults  map[string]string
	SessionID string
}

type sessionKey struct{}

// WithSession adds Session to context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// GetSession returns Session from context.
func GetSession(ctx context.Context) *Session {
	if v, ok := ctx.Value(sessionKey{}).(*Session); ok {
		return v
	}
	return nil
}

// GetUser returns the session user or empty string.
func GetUser(ctx context.Context) string {
	if s := GetSession(ctx); s != nil {
		return s.User
	}
	return ""
}

// UserDefaults returns a copy of the session defaults, never nil.
func UserDefaults(ctx context.Context) map[string]string {
	out := make(map[string]string)
	if s := GetSession(ctx); s != nil {
		for k, v := range s.Defaults {
			out[k] = v
		}
	}
	return out
}
