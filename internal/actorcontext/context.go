package actorcontext

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// ActorContextKey is the request context key for the acting user ID.
type ActorContextKey struct{}

type systemKey struct{}

// WithUserID stores the acting user ID in the context.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ActorContextKey{}, userID)
}

// WithSystem marks the context as driven by an unattended process.
func WithSystem(ctx context.Context) context.Context {
	return context.WithValue(ctx, systemKey{}, true)
}

// IsSystem reports whether the context was marked by WithSystem.
func IsSystem(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(systemKey{}).(bool)
	return v
}

// UserIDFromContext returns the acting user ID from context, if set.
func UserIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}

	switch typed := ctx.Value(ActorContextKey{}).(type) {
	case int64:
		if typed != 0 {
			return snowflake.ID(typed), true
		}
	case snowflake.ID:
		if typed != 0 {
			return typed, true
		}
	case string:
		parsed, err := snowflake.ParseString(strings.TrimSpace(typed))
		if err == nil && parsed != 0 {
			return parsed, true
		}
	}
	return 0, false
}

// Subject returns the authorization subject for the context actor.
func Subject(ctx context.Context) string {
	if id, ok := UserIDFromContext(ctx); ok {
		return "user:" + id.String()
	}
	if IsSystem(ctx) {
		return "system"
	}
	return ""
}
