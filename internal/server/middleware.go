package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/salescommission/internal/actorcontext"
	obscontext "github.com/smallbiznis/salescommission/internal/observability/context"
)

const (
	HeaderActor      = "X-Actor-ID"
	HeaderArchiveKey = "X-Export-Archive-Key"
	contextUserIDKey = "user_id"
)

// ActorRequired resolves the acting user from X-Actor-ID ("user:<id>" or a
// bare id) and stores it on the request context.
func (s *Server) ActorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseActorHeader(c.GetHeader(HeaderActor))
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := actorcontext.WithUserID(c.Request.Context(), int64(userID))
		ctx = obscontext.WithActor(ctx, "user", userID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextUserIDKey, userID.String())
		c.Next()
	}
}

func parseActorHeader(value string) (snowflake.ID, bool) {
	raw := strings.TrimPrefix(strings.TrimSpace(value), "user:")
	if raw == "" {
		return 0, false
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
