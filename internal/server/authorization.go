package server

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/salescommission/internal/actorcontext"
	"github.com/smallbiznis/salescommission/internal/authorization"
)

func (s *Server) authorizeAction(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authorizeActionWithContext(c, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) authorizeActionWithContext(c *gin.Context, object string, action string) error {
	subject := actorcontext.Subject(c.Request.Context())
	if subject == "" {
		return ErrUnauthorized
	}
	if s.authzSvc == nil {
		return ErrForbidden
	}
	err := s.authzSvc.Authorize(c.Request.Context(), subject, strings.TrimSpace(object), strings.TrimSpace(action))
	if errors.Is(err, authorization.ErrInvalidActor) {
		return ErrUnauthorized
	}
	return err
}
