package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/polytech/coursedesk/internal/session"
)

// ContextKeySession is the Gin context key for the resolved BFF session.
const ContextKeySession = "session"

// GetSession returns the session resolved by RequireSession, or an
// anonymous one when the route is public.
func GetSession(c *gin.Context) *session.Session {
	val, exists := c.Get(ContextKeySession)
	if !exists {
		return session.Anonymous()
	}
	sess, ok := val.(*session.Session)
	if !ok || sess == nil {
		return session.Anonymous()
	}
	return sess
}
