package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/polytech/coursedesk/internal/response"
)

// RequireInstructor lets only instructors through. Must run after RequireSession.
func RequireInstructor() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := GetSession(c)
		if !sess.Authenticated() {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		if !sess.IsTeacher() {
			response.AbortFail(c, http.StatusForbidden, response.ErrInstructorOnly)
			return
		}
		c.Next()
	}
}
