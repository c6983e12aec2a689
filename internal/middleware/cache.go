package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore marks responses as private to one session so neither the browser
// nor a shared proxy keeps a copy.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
