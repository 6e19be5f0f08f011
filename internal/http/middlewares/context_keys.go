package middlewares

import "github.com/gin-gonic/gin"

const (
	CtxRequestID = "request_id"
	ctxUserKey   = "auth.user"
)

// abortError writes the flat error body used across the API and stops the chain.
func abortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"message":   message,
		"code":      code,
		"requestId": c.GetString(CtxRequestID),
	})
}
