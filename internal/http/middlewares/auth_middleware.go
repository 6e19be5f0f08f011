package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/geocoder89/authportal/internal/actorctx"
	"github.com/geocoder89/authportal/internal/apperr"
	"github.com/geocoder89/authportal/internal/domain/user"
	"github.com/gin-gonic/gin"
)

const (
	MsgNoToken      = "No token, authorization denied"
	MsgTokenInvalid = "Token is not valid"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (user.View, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth resolves the bearer token to the current user and attaches it
// to this request only.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			abortError(c, http.StatusUnauthorized, "unauthorized", MsgNoToken)
			return
		}

		u, err := m.verifier.Verify(c.Request.Context(), raw)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindInternal {
				abortError(c, http.StatusInternalServerError, "internal_error", apperr.MessageOf(err, "Internal server error"))
				return
			}
			abortError(c, http.StatusUnauthorized, "unauthorized", MsgTokenInvalid)
			return
		}

		c.Set(ctxUserKey, u)
		c.Request = c.Request.WithContext(actorctx.WithUser(c.Request.Context(), u))

		c.Next()
	}
}

// bearerToken strips an optional "Bearer " scheme. A header without the
// scheme is treated as a bare token and left for verification to reject.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if strings.EqualFold(header, "bearer") {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		header = header[7:]
	}
	return strings.TrimSpace(header)
}

func UserFromContext(c *gin.Context) (user.View, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return user.View{}, false
	}
	u, ok := v.(user.View)
	return u, ok
}
