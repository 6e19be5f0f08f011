package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/authportal/internal/config"
	"github.com/geocoder89/authportal/internal/http/middlewares"
	"github.com/geocoder89/authportal/internal/service"
	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	SignUp(ctx context.Context, in service.SignUpInput) (service.Session, error)
	SignIn(ctx context.Context, in service.SignInInput) (service.Session, error)
}

type AuthHandler struct {
	auth    Authenticator
	timeout time.Duration
}

func NewAuthHandler(auth Authenticator) *AuthHandler {
	// bcrypt at the default cost takes a few hundred milliseconds
	return &AuthHandler{auth: auth, timeout: 5 * time.Second}
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req service.SignUpInput

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	sess, err := h.auth.SignUp(cctx, req)
	if err != nil {
		RespondServiceError(ctx, err, "Server error during signup")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"token":   sess.Token,
		"user":    sess.User,
	})
}

func (h *AuthHandler) SignIn(ctx *gin.Context) {
	var req service.SignInInput

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	sess, err := h.auth.SignIn(cctx, req)
	if err != nil {
		RespondServiceError(ctx, err, "Server error during signin")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Sign in successful",
		"token":   sess.Token,
		"user":    sess.User,
	})
}

// Verify runs behind RequireAuth, which has already resolved the token.
func (h *AuthHandler) Verify(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", middlewares.MsgTokenInvalid, nil)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"valid": true,
		"user":  u,
	})
}
