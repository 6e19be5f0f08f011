package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/authportal/internal/config"
	"github.com/geocoder89/authportal/internal/domain/user"
	"github.com/geocoder89/authportal/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type ProfileManager interface {
	GetProfile(ctx context.Context, id string) (user.View, error)
	UpdateProfile(ctx context.Context, id string, in user.ProfileInput) (user.View, error)
}

type ProfileHandler struct {
	profiles ProfileManager
}

func NewProfileHandler(profiles ProfileManager) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) Get(ctx *gin.Context) {
	current, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", middlewares.MsgTokenInvalid, nil)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	v, err := h.profiles.GetProfile(cctx, current.ID)
	if err != nil {
		RespondServiceError(ctx, err, "Error fetching profile")
		return
	}

	RespondProfile(ctx, v)
}

func (h *ProfileHandler) Update(ctx *gin.Context) {
	current, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", middlewares.MsgTokenInvalid, nil)
		return
	}

	var req user.ProfileInput

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	v, err := h.profiles.UpdateProfile(cctx, current.ID, req)
	if err != nil {
		RespondServiceError(ctx, err, "Error updating profile")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    v,
	})
}
