package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/geocoder89/authportal/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RespondProfile writes v with an ETag and answers 304 when the client's
// If-None-Match already names this version of the profile.
func RespondProfile(ctx *gin.Context, v user.View) {
	etag, err := profileETag(v)
	if err != nil {
		ctx.JSON(http.StatusOK, v)
		return
	}

	ctx.Header("ETag", etag)

	if matchesETag(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.JSON(http.StatusOK, v)
}

// profileETag is the user id plus a digest of everything the view exposes,
// lastLogin included, so a sign-in elsewhere also yields a new tag.
func profileETag(v user.View) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(b)

	return `"` + v.ID + "-" + hex.EncodeToString(sum[:12]) + `"`, nil
}

func matchesETag(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}

	for _, candidate := range strings.Split(header, ",") {
		// weak validators (W/"...") compare equal for GET
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag {
			return true
		}
	}

	return false
}
