package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/authportal/internal/actorctx"
	"github.com/geocoder89/authportal/internal/apperr"
	"github.com/geocoder89/authportal/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type verifierFunc func(ctx context.Context, token string) (user.View, error)

func (f verifierFunc) Verify(ctx context.Context, token string) (user.View, error) {
	return f(ctx, token)
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"":              "",
		"Bearer":        "",
		"Bearer ":       "",
		"Bearer abc":    "abc",
		"bearer  abc ":  "abc",
		"abc":           "abc",
		"Bearerabc.def": "Bearerabc.def",
	}
	for header, want := range tests {
		if got := bearerToken(header); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	verifier := verifierFunc(func(_ context.Context, token string) (user.View, error) {
		switch token {
		case "good":
			return user.View{ID: "u1"}, nil
		case "down":
			return user.View{}, apperr.Internal("Server error during verification", errors.New("dial tcp"))
		default:
			return user.View{}, apperr.Unauthorized(MsgTokenInvalid, nil)
		}
	})

	r := gin.New()
	r.Use(RequestID())
	r.GET("/me", NewAuthMiddleware(verifier).RequireAuth(), func(c *gin.Context) {
		u, ok := UserFromContext(c)
		id, _ := actorctx.UserIDFrom(c.Request.Context())
		if !ok || id != u.ID {
			c.Status(http.StatusTeapot)
			return
		}
		c.String(http.StatusOK, u.ID)
	})

	tests := []struct {
		header string
		status int
		body   string
	}{
		{"", http.StatusUnauthorized, MsgNoToken},
		{"Bearer ", http.StatusUnauthorized, MsgNoToken},
		{"Bearer nope", http.StatusUnauthorized, MsgTokenInvalid},
		{"Bearer down", http.StatusInternalServerError, "Server error during verification"},
		{"Bearer good", http.StatusOK, "u1"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != tt.status {
			t.Fatalf("header %q: got status %d, want %d", tt.header, w.Code, tt.status)
		}
		if !strings.Contains(w.Body.String(), tt.body) {
			t.Fatalf("header %q: body %s does not contain %q", tt.header, w.Body.String(), tt.body)
		}
	}
}

func TestRequireJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequireJSON())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("json content type rejected: %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/x", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("missing content type accepted: %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://localhost:5000"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5000" {
		t.Fatalf("allowed origin not echoed: %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("foreign origin echoed: %q", got)
	}
}
