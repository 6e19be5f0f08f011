package client_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/geocoder89/authportal/internal/auth"
	"github.com/geocoder89/authportal/internal/client"
	"github.com/geocoder89/authportal/internal/config"
	apphttp "github.com/geocoder89/authportal/internal/http"
	"github.com/geocoder89/authportal/internal/observability"
	"github.com/geocoder89/authportal/internal/repo/memory"
	"github.com/geocoder89/authportal/internal/security"
	"github.com/geocoder89/authportal/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type server struct {
	url   string
	users *memory.UsersRepo
}

func startServer(t *testing.T) server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.FromMap(map[string]string{
		"APP_ENV":      "test",
		"DATABASE_URL": "memory://",
		"JWT_SECRET":   "client-test-secret-value",
		"BCRYPT_COST":  "4",
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := memory.NewUsersRepo()
	prom := observability.NewProm()

	router := apphttp.NewRouter(logger, apphttp.Deps{
		Auth:     service.NewAuthService(users, security.NewHasher(cfg.BcryptCost), auth.NewManager(cfg.JWTSecret, cfg.JWTTTL), prom, logger),
		Profiles: service.NewProfileService(users, logger),
		Ping:     users.Ping,
		Prom:     prom,
	}, cfg)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return server{url: srv.URL + "/api", users: users}
}

type harness struct {
	app      *client.App
	out      *bytes.Buffer
	sessions *client.SessionStore
}

// newHarness wires an App whose prompts read lines and passwords from the
// given queues.
func newHarness(t *testing.T, baseURL string, lines string, passwords ...string) harness {
	t.Helper()
	out := &bytes.Buffer{}
	sessions := client.NewSessionStore(filepath.Join(t.TempDir(), "portal", "session.json"))

	app := client.NewApp(client.New(baseURL, nil), sessions, strings.NewReader(lines), out)
	app.ReadPassword = func() (string, error) {
		if len(passwords) == 0 {
			return "", io.EOF
		}
		pw := passwords[0]
		passwords = passwords[1:]
		return pw, nil
	}
	return harness{app: app, out: out, sessions: sessions}
}


func TestSignUpWhoAmIAndSignOut(t *testing.T) {
	srv := startServer(t)
	h := newHarness(t, srv.url, "Ada Lovelace\nAda@Example.com\n", "secret1", "secret1")
	ctx := context.Background()

	require.NoError(t, h.app.Run(ctx, []string{"signup"}))
	assert.Contains(t, h.out.String(), "User created successfully")

	sess, err := h.sessions.Load()
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	require.NotNil(t, sess.User)
	assert.Equal(t, "ada@example.com", sess.User.Email)

	info, err := os.Stat(h.sessions.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	h.out.Reset()
	require.NoError(t, h.app.Run(ctx, []string{"whoami"}))
	assert.Contains(t, h.out.String(), "Ada Lovelace <ada@example.com>")

	require.NoError(t, h.app.Run(ctx, []string{"signout"}))
	sess, err = h.sessions.Load()
	require.NoError(t, err)
	assert.Empty(t, sess.Token)
}

func TestSignUp_ServerMessageSurfaces(t *testing.T) {
	srv := startServer(t)
	h := newHarness(t, srv.url, "Ada\nada@example.com\n", "secret1", "secret2")

	err := h.app.Run(context.Background(), []string{"signup"})
	require.Error(t, err)
	assert.Equal(t, "Passwords do not match", err.Error())
	assert.Equal(t, http.StatusBadRequest, client.StatusOf(err))

	_, statErr := os.Stat(h.sessions.Path())
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestSignIn_BadCredentials(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()

	_, err := client.New(srv.url, nil).SignUp(ctx, "Ada", "ada@example.com", "secret1", "secret1")
	require.NoError(t, err)

	h := newHarness(t, srv.url, "ada@example.com\n", "wrong-password")
	err = h.app.Run(ctx, []string{"signin"})
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", err.Error())

	h = newHarness(t, srv.url, "ADA@example.com\n", "secret1")
	require.NoError(t, h.app.Run(ctx, []string{"signin"}))
	assert.Contains(t, h.out.String(), "Sign in successful")
}

func TestWhoAmI_ClearsRejectedSession(t *testing.T) {
	srv := startServer(t)
	h := newHarness(t, srv.url, "")
	require.NoError(t, h.sessions.Save(client.Session{Token: "not-a-token"}))

	err := h.app.Run(context.Background(), []string{"whoami"})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, client.StatusOf(err))

	sess, err := h.sessions.Load()
	require.NoError(t, err)
	assert.Empty(t, sess.Token)
}

func TestWhoAmI_KeepsSessionWhenServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	h := newHarness(t, url, "")
	require.NoError(t, h.sessions.Save(client.Session{Token: "kept"}))

	require.Error(t, h.app.Run(context.Background(), []string{"whoami"}))

	sess, err := h.sessions.Load()
	require.NoError(t, err)
	assert.Equal(t, "kept", sess.Token)
}

func TestProfileSetAndShow(t *testing.T) {
	srv := startServer(t)
	h := newHarness(t, srv.url, "Ada\nada@example.com\n", "secret1", "secret1")
	ctx := context.Background()
	require.NoError(t, h.app.Run(ctx, []string{"signup"}))

	h.out.Reset()
	require.NoError(t, h.app.Run(ctx, []string{
		"profile", "set", "age=36", "dob=1815-12-10", "hobbies=maths, poetry,maths", "description=Analyst",
	}))
	assert.Contains(t, h.out.String(), "Profile updated successfully")

	h.out.Reset()
	require.NoError(t, h.app.Run(ctx, []string{"profile"}))
	out := h.out.String()
	assert.Contains(t, out, "age:")
	assert.Contains(t, out, "36")
	assert.Contains(t, out, "1815-12-10")
	assert.Contains(t, out, "maths, poetry")
	assert.Contains(t, out, "Analyst")

	require.NoError(t, h.app.Run(ctx, []string{"profile", "set", "description="}))
	sess, err := h.sessions.Load()
	require.NoError(t, err)
	require.NotNil(t, sess.User)
	assert.Empty(t, sess.User.Description)
	require.NotNil(t, sess.User.Age)
	assert.Equal(t, 36, *sess.User.Age)
}

func TestProfile_RequiresSession(t *testing.T) {
	h := newHarness(t, "http://127.0.0.1:1/api", "")
	err := h.app.Run(context.Background(), []string{"profile"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")
}

func TestRun_Usage(t *testing.T) {
	h := newHarness(t, "http://127.0.0.1:1/api", "")
	ctx := context.Background()

	for _, args := range [][]string{nil, {"bogus"}, {"profile", "set"}, {"profile", "get"}} {
		assert.ErrorIs(t, h.app.Run(ctx, args), client.ErrUsage, "args %v", args)
	}
}

func TestParseProfileArgs(t *testing.T) {
	fields, err := client.ParseProfileArgs([]string{"gender=female", "hobbies=", "age=", "motherName=Anne=Isabella"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"gender":     "female",
		"hobbies":    []string{},
		"age":        "",
		"motherName": "Anne=Isabella",
	}, fields)

	_, err = client.ParseProfileArgs([]string{"password=x"})
	assert.Error(t, err)

	_, err = client.ParseProfileArgs([]string{"age"})
	assert.Error(t, err)
}

func TestSessionStore_LoadMissingAndCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := client.NewSessionStore(path)

	sess, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, sess.Token)

	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err = store.Load()
	assert.Error(t, err)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
}

func TestSessionStore_UsesBrowserKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := client.NewSessionStore(path)
	require.NoError(t, store.Save(client.Session{Token: "tok"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"authToken": "tok"`)
}

func TestConfigFromMap(t *testing.T) {
	cfg, err := client.ConfigFromMap(map[string]string{
		"PORTAL_URL":     "https://portal.example.com/api",
		"PORTAL_SESSION": "/tmp/portal-session.json",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example.com/api", cfg.BaseURL)
	assert.Equal(t, "/tmp/portal-session.json", cfg.SessionPath)

	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err = client.ConfigFromMap(map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, client.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, "session.json", filepath.Base(cfg.SessionPath))
}

func TestWhoAmI_KeepsSessionOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Server error during verification","code":"internal_error"}`))
	}))
	t.Cleanup(srv.Close)

	h := newHarness(t, srv.URL+"/api", "")
	require.NoError(t, h.sessions.Save(client.Session{Token: "kept"}))

	err := h.app.Run(context.Background(), []string{"whoami"})
	require.Error(t, err)
	assert.Equal(t, "Server error during verification", err.Error())

	sess, err := h.sessions.Load()
	require.NoError(t, err)
	assert.Equal(t, "kept", sess.Token)
}
