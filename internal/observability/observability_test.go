package observability

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/authportal/internal/actorctx"
	"github.com/geocoder89/authportal/internal/domain/user"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestLogger_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "dev")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	log.InfoContext(ctx, "inside span")
	span.End()

	out := buf.String()
	if !strings.Contains(out, `"trace_id":"`+span.SpanContext().TraceID().String()+`"`) {
		t.Fatalf("missing trace_id in %s", out)
	}

	buf.Reset()
	log.Info("no span")
	if strings.Contains(buf.String(), "trace_id") {
		t.Fatalf("unexpected trace_id in %s", buf.String())
	}
}

func TestLogger_LevelByEnv(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "prod").Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be dropped outside dev, got %s", buf.String())
	}
}

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("insert: %w", user.ErrEmailTaken), "unique_violation"},
		{&pgconn.PgError{Code: "23505"}, "unique_violation"},
		{&pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{context.DeadlineExceeded, "timeout"},
		{errors.New("connection reset by peer"), "connection"},
		{errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		if got := classifyDBErr(tt.err); got != tt.want {
			t.Errorf("classifyDBErr(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestObserveDB(t *testing.T) {
	p := NewProm()

	_ = p.ObserveDB("users.get_by_email", func() error { return user.ErrNotFound })
	_ = p.ObserveDB("users.create", func() error { return user.ErrEmailTaken })

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")); got != 1 {
		t.Fatalf("unique_violation count = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(p.DbErrorsTotal); got != 1 {
		t.Fatalf("not-found lookups must not count as errors, got %d series", got)
	}

	var nilProm *Prom
	called := false
	_ = nilProm.ObserveDB("noop", func() error { called = true; return nil })
	if !called {
		t.Fatal("nil Prom should still run fn")
	}
}

func TestGinMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := NewProm()

	r := gin.New()
	r.Use(p.GinHandleMiddleware())
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", p.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	p.ObserveAuth("signin", "ok")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := w.Body.String()
	for _, want := range []string{
		`authportal_http_requests_total{method="GET",route="/api/health",status="200"} 1`,
		`authportal_auth_results_total{op="signin",result="ok"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestLogger_AddsUserID(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "dev")

	ctx := actorctx.WithUser(context.Background(), user.View{ID: "u-42"})
	log.InfoContext(ctx, "profile updated")

	if !strings.Contains(buf.String(), `"user_id":"u-42"`) {
		t.Fatalf("missing user_id in %s", buf.String())
	}
}
