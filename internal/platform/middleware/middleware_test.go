package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/auth"
)

func TestLoggerIncludesUserIdentity(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	e := echo.New()
	e.Use(Logger(logger))
	e.GET("/patients", func(c echo.Context) error {
		ctx := auth.ContextWithUser(c.Request().Context(), "clin-7", []string{auth.RoleClinical})
		c.SetRequest(c.Request().WithContext(ctx))
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/patients", nil))

	line := buf.String()
	if !strings.Contains(line, `"user_id":"clin-7"`) {
		t.Errorf("log line missing user id: %s", line)
	}
	if !strings.Contains(line, `"roles":"clinical"`) {
		t.Errorf("log line missing roles: %s", line)
	}
	if !strings.Contains(line, `"path":"/patients"`) {
		t.Errorf("log line missing path: %s", line)
	}
}

func TestLoggerAnonymousRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	e := echo.New()
	e.Use(Logger(logger))
	e.GET("/health", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if strings.Contains(buf.String(), "user_id") {
		t.Errorf("unauthenticated request must not log a user id: %s", buf.String())
	}
}

func TestRecoveryConvertsPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	e := echo.New()
	e.Use(Recovery(logger))
	e.GET("/boom", func(echo.Context) error {
		panic("unexpected state")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "unexpected state") {
		t.Error("panic detail must not reach the response body")
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}
