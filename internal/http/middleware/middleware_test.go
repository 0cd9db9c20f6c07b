package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"paybridge.app/app/internal/shared/apperr"
)

func testEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := gin.New()
	r.Use(RequestID(), Logger(l), ErrorHandler(l), Recovery(l))
	r.Use(mw...)
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorHandlerRendersAppError(t *testing.T) {
	r := testEngine()
	r.GET("/x", func(c *gin.Context) {
		Fail(c, apperr.InvalidErr("Invalid input.", map[string]string{"amount": "must be greater than 0"}))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "rid-1")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	require.Equal(t, false, body["success"])
	require.Equal(t, "Invalid input.", body["message"])
	require.Equal(t, "invalid", body["error"])
	require.Equal(t, "rid-1", body["request_id"])
	require.Equal(t, map[string]any{"amount": "must be greater than 0"}, body["fields"])
	require.Equal(t, "rid-1", w.Header().Get(HeaderRequestID))
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	r := testEngine()
	r.GET("/x", func(c *gin.Context) {
		Fail(c, errors.New("dial tcp 10.0.0.5:3306: refused"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "10.0.0.5")
	require.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestRecoveryRendersJSON(t *testing.T) {
	r := testEngine()
	r.GET("/x", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "internal", decode(t, w)["error"])
}

func TestRequireAdmin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)

	r := testEngine(RequireAdmin(AdminCredentials{Username: "ops", PasswordHash: string(hash)}))
	r.GET("/admin", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": AdminUser(c)})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotEmpty(t, w.Header().Get("WWW-Authenticate"))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.SetBasicAuth("ops", "wrong")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.SetBasicAuth("ops", "pw")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ops", decode(t, w)["user"])
}

func TestRequireAdminUnconfigured(t *testing.T) {
	r := testEngine(RequireAdmin(AdminCredentials{}))
	r.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.SetBasicAuth("", "")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestIDReplacesUnusableValues(t *testing.T) {
	for _, in := range []string{"has space", string(make([]byte, 129))} {
		require.False(t, validRequestID(in), "%q", in)
	}
	require.True(t, validRequestID("rid-1"))

	r := testEngine()
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "bad id")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.NotEqual(t, "bad id", w.Header().Get(HeaderRequestID))
	require.Len(t, w.Header().Get(HeaderRequestID), 36)
}

func TestLevelFor(t *testing.T) {
	require.Equal(t, slog.LevelInfo, levelFor(http.StatusOK))
	require.Equal(t, slog.LevelWarn, levelFor(http.StatusNotFound))
	require.Equal(t, slog.LevelError, levelFor(http.StatusServiceUnavailable))
}
