package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"occ-api/internal/middleware"
	"occ-api/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("handler-test-secret")

// rolePerms serves fixed permission codes per role name.
type rolePerms map[string][]string

func (r rolePerms) GetPermissionCodes(_ context.Context, roleName string) ([]string, error) {
	return r[roleName], nil
}

func newTestRouter(perms rolePerms, register func(*gin.RouterGroup)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	middleware.InitAuth(testSecret, perms, false)
	r := gin.New()
	register(r.Group("/api"))
	return r
}

func bearer(t *testing.T, id uuid.UUID, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  id.String(),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)
	return "Bearer " + s
}

func request(r http.Handler, method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}
