package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eventlabs/event-reg-api/api"
)

func TestTimeoutMiddlewareCutsOffSlowHandlers(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	handler := api.TimeoutMiddleware(20 * time.Millisecond)(slow)

	req := httptest.NewRequest("GET", "/api/v1/event/event-1", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusRequestTimeout, rr.Code)
	assert.Contains(t, rr.Body.String(), "Request timeout")
}

func TestTimeoutMiddlewarePassesFastHandlers(t *testing.T) {
	fast := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := api.TimeoutMiddleware(time.Second)(fast)

	req := httptest.NewRequest("GET", "/api/v1/event/event-1", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestRevokeTokenRejectsMalformedAuthorizationHeader(t *testing.T) {
	req := httptest.NewRequest("DELETE", "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	rr := httptest.NewRecorder()
	http.HandlerFunc(api.RevokeToken).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRevokeTokenRejectsMissingAuthorizationHeader(t *testing.T) {
	req := httptest.NewRequest("DELETE", "/api/v1/auth/logout", nil)

	rr := httptest.NewRecorder()
	http.HandlerFunc(api.RevokeToken).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
