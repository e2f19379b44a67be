package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusTeapot)
})

func TestCORS(t *testing.T) {
	h := CORS("https://app.example")(ok)

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodOptions, "/x", nil))
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, "https://app.example", resp.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header().Get("Access-Control-Allow-Headers"), SecretHeader)

	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, resp.Code)

	resp = httptest.NewRecorder()
	CORS("")(ok).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestInternalSecret(t *testing.T) {
	h := InternalSecret("s3cret")(ok)

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(SecretHeader, "wrong")
	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(SecretHeader, "s3cret")
	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusTeapot, resp.Code)
}

func TestInternalSecretDisabled(t *testing.T) {
	resp := httptest.NewRecorder()
	InternalSecret("")(ok).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, resp.Code)
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	resp := httptest.NewRecorder()
	RequestLogger(ok).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, resp.Code)
}
