package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authService "github.com/zhouzirui/tg-gateway/internal/service/auth"
	"github.com/zhouzirui/tg-gateway/internal/telegram"
	"github.com/zhouzirui/tg-gateway/internal/telegram/telegramtest"
)

func setupRouter(client *telegramtest.Client) *chi.Mux {
	svc := authService.NewService(&telegramtest.Factory{Client: client}, authService.NewStore(time.Minute), time.Second)
	r := chi.NewRouter()
	New(svc).RegisterRoutes(r)
	return r
}

func post(t *testing.T, r http.Handler, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &decoded))
	return resp, decoded
}

func TestLoginWithoutSecondFactor(t *testing.T) {
	r := setupRouter(&telegramtest.Client{CodeHash: "abc", Session: "exported"})

	resp, body := post(t, r, "/export_session", `{"api_id":"12345","api_hash":"h","phone_number":"+15550001111"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "abc", body["phone_code_hash"])
	sessionID, _ := body["session_id"].(string)
	require.NotEmpty(t, sessionID)

	resp, body = post(t, r, "/complete_auth", `{"session_id":"`+sessionID+`","phone_code":"11111"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "exported", body["session_string"])
}

func TestLoginPasswordRequired(t *testing.T) {
	r := setupRouter(&telegramtest.Client{SignInResult: telegram.SecondFactorRequired, Password: "pw"})

	_, body := post(t, r, "/export_session", `{"api_id":1,"api_hash":"h","phone_number":"+1"}`)
	sessionID := body["session_id"].(string)

	resp, body := post(t, r, "/complete_auth", `{"session_id":"`+sessionID+`","phone_code":"1"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "PASSWORD_REQUIRED", body["error"])

	resp, body = post(t, r, "/complete_auth", `{"session_id":"`+sessionID+`","phone_code":"1","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "BAD_PASSWORD", body["error"])

	resp, body = post(t, r, "/complete_auth", `{"session_id":"`+sessionID+`","phone_code":"1","password":"pw"}`)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "session-string", body["session_string"])
}

func TestCompleteUnknownSession(t *testing.T) {
	r := setupRouter(&telegramtest.Client{})

	resp, body := post(t, r, "/complete_auth", `{"session_id":"auth_nope","phone_code":"1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Invalid session ID", body["error"])
	assert.Equal(t, "UNKNOWN_SESSION", body["code"])
}

func TestBadBodies(t *testing.T) {
	r := setupRouter(&telegramtest.Client{})

	resp, _ := post(t, r, "/export_session", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp, _ = post(t, r, "/complete_auth", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp, body := post(t, r, "/export_session", `{"api_id":1,"api_hash":"h"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "INVALID_REQUEST", body["code"])
}

func TestInitiateDeliveryFailure(t *testing.T) {
	r := setupRouter(&telegramtest.Client{SendCodeErr: assert.AnError})

	resp, body := post(t, r, "/export_session", `{"api_id":1,"api_hash":"h","phone_number":"+1"}`)
	assert.Equal(t, http.StatusBadGateway, resp.Code)
	assert.Equal(t, "DELIVERY_FAILED", body["code"])
}
