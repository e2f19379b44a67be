package account

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

	accountService "github.com/zhouzirui/tg-gateway/internal/service/account"
	"github.com/zhouzirui/tg-gateway/internal/telegram"
	"github.com/zhouzirui/tg-gateway/internal/telegram/telegramtest"
)

func setupRouter(client *telegramtest.Client) (*chi.Mux, *telegramtest.Factory) {
	factory := &telegramtest.Factory{Client: client}
	r := chi.NewRouter()
	New(accountService.NewService(factory, time.Second)).RegisterRoutes(r)
	return r, factory
}

func do(t *testing.T, r http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &decoded))
	return resp, decoded
}

func TestGetChat(t *testing.T) {
	r, factory := setupRouter(&telegramtest.Client{Chat: telegram.Chat{ID: -100777, Type: "channel", Title: "T"}})

	resp, body := do(t, r, http.MethodGet, "/get_chat?session_string=abc&chat_id=-100777", "")
	require.Equal(t, http.StatusOK, resp.Code)

	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, -100777, data["id"])
	assert.Equal(t, "channel", data["type"])
	assert.Equal(t, []string{"abc"}, factory.Sessions())
}

func TestGetChatHistoryLimit(t *testing.T) {
	messages := make([]telegram.HistoryMessage, 150)
	for i := range messages {
		messages[i] = telegram.HistoryMessage{ID: 150 - i}
	}
	r, _ := setupRouter(&telegramtest.Client{Messages: messages})

	_, body := do(t, r, http.MethodGet, "/get_chat_history?session_string=s&chat_id=@c", "")
	assert.Len(t, body["data"], 10)

	_, body = do(t, r, http.MethodGet, "/get_chat_history?session_string=s&chat_id=@c&limit=500", "")
	assert.Len(t, body["data"], 100)

	resp, _ := do(t, r, http.MethodGet, "/get_chat_history?session_string=s&chat_id=@c&limit=ten", "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetMe(t *testing.T) {
	r, _ := setupRouter(&telegramtest.Client{Me: telegram.User{ID: 3, FirstName: "A", Username: "a"}})

	resp, body := do(t, r, http.MethodGet, "/get_me?session_string=s", "")
	require.Equal(t, http.StatusOK, resp.Code)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 3, data["id"])
	assert.Equal(t, false, data["is_premium"])

	resp, body = do(t, r, http.MethodGet, "/get_me", "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "session_string is required", body["error"])
}

func TestReply(t *testing.T) {
	client := &telegramtest.Client{}
	r, _ := setupRouter(client)

	resp, body := do(t, r, http.MethodPost, "/reply", `{"session_string":"s","chat_id":"@c","message_id":"42","text":"hi"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 5001, data["message_id"])
	assert.Equal(t, 42, client.Sent()[0].MessageID)
}

func TestRegisterSessionString(t *testing.T) {
	valid, err := telegram.SessionString{APIID: 1, APIHash: "h", Data: []byte("blob")}.Encode()
	require.NoError(t, err)
	r, _ := setupRouter(&telegramtest.Client{Me: telegram.User{ID: 8}, Session: "re-exported"})

	resp, body := do(t, r, http.MethodPost, "/register_session_string", `{"api_id":1,"api_hash":"h","session_string":"`+valid+`"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "re-exported", body["session_string"])
	assert.EqualValues(t, 8, body["data"].(map[string]interface{})["id"])

	resp, _ = do(t, r, http.MethodPost, "/register_session_string", `{"api_id":1,"session_string":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp, body = do(t, r, http.MethodPost, "/register_session_string", `{"api_id":1,"api_hash":"h","session_string":"garbage"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "AUTH_EXPIRED", body["code"])
}
