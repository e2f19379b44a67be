package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/tg-gateway/internal/apperr"
)

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "********4567", MaskPhone("+12345674567"))
	assert.Equal(t, "***", MaskPhone("123"))
	assert.Equal(t, "", MaskPhone(""))
}

func TestRespondFailure(t *testing.T) {
	resp := httptest.NewRecorder()
	RespondFailure(resp, apperr.New(apperr.KindPasswordRequired, "complete", errors.New("SESSION_PASSWORD_NEEDED")))

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "PASSWORD_REQUIRED", body["error"])
	assert.Equal(t, "PASSWORD_REQUIRED", body["code"])
}
