package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRefUnmarshal(t *testing.T) {
	var payload struct {
		Chat ChatRef `json:"chat_id"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"chat_id":" @durov "}`), &payload))
	assert.Equal(t, ChatRef("@durov"), payload.Chat)

	require.NoError(t, json.Unmarshal([]byte(`{"chat_id":-1001234567890}`), &payload))
	assert.Equal(t, ChatRef("-1001234567890"), payload.Chat)

	require.NoError(t, json.Unmarshal([]byte(`{"chat_id":null}`), &payload))
	assert.Equal(t, ChatRef(""), payload.Chat)

	assert.Error(t, json.Unmarshal([]byte(`{"chat_id":true}`), &payload))
}

func TestFlexIntUnmarshal(t *testing.T) {
	var payload struct {
		ID FlexInt `json:"api_id"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"api_id":12345}`), &payload))
	assert.Equal(t, FlexInt(12345), payload.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"api_id":"678"}`), &payload))
	assert.Equal(t, FlexInt(678), payload.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"api_id":""}`), &payload))
	assert.Equal(t, FlexInt(0), payload.ID)

	assert.Error(t, json.Unmarshal([]byte(`{"api_id":"abc"}`), &payload))
}
