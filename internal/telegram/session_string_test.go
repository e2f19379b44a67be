package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStringDecodeEncoded(t *testing.T) {
	in := SessionString{APIID: 12345, APIHash: "abcdef", Data: []byte(`{"Version":1,"Data":{"DC":2}}`)}

	encoded, err := in.Encode()
	require.NoError(t, err)
	assert.NotContains(t, encoded, "=")

	out, err := DecodeSessionString(encoded)
	require.NoError(t, err)
	assert.Equal(t, 12345, out.APIID)
	assert.Equal(t, "abcdef", out.APIHash)
	assert.Equal(t, in.Data, out.Data)
	assert.Equal(t, sessionStringVersion, out.Version)
}

func TestSessionStringRejectsGarbage(t *testing.T) {
	for _, value := range []string{"", "   ", "!!!not-base64!!!", "bm90LWpzb24", "eyJ2Ijo5LCJzZXNzaW9uIjoiWlE9PSJ9"} {
		_, err := DecodeSessionString(value)
		assert.ErrorIs(t, err, ErrMalformedSession, value)
	}
}

func TestSessionStringEncodeRequiresData(t *testing.T) {
	_, err := SessionString{APIID: 1}.Encode()
	assert.ErrorIs(t, err, ErrMalformedSession)
}
