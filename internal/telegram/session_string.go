package telegram

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const sessionStringVersion = 1

// ErrMalformedSession reports a session string that cannot be decoded.
var ErrMalformedSession = errors.New("telegram: malformed session string")

// SessionString is the decoded form of an exported credential. The string
// form is base64url (unpadded) JSON so it survives query parameters.
type SessionString struct {
	Version int    `json:"v"`
	APIID   int    `json:"api_id"`
	APIHash string `json:"api_hash"`
	Data    []byte `json:"session"`
}

// Encode renders the session as an opaque string.
func (s SessionString) Encode() (string, error) {
	if len(s.Data) == 0 {
		return "", fmt.Errorf("%w: empty session data", ErrMalformedSession)
	}
	s.Version = sessionStringVersion
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode session string: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeSessionString parses a string produced by Encode.
func DecodeSessionString(value string) (SessionString, error) {
	value = strings.TrimRight(strings.TrimSpace(value), "=")
	if value == "" {
		return SessionString{}, fmt.Errorf("%w: empty", ErrMalformedSession)
	}

	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return SessionString{}, fmt.Errorf("%w: %v", ErrMalformedSession, err)
	}

	var s SessionString
	if err := json.Unmarshal(raw, &s); err != nil {
		return SessionString{}, fmt.Errorf("%w: %v", ErrMalformedSession, err)
	}
	if s.Version != sessionStringVersion {
		return SessionString{}, fmt.Errorf("%w: unsupported version %d", ErrMalformedSession, s.Version)
	}
	if len(s.Data) == 0 {
		return SessionString{}, fmt.Errorf("%w: empty session data", ErrMalformedSession)
	}
	return s, nil
}
