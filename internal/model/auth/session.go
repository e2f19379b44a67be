package auth

import "github.com/zhouzirui/tg-gateway/internal/model/common"

// State is a step of the login handshake.
type State string

const (
	StateInit             State = "INIT"
	StateCodeSent         State = "CODE_SENT"
	StatePasswordRequired State = "PASSWORD_REQUIRED"
	StateAuthenticated    State = "AUTHENTICATED"
	StateExported         State = "EXPORTED"
	StateFailed           State = "FAILED"
)

// InitiateRequest asks for a verification code to be sent to a phone.
type InitiateRequest struct {
	APIID       common.FlexInt `json:"api_id"`
	APIHash     string         `json:"api_hash"`
	PhoneNumber string         `json:"phone_number"`
}

// InitiateResult addresses the pending login for the follow-up call.
type InitiateResult struct {
	SessionID     string `json:"session_id"`
	PhoneCodeHash string `json:"phone_code_hash"`
	Message       string `json:"message"`
}

// CompleteRequest finishes a pending login.
type CompleteRequest struct {
	SessionID string `json:"session_id"`
	PhoneCode string `json:"phone_code"`
	Password  string `json:"password,omitempty"`
}

// CompleteResult carries the durable credential.
type CompleteResult struct {
	SessionString string `json:"session_string"`
}
