package comment

import (
	"time"

	"github.com/zhouzirui/tg-gateway/internal/model/common"
)

// MessageType is the media kind a comment should be sent as.
type MessageType string

const (
	TypeUnspecified MessageType = ""
	TypePhoto       MessageType = "photo"
	TypeVideo       MessageType = "video"
)

// SkipReason is reported when an equivalent comment already exists.
const SkipReason = "Duplicate comment detected"

// Request is the input of the comment poster.
type Request struct {
	SessionString string         `json:"session_string"`
	ChatID        common.ChatRef `json:"chat_id"`
	MessageType   MessageType    `json:"message_type,omitempty"`
	FilePath      string         `json:"file_path,omitempty"`
	Caption       string         `json:"caption,omitempty"`
}

// Result describes a posted or skipped comment. The message fields are
// zero when Skipped is set.
type Result struct {
	Skipped         bool
	Reason          string
	MessageID       int
	ChatID          int64
	Date            time.Time
	ParentMessageID int
}
