package account

import "github.com/zhouzirui/tg-gateway/internal/model/common"

// Chat 聊天基本信息
type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// FromUser 消息发送者
type FromUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// HistoryEntry 历史消息
type HistoryEntry struct {
	ID       int       `json:"id"`
	Text     string    `json:"text"`
	Date     *string   `json:"date"`
	FromUser *FromUser `json:"from_user"`
}

// Me 当前账号信息
type Me struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Username    string `json:"username"`
	PhoneNumber string `json:"phone_number"`
	IsPremium   bool   `json:"is_premium"`
}

// SentMessage 已发送消息
type SentMessage struct {
	MessageID int     `json:"message_id"`
	ChatID    int64   `json:"chat_id"`
	Date      *string `json:"date"`
}

// ReplyRequest 回复指定消息
type ReplyRequest struct {
	SessionString string         `json:"session_string"`
	ChatID        common.ChatRef `json:"chat_id"`
	MessageID     common.FlexInt `json:"message_id"`
	Text          string         `json:"text"`
}

// RegisterRequest 直接登记已有的 session string
type RegisterRequest struct {
	APIID         common.FlexInt `json:"api_id"`
	APIHash       string         `json:"api_hash"`
	SessionString string         `json:"session_string"`
}

// Registration 登记结果
type Registration struct {
	Me            Me     `json:"data"`
	SessionString string `json:"session_string"`
}
