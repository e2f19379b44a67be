// Package account implements the stateless operations that run against an
// exported session string: profile and chat reads, plain replies and
// session-string registration. Every call opens its own client and tears
// it down before returning.
package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/tg-gateway/internal/apperr"
	accountmodel "github.com/zhouzirui/tg-gateway/internal/model/account"
	"github.com/zhouzirui/tg-gateway/internal/service/remote"
	"github.com/zhouzirui/tg-gateway/internal/telegram"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// Service runs one remote operation per call.
type Service struct {
	factory     telegram.Factory
	callTimeout time.Duration
}

// NewService creates the stateless account service.
func NewService(factory telegram.Factory, callTimeout time.Duration) *Service {
	return &Service{factory: factory, callTimeout: callTimeout}
}

// with opens a client for sessionString, runs fn under the call timeout and
// always stops the client.
func with[T any](ctx context.Context, s *Service, sessionString, op string, fn func(context.Context, telegram.Client) (T, error)) (T, error) {
	var zero T
	client, err := remote.Open(ctx, s.factory, sessionString, s.callTimeout)
	if err != nil {
		return zero, err
	}
	defer remote.Close(client, op)

	return remote.Call(ctx, s.callTimeout, func(ctx context.Context) (T, error) {
		return fn(ctx, client)
	})
}

func requireChat(op, chat string) (string, error) {
	chat = strings.TrimSpace(chat)
	if chat == "" {
		return "", apperr.New(apperr.KindInvalidRequest, op, errors.New("chat_id is required"))
	}
	return chat, nil
}

// GetChat returns a summary of chat.
func (s *Service) GetChat(ctx context.Context, sessionString, chat string) (accountmodel.Chat, error) {
	chat, err := requireChat("get chat", chat)
	if err != nil {
		return accountmodel.Chat{}, err
	}

	c, err := with(ctx, s, sessionString, "get chat", func(ctx context.Context, client telegram.Client) (telegram.Chat, error) {
		return client.GetChat(ctx, chat)
	})
	if err != nil {
		return accountmodel.Chat{}, remote.Err(apperr.KindUnexpected, "get chat", err)
	}

	return accountmodel.Chat{
		ID:        c.ID,
		Type:      c.Type,
		Title:     c.Title,
		Username:  c.Username,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	}, nil
}

// ClampHistoryLimit applies the default and the upper bound of a history read.
func ClampHistoryLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}

// GetChatHistory returns up to limit recent messages of chat, newest first.
func (s *Service) GetChatHistory(ctx context.Context, sessionString, chat string, limit int) ([]accountmodel.HistoryEntry, error) {
	chat, err := requireChat("get chat history", chat)
	if err != nil {
		return nil, err
	}
	limit = ClampHistoryLimit(limit)

	messages, err := with(ctx, s, sessionString, "get chat history", func(ctx context.Context, client telegram.Client) ([]telegram.HistoryMessage, error) {
		return client.History(ctx, chat, limit)
	})
	if err != nil {
		return nil, remote.Err(apperr.KindUnexpected, "get chat history", err)
	}

	entries := make([]accountmodel.HistoryEntry, 0, len(messages))
	for _, msg := range messages {
		entry := accountmodel.HistoryEntry{
			ID:   msg.ID,
			Text: msg.Text,
			Date: FormatDate(msg.Date),
		}
		if msg.FromUser != nil {
			entry.FromUser = &accountmodel.FromUser{
				ID:        msg.FromUser.ID,
				FirstName: msg.FromUser.FirstName,
				Username:  msg.FromUser.Username,
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetMe returns the profile of the session's account.
func (s *Service) GetMe(ctx context.Context, sessionString string) (accountmodel.Me, error) {
	me, err := with(ctx, s, sessionString, "get me", func(ctx context.Context, client telegram.Client) (telegram.User, error) {
		return client.Self(ctx)
	})
	if err != nil {
		return accountmodel.Me{}, remote.Err(apperr.KindUnexpected, "get me", err)
	}
	return meFromUser(me), nil
}

// Reply answers a message in chat with text.
func (s *Service) Reply(ctx context.Context, req accountmodel.ReplyRequest) (accountmodel.SentMessage, error) {
	chat, err := requireChat("reply", req.ChatID.String())
	if err != nil {
		return accountmodel.SentMessage{}, err
	}
	if req.MessageID <= 0 {
		return accountmodel.SentMessage{}, apperr.New(apperr.KindInvalidRequest, "reply", errors.New("message_id is required"))
	}
	if strings.TrimSpace(req.Text) == "" {
		return accountmodel.SentMessage{}, apperr.New(apperr.KindInvalidRequest, "reply", errors.New("text is required"))
	}

	sent, err := with(ctx, s, req.SessionString, "reply", func(ctx context.Context, client telegram.Client) (telegram.SentMessage, error) {
		return client.ReplyTo(ctx, chat, int(req.MessageID), req.Text)
	})
	if err != nil {
		return accountmodel.SentMessage{}, remote.Err(apperr.KindDeliveryFailed, "reply", err)
	}

	log.Info().Str("chat", chat).Int("reply_to", int(req.MessageID)).Int("message_id", sent.ID).Msg("reply sent")

	return accountmodel.SentMessage{
		MessageID: sent.ID,
		ChatID:    sent.ChatID,
		Date:      FormatDate(sent.Date),
	}, nil
}

// RegisterSessionString validates an existing session string against the
// platform and returns the account profile with a freshly exported string.
// The app credentials in the request replace the ones the string carries.
func (s *Service) RegisterSessionString(ctx context.Context, req accountmodel.RegisterRequest) (accountmodel.Registration, error) {
	hash := strings.TrimSpace(req.APIHash)
	if req.APIID <= 0 || hash == "" || strings.TrimSpace(req.SessionString) == "" {
		return accountmodel.Registration{}, apperr.New(apperr.KindInvalidRequest, "register session",
			errors.New("api_id, api_hash and session_string are required"))
	}

	decoded, err := telegram.DecodeSessionString(req.SessionString)
	if err != nil {
		return accountmodel.Registration{}, apperr.New(apperr.KindAuthExpired, "register session", err)
	}
	decoded.APIID = int(req.APIID)
	decoded.APIHash = hash
	sessionString, err := decoded.Encode()
	if err != nil {
		return accountmodel.Registration{}, apperr.New(apperr.KindAuthExpired, "register session", err)
	}

	type registered struct {
		me      telegram.User
		session string
	}
	res, err := with(ctx, s, sessionString, "register session", func(ctx context.Context, client telegram.Client) (registered, error) {
		me, err := client.Self(ctx)
		if err != nil {
			return registered{}, err
		}
		exported, err := client.ExportSession(ctx)
		if err != nil {
			return registered{}, err
		}
		return registered{me: me, session: exported}, nil
	})
	if err != nil {
		return accountmodel.Registration{}, remote.Err(apperr.KindUnexpected, "register session", err)
	}

	log.Info().Int64("user_id", res.me.ID).Msg("session string registered")

	return accountmodel.Registration{Me: meFromUser(res.me), SessionString: res.session}, nil
}

func meFromUser(u telegram.User) accountmodel.Me {
	return accountmodel.Me{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Username:    u.Username,
		PhoneNumber: u.PhoneNumber,
		IsPremium:   u.IsPremium,
	}
}

// FormatDate renders t as RFC 3339, or nil for the zero time.
func FormatDate(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
