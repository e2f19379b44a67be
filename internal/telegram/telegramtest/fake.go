// Package telegramtest provides scripted in-memory implementations of the
// telegram Client and Factory for service and handler tests.
package telegramtest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zhouzirui/tg-gateway/internal/telegram"
)

// Sent records one outgoing message.
type Sent struct {
	Kind      string // "photo", "video", "text" or "reply"
	Chat      string
	Anchor    telegram.DiscussionAnchor
	MessageID int
	Path      string
	Text      string
}

// Client is a scripted telegram.Client. Zero values mean success with empty
// results. All fields may be set before use; recorded fields are read
// through accessor methods.
type Client struct {
	ConnectErr error
	// ConnectDelay blocks Connect until the context is done when set.
	ConnectDelay bool

	CodeHash    string
	SendCodeErr error

	SignInResult telegram.SignInResult
	SignInErr    error
	// Password is the accepted two-factor password.
	Password    string
	PasswordErr error

	Session   string
	ExportErr error

	Me      telegram.User
	MeErr   error
	Chat    telegram.Chat
	ChatErr error

	Messages    []telegram.HistoryMessage
	MessagesErr error

	Posts    []telegram.Post
	PostsErr error
	// Replies holds the discussion thread of each post id.
	Replies map[int][]telegram.Reply
	// ThreadErrs are returned, one per call, before Replies is served.
	ThreadErrs map[int][]error
	AnchorErr  error

	PhotoErr error
	VideoErr error
	TextErr  error
	ReplyErr error

	// Now stamps sent messages; defaults to a fixed instant.
	Now time.Time

	mu          sync.Mutex
	connected   bool
	stops       int
	calls       []string
	sent        []Sent
	threadReads map[int]int
	nextID      int
}

var _ telegram.Client = (*Client)(nil)

func (c *Client) record(call string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

// Calls returns the names of the methods invoked so far, in order.
func (c *Client) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// Sent returns the messages posted so far.
func (c *Client) Sent() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Sent(nil), c.sent...)
}

// Stops reports how many times Stop was called while connected.
func (c *Client) Stops() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops
}

// Connected reports whether the client is between Connect and Stop.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// ThreadReads reports how many times the thread of a post was read.
func (c *Client) ThreadReads(messageID int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.threadReads[messageID]
}

func (c *Client) Connect(ctx context.Context) error {
	c.record("Connect")
	if c.ConnectDelay {
		<-ctx.Done()
		return ctx.Err()
	}
	if c.ConnectErr != nil {
		return c.ConnectErr
	}
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	return nil
}

func (c *Client) Stop() error {
	c.record("Stop")
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		c.connected = false
		c.stops++
	}
	return nil
}

func (c *Client) SendCode(_ context.Context, _ string) (string, error) {
	c.record("SendCode")
	if c.SendCodeErr != nil {
		return "", c.SendCodeErr
	}
	if c.CodeHash == "" {
		return "hash", nil
	}
	return c.CodeHash, nil
}

func (c *Client) SignIn(_ context.Context, _, _, _ string) (telegram.SignInResult, error) {
	c.record("SignIn")
	return c.SignInResult, c.SignInErr
}

func (c *Client) CheckPassword(_ context.Context, password string) error {
	c.record("CheckPassword")
	if c.PasswordErr != nil {
		return c.PasswordErr
	}
	if c.Password != "" && password != c.Password {
		return telegram.ErrBadPassword
	}
	return nil
}

func (c *Client) ExportSession(_ context.Context) (string, error) {
	c.record("ExportSession")
	if c.ExportErr != nil {
		return "", c.ExportErr
	}
	if c.Session == "" {
		return "session-string", nil
	}
	return c.Session, nil
}

func (c *Client) Self(_ context.Context) (telegram.User, error) {
	c.record("Self")
	return c.Me, c.MeErr
}

func (c *Client) GetChat(_ context.Context, _ string) (telegram.Chat, error) {
	c.record("GetChat")
	return c.Chat, c.ChatErr
}

func (c *Client) History(_ context.Context, _ string, limit int) ([]telegram.HistoryMessage, error) {
	c.record("History")
	if c.MessagesErr != nil {
		return nil, c.MessagesErr
	}
	if limit < len(c.Messages) {
		return c.Messages[:limit], nil
	}
	return c.Messages, nil
}

func (c *Client) ReplyTo(_ context.Context, chat string, messageID int, text string) (telegram.SentMessage, error) {
	c.record("ReplyTo")
	if c.ReplyErr != nil {
		return telegram.SentMessage{}, c.ReplyErr
	}
	return c.send(Sent{Kind: "reply", Chat: chat, MessageID: messageID, Text: text}, -1), nil
}

func (c *Client) RecentPosts(_ context.Context, _ string, limit int) ([]telegram.Post, error) {
	c.record("RecentPosts")
	if c.PostsErr != nil {
		return nil, c.PostsErr
	}
	if limit < len(c.Posts) {
		return c.Posts[:limit], nil
	}
	return c.Posts, nil
}

func (c *Client) DiscussionReplies(_ context.Context, _ string, messageID, limit int) ([]telegram.Reply, error) {
	c.record("DiscussionReplies")

	c.mu.Lock()
	if c.threadReads == nil {
		c.threadReads = make(map[int]int)
	}
	attempt := c.threadReads[messageID]
	c.threadReads[messageID]++
	c.mu.Unlock()

	if errs := c.ThreadErrs[messageID]; attempt < len(errs) {
		return nil, errs[attempt]
	}
	replies := c.Replies[messageID]
	if limit < len(replies) {
		return replies[:limit], nil
	}
	return replies, nil
}

func (c *Client) DiscussionAnchor(_ context.Context, _ string, messageID int) (telegram.DiscussionAnchor, error) {
	c.record("DiscussionAnchor")
	if c.AnchorErr != nil {
		return telegram.DiscussionAnchor{}, c.AnchorErr
	}
	return telegram.DiscussionAnchor{ChatID: -1009000000000, MessageID: messageID + 1000}, nil
}

func (c *Client) ReplyPhoto(_ context.Context, anchor telegram.DiscussionAnchor, path, caption string) (telegram.SentMessage, error) {
	c.record("ReplyPhoto")
	if c.PhotoErr != nil {
		return telegram.SentMessage{}, c.PhotoErr
	}
	return c.send(Sent{Kind: "photo", Anchor: anchor, Path: path, Text: caption}, anchor.ChatID), nil
}

func (c *Client) ReplyVideo(_ context.Context, anchor telegram.DiscussionAnchor, path, caption string) (telegram.SentMessage, error) {
	c.record("ReplyVideo")
	if c.VideoErr != nil {
		return telegram.SentMessage{}, c.VideoErr
	}
	return c.send(Sent{Kind: "video", Anchor: anchor, Path: path, Text: caption}, anchor.ChatID), nil
}

func (c *Client) ReplyText(_ context.Context, anchor telegram.DiscussionAnchor, text string) (telegram.SentMessage, error) {
	c.record("ReplyText")
	if c.TextErr != nil {
		return telegram.SentMessage{}, c.TextErr
	}
	return c.send(Sent{Kind: "text", Anchor: anchor, Text: text}, anchor.ChatID), nil
}

func (c *Client) send(s Sent, chatID int64) telegram.SentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, s)
	c.nextID++
	now := c.Now
	if now.IsZero() {
		now = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	}
	return telegram.SentMessage{ID: 5000 + c.nextID, ChatID: chatID, Date: now}
}

// ErrFactory is returned by Factory when configured to fail.
var ErrFactory = errors.New("telegramtest: factory failure")

// Factory hands out scripted clients.
type Factory struct {
	// Client is returned by every call unless New is set.
	Client *Client
	// New builds a fresh client per call.
	New func() *Client

	LoginErr   error
	SessionErr error

	mu         sync.Mutex
	identities []string
	sessions   []string
	built      []*Client
}

var _ telegram.Factory = (*Factory)(nil)

func (f *Factory) next() *Client {
	var c *Client
	if f.New != nil {
		c = f.New()
	} else {
		c = f.Client
	}
	f.built = append(f.built, c)
	return c
}

func (f *Factory) NewLogin(_ int, _, identity string) (telegram.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identities = append(f.identities, identity)
	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	return f.next(), nil
}

func (f *Factory) FromSession(sessionString string) (telegram.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, sessionString)
	if f.SessionErr != nil {
		return nil, f.SessionErr
	}
	return f.next(), nil
}

// Identities returns the identities passed to NewLogin.
func (f *Factory) Identities() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.identities...)
}

// Sessions returns the session strings passed to FromSession.
func (f *Factory) Sessions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sessions...)
}

// Built returns every client handed out so far.
func (f *Factory) Built() []*Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Client(nil), f.built...)
}
