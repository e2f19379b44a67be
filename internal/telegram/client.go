// Package telegram is the gateway's view of the messaging platform: the
// Client capability surface consumed by the services, and the production
// adapter that implements it on top of the gotd MTProto client.
package telegram

import (
	"context"
	"errors"
	"time"

	"github.com/gotd/td/tg"
)

var (
	// ErrInvalidCredentials reports app credentials or a phone number the
	// platform refused to start a login for.
	ErrInvalidCredentials = errors.New("telegram: invalid credentials")
	// ErrBadPassword reports a rejected two-factor password.
	ErrBadPassword = errors.New("telegram: bad password")
	// ErrUnauthorized reports a session that the platform no longer accepts.
	ErrUnauthorized = errors.New("telegram: session is not authorized")
	// ErrThreadDisabled reports a post without a readable discussion thread.
	ErrThreadDisabled = errors.New("telegram: discussion thread unavailable")
	// ErrChatNotFound reports a chat reference that could not be resolved.
	ErrChatNotFound = errors.New("telegram: chat not found")
	// ErrNotConnected is returned by calls made before Connect or after Stop.
	ErrNotConnected = errors.New("telegram: client not connected")
)

// SignInResult is the outcome of a code sign-in that did not fail.
type SignInResult int

const (
	SignedIn SignInResult = iota
	SecondFactorRequired
)

func (r SignInResult) String() string {
	if r == SecondFactorRequired {
		return "second_factor_required"
	}
	return "signed_in"
}

// Post is a channel post as returned by a history read.
type Post struct {
	ID   int
	Date time.Time
}

// Reply is one comment in a post's discussion thread.
type Reply struct {
	ID      int
	Text    string
	Caption string
}

// ComparisonText is the text a duplicate check runs against: the reply's
// text when present, its media caption otherwise.
func (r Reply) ComparisonText() string {
	if r.Text != "" {
		return r.Text
	}
	return r.Caption
}

// DiscussionAnchor addresses the entry point of a post's discussion thread
// in the linked group.
type DiscussionAnchor struct {
	ChatID    int64
	MessageID int

	peer tg.InputPeerClass
}

// SentMessage describes a message the client just posted.
type SentMessage struct {
	ID     int
	ChatID int64
	Date   time.Time
}

// Chat is the summary returned by GetChat.
type Chat struct {
	ID        int64
	Type      string
	Title     string
	Username  string
	FirstName string
	LastName  string
}

// User is an account profile.
type User struct {
	ID          int64
	FirstName   string
	LastName    string
	Username    string
	PhoneNumber string
	IsPremium   bool
}

// HistoryMessage is one entry of GetChatHistory.
type HistoryMessage struct {
	ID       int
	Text     string
	Date     time.Time
	FromUser *User
}

// Client is a connection to the platform bound to one account.
type Client interface {
	// Connect opens the connection. Clients built from a session string
	// also verify that the session is still authorized.
	Connect(ctx context.Context) error
	// Stop tears the connection down. Safe to call more than once.
	Stop() error

	SendCode(ctx context.Context, phone string) (codeHash string, err error)
	SignIn(ctx context.Context, phone, codeHash, code string) (SignInResult, error)
	CheckPassword(ctx context.Context, password string) error
	ExportSession(ctx context.Context) (string, error)

	Self(ctx context.Context) (User, error)
	GetChat(ctx context.Context, chat string) (Chat, error)
	History(ctx context.Context, chat string, limit int) ([]HistoryMessage, error)
	ReplyTo(ctx context.Context, chat string, messageID int, text string) (SentMessage, error)

	// RecentPosts lists up to limit posts, newest first.
	RecentPosts(ctx context.Context, chat string, limit int) ([]Post, error)
	// DiscussionReplies lists up to limit comments of a post's thread.
	DiscussionReplies(ctx context.Context, chat string, messageID, limit int) ([]Reply, error)
	DiscussionAnchor(ctx context.Context, chat string, messageID int) (DiscussionAnchor, error)
	ReplyPhoto(ctx context.Context, anchor DiscussionAnchor, path, caption string) (SentMessage, error)
	ReplyVideo(ctx context.Context, anchor DiscussionAnchor, path, caption string) (SentMessage, error)
	ReplyText(ctx context.Context, anchor DiscussionAnchor, text string) (SentMessage, error)
}

// Factory builds unconnected clients.
type Factory interface {
	// NewLogin returns a client for a fresh login with the given app
	// credentials. identity labels the client in logs.
	NewLogin(apiID int, apiHash, identity string) (Client, error)
	// FromSession returns a client that resumes an exported session string.
	FromSession(sessionString string) (Client, error)
}
