// Package comment posts a comment under a channel's most recent post whose
// discussion thread does not already carry the same text.
package comment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/tg-gateway/internal/apperr"
	commentmodel "github.com/zhouzirui/tg-gateway/internal/model/comment"
	"github.com/zhouzirui/tg-gateway/internal/service/remote"
	"github.com/zhouzirui/tg-gateway/internal/telegram"
)

// Options bounds the anchor scan and each remote call.
type Options struct {
	// HistoryLimit is how many recent posts are considered.
	HistoryLimit int
	// ReplyLimit is how many replies of each thread are compared.
	ReplyLimit int
	// ThreadRetries is how many extra reads a failing thread gets.
	ThreadRetries int
	CallTimeout   time.Duration
}

// DefaultOptions returns the scan caps of the original service.
func DefaultOptions() Options {
	return Options{
		HistoryLimit:  30,
		ReplyLimit:    10,
		ThreadRetries: 1,
		CallTimeout:   remote.DefaultCallTimeout,
	}
}

// Service is the duplicate-aware comment poster.
type Service struct {
	factory telegram.Factory
	opts    Options
}

// NewService creates a poster. Non-positive limits fall back to defaults.
func NewService(factory telegram.Factory, opts Options) *Service {
	def := DefaultOptions()
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = def.HistoryLimit
	}
	if opts.ReplyLimit <= 0 {
		opts.ReplyLimit = def.ReplyLimit
	}
	if opts.ThreadRetries < 0 {
		opts.ThreadRetries = 0
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = def.CallTimeout
	}
	return &Service{factory: factory, opts: opts}
}

// Post scans the channel for an anchor and comments under it. A duplicate
// anywhere in the scanned window yields a skipped result and sends nothing.
func (s *Service) Post(ctx context.Context, req commentmodel.Request) (commentmodel.Result, error) {
	chat := strings.TrimSpace(req.ChatID.String())
	if chat == "" {
		return commentmodel.Result{}, apperr.New(apperr.KindInvalidRequest, "post comment", errors.New("chat_id is required"))
	}
	if strings.TrimSpace(req.Caption) == "" && strings.TrimSpace(req.FilePath) == "" {
		return commentmodel.Result{}, apperr.New(apperr.KindInvalidRequest, "post comment", errors.New("caption or file_path is required"))
	}

	client, err := remote.Open(ctx, s.factory, req.SessionString, s.opts.CallTimeout)
	if err != nil {
		return commentmodel.Result{}, err
	}
	defer remote.Close(client, "post comment")

	logger := log.With().Str("chat", chat).Logger()

	posts, err := remote.Call(ctx, s.opts.CallTimeout, func(ctx context.Context) ([]telegram.Post, error) {
		return client.RecentPosts(ctx, chat, s.opts.HistoryLimit)
	})
	if err != nil {
		return commentmodel.Result{}, remote.Err(apperr.KindUnexpected, "read posts", err)
	}

	read := retryingReader(s.opts.ThreadRetries, func(ctx context.Context, postID int) ([]telegram.Reply, error) {
		return remote.Call(ctx, s.opts.CallTimeout, func(ctx context.Context) ([]telegram.Reply, error) {
			return client.DiscussionReplies(ctx, chat, postID, s.opts.ReplyLimit)
		})
	})

	out, err := fold(ctx, posts, req.Caption, read)
	if err != nil {
		return commentmodel.Result{}, remote.Err(apperr.KindConnectionFailed, "scan threads", err)
	}

	logger.Info().
		Int("posts", len(posts)).
		Int("unreadable", out.unreadable).
		Stringer("verdict", out.verdict).
		Int("post_id", out.post.ID).
		Time("post_date", out.post.Date).
		Msg("anchor scan finished")

	switch out.verdict {
	case skip:
		return commentmodel.Result{Skipped: true, Reason: commentmodel.SkipReason}, nil
	case exhausted:
		return commentmodel.Result{}, apperr.New(apperr.KindNoSuitableAnchor, "post comment",
			errors.New("no recent post with a readable discussion thread"))
	}

	entry, err := remote.Call(ctx, s.opts.CallTimeout, func(ctx context.Context) (telegram.DiscussionAnchor, error) {
		return client.DiscussionAnchor(ctx, chat, out.post.ID)
	})
	if err != nil {
		return commentmodel.Result{}, remote.Err(apperr.KindDeliveryFailed, "resolve discussion", err)
	}

	sent, err := s.deliver(ctx, client, entry, req)
	if err != nil {
		return commentmodel.Result{}, err
	}

	logger.Info().
		Int("message_id", sent.ID).
		Int64("discussion_chat_id", sent.ChatID).
		Int("parent_message_id", out.post.ID).
		Msg("comment posted")

	return commentmodel.Result{
		MessageID:       sent.ID,
		ChatID:          sent.ChatID,
		Date:            sent.Date,
		ParentMessageID: out.post.ID,
	}, nil
}

// deliver tries the media reply first when the request has one, then falls
// back to a text reply. Only a failed text reply is reported.
func (s *Service) deliver(ctx context.Context, client telegram.Client, entry telegram.DiscussionAnchor, req commentmodel.Request) (telegram.SentMessage, error) {
	kind := mediaKind(commentmodel.MessageType(strings.ToLower(string(req.MessageType))), req.FilePath)

	var media func(context.Context) (telegram.SentMessage, error)
	switch kind {
	case commentmodel.TypePhoto:
		media = func(ctx context.Context) (telegram.SentMessage, error) {
			return client.ReplyPhoto(ctx, entry, req.FilePath, req.Caption)
		}
	case commentmodel.TypeVideo:
		media = func(ctx context.Context) (telegram.SentMessage, error) {
			return client.ReplyVideo(ctx, entry, req.FilePath, req.Caption)
		}
	}

	if media != nil {
		sent, err := remote.Call(ctx, s.opts.CallTimeout, media)
		if err == nil {
			return sent, nil
		}
		if ctx.Err() != nil {
			return telegram.SentMessage{}, remote.Err(apperr.KindDeliveryFailed, "send "+string(kind), err)
		}
		log.Warn().Err(err).Str("type", string(kind)).Str("file", req.FilePath).Msg("media reply failed, falling back to text")
	}

	sent, err := remote.Call(ctx, s.opts.CallTimeout, func(ctx context.Context) (telegram.SentMessage, error) {
		return client.ReplyText(ctx, entry, req.Caption)
	})
	if err != nil {
		return telegram.SentMessage{}, remote.Err(apperr.KindDeliveryFailed, "send text", err)
	}
	return sent, nil
}
