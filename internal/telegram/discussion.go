package telegram

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/uploader"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
)

// threadErrors are the RPC errors meaning a post has no readable thread.
var threadErrors = []string{
	"MSG_ID_INVALID",
	"CHANNEL_PRIVATE",
	"CHAT_ADMIN_REQUIRED",
	"TOPIC_ID_INVALID",
}

func classifyThreadErr(err error) error {
	if tgerr.Is(err, threadErrors...) {
		return fmt.Errorf("%w: %v", ErrThreadDisabled, err)
	}
	return err
}

func replyFromMessage(msg *tg.Message) Reply {
	reply := Reply{ID: msg.ID}
	if _, hasMedia := msg.GetMedia(); hasMedia {
		reply.Caption = msg.Message
	} else {
		reply.Text = msg.Message
	}
	return reply
}

func (c *gotdClient) RecentPosts(ctx context.Context, chat string, limit int) ([]Post, error) {
	api, err := c.api()
	if err != nil {
		return nil, err
	}
	p, err := c.resolve(ctx, api, chat)
	if err != nil {
		return nil, err
	}

	messages, _, err := history(ctx, api, p, limit)
	if err != nil {
		return nil, err
	}

	posts := make([]Post, 0, len(messages))
	for _, msg := range messages {
		posts = append(posts, Post{ID: msg.ID, Date: unixTime(msg.Date)})
	}
	return posts, nil
}

func (c *gotdClient) DiscussionReplies(ctx context.Context, chat string, messageID, limit int) ([]Reply, error) {
	api, err := c.api()
	if err != nil {
		return nil, err
	}
	p, err := c.resolve(ctx, api, chat)
	if err != nil {
		return nil, err
	}

	res, err := api.MessagesGetReplies(ctx, &tg.MessagesGetRepliesRequest{
		Peer:  p,
		MsgID: messageID,
		Limit: limit,
	})
	if err != nil {
		return nil, classifyThreadErr(err)
	}

	messages, _, err := collectMessages(res)
	if err != nil {
		return nil, err
	}

	replies := make([]Reply, 0, len(messages))
	for _, msg := range messages {
		replies = append(replies, replyFromMessage(msg))
	}
	return replies, nil
}

func (c *gotdClient) DiscussionAnchor(ctx context.Context, chat string, messageID int) (DiscussionAnchor, error) {
	api, err := c.api()
	if err != nil {
		return DiscussionAnchor{}, err
	}
	p, err := c.resolve(ctx, api, chat)
	if err != nil {
		return DiscussionAnchor{}, err
	}

	res, err := api.MessagesGetDiscussionMessage(ctx, &tg.MessagesGetDiscussionMessageRequest{
		Peer:  p,
		MsgID: messageID,
	})
	if err != nil {
		return DiscussionAnchor{}, classifyThreadErr(err)
	}
	return anchorFromDiscussion(res)
}

// anchorFromDiscussion picks the thread root (the lowest message id of the
// response) and the input peer of the group that holds it.
func anchorFromDiscussion(res *tg.MessagesDiscussionMessage) (DiscussionAnchor, error) {
	var root *tg.Message
	for _, item := range res.Messages {
		if msg, ok := item.(*tg.Message); ok && (root == nil || msg.ID < root.ID) {
			root = msg
		}
	}
	if root == nil {
		return DiscussionAnchor{}, ErrThreadDisabled
	}

	group, ok := root.PeerID.(*tg.PeerChannel)
	if !ok {
		return DiscussionAnchor{}, fmt.Errorf("%w: thread root is not in a group", ErrThreadDisabled)
	}
	for _, item := range res.Chats {
		ch, ok := item.(*tg.Channel)
		if !ok || ch.ID != group.ChannelID {
			continue
		}
		return DiscussionAnchor{
			ChatID:    channelIDOffset - ch.ID,
			MessageID: root.ID,
			peer:      &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash},
		}, nil
	}
	return DiscussionAnchor{}, fmt.Errorf("%w: discussion group missing from response", ErrThreadDisabled)
}

func (c *gotdClient) replyBuilder(anchor DiscussionAnchor) (*tg.Client, *message.Builder, error) {
	api, err := c.api()
	if err != nil {
		return nil, nil, err
	}
	if anchor.peer == nil {
		return nil, nil, errors.New("discussion anchor has no peer")
	}
	return api, message.NewSender(api).To(anchor.peer).Reply(anchor.MessageID), nil
}

func (c *gotdClient) ReplyPhoto(ctx context.Context, anchor DiscussionAnchor, path, caption string) (SentMessage, error) {
	api, builder, err := c.replyBuilder(anchor)
	if err != nil {
		return SentMessage{}, err
	}
	file, err := uploader.NewUploader(api).FromPath(ctx, path)
	if err != nil {
		return SentMessage{}, fmt.Errorf("upload photo: %w", err)
	}

	upd, err := builder.Media(ctx, message.UploadedPhoto(file, styled(caption)...))
	if err != nil {
		return SentMessage{}, err
	}
	return sentFromUpdates(upd, anchor.ChatID)
}

func (c *gotdClient) ReplyVideo(ctx context.Context, anchor DiscussionAnchor, path, caption string) (SentMessage, error) {
	api, builder, err := c.replyBuilder(anchor)
	if err != nil {
		return SentMessage{}, err
	}
	file, err := uploader.NewUploader(api).FromPath(ctx, path)
	if err != nil {
		return SentMessage{}, fmt.Errorf("upload video: %w", err)
	}

	video := message.UploadedDocument(file, styled(caption)...).
		Filename(filepath.Base(path)).
		MIME(videoMIME(path)).
		Video()
	upd, err := builder.Media(ctx, video)
	if err != nil {
		return SentMessage{}, err
	}
	return sentFromUpdates(upd, anchor.ChatID)
}

func (c *gotdClient) ReplyText(ctx context.Context, anchor DiscussionAnchor, text string) (SentMessage, error) {
	_, builder, err := c.replyBuilder(anchor)
	if err != nil {
		return SentMessage{}, err
	}
	upd, err := builder.StyledText(ctx, styled(text)...)
	if err != nil {
		return SentMessage{}, err
	}
	return sentFromUpdates(upd, anchor.ChatID)
}

func videoMIME(path string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); strings.HasPrefix(t, "video/") {
		return t
	}
	return "video/mp4"
}
