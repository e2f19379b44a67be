package telegram

import (
	"errors"
	"testing"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyFromMessage(t *testing.T) {
	text := replyFromMessage(&tg.Message{ID: 1, Message: "Buy now!"})
	assert.Equal(t, "Buy now!", text.Text)
	assert.Empty(t, text.Caption)
	assert.Equal(t, "Buy now!", text.ComparisonText())

	media := &tg.Message{ID: 2, Message: "look at this"}
	media.SetMedia(&tg.MessageMediaPhoto{})
	withCaption := replyFromMessage(media)
	assert.Empty(t, withCaption.Text)
	assert.Equal(t, "look at this", withCaption.Caption)
	assert.Equal(t, "look at this", withCaption.ComparisonText())
}

func TestAnchorFromDiscussion(t *testing.T) {
	res := &tg.MessagesDiscussionMessage{
		Messages: []tg.MessageClass{
			&tg.Message{ID: 12, PeerID: &tg.PeerChannel{ChannelID: 900}},
			&tg.Message{ID: 10, PeerID: &tg.PeerChannel{ChannelID: 900}},
		},
		Chats: []tg.ChatClass{
			&tg.Channel{ID: 800, AccessHash: 1},
			&tg.Channel{ID: 900, AccessHash: 2},
		},
	}

	anchor, err := anchorFromDiscussion(res)
	require.NoError(t, err)
	assert.Equal(t, 10, anchor.MessageID)
	assert.Equal(t, int64(-1000000000900), anchor.ChatID)
	assert.Equal(t, &tg.InputPeerChannel{ChannelID: 900, AccessHash: 2}, anchor.peer)
}

func TestAnchorFromDiscussionWithoutThread(t *testing.T) {
	_, err := anchorFromDiscussion(&tg.MessagesDiscussionMessage{})
	assert.ErrorIs(t, err, ErrThreadDisabled)

	_, err = anchorFromDiscussion(&tg.MessagesDiscussionMessage{
		Messages: []tg.MessageClass{&tg.Message{ID: 3, PeerID: &tg.PeerChannel{ChannelID: 1}}},
	})
	assert.ErrorIs(t, err, ErrThreadDisabled)
}

func TestClassifyThreadErr(t *testing.T) {
	assert.ErrorIs(t, classifyThreadErr(tgerr.New(400, "MSG_ID_INVALID")), ErrThreadDisabled)

	other := errors.New("i/o timeout")
	assert.Equal(t, other, classifyThreadErr(other))
}

func TestVideoMIME(t *testing.T) {
	assert.Equal(t, "video/mp4", videoMIME("clip.mp4"))
	assert.Equal(t, "video/mp4", videoMIME("clip.unknown"))
}
