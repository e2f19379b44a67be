package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gotd/td/telegram/message/peer"
	"github.com/gotd/td/telegram/query"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
)

// channelIDOffset is the prefix applied to channel ids in their public
// numeric form (-100xxxxxxxxxx).
const channelIDOffset int64 = -1000000000000

// normalizeChatRef strips link prefixes and the @ sigil from a chat
// reference, leaving a username or a numeric id.
func normalizeChatRef(chat string) string {
	ref := strings.TrimSpace(chat)
	for _, prefix := range []string{"https://", "http://"} {
		ref = strings.TrimPrefix(ref, prefix)
	}
	for _, prefix := range []string{"t.me/", "telegram.me/", "telegram.dog/"} {
		ref = strings.TrimPrefix(ref, prefix)
	}
	ref = strings.TrimPrefix(ref, "@")
	if i := strings.IndexAny(ref, "/?"); i >= 0 {
		ref = ref[:i]
	}
	return ref
}

// inputPeerID returns the public numeric id of a peer.
func inputPeerID(p tg.InputPeerClass) int64 {
	switch p := p.(type) {
	case *tg.InputPeerChannel:
		return channelIDOffset - p.ChannelID
	case *tg.InputPeerChat:
		return -p.ChatID
	case *tg.InputPeerUser:
		return p.UserID
	}
	return 0
}

// peerID returns the public numeric id of a message's peer.
func peerID(p tg.PeerClass) int64 {
	switch p := p.(type) {
	case *tg.PeerChannel:
		return channelIDOffset - p.ChannelID
	case *tg.PeerChat:
		return -p.ChatID
	case *tg.PeerUser:
		return p.UserID
	}
	return 0
}

func unixTime(ts int) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(int64(ts), 0).UTC()
}

// resolve maps a chat reference to an input peer, caching per client.
func (c *gotdClient) resolve(ctx context.Context, api *tg.Client, chat string) (tg.InputPeerClass, error) {
	ref := normalizeChatRef(chat)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrChatNotFound)
	}

	c.peersMu.Lock()
	cached, ok := c.peers[ref]
	c.peersMu.Unlock()
	if ok {
		return cached, nil
	}

	var (
		p   tg.InputPeerClass
		err error
	)
	if id, parseErr := strconv.ParseInt(ref, 10, 64); parseErr == nil {
		p, err = resolveDialog(ctx, api, id)
	} else {
		p, err = peer.DefaultResolver(api).ResolveDomain(ctx, ref)
		if tgerr.Is(err, "USERNAME_NOT_OCCUPIED", "USERNAME_INVALID") {
			err = fmt.Errorf("%w: %s", ErrChatNotFound, ref)
		}
	}
	if err != nil {
		return nil, err
	}

	c.peersMu.Lock()
	c.peers[ref] = p
	c.peersMu.Unlock()
	return p, nil
}

// resolveDialog finds a numeric id among the account's dialogs, the only
// place an access hash for it is available.
func resolveDialog(ctx context.Context, api *tg.Client, id int64) (tg.InputPeerClass, error) {
	iter := query.GetDialogs(api).BatchSize(100).Iter()
	for iter.Next(ctx) {
		elem := iter.Value()
		if inputPeerID(elem.Peer) == id {
			return elem.Peer, nil
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("iterate dialogs: %w", err)
	}
	return nil, fmt.Errorf("%w: %d", ErrChatNotFound, id)
}
