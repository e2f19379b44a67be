package telegram

import (
	"context"
	"fmt"

	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
)

func userFromTG(u *tg.User) User {
	return User{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Username:    u.Username,
		PhoneNumber: u.Phone,
		IsPremium:   u.Premium,
	}
}

func chatFromChannel(ch *tg.Channel) Chat {
	kind := "channel"
	if ch.Megagroup {
		kind = "supergroup"
	}
	return Chat{
		ID:       channelIDOffset - ch.ID,
		Type:     kind,
		Title:    ch.Title,
		Username: ch.Username,
	}
}

func chatFromUser(u *tg.User) Chat {
	kind := "private"
	if u.Bot {
		kind = "bot"
	}
	return Chat{
		ID:        u.ID,
		Type:      kind,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func (c *gotdClient) GetChat(ctx context.Context, chat string) (Chat, error) {
	api, err := c.api()
	if err != nil {
		return Chat{}, err
	}
	p, err := c.resolve(ctx, api, chat)
	if err != nil {
		return Chat{}, err
	}

	switch p := p.(type) {
	case *tg.InputPeerChannel:
		res, err := api.ChannelsGetChannels(ctx, []tg.InputChannelClass{
			&tg.InputChannel{ChannelID: p.ChannelID, AccessHash: p.AccessHash},
		})
		if err != nil {
			return Chat{}, err
		}
		for _, item := range res.GetChats() {
			if ch, ok := item.(*tg.Channel); ok && ch.ID == p.ChannelID {
				return chatFromChannel(ch), nil
			}
		}
	case *tg.InputPeerChat:
		res, err := api.MessagesGetChats(ctx, []int64{p.ChatID})
		if err != nil {
			return Chat{}, err
		}
		for _, item := range res.GetChats() {
			if group, ok := item.(*tg.Chat); ok && group.ID == p.ChatID {
				return Chat{ID: -group.ID, Type: "group", Title: group.Title}, nil
			}
		}
	case *tg.InputPeerUser:
		users, err := api.UsersGetUsers(ctx, []tg.InputUserClass{
			&tg.InputUser{UserID: p.UserID, AccessHash: p.AccessHash},
		})
		if err != nil {
			return Chat{}, err
		}
		for _, item := range users {
			if u, ok := item.(*tg.User); ok && u.ID == p.UserID {
				return chatFromUser(u), nil
			}
		}
	}
	return Chat{}, fmt.Errorf("%w: %s", ErrChatNotFound, chat)
}

// history reads the newest limit messages of a peer together with the
// users the response references.
func history(ctx context.Context, api *tg.Client, p tg.InputPeerClass, limit int) ([]*tg.Message, map[int64]*tg.User, error) {
	res, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:  p,
		Limit: limit,
	})
	if err != nil {
		return nil, nil, err
	}
	return collectMessages(res)
}

func collectMessages(res tg.MessagesMessagesClass) ([]*tg.Message, map[int64]*tg.User, error) {
	modified, ok := res.AsModified()
	if !ok {
		return nil, nil, fmt.Errorf("unexpected messages response %T", res)
	}

	users := make(map[int64]*tg.User)
	for _, item := range modified.GetUsers() {
		if u, ok := item.(*tg.User); ok {
			users[u.ID] = u
		}
	}

	raw := modified.GetMessages()
	messages := make([]*tg.Message, 0, len(raw))
	for _, item := range raw {
		if msg, ok := item.(*tg.Message); ok {
			messages = append(messages, msg)
		}
	}
	return messages, users, nil
}

func historyMessage(msg *tg.Message, users map[int64]*tg.User) HistoryMessage {
	out := HistoryMessage{
		ID:   msg.ID,
		Text: msg.Message,
		Date: unixTime(msg.Date),
	}
	if from, ok := msg.GetFromID(); ok {
		if pu, ok := from.(*tg.PeerUser); ok {
			if u, ok := users[pu.UserID]; ok {
				profile := userFromTG(u)
				out.FromUser = &profile
			}
		}
	}
	return out
}

func (c *gotdClient) History(ctx context.Context, chat string, limit int) ([]HistoryMessage, error) {
	api, err := c.api()
	if err != nil {
		return nil, err
	}
	p, err := c.resolve(ctx, api, chat)
	if err != nil {
		return nil, err
	}

	messages, users, err := history(ctx, api, p, limit)
	if err != nil {
		return nil, err
	}

	out := make([]HistoryMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, historyMessage(msg, users))
	}
	return out, nil
}

func (c *gotdClient) ReplyTo(ctx context.Context, chat string, messageID int, text string) (SentMessage, error) {
	api, err := c.api()
	if err != nil {
		return SentMessage{}, err
	}
	p, err := c.resolve(ctx, api, chat)
	if err != nil {
		return SentMessage{}, err
	}

	upd, err := message.NewSender(api).To(p).Reply(messageID).Text(ctx, text)
	if err != nil {
		return SentMessage{}, err
	}
	return sentFromUpdates(upd, inputPeerID(p))
}
