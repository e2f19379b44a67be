package telegram

import (
	"errors"
	"fmt"
	"time"

	"github.com/gotd/td/tg"
)

var errNoSentMessage = errors.New("telegram: response does not reference the sent message")

// sentFromUpdates extracts the posted message from a send response.
// fallbackChat is used when the response does not name the chat.
func sentFromUpdates(upd tg.UpdatesClass, fallbackChat int64) (SentMessage, error) {
	switch u := upd.(type) {
	case *tg.UpdateShortSentMessage:
		return SentMessage{ID: u.ID, ChatID: fallbackChat, Date: unixTime(u.Date)}, nil
	case *tg.Updates:
		return sentFromList(u.Updates, fallbackChat)
	case *tg.UpdatesCombined:
		return sentFromList(u.Updates, fallbackChat)
	}
	return SentMessage{}, fmt.Errorf("unexpected updates response %T", upd)
}

func sentFromList(updates []tg.UpdateClass, fallbackChat int64) (SentMessage, error) {
	var assignedID int
	for _, item := range updates {
		var msg tg.MessageClass
		switch u := item.(type) {
		case *tg.UpdateMessageID:
			if assignedID == 0 {
				assignedID = u.ID
			}
			continue
		case *tg.UpdateNewChannelMessage:
			msg = u.Message
		case *tg.UpdateNewMessage:
			msg = u.Message
		default:
			continue
		}
		if m, ok := msg.(*tg.Message); ok {
			chatID := peerID(m.PeerID)
			if chatID == 0 {
				chatID = fallbackChat
			}
			return SentMessage{ID: m.ID, ChatID: chatID, Date: unixTime(m.Date)}, nil
		}
	}

	if assignedID == 0 {
		return SentMessage{}, errNoSentMessage
	}
	return SentMessage{ID: assignedID, ChatID: fallbackChat, Date: time.Now().UTC()}, nil
}
