package comment

import (
	"strings"

	"github.com/zhouzirui/tg-gateway/internal/telegram"
)

// IsDuplicate reports whether candidate already appears in text. Both sides
// are trimmed and compared case-insensitively; an empty candidate never
// matches.
func IsDuplicate(candidate, text string) bool {
	needle := strings.ToLower(strings.TrimSpace(candidate))
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(strings.TrimSpace(text)), needle)
}

// duplicateIn returns the first reply that already carries candidate,
// either as typed or as the chat shows it once its markup is applied.
func duplicateIn(candidate string, replies []telegram.Reply) (telegram.Reply, bool) {
	shown := telegram.PlainText(candidate)
	for _, reply := range replies {
		text := reply.ComparisonText()
		if IsDuplicate(candidate, text) || IsDuplicate(shown, text) {
			return reply, true
		}
	}
	return telegram.Reply{}, false
}
