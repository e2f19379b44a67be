package comment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhouzirui/tg-gateway/internal/telegram"
)

func TestIsDuplicate(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		text      string
		want      bool
	}{
		{"exact", "buy now", "buy now", true},
		{"case insensitive", "buy now", "Buy NOW!", true},
		{"contained in longer reply", "great post", "What a great post, thanks", true},
		{"trimmed candidate", "  hello  ", "well hello there", true},
		{"trimmed reply", "hello", "   hello   ", true},
		{"different text", "buy now", "sell later", false},
		{"reply shorter than candidate", "buy now please", "buy now", false},
		{"empty candidate", "", "anything at all", false},
		{"blank candidate", "   \n\t", "   ", false},
		{"empty reply", "hello", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDuplicate(tt.candidate, tt.text))
		})
	}
}

func TestDuplicateInUsesCaptionWhenTextMissing(t *testing.T) {
	replies := []telegram.Reply{
		{ID: 1, Text: "first"},
		{ID: 2, Caption: "Promo Code inside"},
		{ID: 3, Text: "promo code again"},
	}

	dup, found := duplicateIn("promo code", replies)
	assert.True(t, found)
	assert.Equal(t, 2, dup.ID)

	_, found = duplicateIn("", replies)
	assert.False(t, found)
}

func TestDuplicateInMatchesRenderedMarkup(t *testing.T) {
	replies := []telegram.Reply{
		{ID: 1, Text: "unrelated"},
		{ID: 2, Text: "Buy now at [the store](https://example.com)"},
		{ID: 3, Text: "Buy now at the store"},
	}

	dup, found := duplicateIn("Buy **now** at [the store](https://example.com)", replies)
	assert.True(t, found)
	assert.Equal(t, 3, dup.ID)

	dup, found = duplicateIn("Promo:\n- item one\n- item two", []telegram.Reply{
		{ID: 7, Text: "Promo:\n- item one\n- item two"},
	})
	assert.True(t, found)
	assert.Equal(t, 7, dup.ID)
}
