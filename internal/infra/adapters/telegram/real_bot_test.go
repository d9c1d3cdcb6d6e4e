package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"humaine-chatbot/internal/domain/ports/adapter"
)

func TestKeyboard(t *testing.T) {
	kb := keyboard([][]adapter.InlineButton{
		{{Text: "👍", Data: "fb:positive:1"}, {Text: " ", URL: "https://example.com"}},
		{},
		{{Text: "plain"}},
	})
	if assert.Len(t, kb, 2) {
		assert.Equal(t, "fb:positive:1", *kb[0][0].CallbackData)
		assert.Equal(t, "•", kb[0][1].Text)
		assert.Equal(t, "https://example.com", *kb[0][1].URL)
		assert.Equal(t, "plain", *kb[1][0].CallbackData)
	}
}

func TestShardFor_StablePerChat(t *testing.T) {
	for _, id := range []int64{0, 1, 7, -1001234567890, 987654321} {
		s := shardFor(id, 5)
		assert.GreaterOrEqual(t, s, 0)
		assert.Less(t, s, 5)
		assert.Equal(t, s, shardFor(id, 5))
	}
}

func TestSentAt(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	assert.Equal(t, now.Add(-5*time.Second), sentAt(int(now.Unix())-5, now))
	assert.Equal(t, now, sentAt(int(now.Unix())+60, now))
	assert.Equal(t, now, sentAt(0, now))
}
