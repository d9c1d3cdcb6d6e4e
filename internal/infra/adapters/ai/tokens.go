package ai

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"humaine-chatbot/internal/domain/ports/adapter"
)

// Chat-format overhead per message and for the reply primer, as used by OpenAI chat models.
const (
	tokensPerMessage = 3
	tokensPerReply   = 3
	fallbackEncoding = "cl100k_base"
)

// tokenCounter caches tiktoken encodings per model. Loading an encoding may fail
// (unknown model, BPE file unavailable offline); the counter then estimates.
type tokenCounter struct {
	mu   sync.Mutex
	encs map[string]*tiktoken.Tiktoken
	miss map[string]bool
}

func newTokenCounter() *tokenCounter {
	return &tokenCounter{encs: map[string]*tiktoken.Tiktoken{}, miss: map[string]bool{}}
}

func (t *tokenCounter) encoding(model string) *tiktoken.Tiktoken {
	t.mu.Lock()
	defer t.mu.Unlock()
	if enc, ok := t.encs[model]; ok {
		return enc
	}
	if t.miss[model] {
		return nil
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
	}
	if err != nil {
		t.miss[model] = true
		return nil
	}
	t.encs[model] = enc
	return enc
}

// Count returns the prompt tokens of messages for model.
func (t *tokenCounter) Count(model string, messages []adapter.Message) int {
	enc := t.encoding(model)
	if enc == nil {
		return EstimateTokens(messages)
	}
	n := tokensPerReply
	for _, m := range messages {
		n += tokensPerMessage
		n += len(enc.Encode(m.Role, nil, nil))
		n += len(enc.Encode(m.Content, nil, nil))
	}
	return n
}

// EstimateTokens approximates token usage at four characters per token.
func EstimateTokens(messages []adapter.Message) int {
	n := tokensPerReply
	for _, m := range messages {
		n += tokensPerMessage + (utf8.RuneCountInString(m.Content)+3)/4
	}
	return n
}
