package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/domain/ports/repository"
)

var _ repository.HistoryStore = (*HistoryStore)(nil)

const historyIndexKey = "chat_history:index"

// HistoryStore keeps each session's turns in a capped Redis list so several
// backend replicas share the same conversation context.
type HistoryStore struct {
	client   *Client
	ttl      time.Duration
	maxTurns int64
}

func NewHistoryStore(client *Client, ttl time.Duration, maxTurns int) *HistoryStore {
	if maxTurns <= 0 {
		maxTurns = 50
	}
	return &HistoryStore{client: client, ttl: ttl, maxTurns: int64(maxTurns)}
}

func historyKey(sessionID string) string { return "chat_history:" + sessionID }

func (h *HistoryStore) Append(ctx context.Context, sessionID, userID string, turns ...model.ChatTurn) error {
	if len(turns) == 0 {
		return nil
	}
	vals := make([]interface{}, 0, len(turns))
	for _, t := range turns {
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		vals = append(vals, b)
	}
	key := historyKey(sessionID)
	pipe := h.client.cli.TxPipeline()
	pipe.RPush(ctx, key, vals...)
	pipe.LTrim(ctx, key, -h.maxTurns, -1)
	pipe.Expire(ctx, key, h.ttl)
	pipe.SAdd(ctx, historyIndexKey, sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (h *HistoryStore) Recent(ctx context.Context, sessionID string, n int) ([]model.ChatTurn, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := h.client.cli.LRange(ctx, historyKey(sessionID), int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	out := make([]model.ChatTurn, 0, len(raw))
	for _, s := range raw {
		var t model.ChatTurn
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (h *HistoryStore) Delete(ctx context.Context, sessionID string) error {
	pipe := h.client.cli.TxPipeline()
	pipe.Del(ctx, historyKey(sessionID))
	pipe.SRem(ctx, historyIndexKey, sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// Count drops index entries whose list already expired, then reports the rest.
func (h *HistoryStore) Count(ctx context.Context) (int, error) {
	ids, err := h.client.cli.SMembers(ctx, historyIndexKey).Result()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		exists, err := h.client.cli.Exists(ctx, historyKey(id)).Result()
		if err != nil {
			return 0, err
		}
		if exists == 0 {
			h.client.cli.SRem(ctx, historyIndexKey, id)
			continue
		}
		n++
	}
	return n, nil
}
