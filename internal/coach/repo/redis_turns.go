package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nutricoach/coach-core/internal/coach/model"
	errx "github.com/nutricoach/coach-core/internal/core/error"
	logx "github.com/nutricoach/coach-core/pkg/logger"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
)

// RedisTurnRepository persists turn history as a Redis list of JSON-encoded
// messages. Assistant metadata (the food-options sub-contract) rides on the
// message Extra field, so it round-trips verbatim into the next turn.
type RedisTurnRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisTurnRepository(rdb redis.Cmdable, ttl time.Duration) *RedisTurnRepository {
	return &RedisTurnRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisTurnRepository) turnsKey(conversationID string) string {
	return fmt.Sprintf("coach:%s:turns", conversationID)
}

func (r *RedisTurnRepository) AddTurn(ctx context.Context, conversationID string, turn *schema.Message) error {
	b, err := json.Marshal(turn)
	if err != nil {
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to marshal turn")
		return fmt.Errorf("marshal turn: %w", err)
	}
	key := r.turnsKey(conversationID)

	// append turn
	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push turn to redis")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on turns key")
		}
	}
	return nil
}

func (r *RedisTurnRepository) LoadHistory(ctx context.Context, conversationID string) (*model.TurnHistory, error) {
	key := r.turnsKey(conversationID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return &model.TurnHistory{ConversationID: conversationID, Turns: []*schema.Message{}}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load turn history from redis")
		return nil, errx.WrapRedis(err)
	}

	turns := make([]*schema.Message, 0, len(rows))
	for i, s := range rows {
		var m schema.Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			logx.Error().Err(err).Str("conversation_id", conversationID).Int("index", i).Msg("failed to unmarshal turn")
			return nil, fmt.Errorf("unmarshal turn at index %d: %w", i, err)
		}
		turns = append(turns, &m)
	}
	return &model.TurnHistory{ConversationID: conversationID, Turns: turns}, nil
}

func (r *RedisTurnRepository) ClearHistory(ctx context.Context, conversationID string) error {
	key := r.turnsKey(conversationID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete turn history from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisTurnRepository) CountTurns(ctx context.Context, conversationID string) (int, error) {
	key := r.turnsKey(conversationID)
	n, err := r.rdb.LLen(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to count turns in redis")
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

var _ model.TurnRepository = (*RedisTurnRepository)(nil)
