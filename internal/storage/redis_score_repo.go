package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisScoreRepo хранит рекорды в Redis: sorted set <prefix>board (счёт)
// и hash <prefix>entries (ScoreEntry в JSON).
type RedisScoreRepo struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string // Адрес Redis сервера
	Password  string // Пароль (пустой если не требуется)
	DB        int    // Номер базы данных
	KeyPrefix string // Префикс для ключей
}

// NewRedisScoreRepo подключается к Redis и проверяет соединение.
func NewRedisScoreRepo(ctx context.Context, cfg *RedisConfig) (*RedisScoreRepo, error) {
	if cfg == nil {
		cfg = &RedisConfig{Addr: "localhost:6379"}
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "arena:scores:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisScoreRepo{client: client, keyPrefix: prefix}, nil
}

func (r *RedisScoreRepo) boardKey() string   { return r.keyPrefix + "board" }
func (r *RedisScoreRepo) entriesKey() string { return r.keyPrefix + "entries" }

func (r *RedisScoreRepo) Record(ctx context.Context, e ScoreEntry) (bool, error) {
	if err := validate(e); err != nil {
		return false, err
	}
	e = stamp(e)

	// GT: счёт меняется только в большую сторону; Ch: считаем и новые, и изменённые
	changed, err := r.client.ZAddArgs(ctx, r.boardKey(), redis.ZAddArgs{
		GT:      true,
		Ch:      true,
		Members: []redis.Z{{Score: float64(e.Score), Member: e.PlayerID}},
	}).Result()
	if err != nil {
		return false, fmt.Errorf("redis zadd %s: %w", e.PlayerID, err)
	}
	if changed == 0 {
		return false, nil
	}

	data, err := json.Marshal(e)
	if err != nil {
		return false, err
	}
	if err := r.client.HSet(ctx, r.entriesKey(), e.PlayerID, data).Err(); err != nil {
		return false, fmt.Errorf("redis hset %s: %w", e.PlayerID, err)
	}
	return true, nil
}

func (r *RedisScoreRepo) Best(ctx context.Context, playerID string) (ScoreEntry, error) {
	data, err := r.client.HGet(ctx, r.entriesKey(), playerID).Bytes()
	if errors.Is(err, redis.Nil) {
		return ScoreEntry{}, ErrNotFound
	}
	if err != nil {
		return ScoreEntry{}, fmt.Errorf("redis hget %s: %w", playerID, err)
	}
	var e ScoreEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return ScoreEntry{}, fmt.Errorf("redis entry %s: %w", playerID, err)
	}
	return e, nil
}

func (r *RedisScoreRepo) Top(ctx context.Context, n int) ([]ScoreEntry, error) {
	if n <= 0 {
		return nil, nil
	}

	ids, err := r.client.ZRevRange(ctx, r.boardKey(), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrevrange: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	values, err := r.client.HMGet(ctx, r.entriesKey(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hmget: %w", err)
	}

	entries := make([]ScoreEntry, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var e ScoreEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("redis entry %s: %w", ids[i], err)
		}
		entries = append(entries, e)
	}
	sortEntries(entries)
	return entries, nil
}

func (r *RedisScoreRepo) Close() error {
	return r.client.Close()
}
