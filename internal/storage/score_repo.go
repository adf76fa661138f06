package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/annel0/gravity-arena/internal/config"
)

// ErrNotFound у игрока нет сохранённого результата
var ErrNotFound = errors.New("storage: запись не найдена")

// ScoreEntry лучший результат игрока.
type ScoreEntry struct {
	PlayerID   string    `json:"playerId"`
	Score      int       `json:"score"`
	Mass       float64   `json:"mass"`
	RecordedAt time.Time `json:"recordedAt"`
}

// ScoreRepo хранилище таблицы рекордов. Хранится только лучший результат игрока;
// Record с меньшим или равным счётом ничего не меняет.
type ScoreRepo interface {
	// Record сохраняет результат, если он лучше известного. Возвращает true, если запись обновлена.
	Record(ctx context.Context, e ScoreEntry) (bool, error)

	// Best возвращает лучший результат игрока или ErrNotFound.
	Best(ctx context.Context, playerID string) (ScoreEntry, error)

	// Top возвращает до n лучших результатов по убыванию счёта.
	Top(ctx context.Context, n int) ([]ScoreEntry, error)

	Close() error
}

// Backend'ы хранилища рекордов
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// Open создаёт хранилище по конфигурации.
func Open(ctx context.Context, cfg config.StorageConfig) (ScoreRepo, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryScoreRepo(), nil
	case BackendRedis:
		return NewRedisScoreRepo(ctx, &RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	case BackendBadger:
		return NewBadgerScoreRepo(cfg.BadgerPath)
	default:
		return nil, fmt.Errorf("storage: неизвестный backend %q", cfg.Backend)
	}
}

// sortEntries упорядочивает по счёту (убывание), при равенстве более ранний результат выше
func sortEntries(entries []ScoreEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if !entries[i].RecordedAt.Equal(entries[j].RecordedAt) {
			return entries[i].RecordedAt.Before(entries[j].RecordedAt)
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
}

func validate(e ScoreEntry) error {
	if e.PlayerID == "" {
		return fmt.Errorf("недействительный playerID: пустой")
	}
	if e.Score < 0 {
		return fmt.Errorf("недействительный счёт: %d", e.Score)
	}
	return nil
}

func stamp(e ScoreEntry) ScoreEntry {
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	return e
}
