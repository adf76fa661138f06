package storage

import (
	"context"
	"sync"
)

// MemoryScoreRepo реализует ScoreRepo в памяти.
// Используется по умолчанию и в тестах.
// ВНИМАНИЕ: Данные теряются при перезапуске сервера!
type MemoryScoreRepo struct {
	mu   sync.RWMutex
	data map[string]ScoreEntry
}

func NewMemoryScoreRepo() *MemoryScoreRepo {
	return &MemoryScoreRepo{data: make(map[string]ScoreEntry)}
}

func (r *MemoryScoreRepo) Record(ctx context.Context, e ScoreEntry) (bool, error) {
	if err := validate(e); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.data[e.PlayerID]; ok && prev.Score >= e.Score {
		return false, nil
	}
	r.data[e.PlayerID] = stamp(e)
	return true, nil
}

func (r *MemoryScoreRepo) Best(ctx context.Context, playerID string) (ScoreEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.data[playerID]
	if !ok {
		return ScoreEntry{}, ErrNotFound
	}
	return e, nil
}

func (r *MemoryScoreRepo) Top(ctx context.Context, n int) ([]ScoreEntry, error) {
	if n <= 0 {
		return nil, nil
	}

	r.mu.RLock()
	entries := make([]ScoreEntry, 0, len(r.data))
	for _, e := range r.data {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	sortEntries(entries)
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (r *MemoryScoreRepo) Close() error { return nil }
