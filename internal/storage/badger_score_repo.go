package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v3"
)

const badgerScorePrefix = "score:"

// BadgerScoreRepo хранит рекорды во встроенной BadgerDB.
// Ключ score:<playerID>, значение ScoreEntry в JSON.
type BadgerScoreRepo struct {
	db *badger.DB
	// mu сериализует read-modify-write в Record
	mu sync.Mutex
}

// NewBadgerScoreRepo открывает БД в каталоге path. Пустой path — режим in-memory.
func NewBadgerScoreRepo(path string) (*BadgerScoreRepo, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}
	return &BadgerScoreRepo{db: db}, nil
}

func (r *BadgerScoreRepo) Record(ctx context.Context, e ScoreEntry) (bool, error) {
	if err := validate(e); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	updated := false
	err := r.db.Update(func(txn *badger.Txn) error {
		key := []byte(badgerScorePrefix + e.PlayerID)

		item, err := txn.Get(key)
		switch {
		case err == nil:
			var prev ScoreEntry
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &prev) }); err != nil {
				return err
			}
			if prev.Score >= e.Score {
				return nil
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		data, err := json.Marshal(stamp(e))
		if err != nil {
			return err
		}
		updated = true
		return txn.Set(key, data)
	})
	if err != nil {
		return false, fmt.Errorf("badger record %s: %w", e.PlayerID, err)
	}
	return updated, nil
}

func (r *BadgerScoreRepo) Best(ctx context.Context, playerID string) (ScoreEntry, error) {
	var e ScoreEntry
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerScorePrefix + playerID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error { return json.Unmarshal(val, &e) })
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ScoreEntry{}, ErrNotFound
	}
	if err != nil {
		return ScoreEntry{}, fmt.Errorf("badger best %s: %w", playerID, err)
	}
	return e, nil
}

func (r *BadgerScoreRepo) Top(ctx context.Context, n int) ([]ScoreEntry, error) {
	if n <= 0 {
		return nil, nil
	}

	var entries []ScoreEntry
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerScorePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var e ScoreEntry
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger top: %w", err)
	}

	sortEntries(entries)
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (r *BadgerScoreRepo) Close() error {
	return r.db.Close()
}
