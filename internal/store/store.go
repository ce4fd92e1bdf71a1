package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mmcdole/moviedb/internal/domain"
	bolt "go.etcd.io/bbolt"
)

var bucketFavorites = []byte("favorites")

// FavoriteStore implements domain.FavoriteStore using BoltDB.
// With no directory it keeps favorites in memory only.
type FavoriteStore struct {
	db  *bolt.DB
	mem map[int]domain.FavoriteRecord // memory-only mode, guarded by hub.mu

	hub    *hub
	logger *slog.Logger
	now    func() time.Time
}

func NewFavoriteStore(dir string, logger *slog.Logger) (*FavoriteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &FavoriteStore{
		hub:    newHub(logger),
		logger: logger,
		now:    time.Now,
	}

	if dir == "" {
		// Memory-only mode (no persistence)
		s.mem = make(map[int]domain.FavoriteRecord)
		return s, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	dbPath := filepath.Join(dir, "moviedb.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketFavorites)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create favorites bucket: %w", err)
	}

	s.db = db
	logger.Debug("favorite store opened", "path", dbPath)
	return s, nil
}

// idKey encodes the ID big-endian so cursor order is ID order
func idKey(id int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}

// UpsertFavorite inserts or replaces the record keyed by its ID
func (s *FavoriteStore) UpsertFavorite(rec domain.FavoriteRecord) error {
	if rec.ID <= 0 {
		return fmt.Errorf("upsert favorite: id %d: %w", rec.ID, domain.ErrInvalidArgument)
	}
	rec = rec.Stamped(s.now())

	return s.hub.commit("upsert favorite", func() error {
		if s.db == nil {
			s.mem[rec.ID] = rec
			return nil
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketFavorites).Put(idKey(rec.ID), data)
		})
	}, s.load)
}

// DeleteFavorite removes the record; a missing ID is not an error
func (s *FavoriteStore) DeleteFavorite(rec domain.FavoriteRecord) error {
	return s.hub.commit("delete favorite", func() error {
		if s.db == nil {
			delete(s.mem, rec.ID)
			return nil
		}
		return s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketFavorites).Delete(idKey(rec.ID))
		})
	}, s.load)
}

// ObserveFavorites emits the current set now and after every write
func (s *FavoriteStore) ObserveFavorites(ctx context.Context) (<-chan []domain.FavoriteRecord, error) {
	return s.hub.subscribe(ctx, s.load)
}

// load reads every record in ID order. Callers hold hub.mu.
func (s *FavoriteStore) load() ([]domain.FavoriteRecord, error) {
	if s.db == nil {
		recs := make([]domain.FavoriteRecord, 0, len(s.mem))
		for _, rec := range s.mem {
			recs = append(recs, rec)
		}
		sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
		return recs, nil
	}

	recs := []domain.FavoriteRecord{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFavorites).ForEach(func(k, v []byte) error {
			var rec domain.FavoriteRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				s.logger.Warn("skipping unreadable favorite", "key", binary.BigEndian.Uint64(k), "error", err)
				return nil
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// Close closes all subscriptions and the database
func (s *FavoriteStore) Close() error {
	return s.hub.close(func() error {
		if s.db != nil {
			return s.db.Close()
		}
		return nil
	})
}
