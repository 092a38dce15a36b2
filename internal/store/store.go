// Package store persists rail contents so views can paint immediately on
// start while the network load is in flight.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/reel/internal/domain"
)

var bucketRails = []byte("rails")

// railRecord is the persisted form of one rail
type railRecord struct {
	SavedAt time.Time             `json:"saved_at"`
	Items   []domain.MediaSummary `json:"items"`
}

// RailStore implements domain.RailStore using BoltDB with an in-memory
// layer in front of it.
type RailStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects cache

	// Promoted on access
	cache map[string][]byte
}

// NewRailStore opens the store for one catalog. An empty cacheDir keeps
// everything in memory.
func NewRailStore(cacheDir, catalogURL string) (*RailStore, error) {
	if cacheDir == "" {
		return &RailStore{cache: make(map[string][]byte)}, nil
	}

	dir := cacheDir
	if catalogURL != "" {
		dir = filepath.Join(cacheDir, hashCatalogURL(catalogURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "reel.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRails)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &RailStore{db: db, cache: make(map[string][]byte)}, nil
}

func hashCatalogURL(catalogURL string) string {
	normalized := strings.TrimRight(strings.ToLower(catalogURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

// Close releases the database
func (s *RailStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetRail returns the last saved contents of a rail
func (s *RailStore) GetRail(key string) ([]domain.MediaSummary, bool) {
	var rec railRecord
	if !s.get(key, &rec) {
		return nil, false
	}
	return rec.Items, true
}

// SavedAt returns when a rail was last saved
func (s *RailStore) SavedAt(key string) (time.Time, bool) {
	var rec railRecord
	if !s.get(key, &rec) {
		return time.Time{}, false
	}
	return rec.SavedAt, true
}

// SaveRail replaces the saved contents of a rail
func (s *RailStore) SaveRail(key string, items []domain.MediaSummary) error {
	return s.set(key, railRecord{SavedAt: time.Now(), Items: items})
}

// InvalidateRail drops one rail
func (s *RailStore) InvalidateRail(key string) {
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()

	if s.db == nil {
		return
	}
	s.db.Update(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bucketRails); b != nil {
			b.Delete([]byte(key))
		}
		return nil
	})
}

// InvalidateAll drops every rail
func (s *RailStore) InvalidateAll() {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return
	}
	s.db.Update(func(tx *bolt.Tx) error {
		tx.DeleteBucket(bucketRails)
		_, err := tx.CreateBucketIfNotExists(bucketRails)
		return err
	})
}

func (s *RailStore) get(key string, dest any) bool {
	s.mu.RLock()
	if data, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRails)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if data == nil {
		return false
	}

	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *RailStore) set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRails).Put([]byte(key), data)
	})
}
