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

	"github.com/mmcdole/foodpin/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketImages  = []byte("images")
	bucketGeocode = []byte("geocode")
	bucketFeed    = []byte("feed")

	allBuckets = [][]byte{bucketImages, bucketGeocode, bucketFeed}
)

// CacheStore implements domain.Store using BoltDB.
type CacheStore struct {
	db  *bolt.DB
	dir string
	mu  sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// NewCacheStore opens the cache for one record database.
// Each server URL gets its own directory so record ids never collide.
// An empty baseCacheDir gives a memory-only store.
func NewCacheStore(baseCacheDir, serverURL string) (*CacheStore, error) {
	if baseCacheDir == "" {
		// Memory-only mode (no persistence)
		return &CacheStore{cache: make(map[string][]byte)}, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "foodpin-cache.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &CacheStore{db: db, dir: dir, cache: make(map[string][]byte)}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

// Dir returns the per-server cache directory, empty in memory-only mode
func (s *CacheStore) Dir() string {
	return s.dir
}

// AssetDir returns where downloaded record assets are kept
func (s *CacheStore) AssetDir() string {
	if s.dir == "" {
		return filepath.Join(os.TempDir(), "foodpin-assets")
	}
	return filepath.Join(s.dir, "assets")
}

func (s *CacheStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *CacheStore) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	// Read from BoltDB
	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
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

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *CacheStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	// Update memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	// Write to BoltDB
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *CacheStore) delete(bucket []byte, key string) error {
	cacheKey := string(bucket) + ":" + key

	// Clear from memory cache
	s.mu.Lock()
	delete(s.cache, cacheKey)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

// clearBucket empties a bucket on disk and in memory
func (s *CacheStore) clearBucket(bucket []byte) {
	s.mu.Lock()
	prefix := string(bucket) + ":"
	for k := range s.cache {
		if strings.HasPrefix(k, prefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucket); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(bucket)
		return err
	})
}

// === Images (record id -> downloaded file path) ===

func (s *CacheStore) GetImagePath(id domain.RecordID) (string, bool) {
	var path string
	ok := s.get(bucketImages, string(id), &path)
	return path, ok && path != ""
}

func (s *CacheStore) SaveImagePath(id domain.RecordID, path string) error {
	return s.set(bucketImages, string(id), path)
}

func (s *CacheStore) DeleteImagePath(id domain.RecordID) error {
	return s.delete(bucketImages, string(id))
}

// === Geocoding (normalized address -> placemarks) ===

func (s *CacheStore) GetPlacemarks(address string) ([]domain.Placemark, bool) {
	var placemarks []domain.Placemark
	ok := s.get(bucketGeocode, address, &placemarks)
	return placemarks, ok
}

func (s *CacheStore) SavePlacemarks(address string, placemarks []domain.Placemark) error {
	if placemarks == nil {
		placemarks = []domain.Placemark{}
	}
	return s.set(bucketGeocode, address, placemarks)
}

// === Feed snapshot ===

func (s *CacheStore) GetFeed() (domain.FeedSnapshot, bool) {
	var snap domain.FeedSnapshot
	ok := s.get(bucketFeed, "latest", &snap)
	return snap, ok
}

func (s *CacheStore) SaveFeed(snapshot domain.FeedSnapshot) error {
	if snapshot.SavedAt == 0 {
		snapshot.SavedAt = time.Now().Unix()
	}
	return s.set(bucketFeed, "latest", snapshot)
}

// === Invalidation ===

// InvalidateImages forgets every downloaded image path
func (s *CacheStore) InvalidateImages() {
	s.clearBucket(bucketImages)
}

// ClearPhotos forgets downloaded images and deletes their files.
// Places and the saved feed are kept.
func (s *CacheStore) ClearPhotos() error {
	s.InvalidateImages()
	if err := os.RemoveAll(s.AssetDir()); err != nil {
		return fmt.Errorf("failed to remove photos: %w", err)
	}
	return nil
}

// InvalidateAll forgets everything cached for this server
func (s *CacheStore) InvalidateAll() {
	for _, bucket := range allBuckets {
		s.clearBucket(bucket)
	}
}
