package cloudserver

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/foodpin/internal/adapter/cloud"
	"github.com/mmcdole/foodpin/internal/domain"
)

// StoredRecord is a record as the server persists it.
// Seq orders records for keyset pagination and never changes on replace.
type StoredRecord struct {
	Seq      int64
	Name     string
	Type     string
	Fields   map[string]cloud.FieldDTO
	Created  time.Time
	Modified time.Time
}

// Repository persists records for the server
type Repository interface {
	// Query returns up to limit records of q.RecordType matching every
	// filter with Seq greater than after, ordered by Seq
	Query(ctx context.Context, q domain.Query, after int64, limit int) ([]StoredRecord, error)

	// Lookup returns the records that exist among names, keyed by name
	Lookup(ctx context.Context, names []string) (map[string]StoredRecord, error)

	// Save creates or replaces a record by name and returns it as stored
	Save(ctx context.Context, rec StoredRecord) (StoredRecord, error)

	// Delete removes a record and returns it; domain.ErrRecordNotFound when missing
	Delete(ctx context.Context, name string) (StoredRecord, error)

	// AssetInUse reports whether any stored record references objectKey
	AssetInUse(ctx context.Context, objectKey string) (bool, error)

	// Ping checks that the backing database is reachable
	Ping(ctx context.Context) error

	Close() error
}

// stringField returns the value of a STRING field
func stringField(fields map[string]cloud.FieldDTO, name string) (string, bool) {
	f, ok := fields[name]
	if !ok || (f.Type != cloud.TypeString && f.Type != "") {
		return "", false
	}
	var s string
	if err := json.Unmarshal(f.Value, &s); err != nil {
		return "", false
	}
	return s, true
}

// assetKey returns the object key of an ASSETID field
func assetKey(f cloud.FieldDTO) (string, bool) {
	if f.Type != cloud.TypeAssetID {
		return "", false
	}
	var asset cloud.AssetDTO
	if err := json.Unmarshal(f.Value, &asset); err != nil || asset.ObjectKey == "" {
		return "", false
	}
	return asset.ObjectKey, true
}

func matchesFilters(rec *StoredRecord, filters []domain.Filter) bool {
	for _, f := range filters {
		v, ok := stringField(rec.Fields, f.FieldName)
		if !ok {
			return false
		}
		switch f.Comparator {
		case domain.ComparatorEquals:
			if v != f.Value {
				return false
			}
		case domain.ComparatorBeginsWith:
			if !strings.HasPrefix(v, f.Value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// MemoryRepository keeps records in process memory.
// Used for development and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*StoredRecord
	nextSeq int64
	now     func() time.Time
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: make(map[string]*StoredRecord),
		now:     time.Now,
	}
}

func (m *MemoryRepository) Query(ctx context.Context, q domain.Query, after int64, limit int) ([]StoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []StoredRecord
	for _, rec := range m.records {
		if rec.Type != q.RecordType || rec.Seq <= after || !matchesFilters(rec, q.Filters) {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) Lookup(ctx context.Context, names []string) (map[string]StoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]StoredRecord, len(names))
	for _, name := range names {
		if rec, ok := m.records[name]; ok {
			out[name] = *rec
		}
	}
	return out, nil
}

func (m *MemoryRepository) Save(ctx context.Context, rec StoredRecord) (StoredRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if existing, ok := m.records[rec.Name]; ok {
		rec.Seq = existing.Seq
		rec.Created = existing.Created
	} else {
		m.nextSeq++
		rec.Seq = m.nextSeq
		rec.Created = now
	}
	rec.Modified = now

	stored := rec
	m.records[rec.Name] = &stored
	return rec, nil
}

func (m *MemoryRepository) Delete(ctx context.Context, name string) (StoredRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[name]
	if !ok {
		return StoredRecord{}, domain.ErrRecordNotFound
	}
	delete(m.records, name)
	return *rec, nil
}

func (m *MemoryRepository) AssetInUse(ctx context.Context, objectKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.records {
		for _, f := range rec.Fields {
			if key, ok := assetKey(f); ok && key == objectKey {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *MemoryRepository) Ping(ctx context.Context) error { return nil }

func (m *MemoryRepository) Close() error { return nil }
