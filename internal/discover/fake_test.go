package discover

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mmcdole/foodpin/internal/domain"
)

// fakeDB serves pages of numbered records and writes assets into dir
type fakeDB struct {
	mu       sync.Mutex
	total    int
	queryErr error
	fetchErr error
	missing  map[domain.RecordID]bool
	dir      string

	queries   []domain.QueryOperation
	lookups   [][]domain.RecordID
	downloads int

	// block, when set, is waited on inside Query
	block chan struct{}
}

func (f *fakeDB) Query(ctx context.Context, op domain.QueryOperation) (domain.QueryPage, error) {
	f.mu.Lock()
	f.queries = append(f.queries, op)
	block := f.block
	err := f.queryErr
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return domain.QueryPage{}, err
	}

	start := 0
	if !op.Cursor.IsEmpty() {
		fmt.Sscanf(string(op.Cursor), "offset:%d", &start)
	}
	end := min(start+op.ResultsLimit, f.total)

	page := domain.QueryPage{}
	for i := start; i < end; i++ {
		page.Records = append(page.Records, &domain.Record{
			ID:     domain.RecordID(fmt.Sprintf("r%d", i)),
			Type:   domain.RecordTypeRestaurant,
			Fields: map[string]any{domain.FieldName: fmt.Sprintf("Restaurant %d", i)},
		})
	}
	if end < f.total {
		page.Cursor = domain.Cursor(fmt.Sprintf("offset:%d", end))
	}
	return page, nil
}

func (f *fakeDB) FetchRecords(ctx context.Context, ids []domain.RecordID, desiredKeys []string) ([]domain.FetchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, ids)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}

	results := make([]domain.FetchResult, 0, len(ids))
	for _, id := range ids {
		if f.missing[id] {
			results = append(results, domain.FetchResult{ID: id, Err: domain.ErrRecordNotFound})
			continue
		}
		results = append(results, domain.FetchResult{ID: id, Record: &domain.Record{
			ID:     id,
			Fields: map[string]any{domain.FieldImage: &domain.Asset{DownloadURL: "http://assets/" + string(id) + ".jpg"}},
		}})
	}
	return results, nil
}

func (f *fakeDB) DownloadAsset(ctx context.Context, asset *domain.Asset) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if asset == nil {
		return "", errors.New("nil asset")
	}
	f.downloads++
	path := filepath.Join(f.dir, filepath.Base(asset.DownloadURL))
	if err := os.WriteFile(path, []byte("image:"+asset.DownloadURL), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (f *fakeDB) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lookups)
}

// memIndex is an in-memory domain.ImageIndex
type memIndex struct {
	paths map[domain.RecordID]string
}

func newMemIndex() *memIndex {
	return &memIndex{paths: map[domain.RecordID]string{}}
}

func (m *memIndex) GetImagePath(id domain.RecordID) (string, bool) {
	p, ok := m.paths[id]
	return p, ok
}

func (m *memIndex) SaveImagePath(id domain.RecordID, path string) error {
	m.paths[id] = path
	return nil
}

func (m *memIndex) DeleteImagePath(id domain.RecordID) error {
	delete(m.paths, id)
	return nil
}

// memSnapshots is an in-memory SnapshotStore
type memSnapshots struct {
	snap  domain.FeedSnapshot
	saved bool
}

func (m *memSnapshots) GetFeed() (domain.FeedSnapshot, bool) { return m.snap, m.saved }

func (m *memSnapshots) SaveFeed(s domain.FeedSnapshot) error {
	m.snap, m.saved = s, true
	return nil
}
