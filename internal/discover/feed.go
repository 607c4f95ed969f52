package discover

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/foodpin/internal/domain"
)

var (
	// ErrSuperseded is returned when a refresh started after this fetch replaced the feed
	ErrSuperseded = errors.New("feed fetch superseded by a newer refresh")

	// ErrLoadInProgress is returned by LoadMore while another page is being fetched
	ErrLoadInProgress = errors.New("a page is already loading")
)

// SnapshotStore keeps the last feed for instant startup
type SnapshotStore interface {
	GetFeed() (domain.FeedSnapshot, bool)
	SaveFeed(snapshot domain.FeedSnapshot) error
}

// Feed is the discovery feed of restaurants from the public record database.
// Implements domain.FeedCommands.
type Feed struct {
	db        domain.RecordDatabase
	images    *ImageCache
	snapshots SnapshotStore
	logger    *slog.Logger

	resultsLimit int
	placeholder  []byte

	mu          sync.RWMutex
	restaurants []domain.CloudRestaurant
	cursor      domain.Cursor
	state       domain.FeedState
	generation  int
	loadingMore bool
}

// NewFeed creates a feed. snapshots may be nil; resultsLimit 0 uses the default page size.
func NewFeed(db domain.RecordDatabase, images *ImageCache, snapshots SnapshotStore, resultsLimit int, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	if images == nil {
		images = NewImageCache(nil, logger)
	}
	if resultsLimit <= 0 {
		resultsLimit = domain.DefaultResultsLimit
	}
	return &Feed{
		db:           db,
		images:       images,
		snapshots:    snapshots,
		logger:       logger,
		resultsLimit: resultsLimit,
	}
}

// SetPlaceholder sets the bytes returned when an image cannot be loaded
func (f *Feed) SetPlaceholder(data []byte) {
	f.placeholder = data
}

// Restore loads the last saved feed if nothing has been fetched yet.
// Returns false when there is no snapshot.
func (f *Feed) Restore() bool {
	if f.snapshots == nil {
		return false
	}
	snap, ok := f.snapshots.GetFeed()
	if !ok {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != domain.FeedIdle {
		return false
	}
	f.restaurants = append([]domain.CloudRestaurant(nil), snap.Restaurants...)
	f.cursor = snap.Cursor
	f.state = domain.FeedLoaded
	f.logger.Debug("restored feed snapshot", "count", len(snap.Restaurants), "savedAt", snap.SavedAt)
	return true
}

// Refresh clears the feed and fetches the first page.
// On error the feed stays empty, moves to Loaded, and the error is returned.
func (f *Feed) Refresh(ctx context.Context) (domain.FeedResult, error) {
	f.mu.Lock()
	f.generation++
	gen := f.generation
	f.restaurants = nil
	f.cursor = ""
	f.state = domain.FeedLoading
	f.loadingMore = false
	f.mu.Unlock()

	f.logger.Debug("refreshing feed", "generation", gen)
	page, err := f.fetchPage(ctx, "")

	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.generation {
		f.logger.Debug("discarding stale refresh", "generation", gen, "current", f.generation)
		return domain.FeedResult{Generation: gen}, ErrSuperseded
	}

	f.state = domain.FeedLoaded
	if err != nil {
		f.logger.Error("failed to refresh feed", "error", err)
		return domain.FeedResult{Generation: gen}, err
	}

	f.appendLocked(page)
	result := f.resultLocked(len(page.Records), gen)
	f.saveSnapshotLocked()
	f.logger.Debug("fetched feed page", "count", result.Added, "hasMore", result.HasMore)
	return result, nil
}

// LoadMore appends the next page.
// ErrNoMoreResults is returned when the last page has been reached.
func (f *Feed) LoadMore(ctx context.Context) (domain.FeedResult, error) {
	f.mu.Lock()
	if f.state == domain.FeedLoading || f.loadingMore {
		f.mu.Unlock()
		return domain.FeedResult{}, ErrLoadInProgress
	}
	if f.cursor.IsEmpty() {
		f.mu.Unlock()
		return domain.FeedResult{}, domain.ErrNoMoreResults
	}
	gen := f.generation
	cursor := f.cursor
	f.loadingMore = true
	f.mu.Unlock()

	page, err := f.fetchPage(ctx, cursor)

	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.generation {
		return domain.FeedResult{Generation: gen}, ErrSuperseded
	}
	f.loadingMore = false

	if err != nil {
		// Keep the cursor so the page can be retried
		f.logger.Error("failed to load more", "error", err)
		return f.resultLocked(0, gen), err
	}

	f.appendLocked(page)
	result := f.resultLocked(len(page.Records), gen)
	f.saveSnapshotLocked()
	f.logger.Debug("fetched feed page", "count", result.Added, "total", result.Total, "hasMore", result.HasMore)
	return result, nil
}

func (f *Feed) fetchPage(ctx context.Context, cursor domain.Cursor) (domain.QueryPage, error) {
	return f.db.Query(ctx, domain.QueryOperation{
		Query:        domain.NewQuery(domain.RecordTypeRestaurant),
		DesiredKeys:  []string{domain.FieldName},
		ResultsLimit: f.resultsLimit,
		Cursor:       cursor,
	})
}

func (f *Feed) appendLocked(page domain.QueryPage) {
	for _, rec := range page.Records {
		f.restaurants = append(f.restaurants, domain.CloudRestaurantFromRecord(rec))
	}
	f.cursor = page.Cursor
}

func (f *Feed) resultLocked(added, gen int) domain.FeedResult {
	return domain.FeedResult{
		Added:      added,
		Total:      len(f.restaurants),
		HasMore:    !f.cursor.IsEmpty(),
		Generation: gen,
	}
}

func (f *Feed) saveSnapshotLocked() {
	if f.snapshots == nil {
		return
	}
	snap := domain.FeedSnapshot{
		Restaurants: append([]domain.CloudRestaurant(nil), f.restaurants...),
		Cursor:      f.cursor,
		SavedAt:     time.Now().Unix(),
	}
	if err := f.snapshots.SaveFeed(snap); err != nil {
		f.logger.Error("failed to save feed snapshot", "error", err)
	}
}
