package discover

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/mmcdole/foodpin/internal/domain"
)

func TestRefreshFetchesFirstPage(t *testing.T) {
	db := &fakeDB{total: 120}
	feed := NewFeed(db, nil, nil, 0, nil)
	q := NewQueries(feed)

	if q.State() != domain.FeedIdle {
		t.Fatalf("initial state = %v", q.State())
	}

	res, err := feed.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if res.Added != 50 || res.Total != 50 || !res.HasMore {
		t.Errorf("result = %+v", res)
	}

	op := db.queries[0]
	if op.Query.RecordType != "Restaurant" || !op.Query.MatchesAll() {
		t.Errorf("query = %+v", op.Query)
	}
	if len(op.DesiredKeys) != 1 || op.DesiredKeys[0] != "name" {
		t.Errorf("desiredKeys = %v", op.DesiredKeys)
	}
	if op.ResultsLimit != 50 || !op.Cursor.IsEmpty() {
		t.Errorf("limit = %d cursor = %q", op.ResultsLimit, op.Cursor)
	}

	got := q.Restaurants()
	if len(got) != 50 || got[0].Name != "Restaurant 0" || got[49].ID != "r49" {
		t.Errorf("restaurants = %d, first %+v", len(got), got[0])
	}
	if q.State() != domain.FeedLoaded || !q.HasMore() {
		t.Errorf("state = %v hasMore = %v", q.State(), q.HasMore())
	}
}

func TestLoadMoreAppendsUntilExhausted(t *testing.T) {
	db := &fakeDB{total: 120}
	feed := NewFeed(db, nil, nil, 0, nil)
	ctx := context.Background()

	if _, err := feed.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	res, err := feed.LoadMore(ctx)
	if err != nil || res.Total != 100 {
		t.Fatalf("second page = %+v, %v", res, err)
	}
	res, err = feed.LoadMore(ctx)
	if err != nil || res.Added != 20 || res.Total != 120 || res.HasMore {
		t.Fatalf("last page = %+v, %v", res, err)
	}
	if _, err := feed.LoadMore(ctx); !errors.Is(err, domain.ErrNoMoreResults) {
		t.Errorf("err = %v, want ErrNoMoreResults", err)
	}

	got := NewQueries(feed).Restaurants()
	for i, r := range got {
		if want := domain.RecordID("r" + strconv.Itoa(i)); r.ID != want {
			t.Fatalf("restaurants[%d] = %s, want %s (append order)", i, r.ID, want)
		}
	}
}

func TestRefreshClearsExistingRecords(t *testing.T) {
	db := &fakeDB{total: 70}
	feed := NewFeed(db, nil, nil, 0, nil)
	ctx := context.Background()

	feed.Refresh(ctx)
	feed.LoadMore(ctx)
	if n := len(NewQueries(feed).Restaurants()); n != 70 {
		t.Fatalf("before refresh: %d", n)
	}

	res, err := feed.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 50 {
		t.Errorf("refresh should start over, total = %d", res.Total)
	}
	if !db.queries[len(db.queries)-1].Cursor.IsEmpty() {
		t.Error("refresh must not send a cursor")
	}
}

func TestRefreshErrorLeavesEmptyLoadedFeed(t *testing.T) {
	db := &fakeDB{total: 10}
	feed := NewFeed(db, nil, nil, 0, nil)
	ctx := context.Background()
	feed.Refresh(ctx)

	db.queryErr = domain.ErrServerOffline
	if _, err := feed.Refresh(ctx); !errors.Is(err, domain.ErrServerOffline) {
		t.Fatalf("err = %v", err)
	}

	q := NewQueries(feed)
	if len(q.Restaurants()) != 0 {
		t.Error("feed should be empty after failed refresh")
	}
	if q.State() != domain.FeedLoaded {
		t.Errorf("state = %v, want loaded", q.State())
	}
	if q.HasMore() {
		t.Error("failed refresh should leave no cursor")
	}
}

func TestLoadMoreErrorKeepsCursor(t *testing.T) {
	db := &fakeDB{total: 60}
	feed := NewFeed(db, nil, nil, 0, nil)
	ctx := context.Background()
	feed.Refresh(ctx)

	db.queryErr = domain.ErrServerOffline
	if _, err := feed.LoadMore(ctx); !errors.Is(err, domain.ErrServerOffline) {
		t.Fatalf("err = %v", err)
	}

	db.queryErr = nil
	res, err := feed.LoadMore(ctx)
	if err != nil || res.Total != 60 {
		t.Errorf("retry = %+v, %v", res, err)
	}
}

func TestStaleRefreshIsDiscarded(t *testing.T) {
	block := make(chan struct{})
	db := &fakeDB{total: 10, block: block}
	feed := NewFeed(db, nil, nil, 0, nil)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() {
		_, err := feed.Refresh(ctx)
		first <- err
	}()

	// Wait for the first query to be in flight
	deadline := time.Now().Add(2 * time.Second)
	for {
		db.mu.Lock()
		n := len(db.queries)
		db.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("first refresh never started")
		}
		time.Sleep(time.Millisecond)
	}

	// Second refresh bumps the generation while the first is blocked
	db.mu.Lock()
	db.block = nil
	db.mu.Unlock()
	if _, err := feed.Refresh(ctx); err != nil {
		t.Fatalf("second refresh: %v", err)
	}

	close(block)
	if err := <-first; !errors.Is(err, ErrSuperseded) {
		t.Errorf("first refresh err = %v, want ErrSuperseded", err)
	}
	if n := len(NewQueries(feed).Restaurants()); n != 10 {
		t.Errorf("feed has %d records, stale page must not be appended", n)
	}
}

func TestSnapshotSavedAndRestored(t *testing.T) {
	snaps := &memSnapshots{}
	db := &fakeDB{total: 80}
	feed := NewFeed(db, nil, snaps, 0, nil)
	if _, err := feed.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !snaps.saved || len(snaps.snap.Restaurants) != 50 || snaps.snap.Cursor.IsEmpty() {
		t.Fatalf("snapshot = %+v", snaps.snap)
	}

	restored := NewFeed(db, nil, snaps, 0, nil)
	if !restored.Restore() {
		t.Fatal("Restore returned false")
	}
	q := NewQueries(restored)
	if len(q.Restaurants()) != 50 || !q.HasMore() || q.State() != domain.FeedLoaded {
		t.Errorf("restored feed: %d records, hasMore %v, state %v", len(q.Restaurants()), q.HasMore(), q.State())
	}

	// A feed that already fetched ignores the snapshot
	if restored.Restore() {
		t.Error("second Restore should be ignored")
	}
}
