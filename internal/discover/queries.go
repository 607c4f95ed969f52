package discover

import "github.com/mmcdole/foodpin/internal/domain"

// Queries provides synchronous, in-memory reads of the feed.
// Implements domain.FeedQueries.
type Queries struct {
	feed *Feed
}

// NewQueries creates a new Queries instance.
func NewQueries(feed *Feed) *Queries {
	return &Queries{feed: feed}
}

// Restaurants returns a copy of the feed in fetch order
func (q *Queries) Restaurants() []domain.CloudRestaurant {
	q.feed.mu.RLock()
	defer q.feed.mu.RUnlock()
	return append([]domain.CloudRestaurant(nil), q.feed.restaurants...)
}

func (q *Queries) State() domain.FeedState {
	q.feed.mu.RLock()
	defer q.feed.mu.RUnlock()
	return q.feed.state
}

func (q *Queries) HasMore() bool {
	q.feed.mu.RLock()
	defer q.feed.mu.RUnlock()
	return !q.feed.cursor.IsEmpty()
}

func (q *Queries) CachedImagePath(id domain.RecordID) (string, bool) {
	return q.feed.images.Get(id)
}
