package domain

import "context"

// FeedQueries: Synchronous, in-memory reads.
// All methods return instantly. NEVER block on network.
// Safe to call from View() and navigation code.
type FeedQueries interface {
	Restaurants() []CloudRestaurant
	State() FeedState
	HasMore() bool
	CachedImagePath(id RecordID) (string, bool)
}

// FeedCommands: Asynchronous operations that may hit network.
// Must be called from tea.Cmd functions, never from View().
type FeedCommands interface {
	// Refresh clears the feed and fetches the first page
	Refresh(ctx context.Context) (FeedResult, error)

	// LoadMore appends the next page; ErrNoMoreResults when there is none
	LoadMore(ctx context.Context) (FeedResult, error)

	// Image returns the image for a record, downloading it on a cache miss
	Image(ctx context.Context, id RecordID) (ImageResult, error)
}

// ImageResult is the outcome of an image lookup.
// Placeholder is set when the real image could not be obtained.
type ImageResult struct {
	ID          RecordID
	Path        string
	Data        []byte
	FromCache   bool
	Placeholder bool
}
