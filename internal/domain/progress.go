package domain

// ProgressFunc reports progress of a batch operation.
// Called repeatedly: (1, 20), (2, 20), ...
type ProgressFunc func(done, total int)

// FeedState is the load state of the discovery feed.
type FeedState int

const (
	FeedIdle FeedState = iota
	FeedLoading
	FeedLoaded
)

func (s FeedState) String() string {
	switch s {
	case FeedLoading:
		return "loading"
	case FeedLoaded:
		return "loaded"
	default:
		return "idle"
	}
}

// FeedResult summarizes what happened during a feed fetch.
type FeedResult struct {
	Added      int  // records appended by this fetch
	Total      int  // records in the feed afterwards
	HasMore    bool // a continuation cursor is available
	Generation int  // refresh generation the fetch belonged to
}
