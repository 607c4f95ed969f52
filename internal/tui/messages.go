package tui

import (
	"github.com/mmcdole/foodpin/internal/detail"
	"github.com/mmcdole/foodpin/internal/domain"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// FeedLoadedMsg signals that a feed refresh or load-more finished.
// Err is set on failure; the feed itself is read back through FeedQueries.
type FeedLoadedMsg struct {
	Result domain.FeedResult
	More   bool // true for a load-more, false for a refresh
	Err    error
}

// ImageLoadedMsg signals that a discovery image is available
type ImageLoadedMsg struct {
	Image domain.ImageResult
}

// RestaurantsLoadedMsg carries the user's restaurants
type RestaurantsLoadedMsg struct {
	Restaurants []*domain.Restaurant
}

// RestaurantSavedMsg signals that a new restaurant was stored
type RestaurantSavedMsg struct {
	Restaurant *domain.Restaurant
}

// RestaurantDeletedMsg signals that a restaurant was removed
type RestaurantDeletedMsg struct {
	ID   int64
	Name string
}

// RatedMsg carries a restaurant after a rating was saved
type RatedMsg struct {
	Restaurant *domain.Restaurant
}

// LocatedMsg carries the map pin for a restaurant; Pin is nil when none was found
type LocatedMsg struct {
	RestaurantID int64
	Pin          *detail.Pin
}

// OpenedMsg signals that an external viewer was launched
type OpenedMsg struct {
	What string
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}
