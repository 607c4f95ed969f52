package domain

// Store handles the local cache (BoltDB + memory).
// The discovery feed and the geocoder read from it directly.
type Store interface {
	// === Images ===
	GetImagePath(id RecordID) (string, bool)
	SaveImagePath(id RecordID, path string) error
	DeleteImagePath(id RecordID) error

	// === Geocoding ===
	GetPlacemarks(address string) ([]Placemark, bool)
	SavePlacemarks(address string, placemarks []Placemark) error

	// === Feed snapshot ===
	GetFeed() (FeedSnapshot, bool)
	SaveFeed(snapshot FeedSnapshot) error

	// === Invalidation ===
	InvalidateImages()
	InvalidateAll()

	Close() error
}

// ImageIndex persists record id -> downloaded image path.
// Store satisfies it.
type ImageIndex interface {
	GetImagePath(id RecordID) (string, bool)
	SaveImagePath(id RecordID, path string) error
	DeleteImagePath(id RecordID) error
}

// GeoCache persists geocoding results by address.
// Store satisfies it.
type GeoCache interface {
	GetPlacemarks(address string) ([]Placemark, bool)
	SavePlacemarks(address string, placemarks []Placemark) error
}

// FeedSnapshot is the last discovery feed shown, kept for instant startup
type FeedSnapshot struct {
	Restaurants []CloudRestaurant `json:"restaurants"`
	Cursor      Cursor            `json:"cursor"`
	SavedAt     int64             `json:"saved_at"`
}
