package domain

import (
	"context"
)

// RecordDatabase provides access to the public cloud record database
type RecordDatabase interface {
	// Query returns one page of records matching op.Query.
	// The returned cursor is empty when there are no more pages.
	Query(ctx context.Context, op QueryOperation) (QueryPage, error)

	// FetchRecords looks up records by id, one result per id in request order.
	// A missing record is reported as ErrRecordNotFound on its result, not as the call error.
	FetchRecords(ctx context.Context, ids []RecordID, desiredKeys []string) ([]FetchResult, error)

	// DownloadAsset stores the asset on local disk and returns the file path
	DownloadAsset(ctx context.Context, asset *Asset) (string, error)
}

// RestaurantStore persists the user's own restaurants
type RestaurantStore interface {
	Create(ctx context.Context, r *Restaurant) error
	Get(ctx context.Context, id int64) (*Restaurant, error)
	List(ctx context.Context) ([]*Restaurant, error)
	Update(ctx context.Context, r *Restaurant) error
	Delete(ctx context.Context, id int64) error

	// SetVisit marks the restaurant visited state and rating text in one write
	SetVisit(ctx context.Context, id int64, visited bool, rating string) error
}

// Geocoder resolves a free-form address to placemarks, best match first
type Geocoder interface {
	Geocode(ctx context.Context, address string) ([]Placemark, error)
}

// AuthResult contains the result of a successful authentication
type AuthResult struct {
	Token     string // API token for the record database
	Container string // Container identifier the token belongs to
}

// AuthFlow obtains credentials for the record database.
// Implementations handle their own user interaction.
type AuthFlow interface {
	Run(ctx context.Context, serverURL string) (*AuthResult, error)
}
