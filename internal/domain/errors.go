package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrRecordNotFound indicates the requested cloud record does not exist
	ErrRecordNotFound = errors.New("record not found")

	// ErrServerOffline indicates the cloud database is unreachable
	ErrServerOffline = errors.New("cloud database is unreachable")

	// ErrAuthFailed indicates the API token was rejected
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrNoMoreResults indicates a query has no further pages
	ErrNoMoreResults = errors.New("no more results")

	// ErrInvalidCursor indicates a continuation cursor was malformed or reused with another query
	ErrInvalidCursor = errors.New("invalid continuation cursor")

	// ErrRestaurantNotFound indicates the local restaurant does not exist
	ErrRestaurantNotFound = errors.New("restaurant not found")

	// ErrAssetMissing indicates a record has no asset in the requested field
	ErrAssetMissing = errors.New("record has no asset")

	// ErrNoPlacemarks indicates geocoding returned nothing for an address
	ErrNoPlacemarks = errors.New("no placemarks found")
)
