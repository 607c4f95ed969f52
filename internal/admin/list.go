package admin

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/mmcdole/foodpin/internal/domain"
)

// RecordQuerier pages through query results
type RecordQuerier interface {
	QueryAll(ctx context.Context, op domain.QueryOperation, onPage func(page domain.QueryPage, loaded int)) ([]*domain.Record, error)
}

// RecordFetcher looks up a single record
type RecordFetcher interface {
	FetchRecord(ctx context.Context, id domain.RecordID, desiredKeys []string) (*domain.Record, error)
}

var listingKeys = []string{domain.FieldName, domain.FieldLocation, domain.FieldImage}

// Listing is one restaurant line of the list command
type Listing struct {
	ID        domain.RecordID
	Name      string
	Location  string
	ImageSize int64 // 0 when there is no image
}

// List pages through every restaurant record, pageSize at a time,
// calling onPage with each page as it arrives
func List(ctx context.Context, db RecordQuerier, pageSize int, onPage func(page []Listing)) (int, error) {
	op := domain.QueryOperation{
		Query:        domain.NewQuery(domain.RecordTypeRestaurant),
		DesiredKeys:  listingKeys,
		ResultsLimit: pageSize,
	}

	records, err := db.QueryAll(ctx, op, func(page domain.QueryPage, loaded int) {
		listings := make([]Listing, len(page.Records))
		for i, rec := range page.Records {
			listings[i] = listingFromRecord(rec)
		}
		onPage(listings)
	})
	return len(records), err
}

// Show looks up one restaurant record
func Show(ctx context.Context, db RecordFetcher, id domain.RecordID) (Listing, error) {
	rec, err := db.FetchRecord(ctx, id, listingKeys)
	if err != nil {
		return Listing{}, fmt.Errorf("%s: %w", id, err)
	}
	if rec.Type != "" && rec.Type != domain.RecordTypeRestaurant {
		return Listing{}, fmt.Errorf("%s: not a restaurant (%s)", id, rec.Type)
	}
	return listingFromRecord(rec), nil
}

func listingFromRecord(rec *domain.Record) Listing {
	l := Listing{
		ID:       rec.ID,
		Name:     rec.String(domain.FieldName),
		Location: rec.String(domain.FieldLocation),
	}
	if a := rec.Asset(domain.FieldImage); a != nil {
		l.ImageSize = a.Size
	}
	return l
}

// String formats the listing as one table line
func (l Listing) String() string {
	size := "-"
	if l.ImageSize > 0 {
		size = humanize.Bytes(uint64(l.ImageSize))
	}
	return fmt.Sprintf("%-36s  %-30s  %-30s  %8s", l.ID, l.Name, l.Location, size)
}
