package detail

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mmcdole/foodpin/internal/domain"
)

// PinRegionMeters is the height and width of the map region around a pin
const PinRegionMeters = 250

// Row is one field of the detail table
type Row struct {
	Field string
	Value string
}

// Rows returns the five detail rows of a restaurant in display order
func Rows(r *domain.Restaurant) []Row {
	return []Row{
		{Field: "Name", Value: r.Name},
		{Field: "Type", Value: r.Type},
		{Field: "Location", Value: r.Location},
		{Field: "Phone", Value: r.Phone},
		{Field: "Been here", Value: r.VisitSummary()},
	}
}

// Pin is the map annotation for a restaurant
type Pin struct {
	Title     string
	Subtitle  string
	Placemark domain.Placemark
	Region    domain.MapRegion
}

// Service implements the detail screen actions
type Service struct {
	store    domain.RestaurantStore
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewService creates a detail service. geocoder may be nil to disable maps.
func NewService(store domain.RestaurantStore, geocoder domain.Geocoder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, geocoder: geocoder, logger: logger}
}

// Rate marks the restaurant visited and stores the rating text.
// An unknown rating still marks it visited and keeps the previous text.
func (s *Service) Rate(ctx context.Context, id int64, rating domain.Rating) (*domain.Restaurant, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	r.IsVisited = true
	if text, ok := domain.RatingText(rating); ok {
		r.Rating = text
	} else {
		s.logger.Warn("unknown rating", "rating", rating, "id", id)
	}

	if err := s.store.SetVisit(ctx, id, r.IsVisited, r.Rating); err != nil {
		s.logger.Error("failed to save rating", "id", id, "error", err)
		return nil, err
	}
	s.logger.Debug("rated restaurant", "id", id, "rating", rating)
	return r, nil
}

// Locate geocodes the restaurant address and pins the first placemark.
// Returns false when there is nothing to show; failures are logged only.
func (s *Service) Locate(ctx context.Context, r *domain.Restaurant) (*Pin, bool) {
	if s.geocoder == nil {
		return nil, false
	}
	if strings.TrimSpace(r.Location) == "" {
		return nil, false
	}

	placemarks, err := s.geocoder.Geocode(ctx, r.Location)
	if err != nil {
		s.logger.Error("failed to geocode location", "location", r.Location, "error", err)
		return nil, false
	}
	if len(placemarks) == 0 {
		return nil, false
	}

	first := placemarks[0]
	return &Pin{
		Title:     r.Name,
		Subtitle:  r.Type,
		Placemark: first,
		Region:    domain.NewRegion(first.Coordinate, PinRegionMeters, PinRegionMeters),
	}, true
}
