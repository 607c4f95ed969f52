package search

import (
	"log/slog"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/foodpin/internal/domain"
	sfuzzy "github.com/sahilm/fuzzy"
)

// TitleMatch is a fuzzy hit over list item titles
type TitleMatch struct {
	Index          int   // Index in source slice
	MatchedIndexes []int // Character positions that matched (for highlighting)
}

// Service filters restaurants by name and location
type Service struct {
	logger *slog.Logger
}

// NewService creates a new search service
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// FilterRestaurants matches query against restaurant names and locations.
// Name matches come first, best score first. Restaurants whose name does
// not match but whose location contains the query characters in order
// follow in list order. An empty query returns every restaurant.
func (s *Service) FilterRestaurants(query string, restaurants []*domain.Restaurant) []domain.RestaurantMatch {
	query = strings.TrimSpace(query)
	if query == "" {
		results := make([]domain.RestaurantMatch, len(restaurants))
		for i, r := range restaurants {
			results[i] = domain.RestaurantMatch{Restaurant: r}
		}
		return results
	}

	idx := NewNameIndex(restaurants)
	matches := sfuzzy.FindFrom(strings.ToLower(query), idx)

	results := make([]domain.RestaurantMatch, 0, len(matches))
	byName := make(map[int]bool, len(matches))
	for _, m := range matches {
		byName[m.Index] = true
		results = append(results, domain.RestaurantMatch{
			Restaurant:     idx.Item(m.Index),
			MatchedIndexes: m.MatchedIndexes,
		})
	}

	for i, r := range restaurants {
		if byName[i] || r.Location == "" {
			continue
		}
		if fuzzy.MatchNormalizedFold(query, r.Location) {
			results = append(results, domain.RestaurantMatch{Restaurant: r, ByLocation: true})
		}
	}

	s.logger.Debug("filtered restaurants", "query", query, "names", len(matches), "total", len(results))
	return results
}

// FilterTitles fuzzy matches query against item titles, best match first.
// Ties keep list order. An empty query returns nil.
func FilterTitles[T domain.ListItem](query string, items []T) []TitleMatch {
	query = strings.TrimSpace(query)
	if query == "" || len(items) == 0 {
		return nil
	}

	matches := sfuzzy.FindFrom(strings.ToLower(query), NewTitleIndex(items))

	results := make([]TitleMatch, len(matches))
	for i, m := range matches {
		results[i] = TitleMatch{Index: m.Index, MatchedIndexes: m.MatchedIndexes}
	}
	return results
}
