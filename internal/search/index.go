package search

import (
	"strings"

	"github.com/mmcdole/foodpin/internal/domain"
)

// NameIndex implements sahilm/fuzzy.Source over restaurant names
type NameIndex struct {
	items      []*domain.Restaurant
	lowerNames []string // Pre-computed lowercase names
}

// NewNameIndex builds an index over the given restaurants in list order
func NewNameIndex(items []*domain.Restaurant) *NameIndex {
	lower := make([]string, len(items))
	for i, r := range items {
		lower[i] = strings.ToLower(r.Name)
	}
	return &NameIndex{items: items, lowerNames: lower}
}

// String returns the lowercase name at index i (implements fuzzy.Source)
func (idx *NameIndex) String(i int) string { return idx.lowerNames[i] }

// Len returns the number of items (implements fuzzy.Source)
func (idx *NameIndex) Len() int { return len(idx.items) }

// Item returns the restaurant at index i
func (idx *NameIndex) Item(i int) *domain.Restaurant { return idx.items[i] }

// TitleIndex implements sahilm/fuzzy.Source over any list items,
// used for filtering the discovery feed
type TitleIndex struct {
	lowerTitles []string
}

// NewTitleIndex builds an index over item titles
func NewTitleIndex[T domain.ListItem](items []T) *TitleIndex {
	lower := make([]string, len(items))
	for i, item := range items {
		lower[i] = strings.ToLower(item.GetTitle())
	}
	return &TitleIndex{lowerTitles: lower}
}

func (idx *TitleIndex) String(i int) string { return idx.lowerTitles[i] }
func (idx *TitleIndex) Len() int            { return len(idx.lowerTitles) }
