package domain

// ListItem is the common interface for rows shown in the restaurant tables.
// Restaurant and CloudRestaurant implement it directly.
type ListItem interface {
	// GetID returns the unique identifier for this item
	GetID() string

	// GetTitle returns the display title
	GetTitle() string

	// GetSortTitle returns the title used for alphabetical sorting (handles "The", "A", etc.)
	GetSortTitle() string

	// GetDescription returns secondary info for display (the cuisine for local restaurants)
	GetDescription() string

	// GetItemType returns the type identifier: "restaurant" or "cloud_restaurant"
	GetItemType() string
}
