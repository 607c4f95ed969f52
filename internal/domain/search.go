package domain

// RestaurantMatch is one search hit over the local restaurants.
type RestaurantMatch struct {
	Restaurant     *Restaurant
	MatchedIndexes []int // positions in Name for highlighting; nil for location matches
	ByLocation     bool
}
