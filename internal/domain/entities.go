package domain

import (
	"strconv"
	"strings"
	"time"
)

// Restaurant is a user-added restaurant kept in the local store.
type Restaurant struct {
	ID        int64
	Name      string
	Type      string // Cuisine, e.g. "Coffee & Tea Shop"
	Location  string // Free-form street address, geocoded on demand
	Phone     string
	Image     []byte // Raw image bytes (JPEG/PNG), may be empty
	IsVisited bool
	Rating    string // Rating text, see RatingText
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Rating identifies one of the verdicts a user can give after a visit.
type Rating string

const (
	RatingGreat   Rating = "great"
	RatingGood    Rating = "good"
	RatingDislike Rating = "dislike"
)

var ratingTexts = map[Rating]string{
	RatingGreat:   "Absolutely love it! Must try.",
	RatingGood:    "Pretty good.",
	RatingDislike: "I don't like it.",
}

// Ratings lists the known ratings in display order.
func Ratings() []Rating {
	return []Rating{RatingGreat, RatingGood, RatingDislike}
}

// RatingText returns the stored text for a rating identifier.
// The second return value is false for unknown identifiers.
func RatingText(r Rating) (string, bool) {
	text, ok := ratingTexts[r]
	return text, ok
}

// VisitSummary is the "Been here" line of the detail view.
func (r *Restaurant) VisitSummary() string {
	if !r.IsVisited {
		return "No"
	}
	return "Yes, I've been here before. " + r.Rating
}

// HasImage reports whether the restaurant carries image bytes.
func (r *Restaurant) HasImage() bool {
	return len(r.Image) > 0
}

// ListItem implementation

func (r *Restaurant) GetID() string          { return strconv.FormatInt(r.ID, 10) }
func (r *Restaurant) GetTitle() string       { return r.Name }
func (r *Restaurant) GetSortTitle() string   { return sortTitle(r.Name) }
func (r *Restaurant) GetDescription() string { return r.Type }
func (r *Restaurant) GetItemType() string    { return "restaurant" }

// sortTitle lowercases and strips a leading article for alphabetical sorting
func sortTitle(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	for _, article := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(t, article) {
			return strings.TrimPrefix(t, article)
		}
	}
	return t
}
