package domain

import (
	"strings"
	"time"
)

// Record types and field keys of the public cloud database
const (
	RecordTypeRestaurant = "Restaurant"

	FieldName     = "name"
	FieldType     = "type"
	FieldLocation = "location"
	FieldPhone    = "phone"
	FieldImage    = "image"
)

// DefaultResultsLimit is the page size used for discovery queries.
const DefaultResultsLimit = 50

// RecordID is the server-assigned record name.
type RecordID string

func (id RecordID) String() string { return string(id) }

// Asset is a file attached to a record field.
// DownloadURL is short-lived; FileURL is set once the asset is on local disk.
type Asset struct {
	DownloadURL string `json:"downloadURL"`
	Checksum    string `json:"fileChecksum,omitempty"`
	Size        int64  `json:"size,omitempty"`
	ObjectKey   string `json:"objectKey,omitempty"` // set by tooling that uploads the file itself
	FileURL     string `json:"-"`
}

// Record is a key-value entry of the remote database.
// Field values are strings or *Asset.
type Record struct {
	ID         RecordID
	Type       string
	Fields     map[string]any
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// String returns a string field, or "" when missing or not a string.
func (r *Record) String(key string) string {
	if v, ok := r.Fields[key].(string); ok {
		return v
	}
	return ""
}

// Asset returns an asset field, or nil.
func (r *Record) Asset(key string) *Asset {
	if v, ok := r.Fields[key].(*Asset); ok {
		return v
	}
	return nil
}

// CloudRestaurant is a discovery feed entry built from a Restaurant record.
type CloudRestaurant struct {
	ID    RecordID
	Name  string
	Image *Asset // nil unless the "image" key was requested
}

// CloudRestaurantFromRecord maps a Restaurant record.
func CloudRestaurantFromRecord(r *Record) CloudRestaurant {
	return CloudRestaurant{
		ID:    r.ID,
		Name:  r.String(FieldName),
		Image: r.Asset(FieldImage),
	}
}

// ListItem implementation

func (c *CloudRestaurant) GetID() string          { return string(c.ID) }
func (c *CloudRestaurant) GetTitle() string       { return c.Name }
func (c *CloudRestaurant) GetSortTitle() string   { return sortTitle(c.Name) }
func (c *CloudRestaurant) GetDescription() string { return "" }
func (c *CloudRestaurant) GetItemType() string    { return "cloud_restaurant" }

// Comparator for query filters
type Comparator string

const (
	ComparatorEquals     Comparator = "EQUALS"
	ComparatorBeginsWith Comparator = "BEGINS_WITH"
)

// Filter restricts a query on one string field.
type Filter struct {
	FieldName  string     `json:"fieldName"`
	Comparator Comparator `json:"comparator"`
	Value      string     `json:"value"`
}

// Query selects records of one type. No filters is the true predicate.
type Query struct {
	RecordType string   `json:"recordType"`
	Filters    []Filter `json:"filterBy,omitempty"`
}

// NewQuery returns a query matching every record of the given type.
func NewQuery(recordType string) Query {
	return Query{RecordType: recordType}
}

// MatchesAll reports whether the query uses the true predicate.
func (q Query) MatchesAll() bool {
	return len(q.Filters) == 0
}

// Cursor marks where the next page of a query resumes. Empty means done.
type Cursor string

// IsEmpty reports whether there are no more pages.
func (c Cursor) IsEmpty() bool {
	return strings.TrimSpace(string(c)) == ""
}

// QueryOperation describes one page request.
type QueryOperation struct {
	Query        Query
	DesiredKeys  []string // nil fetches every field
	ResultsLimit int      // 0 means DefaultResultsLimit
	Cursor       Cursor   // empty starts from the beginning
}

// QueryPage is one page of query results.
type QueryPage struct {
	Records []*Record
	Cursor  Cursor
}

// FetchResult is the outcome for one record of a lookup.
type FetchResult struct {
	ID     RecordID
	Record *Record
	Err    error
}
