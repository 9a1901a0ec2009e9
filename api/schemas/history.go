package schemas

import "time"

// SearchRecord is one persisted search.
type SearchRecord struct {
	ID           string        `json:"id"`
	CreatedAt    time.Time     `json:"created_at"`
	Request      SearchRequest `json:"request"`
	ListingCount int           `json:"listing_count"`
}
