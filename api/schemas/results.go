package schemas

import "time"

// ComparisonResult is the outcome of one departure in a comparison.
type ComparisonResult struct {
	Departure Departure     `json:"departure"`
	Count     int           `json:"count"`
	MinPrice  int           `json:"min_price,omitempty"`
	Tours     []TourListing `json:"tours"`
}

// QuickSearchResult pairs a free-text query with what it was parsed into.
type QuickSearchResult struct {
	Query   string        `json:"query"`
	Request SearchRequest `json:"parsed_params"`
	Tours   []TourListing `json:"tours"`
}

// Stats summarises the work a service has done since start.
type Stats struct {
	Searches    int64     `json:"searches"`
	Listings    int64     `json:"listings"`
	Rejected    int64     `json:"rejected"`
	Failures    int64     `json:"failures"`
	StartedAt   time.Time `json:"started_at"`
	Uptime      string    `json:"uptime"`
	MockBackend bool      `json:"mock_backend"`
}
