package mcp

import (
	"fmt"
	"time"

	"github.com/xkilldash9x/tourscout/api/schemas"
)

// CommandRequest is the body of POST /api/v1/command.
type CommandRequest struct {
	Command string                 `json:"command"`
	Params  map[string]interface{} `json:"params"`
}

// CommandResponse wraps every /api/v1/command reply.
type CommandResponse struct {
	Status string      `json:"status"` // "success" or "error"
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// SearchParams is the wire form of a search. Country and departure are
// display names or codes; every other field falls back to the request
// defaults when left out.
type SearchParams struct {
	Country    string `json:"country"`
	Departure  string `json:"departure"`
	DateFrom   string `json:"date_from,omitempty"`
	DateTo     string `json:"date_to,omitempty"`
	NightsFrom int    `json:"nights_from,omitempty"`
	NightsTo   int    `json:"nights_to,omitempty"`
	Adults     int    `json:"adults,omitempty"`
	Children   int    `json:"children,omitempty"`
	Meal       string `json:"meal,omitempty"`
	Resort     string `json:"resort,omitempty"`
	PriceMin   int    `json:"price_min,omitempty"`
	PriceMax   int    `json:"price_max,omitempty"`
	Stars      int    `json:"stars,omitempty"`
}

// Request resolves the vocabulary fields and layers the rest over the
// defaults. Missing or unknown country and departure are validation errors.
func (p SearchParams) Request() (schemas.SearchRequest, error) {
	if p.Departure == "" {
		return schemas.SearchRequest{}, required("departure")
	}
	req, err := p.requestWithoutDeparture()
	if err != nil {
		return req, err
	}
	if req.Departure, err = schemas.ParseDeparture(p.Departure); err != nil {
		return req, err
	}
	return req, nil
}

func (p SearchParams) requestWithoutDeparture() (schemas.SearchRequest, error) {
	req := schemas.DefaultSearchRequest()
	if p.Country == "" {
		return req, required("country")
	}
	var err error
	if req.Country, err = schemas.ParseCountry(p.Country); err != nil {
		return req, err
	}

	if p.DateFrom != "" {
		req.DateFrom = p.DateFrom
	}
	if p.DateTo != "" {
		req.DateTo = p.DateTo
	}
	if p.NightsFrom > 0 {
		req.NightsFrom = p.NightsFrom
		if p.NightsTo == 0 {
			req.NightsTo = p.NightsFrom
		}
	}
	if p.NightsTo > 0 {
		req.NightsTo = p.NightsTo
	}
	if p.Adults > 0 {
		req.Adults = p.Adults
	}
	if p.Meal != "" {
		req.Meal = p.Meal
	}
	if p.Resort != "" {
		req.Resort = p.Resort
	}
	req.Children = p.Children
	req.PriceMin = p.PriceMin
	req.PriceMax = p.PriceMax
	req.Stars = p.Stars
	return req, nil
}

func required(field string) error {
	return &schemas.ValidationError{Field: field, Reason: "is required", Err: schemas.ErrInvalidRequest}
}

// QuickSearchParams carries a free-text query.
type QuickSearchParams struct {
	Query string `json:"query"`
}

// CompareParams runs one search per departure. The embedded departure is
// ignored.
type CompareParams struct {
	SearchParams
	Departures []string `json:"departures"`
}

// Request returns the shared request and the parsed departures.
func (p CompareParams) Request() (schemas.SearchRequest, []schemas.Departure, error) {
	req, err := p.requestWithoutDeparture()
	if err != nil {
		return req, nil, err
	}
	deps := make([]schemas.Departure, 0, len(p.Departures))
	for _, name := range p.Departures {
		d, err := schemas.ParseDeparture(name)
		if err != nil {
			return req, nil, err
		}
		deps = append(deps, d)
	}
	return req, deps, nil
}

// RecentSearchesParams bounds the history listing.
type RecentSearchesParams struct {
	Limit int `json:"limit,omitempty"`
}

// ToursResponse is the body of the plain search endpoints.
type ToursResponse struct {
	Success      bool                   `json:"success"`
	Tours        []schemas.TourListing  `json:"tours"`
	Count        int                    `json:"count"`
	Query        string                 `json:"query,omitempty"`
	ParsedParams *schemas.SearchRequest `json:"parsed_params,omitempty"`
}

// ErrorResponse is the body of a failed plain endpoint call.
type ErrorResponse struct {
	Success            bool     `json:"success"`
	Error              string   `json:"error"`
	AvailableEndpoints []string `json:"available_endpoints,omitempty"`
}

// -- WebSocket --

// MessageType names a WebSocket message.
type MessageType string

const (
	MsgTypeSearchRequest MessageType = "SearchRequest"
	MsgTypeStatusUpdate  MessageType = "StatusUpdate"
	MsgTypeSearchResult  MessageType = "SearchResult"
	MsgTypeSystemError   MessageType = "SystemError"
)

// WSMessage is the envelope for both directions of /ws/v1/search.
type WSMessage struct {
	Type MessageType            `json:"type"`
	Data map[string]interface{} `json:"data,omitempty"`
	// RFC3339, UTC.
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}

func newWSMessage(t MessageType, requestID string, data map[string]interface{}) WSMessage {
	return WSMessage{
		Type:      t,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
	}
}

func (m WSMessage) String() string {
	return fmt.Sprintf("%s(%s)", m.Type, m.RequestID)
}
