package service

import (
	"context"

	"github.com/xkilldash9x/tourscout/api/schemas"
	"github.com/xkilldash9x/tourscout/internal/search"
)

// MockBackend serves three fixed listings so the API can be exercised
// without a browser. Requests are validated like the real driver does.
type MockBackend struct{}

var mockListings = []schemas.TourListing{
	{
		Hotel: "Beach Resort Hotel", Price: "125000 руб", Stars: "5★", Resort: "Кемер", Rating: "4.8⭐",
		Nights: "7 ночей", DateFrom: "15.02.2026", DateTo: "22.02.2026",
		Meal: string(schemas.MealAllInclusive), Operator: "Anex Tour",
	},
	{
		Hotel: "Sea View Hotel", Price: "89000 руб", Stars: "4★", Resort: "Алания", Rating: "4.5⭐",
		Nights: "7 ночей", DateFrom: "18.02.2026", DateTo: "25.02.2026",
		Meal: string(schemas.MealHalfBoard), Operator: "Pegas Touristik",
	},
	{
		Hotel: "Mountain Paradise", Price: "156000 руб", Stars: "5★", Resort: "Белек", Rating: "4.9⭐",
		Nights: "7 ночей", DateFrom: "20.02.2026", DateTo: "27.02.2026",
		Meal: string(schemas.MealUltraAllInclusive), Operator: "TUI",
	},
}

func (MockBackend) Search(ctx context.Context, req schemas.SearchRequest) ([]schemas.TourListing, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return []schemas.TourListing{}, nil
	}
	out := make([]schemas.TourListing, len(mockListings))
	for i, l := range mockListings {
		l.Country = req.Country.String()
		out[i] = l
	}
	return out, nil
}

// SearchWithObserver walks the same linear state sequence as the browser
// driver.
func (m MockBackend) SearchWithObserver(ctx context.Context, req schemas.SearchRequest, observe search.Observer) ([]schemas.TourListing, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if observe == nil {
		observe = func(search.State) {}
	}
	defer observe(search.Closed)
	for st := search.SessionOpen; st <= search.Extracted; st++ {
		if ctx.Err() != nil {
			return []schemas.TourListing{}, nil
		}
		observe(st)
	}
	return m.Search(ctx, req)
}
