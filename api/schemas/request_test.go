package schemas_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/tourscout/api/schemas"
)

func TestSearchRequestValidate(t *testing.T) {
	t.Run("should accept the defaults", func(t *testing.T) {
		assert.NoError(t, schemas.DefaultSearchRequest().Validate())
	})

	tests := []struct {
		name   string
		mutate func(*schemas.SearchRequest)
		field  string
		target error
	}{
		{"unknown country", func(r *schemas.SearchRequest) { r.Country = 0 }, "country", schemas.ErrUnknownCountry},
		{"unknown departure", func(r *schemas.SearchRequest) { r.Departure = 21 }, "departure", schemas.ErrUnknownDeparture},
		{"malformed date", func(r *schemas.SearchRequest) { r.DateFrom = "2025-12-01" }, "date_from", schemas.ErrInvalidRequest},
		{"reversed dates", func(r *schemas.SearchRequest) { r.DateTo = "30.11.2025" }, "date_to", schemas.ErrInvalidRequest},
		{"zero nights", func(r *schemas.SearchRequest) { r.NightsFrom = 0 }, "nights_from", schemas.ErrInvalidRequest},
		{"reversed nights", func(r *schemas.SearchRequest) { r.NightsTo = 5 }, "nights_to", schemas.ErrInvalidRequest},
		{"no adults", func(r *schemas.SearchRequest) { r.Adults = 0 }, "adults", schemas.ErrInvalidRequest},
		{"negative children", func(r *schemas.SearchRequest) { r.Children = -1 }, "children", schemas.ErrInvalidRequest},
		{"reversed prices", func(r *schemas.SearchRequest) { r.PriceMin, r.PriceMax = 200, 100 }, "price_min", schemas.ErrInvalidRequest},
		{"too many stars", func(r *schemas.SearchRequest) { r.Stars = 6 }, "stars", schemas.ErrInvalidRequest},
		{"unknown meal", func(r *schemas.SearchRequest) { r.Meal = "buffet" }, "meal", schemas.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run("should reject "+tt.name, func(t *testing.T) {
			req := schemas.DefaultSearchRequest()
			tt.mutate(&req)

			err := req.Validate()
			require.ErrorIs(t, err, tt.target)
			ve, ok := err.(*schemas.ValidationError)
			require.True(t, ok)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	t.Run("should name the any-stars sentinel in the stars message", func(t *testing.T) {
		req := schemas.DefaultSearchRequest()
		req.Stars = 6
		err := req.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be 0 (any) or between 1 and 5")
	})

	t.Run("should accept a price floor without a ceiling", func(t *testing.T) {
		req := schemas.DefaultSearchRequest()
		req.PriceMin = 50000
		assert.NoError(t, req.Validate())
	})

	t.Run("should accept meal aliases", func(t *testing.T) {
		req := schemas.DefaultSearchRequest()
		req.Meal = "все включено"
		assert.NoError(t, req.Validate())
	})
}

func TestSearchRequestAdmits(t *testing.T) {
	listing := schemas.TourListing{
		Hotel: "Sea View", Price: "89000 руб", Stars: "4★", Resort: "Алания", Meal: "All Inclusive",
	}

	tests := []struct {
		name   string
		mutate func(*schemas.SearchRequest)
		want   bool
	}{
		{"no filters", func(r *schemas.SearchRequest) {}, true},
		{"price ceiling above", func(r *schemas.SearchRequest) { r.PriceMax = 90000 }, true},
		{"price ceiling below", func(r *schemas.SearchRequest) { r.PriceMax = 80000 }, false},
		{"price floor above", func(r *schemas.SearchRequest) { r.PriceMin = 100000 }, false},
		{"enough stars", func(r *schemas.SearchRequest) { r.Stars = 4 }, true},
		{"too few stars", func(r *schemas.SearchRequest) { r.Stars = 5 }, false},
		{"resort substring", func(r *schemas.SearchRequest) { r.Resort = "алан" }, true},
		{"other resort", func(r *schemas.SearchRequest) { r.Resort = "Кемер" }, false},
		{"same meal by alias", func(r *schemas.SearchRequest) { r.Meal = "AI" }, true},
		{"other meal", func(r *schemas.SearchRequest) { r.Meal = "Half Board" }, false},
	}
	for _, tt := range tests {
		t.Run("should handle "+tt.name, func(t *testing.T) {
			req := schemas.DefaultSearchRequest()
			tt.mutate(&req)
			assert.Equal(t, tt.want, req.Admits(listing))
		})
	}

	t.Run("should keep listings with unknown fields", func(t *testing.T) {
		req := schemas.DefaultSearchRequest()
		req.PriceMax, req.Stars, req.Resort, req.Meal = 1000, 5, "Кемер", "Half Board"
		unknown := schemas.TourListing{
			Price: schemas.Unknown, Stars: schemas.Unknown, Resort: schemas.Unknown, Meal: schemas.Unknown,
		}
		assert.True(t, req.Admits(unknown))
	})
}

func TestListingValues(t *testing.T) {
	t.Run("should read the numeric price", func(t *testing.T) {
		v, ok := schemas.TourListing{Price: "125000 руб"}.PriceValue()
		require.True(t, ok)
		assert.Equal(t, 125000, v)

		_, ok = schemas.TourListing{Price: schemas.Unknown}.PriceValue()
		assert.False(t, ok)
	})

	t.Run("should read fractional stars", func(t *testing.T) {
		v, ok := schemas.TourListing{Stars: "4.5★"}.StarsValue()
		require.True(t, ok)
		assert.InDelta(t, 4.5, v, 0.001)

		_, ok = schemas.TourListing{Stars: ""}.StarsValue()
		assert.False(t, ok)
	})

	t.Run("should resolve meal aliases", func(t *testing.T) {
		p, ok := schemas.ParseMealPlan(" Полупансион ")
		require.True(t, ok)
		assert.Equal(t, schemas.MealHalfBoard, p)
		assert.True(t, schemas.IsAnyMeal("любой"))
		assert.False(t, schemas.IsAnyMeal("bb"))
	})
}
