package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/tourscout/api/schemas"
)

// flexibleSQLMatcher creates a regex that is insensitive to whitespace for more robust SQL mock testing.
func flexibleSQLMatcher(sql string) string {
	trimmed := strings.TrimSpace(sql)
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(trimmed), `\s+`)
}

var fixedNow = time.Date(2025, 11, 20, 10, 0, 0, 0, time.FixedZone("MSK", 3*60*60))

func newTestStore(t *testing.T, logger *zap.Logger) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	mockPool.ExpectPing().WillReturnError(nil)
	s, err := New(context.Background(), mockPool, logger)
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }
	return s, mockPool
}

func sampleListings() []schemas.TourListing {
	return []schemas.TourListing{
		{Hotel: "Beach Resort", Price: "125000 руб", Stars: schemas.Unknown, Resort: "Кемер", Rating: "4.8⭐",
			Nights: "7 ночей", DateFrom: "15.02.2026", DateTo: schemas.Unknown, Meal: "All Inclusive", Operator: "Anex Tour", Country: "Турция"},
		{Hotel: "Sea View", Price: schemas.Unknown, Stars: "4★", Resort: "Алания", Rating: schemas.Unknown,
			Nights: "7 ночей", DateFrom: schemas.Unknown, DateTo: schemas.Unknown, Meal: schemas.Unknown, Operator: schemas.Unknown, Country: "Турция"},
	}
}

func TestNewStore(t *testing.T) {
	t.Run("should return error if ping fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		pingErr := errors.New("database unavailable")
		mockPool.ExpectPing().WillReturnError(pingErr)

		_, err = New(context.Background(), mockPool, zap.NewNop())
		require.Error(t, err)
		assert.ErrorIs(t, err, pingErr, "Error from ping should be propagated")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestEnsureSchema(t *testing.T) {
	s, mockPool := newTestStore(t, zap.NewNop())
	mockPool.ExpectExec(flexibleSQLMatcher("CREATE TABLE IF NOT EXISTS searches")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRecordSearch(t *testing.T) {
	ctx := context.Background()
	req := schemas.DefaultSearchRequest()

	t.Run("should insert the search and copy listings in one transaction", func(t *testing.T) {
		observedZapCore, observedLogs := observer.New(zapcore.ErrorLevel)
		s, mockPool := newTestStore(t, zap.New(observedZapCore))

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(insertSearchSQL)).
			WithArgs(pgxmock.AnyArg(), "Турция", "Москва", pgxmock.AnyArg(), 2, fixedNow.UTC()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCopyFrom(pgx.Identifier{"listings"}, listingColumns).
			WillReturnResult(2)
		mockPool.ExpectCommit()
		mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

		id, err := s.RecordSearch(ctx, req, sampleListings())

		require.NoError(t, err)
		assert.Len(t, id, 36)
		assert.NoError(t, mockPool.ExpectationsWereMet())
		assert.Empty(t, observedLogs.All(), "Expected no errors logged on successful commit")
	})

	t.Run("should skip the copy when there are no listings", func(t *testing.T) {
		s, mockPool := newTestStore(t, zap.NewNop())

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(insertSearchSQL)).
			WithArgs(pgxmock.AnyArg(), "Турция", "Москва", pgxmock.AnyArg(), 0, fixedNow.UTC()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCommit()
		mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

		_, err := s.RecordSearch(ctx, req, nil)
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should roll back when the copy count mismatches", func(t *testing.T) {
		s, mockPool := newTestStore(t, zap.NewNop())

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(insertSearchSQL)).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCopyFrom(pgx.Identifier{"listings"}, listingColumns).
			WillReturnResult(1)
		mockPool.ExpectRollback()

		_, err := s.RecordSearch(ctx, req, sampleListings())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mismatch in copied listings count")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should surface a failed insert", func(t *testing.T) {
		s, mockPool := newTestStore(t, zap.NewNop())
		insertErr := errors.New("unique violation")

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(insertSearchSQL)).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(insertErr)
		mockPool.ExpectRollback()

		_, err := s.RecordSearch(ctx, req, sampleListings())
		assert.ErrorIs(t, err, insertErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRecentSearches(t *testing.T) {
	ctx := context.Background()

	t.Run("should decode stored requests", func(t *testing.T) {
		s, mockPool := newTestStore(t, zap.NewNop())
		created := fixedNow.UTC()
		params := []byte(`{"country":"Египет","departure":"Алматы","date_from":"01.12.2025","date_to":"31.12.2025","nights_from":10,"nights_to":10,"adults":3,"children":0,"meal":"any","resort":"any"}`)

		rows := pgxmock.NewRows([]string{"id", "request", "listing_count", "created_at"}).
			AddRow("5f0c6c1e-6d3b-4b53-9d55-1f2b4c0e9a10", params, 4, created)
		mockPool.ExpectQuery(flexibleSQLMatcher(recentSearchesSQL)).WithArgs(5).WillReturnRows(rows)

		records, err := s.RecentSearches(ctx, 5)

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, schemas.CountryEgypt, records[0].Request.Country)
		assert.Equal(t, schemas.DepartureAlmaty, records[0].Request.Departure)
		assert.Equal(t, 3, records[0].Request.Adults)
		assert.Equal(t, 4, records[0].ListingCount)
		assert.Equal(t, created, records[0].CreatedAt)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should default the limit", func(t *testing.T) {
		s, mockPool := newTestStore(t, zap.NewNop())
		mockPool.ExpectQuery(flexibleSQLMatcher(recentSearchesSQL)).WithArgs(20).
			WillReturnRows(pgxmock.NewRows([]string{"id", "request", "listing_count", "created_at"}))

		records, err := s.RecentSearches(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, records)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestListingsBySearchID(t *testing.T) {
	s, mockPool := newTestStore(t, zap.NewNop())
	want := sampleListings()

	rows := pgxmock.NewRows([]string{"hotel", "price", "stars", "resort", "rating", "nights", "date_from", "date_to", "meal", "operator", "country"})
	for _, l := range want {
		rows.AddRow(l.Hotel, l.Price, l.Stars, l.Resort, l.Rating, l.Nights, l.DateFrom, l.DateTo, l.Meal, l.Operator, l.Country)
	}
	mockPool.ExpectQuery(flexibleSQLMatcher(listingsBySearchSQL)).WithArgs("search-1").WillReturnRows(rows)

	got, err := s.ListingsBySearchID(context.Background(), "search-1")

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
