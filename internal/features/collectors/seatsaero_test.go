package collectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/deals"
)

const seatsFixture = `{
  "data": [
    {
      "Date": "2026-06-15",
      "Source": "american",
      "Route": {"OriginAirport": "SFO", "DestinationAirport": "NRT"},
      "JAvailable": true,
      "JMileageCost": "85,000",
      "JRemainingSeats": 2,
      "JAirlines": "JL, AA",
      "JDirect": true
    },
    {
      "Date": "2026-06-16",
      "Source": "aeroplan",
      "Route": {"OriginAirport": "SFO", "DestinationAirport": "NRT"},
      "JAvailable": true,
      "JMileageCost": 75000,
      "JRemainingSeats": 0,
      "JAirlines": "NH",
      "JDirect": false
    },
    {
      "Date": "2026-06-16",
      "Source": "united",
      "Route": {"OriginAirport": "SFO", "DestinationAirport": "NRT"},
      "JAvailable": false,
      "JMileageCost": "88000"
    },
    {
      "Date": "2026-06-17",
      "Source": "flying-blue",
      "Route": {"OriginAirport": "SFO", "DestinationAirport": "NRT"},
      "JAvailable": true,
      "JMileageCost": "0"
    }
  ]
}`

func newSeatsAero(t *testing.T, handler http.HandlerFunc) *SeatsAeroCollector {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewSeatsAeroCollector(SeatsAeroConfig{APIKey: "secret", BaseURL: srv.URL + "/", MaxRetries: 2})
	c.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	c.now = func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }
	return c
}

func seatsQuery() Query {
	return Query{
		Origin:      "sfo",
		Destination: "nrt",
		Date:        time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
		DateEnd:     time.Date(2026, 6, 17, 0, 0, 0, 0, time.UTC),
		Cabin:       deals.CabinBusiness,
		Programs:    []string{"aa", "aeroplan"},
	}
}

func TestSeatsAero_Search(t *testing.T) {
	c := newSeatsAero(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Partner-Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "SFO", q.Get("origin_airport"))
		assert.Equal(t, "NRT", q.Get("destination_airport"))
		assert.Equal(t, "2026-06-15", q.Get("start_date"))
		assert.Equal(t, "2026-06-18", q.Get("end_date"))
		assert.Equal(t, "100", q.Get("take"))
		assert.Equal(t, "business", q.Get("cabins"))
		assert.Equal(t, "american,aeroplan", q.Get("sources"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(seatsFixture))
	})

	awards, err := c.SearchAwards(context.Background(), seatsQuery())
	require.NoError(t, err)
	require.Len(t, awards, 2)

	aa := awards[0]
	assert.Equal(t, "aa", aa.Program)
	assert.Equal(t, "American AAdvantage", aa.ProgramName)
	assert.Equal(t, int64(85000), aa.Miles)
	assert.Equal(t, 2, aa.SeatsAvailable)
	assert.Equal(t, "JL*", aa.Flight.FlightNo)
	assert.Equal(t, "JL", aa.Flight.AirlineCode)
	assert.Equal(t, 0, aa.Flight.Stops)
	assert.Equal(t, "seats.aero", aa.Source)
	assert.True(t, aa.IsSaver)
	assert.Zero(t, aa.CashFees)
	assert.Equal(t, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC), aa.Flight.Departure)
	assert.Equal(t, 12*time.Hour, aa.Flight.Arrival.Sub(aa.Flight.Departure))

	aeroplan := awards[1]
	assert.Equal(t, "aeroplan", aeroplan.Program)
	assert.Equal(t, int64(75000), aeroplan.Miles)
	assert.Equal(t, 1, aeroplan.SeatsAvailable)
	assert.Equal(t, 1, aeroplan.Flight.Stops)
}

func TestSeatsAero_Errors(t *testing.T) {
	_, err := NewSeatsAeroCollector(SeatsAeroConfig{}).SearchAwards(context.Background(), seatsQuery())
	assert.ErrorIs(t, err, common.ErrMissingAPIKey)

	var calls atomic.Int32
	unauthorized := newSeatsAero(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err = unauthorized.SearchAwards(context.Background(), seatsQuery())
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Equal(t, int32(1), calls.Load(), "401 is not retried")

	broken := newSeatsAero(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	_, err = broken.SearchAwards(context.Background(), seatsQuery())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream down")
}

func TestSeatsAero_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := newSeatsAero(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(seatsFixture))
	})

	awards, err := c.SearchAwards(context.Background(), seatsQuery())
	require.NoError(t, err)
	assert.Len(t, awards, 2)
	assert.Equal(t, int32(3), calls.Load())

	calls.Store(-10)
	_, err = c.SearchAwards(context.Background(), seatsQuery())
	assert.ErrorIs(t, err, common.ErrRateLimited)
}

func TestSourceMapping(t *testing.T) {
	assert.Equal(t, "aa", programFromSource("american"))
	assert.Equal(t, "flying_blue", programFromSource("flying-blue"))
	assert.Equal(t, "united", programFromSource("united"))
	assert.Equal(t, "connecting_partners", programFromSource("connecting-partners"))

	assert.Equal(t, "american", sourceFromProgram("aa"))
	assert.Equal(t, "virgin-atlantic", sourceFromProgram("virgin_atlantic"))
	assert.Equal(t, "delta", sourceFromProgram("delta"))
}
