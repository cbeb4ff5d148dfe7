package statsource

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-settlement/internal/platform/logging"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/resilience"
	"github.com/riskibarqy/fantasy-settlement/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, retries int, breaker resilience.CircuitBreakerConfig) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(ClientConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		APIKey:         "secret",
		MaxRetries:     retries,
		RetryBackoff:   time.Millisecond,
		Logger:         logging.NewNop(),
		CircuitBreaker: breaker,
	})
}

func TestFetchGamesByDate_MapsEnvelope(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/games", r.URL.Path)
		assert.Equal(t, "2026-10-16", r.URL.Query().Get("date"))
		assert.Equal(t, "2026", r.URL.Query().Get("season"))
		assert.Equal(t, "secret", r.Header.Get(apiKeyHeader))
		_, _ = w.Write([]byte(`{"response":[
			{"id":9001,"status":{"long":"Finished"},"date":{"start":"2026-10-16T23:30:00.000Z"},"teams":{"home":{"id":1},"visitors":{"id":2}}},
			{"id":9002,"status":{"long":"Scheduled"},"date":{"start":"bogus"},"teams":{"home":{"id":3},"visitors":{"id":4}}}
		]}`))
	}, 0, resilience.CircuitBreakerConfig{})

	games, err := client.FetchGamesByDate(t.Context(), "2026-10-16", 2026)
	require.NoError(t, err)
	require.Len(t, games, 1)
	require.Equal(t, int64(9001), games[0].GameID)
	require.Equal(t, int64(1), games[0].HomeTeamID)
	require.Equal(t, int64(2), games[0].AwayTeamID)
	require.True(t, games[0].IsFinished())
	require.True(t, games[0].StartTimeUTC.Equal(time.Date(2026, 10, 16, 23, 30, 0, 0, time.UTC)))
}

func TestFetchTeamSeasonStats_ParsesMinutesAndStats(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/players/statistics", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("team"))
		_, _ = w.Write([]byte(`{"response":[
			{"player":{"id":10},"team":{"id":7},"game":{"id":9001},"min":"34:12","points":30,"totReb":10,"assists":5,"blocks":1,"steals":2,"turnovers":3},
			{"player":{"id":11},"team":{"id":7},"game":{"id":9001},"min":"1","points":2,"totReb":0,"assists":0,"blocks":0,"steals":0,"turnovers":0},
			{"player":{"id":12},"team":{"id":7},"game":{"id":9001},"min":null,"points":null}
		]}`))
	}, 0, resilience.CircuitBreakerConfig{})

	stats, err := client.FetchTeamSeasonStats(t.Context(), 7, 2026)
	require.NoError(t, err)
	require.Len(t, stats, 3)
	require.Equal(t, 34, stats[0].MinutesPlayed)
	require.Equal(t, 10, stats[0].Rebounds)
	require.Equal(t, 3, stats[0].Turnovers)
	require.Equal(t, 1, stats[1].MinutesPlayed)
	require.Zero(t, stats[2].MinutesPlayed)
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"response":[]}`))
	}, 2, resilience.CircuitBreakerConfig{})

	games, err := client.FetchGamesByDate(t.Context(), "2026-10-16", 2026)
	require.NoError(t, err)
	require.Empty(t, games)
	require.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}, 3, resilience.CircuitBreakerConfig{})

	_, err := client.FetchGamesByDate(t.Context(), "2026-10-16", 2026)
	require.ErrorContains(t, err, "status=400")
	require.False(t, isTransient(err))
	require.Equal(t, int32(1), calls.Load())
}

func TestClient_MalformedBodyIsAFetchFailure(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response":`))
	}, 0, resilience.CircuitBreakerConfig{})

	_, err := client.FetchGamesByDate(t.Context(), "2026-10-16", 2026)
	require.ErrorContains(t, err, "decode stat source payload")
}

func TestClient_CircuitOpensOnTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, 0, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 2, OpenTimeout: time.Minute, HalfOpenMaxReq: 1})

	for range 2 {
		_, err := client.FetchGamesByDate(t.Context(), "2026-10-16", 2026)
		require.True(t, isTransient(err))
	}

	_, err := client.FetchGamesByDate(t.Context(), "2026-10-16", 2026)
	require.ErrorIs(t, err, usecase.ErrDependencyUnavailable)
	require.Equal(t, int32(2), calls.Load())
}

func TestParseMinutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
	}{
		{in: "34", want: 34},
		{in: "34:12", want: 34},
		{in: " 7:59 ", want: 7},
		{in: "", want: 0},
		{in: "DNP", want: 0},
		{in: "-3", want: 0},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, parseMinutes(tt.in), "input %q", tt.in)
	}
}
