package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/account"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/marketlock"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/player"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/trade"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/logging"
	"github.com/riskibarqy/fantasy-settlement/internal/usecase"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testCronKey = "cron-secret"

type stubVerifier struct{}

func (stubVerifier) VerifyAccessToken(_ context.Context, token string) (account.Principal, error) {
	if token != "good-token" {
		return account.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}
	return account.Principal{UserID: "owner-77"}, nil
}

type stubSettlement struct {
	triggers []settlement.Trigger
	err      error
}

func (s *stubSettlement) Run(_ context.Context, trigger settlement.Trigger) (settlement.Run, error) {
	s.triggers = append(s.triggers, trigger)
	return settlement.Run{
		ID:            "run-1",
		Trigger:       trigger,
		Status:        settlement.StatusDone,
		GamesSettled:  3,
		TeamsCredited: 2,
		PointsAwarded: decimal.RequireFromString("88.5"),
	}, s.err
}

type stubMarketLock struct {
	status    marketlock.Status
	refreshes int
}

func (s *stubMarketLock) Refresh(context.Context) (usecase.MarketLockRefresh, error) {
	s.refreshes++
	return usecase.MarketLockRefresh{Skipped: true}, nil
}

func (s *stubMarketLock) Status(context.Context) (marketlock.Status, error) {
	return s.status, nil
}

type stubLedger struct {
	inputs  []trade.Input
	dropped []int64
	err     error
}

func (s *stubLedger) result(in trade.Input) trade.Result {
	return trade.Result{
		TeamID:    in.TeamID,
		Budget:    decimal.RequireFromString("955"),
		Added:     in.Add,
		Dropped:   in.Drop,
		SettledAt: time.Date(2026, 10, 17, 16, 0, 0, 0, time.UTC),
	}
}

func (s *stubLedger) ApplyTrades(_ context.Context, in trade.Input) (trade.Result, error) {
	s.inputs = append(s.inputs, in)
	if s.err != nil {
		return trade.Result{}, s.err
	}
	return s.result(in), nil
}

func (s *stubLedger) AddPlayer(_ context.Context, owner string, teamID, playerID int64) (trade.Result, error) {
	return s.ApplyTrades(context.Background(), trade.Input{OwnerUserID: owner, TeamID: teamID, Add: []int64{playerID}})
}

func (s *stubLedger) DropPlayer(_ context.Context, owner string, teamID, playerID int64) (trade.Result, error) {
	s.dropped = append(s.dropped, playerID)
	return s.result(trade.Input{OwnerUserID: owner, TeamID: teamID, Drop: []int64{playerID}}), nil
}

type stubCatalog struct{}

func (stubCatalog) GetPlayer(_ context.Context, playerID int64) (player.Player, error) {
	if playerID != 159 {
		return player.Player{}, fmt.Errorf("%w: player=%d", usecase.ErrNotFound, playerID)
	}
	return player.Player{ID: 159, Name: "Giannis Antetokounmpo", NBATeamID: 21, Price: decimal.NewFromInt(50)}, nil
}

type routerFixture struct {
	router     http.Handler
	settlement *stubSettlement
	marketLock *stubMarketLock
	ledger     *stubLedger
}

func newRouterFixture(t *testing.T, cronKey string) *routerFixture {
	t.Helper()

	f := &routerFixture{
		settlement: &stubSettlement{},
		marketLock: &stubMarketLock{status: marketlock.Status{NoGamesToday: true}},
		ledger:     &stubLedger{},
	}
	handler := NewHandler(f.settlement, f.marketLock, f.ledger, stubCatalog{}, logging.NewNop())
	f.router = NewRouter(handler, stubVerifier{}, logging.NewNop(), RouterConfig{
		CORSAllowedOrigins: []string{"https://app.example.com"},
		CronKey:            cronKey,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
	})
	return f
}

func (f *routerFixture) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, googleAPIVersion, body["apiVersion"])
	return body
}

func errorReason(t *testing.T, body map[string]any) string {
	t.Helper()

	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error object")
	items, ok := errObj["errors"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, items)
	return items[0].(map[string]any)["reason"].(string)
}

var bearer = map[string]string{"Authorization": "Bearer good-token"}

func TestRouter_HealthAndMetrics(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t, testCronKey)

	rec := f.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "# metrics", rec.Body.String())
}

func TestRouter_CronKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		configured string
		header     string
		wantStatus int
	}{
		{name: "missing header", configured: testCronKey, wantStatus: http.StatusUnauthorized},
		{name: "wrong key", configured: testCronKey, header: "nope", wantStatus: http.StatusUnauthorized},
		{name: "empty configured key rejects empty header", configured: "", header: "", wantStatus: http.StatusUnauthorized},
		{name: "empty configured key rejects any header", configured: "", header: "anything", wantStatus: http.StatusUnauthorized},
		{name: "valid key", configured: testCronKey, header: testCronKey, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newRouterFixture(t, tt.configured)
			rec := f.do(http.MethodPost, "/v1/internal/cron/settlement", "", map[string]string{cronKeyHeader: tt.header})
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				require.Equal(t, []settlement.Trigger{settlement.TriggerCron}, f.settlement.triggers)
				data := decodeEnvelope(t, rec)["data"].(map[string]any)
				require.Equal(t, "88.5", data["pointsAwarded"])
				require.Equal(t, "done", data["status"])
			} else {
				require.Empty(t, f.settlement.triggers)
			}
		})
	}
}

func TestRouter_SettlementAbortMapsToUnavailable(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t, testCronKey)
	f.settlement.err = fmt.Errorf("%w: fetch schedule", usecase.ErrDependencyUnavailable)

	rec := f.do(http.MethodPost, "/v1/internal/cron/settlement", "", map[string]string{cronKeyHeader: testCronKey})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "dependencyUnavailable", errorReason(t, decodeEnvelope(t, rec)))
}

func TestRouter_MarketLockRoutes(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t, testCronKey)

	rec := f.do(http.MethodGet, "/v1/market/lock", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	require.Equal(t, false, data["isLocked"])
	require.Equal(t, true, data["noGamesToday"])
	require.Nil(t, data["lockStart"])

	rec = f.do(http.MethodPost, "/v1/internal/cron/market-lock", "", map[string]string{cronKeyHeader: testCronKey})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, f.marketLock.refreshes)
}

func TestRouter_ApplyTrades(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t, testCronKey)

	rec := f.do(http.MethodPost, "/v1/fantasy/teams/77/trades", `{"add":[4],"drop":[3]}`, bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []trade.Input{{OwnerUserID: "owner-77", TeamID: 77, Add: []int64{4}, Drop: []int64{3}}}, f.ledger.inputs)

	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	require.Equal(t, "955.00", data["budget"])
	require.Equal(t, "2026-10-17T16:00:00Z", data["settledAt"])
}

func TestRouter_TradeRequiresBearer(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t, testCronKey)

	for _, headers := range []map[string]string{
		nil,
		{"Authorization": "Basic abc"},
		{"Authorization": "Bearer bad-token"},
	} {
		rec := f.do(http.MethodPost, "/v1/fantasy/teams/77/trades", `{"add":[4]}`, headers)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	require.Empty(t, f.ledger.inputs)
}

func TestRouter_TradeRejectionStatus(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t, testCronKey)
	f.ledger.err = trade.Reject(trade.ReasonQuotaExceeded, "used=2 requested=1 quota=2")

	rec := f.do(http.MethodPost, "/v1/fantasy/teams/77/trades", `{"add":[4]}`, bearer)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	body := decodeEnvelope(t, rec)
	require.Equal(t, "quotaExceeded", errorReason(t, body))
	require.Equal(t, trade.ReasonQuotaExceeded.Message(), body["error"].(map[string]any)["message"])
}

func TestRouter_TradeRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "malformed json", path: "/v1/fantasy/teams/77/trades", body: `{"add":[4`},
		{name: "negative player id", path: "/v1/fantasy/teams/77/trades", body: `{"add":[-4]}`},
		{name: "empty body", path: "/v1/fantasy/teams/77/trades", body: ""},
		{name: "bad team id", path: "/v1/fantasy/teams/abc/trades", body: `{"add":[4]}`},
		{name: "missing roster player", path: "/v1/fantasy/teams/77/roster", body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newRouterFixture(t, testCronKey)
			rec := f.do(http.MethodPost, tt.path, tt.body, bearer)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Equal(t, "invalidInput", errorReason(t, decodeEnvelope(t, rec)))
			require.Empty(t, f.ledger.inputs)
		})
	}
}

func TestRouter_RosterConvenienceRoutes(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t, testCronKey)

	rec := f.do(http.MethodPost, "/v1/fantasy/teams/77/roster", `{"playerId":45}`, bearer)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, []int64{45}, f.ledger.inputs[0].Add)

	rec = f.do(http.MethodDelete, "/v1/fantasy/teams/77/roster/3", "", bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []int64{3}, f.ledger.dropped)
}

func TestRouter_CORSPreflight(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t, testCronKey)

	rec := f.do(http.MethodOptions, "/v1/fantasy/teams/77/trades", "", map[string]string{
		"Origin":                         "https://app.example.com",
		"Access-Control-Request-Method":  http.MethodPost,
		"Access-Control-Request-Headers": "Authorization",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = f.do(http.MethodGet, "/v1/market/lock", "", map[string]string{"Origin": "https://evil.example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_GetPlayer(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t, testCronKey)

	rec := f.do(http.MethodGet, "/v1/players/159", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	require.Equal(t, "Giannis Antetokounmpo", data["name"])
	require.Equal(t, "50.00", data["price"])

	rec = f.do(http.MethodGet, "/v1/players/42", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/v1/players/abc", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
