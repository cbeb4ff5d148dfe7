package httpapi

import (
	"net/http"

	"github.com/riskibarqy/fantasy-settlement/internal/usecase"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metrics http.Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/market/lock", handler.GetMarketLock)
	mux.HandleFunc("GET /v1/players/{playerID}", handler.GetPlayer)
}

func registerAuthorizedTradeRoutes(mux *http.ServeMux, handler *Handler, verifier usecase.AccountVerifier) {
	mux.Handle("POST /v1/fantasy/teams/{teamID}/trades", RequireAuth(verifier, http.HandlerFunc(handler.ApplyTrades)))
	mux.Handle("POST /v1/fantasy/teams/{teamID}/roster", RequireAuth(verifier, http.HandlerFunc(handler.AddRosterPlayer)))
	mux.Handle("DELETE /v1/fantasy/teams/{teamID}/roster/{playerID}", RequireAuth(verifier, http.HandlerFunc(handler.DropRosterPlayer)))
}

func registerCronRoutes(mux *http.ServeMux, handler *Handler, cronKey string) {
	mux.Handle("POST /v1/internal/cron/settlement", RequireCronKey(cronKey, http.HandlerFunc(handler.RunSettlementCron)))
	mux.Handle("POST /v1/internal/cron/market-lock", RequireCronKey(cronKey, http.HandlerFunc(handler.RefreshMarketLockCron)))
}
