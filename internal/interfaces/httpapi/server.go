package httpapi

import (
	"net/http"

	"github.com/riskibarqy/fantasy-settlement/internal/platform/logging"
	"github.com/riskibarqy/fantasy-settlement/internal/usecase"
)

type RouterConfig struct {
	CORSAllowedOrigins []string
	CronKey            string
	// MetricsHandler serves GET /metrics when set.
	MetricsHandler http.Handler
}

func NewRouter(
	handler *Handler,
	verifier usecase.AccountVerifier,
	logger *logging.Logger,
	cfg RouterConfig,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, cfg.MetricsHandler)
	registerPublicRoutes(mux, handler)
	registerAuthorizedTradeRoutes(mux, handler, verifier)
	registerCronRoutes(mux, handler, cfg.CronKey)

	return RequestTracing(RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, mux))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
