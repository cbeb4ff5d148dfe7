package observability

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/riskibarqy/fantasy-settlement/internal/config"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/logging"
)

const defaultPprofStopTimeout = 5 * time.Second

// StartPprofServer binds the debug listener before returning; a busy address
// is a startup error.
func StartPprofServer(cfg config.Config, logger *logging.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if !cfg.PprofEnabled {
		logger.Info("pprof disabled", "reason", "PPROF_ENABLED=false")
		return nil, nil
	}

	ln, err := net.Listen("tcp", cfg.PprofAddr)
	if err != nil {
		return nil, fmt.Errorf("listen pprof on %s: %w", cfg.PprofAddr, err)
	}

	srv := &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           pprofMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("pprof server failed", "addr", srv.Addr, "error", err)
		}
	}()
	logger.Info("pprof server listening", "addr", srv.Addr)

	return srv, nil
}

func pprofMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /debug/pprof/", pprof.Index)
	for name, handler := range map[string]http.HandlerFunc{
		"cmdline": pprof.Cmdline,
		"profile": pprof.Profile,
		"symbol":  pprof.Symbol,
		"trace":   pprof.Trace,
	} {
		mux.HandleFunc("/debug/pprof/"+name, handler)
	}
	return mux
}

func StopPprofServer(srv *http.Server, logger *logging.Logger, timeout time.Duration) error {
	if srv == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultPprofStopTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown pprof server: %w", err)
	}
	logger.Info("pprof server stopped", "addr", srv.Addr)
	return nil
}
