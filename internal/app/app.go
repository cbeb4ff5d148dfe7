package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/fantasy-settlement/external/anubis"
	"github.com/riskibarqy/fantasy-settlement/external/statsource"
	"github.com/riskibarqy/fantasy-settlement/internal/config"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/marketlock"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/player"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/trade"
	"github.com/riskibarqy/fantasy-settlement/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/fantasy-settlement/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fantasy-settlement/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/fantasy-settlement/internal/interfaces/httpapi"
	"github.com/riskibarqy/fantasy-settlement/internal/observability"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/id"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/logging"
	"github.com/riskibarqy/fantasy-settlement/internal/usecase"
)

const playerCacheTTL = 5 * time.Minute

// App holds the wired services shared by the API server and the cron runner.
type App struct {
	cfg    config.Config
	logger *logging.Logger

	Settlement *usecase.SettlementService
	MarketLock *usecase.MarketLockService
	Trades     *usecase.TradeService
	Players    *usecase.PlayerService
	Accounts   *anubis.Client
	Metrics    *observability.Metrics

	dispatcher *usecase.NotificationDispatcher
	closers    []func() error
}

type storage struct {
	settlements settlement.Store
	runs        settlement.RunRepository
	locks       marketlock.Repository
	trades      trade.Store
	teams       fantasy.Repository
	players     player.Repository
	locker      usecase.AdvisoryLocker
}

// New opens storage, builds the external clients and wires every service.
// Callers must Close the returned App.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	a := &App{cfg: cfg, logger: logger, Metrics: observability.NewMetrics()}
	clock := clockwork.NewRealClock()

	store, err := a.openStorage(ctx, clock)
	if err != nil {
		_ = a.Close(time.Second)
		return nil, err
	}

	sink, err := a.newNotificationSink(ctx)
	if err != nil {
		_ = a.Close(time.Second)
		return nil, err
	}
	a.dispatcher, err = usecase.NewNotificationDispatcher(sink, clock, a.Metrics, logger, usecase.NotificationDispatcherConfig{
		Workers:      cfg.NotificationWorkers,
		MaxAttempts:  cfg.NotificationMaxAttempts,
		RetryBackoff: cfg.NotificationRetryBackoff,
	})
	if err != nil {
		_ = a.Close(time.Second)
		return nil, fmt.Errorf("build notification dispatcher: %w", err)
	}

	source := statsource.NewClient(statsource.ClientConfig{
		BaseURL:        cfg.StatSourceBaseURL,
		APIKey:         cfg.StatSourceAPIKey,
		Timeout:        cfg.StatSourceTimeout,
		MaxRetries:     cfg.StatSourceMaxRetries,
		Logger:         logger,
		CircuitBreaker: cfg.StatSourceCircuit,
	})
	ids := id.NewUUIDGenerator()

	a.Settlement = usecase.NewSettlementService(
		source,
		store.settlements,
		store.runs,
		store.locker,
		a.dispatcher,
		ids,
		clock,
		a.Metrics,
		logger,
		usecase.SettlementConfig{
			Location:         cfg.Location,
			Season:           cfg.StatSourceSeason,
			FetchConcurrency: cfg.StatSourceFetchConcurrency,
		},
	)
	a.MarketLock = usecase.NewMarketLockService(
		source,
		store.locks,
		store.locker,
		clock,
		logger,
		marketlock.Policy{
			Location:     cfg.Location,
			DayStartHour: cfg.MarketLockDayStartHour,
			Lead:         cfg.MarketLockLead,
		},
		cfg.StatSourceSeason,
	)
	a.Trades = usecase.NewTradeService(
		store.trades,
		store.teams,
		a.MarketLock,
		ids,
		a.Metrics,
		logger,
		fantasy.Rules{DailyTradeQuota: cfg.TradeDailyQuota},
		cfg.Location,
	)
	a.Players = usecase.NewPlayerService(cache.NewPlayerRepository(store.players, playerCacheTTL))
	a.Accounts = anubis.NewClient(anubis.ClientConfig{
		BaseURL:        cfg.AccountBaseURL,
		IntrospectPath: cfg.AccountIntrospectPath,
		AdminKey:       cfg.AccountAdminKey,
		Timeout:        cfg.AccountTimeout,
		CacheTTL:       cfg.AccountCacheTTL,
		Logger:         logger,
		CircuitBreaker: cfg.AccountCircuit,
	})

	return a, nil
}

func (a *App) openStorage(ctx context.Context, clock clockwork.Clock) (storage, error) {
	if a.cfg.UsesMemoryStore() {
		a.logger.Warn("DB_URL empty, using in-memory store with demo seed", "environment", a.cfg.AppEnv)
		db := memory.NewDB(clock)
		if err := memory.Seed(db); err != nil {
			return storage{}, fmt.Errorf("seed memory store: %w", err)
		}
		return storage{
			settlements: memory.NewSettlementStore(db),
			runs:        memory.NewRunRepository(db),
			locks:       memory.NewMarketLockRepository(db),
			trades:      memory.NewTradeStore(db),
			teams:       memory.NewTeamRepository(db),
			players:     memory.NewPlayerRepository(db),
			locker:      memory.NewAdvisoryLocker(),
		}, nil
	}

	db, err := openDatabase(ctx, a.cfg)
	if err != nil {
		return storage{}, err
	}
	a.closers = append(a.closers, db.Close)

	if a.cfg.AppEnv == config.EnvDev {
		if err := postgres.BootstrapSeed(ctx, db); err != nil {
			return storage{}, fmt.Errorf("bootstrap seed: %w", err)
		}
	}

	return postgresStorage(db), nil
}

func postgresStorage(db *sqlx.DB) storage {
	return storage{
		settlements: postgres.NewSettlementRepository(db),
		runs:        postgres.NewRunRepository(db),
		locks:       postgres.NewMarketLockRepository(db),
		trades:      postgres.NewTradeRepository(db),
		teams:       postgres.NewTeamRepository(db),
		players:     postgres.NewPlayerRepository(db),
		locker:      postgres.NewAdvisoryLocker(db),
	}
}

// HTTPServer builds the API server around the wired services.
func (a *App) HTTPServer() (*http.Server, error) {
	handler := httpapi.NewHandler(a.Settlement, a.MarketLock, a.Trades, a.Players, a.logger)

	routerCfg := httpapi.RouterConfig{
		CORSAllowedOrigins: a.cfg.CORSAllowedOrigins,
		CronKey:            a.cfg.CronKey,
	}
	if a.cfg.MetricsEnabled {
		routerCfg.MetricsHandler = a.Metrics.Handler()
	}
	router := httpapi.NewRouter(handler, a.Accounts, a.logger, routerCfg)

	server := &http.Server{
		Addr:         a.cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}

// Close drains pending notifications, then releases sinks and the database.
func (a *App) Close(timeout time.Duration) error {
	var errs []error
	if a.dispatcher != nil {
		if err := a.dispatcher.Close(timeout); err != nil {
			errs = append(errs, fmt.Errorf("close notification dispatcher: %w", err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	return errors.Join(errs...)
}
