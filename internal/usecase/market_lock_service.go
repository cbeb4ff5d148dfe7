package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/marketlock"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/logging"
)

const marketLockName = "market-lock:daily"

type MarketLockRefresh struct {
	Lock    marketlock.Lock
	Games   int
	Skipped bool
}

type MarketLockService struct {
	source StatSource
	repo   marketlock.Repository
	locker AdvisoryLocker
	clock  clockwork.Clock
	logger *logging.Logger
	policy marketlock.Policy
	season int
}

func NewMarketLockService(
	source StatSource,
	repo marketlock.Repository,
	locker AdvisoryLocker,
	clock clockwork.Clock,
	logger *logging.Logger,
	policy marketlock.Policy,
	season int,
) *MarketLockService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if policy.Location == nil {
		policy.Location = time.UTC
	}

	return &MarketLockService{
		source: source,
		repo:   repo,
		locker: locker,
		clock:  clock,
		logger: logger.With("component", "market_lock"),
		policy: policy,
		season: season,
	}
}

// Refresh computes today's window from the schedule and appends it.
func (s *MarketLockService) Refresh(ctx context.Context) (MarketLockRefresh, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MarketLockService.Refresh")
	defer span.End()

	unlock, acquired, err := s.locker.TryLock(ctx, marketLockName)
	if err != nil {
		return MarketLockRefresh{}, fmt.Errorf("%w: acquire market lock mutex: %w", ErrDependencyUnavailable, err)
	}
	if !acquired {
		s.logger.InfoContext(ctx, "market lock refresh skipped, lock held elsewhere")
		return MarketLockRefresh{Skipped: true}, nil
	}
	defer func() {
		if unlockErr := unlock(context.WithoutCancel(ctx)); unlockErr != nil {
			s.logger.WarnContext(ctx, "release market lock mutex failed", "error", unlockErr)
		}
	}()

	now := s.clock.Now()
	starts, err := s.todaysGameStarts(ctx, now)
	if err != nil {
		return MarketLockRefresh{}, err
	}

	lock, err := marketlock.Compute(s.policy, now, starts)
	if err != nil {
		return MarketLockRefresh{}, fmt.Errorf("compute market lock: %w", err)
	}
	saved, err := s.repo.Append(ctx, lock)
	if err != nil {
		return MarketLockRefresh{}, fmt.Errorf("append market lock: %w", err)
	}

	s.logger.InfoContext(ctx, "market lock refreshed",
		"lock_start", saved.LockStart.In(s.policy.Location),
		"lock_end", saved.LockEnd.In(s.policy.Location),
		"no_games_today", saved.NoGamesToday,
		"games", len(starts),
	)
	return MarketLockRefresh{Lock: saved, Games: len(starts)}, nil
}

// todaysGameStarts fetches the local day and the next one, since the provider
// buckets games by UTC date, and keeps games starting on the local day.
func (s *MarketLockService) todaysGameStarts(ctx context.Context, now time.Time) ([]time.Time, error) {
	local := now.In(s.policy.Location)
	today := local.Format(time.DateOnly)

	seen := make(map[int64]struct{})
	var starts []time.Time
	for _, day := range []time.Time{local, local.AddDate(0, 0, 1)} {
		date := day.Format(time.DateOnly)
		items, err := s.source.FetchGamesByDate(ctx, date, SeasonFor(s.season, day))
		if err != nil {
			return nil, fmt.Errorf("%w: fetch schedule for %s: %w", ErrDependencyUnavailable, date, err)
		}
		for _, item := range items {
			if item.StartTimeUTC.IsZero() || item.LocalDate(s.policy.Location) != today {
				continue
			}
			if _, ok := seen[item.GameID]; ok {
				continue
			}
			seen[item.GameID] = struct{}{}
			starts = append(starts, item.StartTimeUTC)
		}
	}
	return starts, nil
}

// Status reports the latest window evaluated at the current time.
func (s *MarketLockService) Status(ctx context.Context) (marketlock.Status, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MarketLockService.Status")
	defer span.End()

	latest, found, err := s.repo.Latest(ctx)
	if err != nil {
		return marketlock.Status{}, fmt.Errorf("read latest market lock: %w", err)
	}
	return marketlock.StatusAt(latest, found, s.clock.Now(), s.policy.Location), nil
}

func (s *MarketLockService) IsLocked(ctx context.Context) (bool, error) {
	status, err := s.Status(ctx)
	if err != nil {
		return false, err
	}
	return status.IsLocked, nil
}
