package usecase

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/game"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/scoring"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/id"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/logging"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
)

const (
	settlementLockName                = "settlement:daily"
	defaultSettlementFetchConcurrency = 4
)

type SettlementConfig struct {
	Location *time.Location
	// Season pins the stat-source season; zero derives it from the game date.
	Season           int
	FetchConcurrency int
}

type SettlementService struct {
	source     StatSource
	store      settlement.Store
	runs       settlement.RunRepository
	locker     AdvisoryLocker
	dispatcher IntentDispatcher
	ids        id.Generator
	clock      clockwork.Clock
	metrics    Metrics
	logger     *logging.Logger
	cfg        SettlementConfig
}

func NewSettlementService(
	source StatSource,
	store settlement.Store,
	runs settlement.RunRepository,
	locker AdvisoryLocker,
	dispatcher IntentDispatcher,
	ids id.Generator,
	clock clockwork.Clock,
	metrics Metrics,
	logger *logging.Logger,
	cfg SettlementConfig,
) *SettlementService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = defaultSettlementFetchConcurrency
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &SettlementService{
		source:     source,
		store:      store,
		runs:       runs,
		locker:     locker,
		dispatcher: dispatcher,
		ids:        ids,
		clock:      clock,
		metrics:    metricsOrNop(metrics),
		logger:     logger.With("component", "settlement"),
		cfg:        cfg,
	}
}

// Run executes one settlement cycle. A cycle skipped because another process
// holds the advisory lock is not an error.
func (s *SettlementService) Run(ctx context.Context, trigger settlement.Trigger) (settlement.Run, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.Run")
	defer span.End()

	runID, err := s.ids.NewID()
	if err != nil {
		return settlement.Run{}, fmt.Errorf("generate run id: %w", err)
	}
	run := settlement.Run{
		ID:            runID,
		Trigger:       trigger,
		StartedAt:     s.clock.Now(),
		PointsAwarded: decimal.Zero,
	}

	unlock, acquired, err := s.locker.TryLock(ctx, settlementLockName)
	if err != nil {
		err = fmt.Errorf("%w: acquire settlement lock: %w", ErrDependencyUnavailable, err)
		s.finish(ctx, &run, settlement.StateFetching, err)
		return run, err
	}
	if !acquired {
		run.Status = settlement.StatusSkipped
		run.FinalState = settlement.StateDone
		run.FinishedAt = s.clock.Now()
		s.logger.InfoContext(ctx, "settlement skipped, lock held elsewhere", "run_id", run.ID, "trigger", trigger)
		s.metrics.SettlementRun(run.Status, 0, decimal.Zero)
		s.record(ctx, run)
		return run, nil
	}
	defer func() {
		if unlockErr := unlock(context.WithoutCancel(ctx)); unlockErr != nil {
			s.logger.WarnContext(ctx, "release settlement lock failed", "run_id", run.ID, "error", unlockErr)
		}
	}()

	state, err := s.execute(ctx, &run)
	s.finish(ctx, &run, state, err)
	if err != nil {
		return run, err
	}

	if len(run.Intents) > 0 && s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, run.Intents)
	}
	return run, nil
}

func (s *SettlementService) finish(ctx context.Context, run *settlement.Run, state settlement.State, err error) {
	run.FinishedAt = s.clock.Now()
	if err != nil {
		run.Status = settlement.StatusAborted
		run.FinalState = settlement.StateAborted
		run.Error = err.Error()
		run.Intents = nil
		s.logger.ErrorContext(ctx, "settlement aborted",
			"run_id", run.ID,
			"state", state,
			"error", err,
		)
	} else {
		run.Status = settlement.StatusDone
		run.FinalState = settlement.StateDone
		s.logger.InfoContext(ctx, "settlement finished",
			"run_id", run.ID,
			"games_settled", run.GamesSettled,
			"teams_credited", run.TeamsCredited,
			"points_awarded", run.PointsAwarded,
			"skipped_lines", run.SkippedLines,
			"duration", run.FinishedAt.Sub(run.StartedAt),
		)
	}
	s.metrics.SettlementRun(run.Status, run.GamesSettled, run.PointsAwarded)
	s.record(ctx, *run)
}

func (s *SettlementService) record(ctx context.Context, run settlement.Run) {
	if s.runs == nil {
		return
	}
	if err := s.runs.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		s.logger.WarnContext(ctx, "record settlement run failed", "run_id", run.ID, "error", err)
	}
}

// execute walks the run through its states and returns the state it stopped in.
func (s *SettlementService) execute(ctx context.Context, run *settlement.Run) (settlement.State, error) {
	games, err := s.fetchFinishedGames(ctx)
	if err != nil {
		return settlement.StateFetching, err
	}
	if len(games) == 0 {
		s.logger.InfoContext(ctx, "no finished games to settle", "run_id", run.ID)
		return settlement.StateDone, nil
	}

	processed, err := s.store.ProcessedGameIDs(ctx, gameIDs(games))
	if err != nil {
		return settlement.StateFiltering, fmt.Errorf("read processed games: %w", err)
	}
	pending := withoutProcessed(games, processed)
	if len(pending) == 0 {
		s.logger.InfoContext(ctx, "all finished games already settled", "run_id", run.ID, "games", len(games))
		return settlement.StateDone, nil
	}

	stats, err := s.fetchStats(ctx, pending)
	if err != nil {
		return settlement.StateDeduping, err
	}

	var acc *accrual
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx settlement.Tx) error {
		acc, err = s.settle(ctx, tx, pending, stats)
		return err
	})
	if err != nil {
		return settlement.StateFinalizing, fmt.Errorf("settle games: %w", err)
	}

	run.GamesSettled = len(acc.gameIDs)
	run.SkippedLines = acc.skipped
	run.TeamsCredited = len(acc.teamTotals)
	run.PointsAwarded = acc.total()
	intents, err := s.buildIntents(acc)
	if err != nil {
		// the ledger is committed; only the notifications are lost
		s.logger.WarnContext(ctx, "build notification intents failed", "run_id", run.ID, "error", err)
	}
	run.Intents = intents
	return settlement.StateDone, nil
}

func (s *SettlementService) fetchFinishedGames(ctx context.Context) ([]game.Result, error) {
	today := s.clock.Now().In(s.cfg.Location)
	yesterday := today.AddDate(0, 0, -1)

	var all []game.Result
	for _, day := range []time.Time{yesterday, today} {
		date := day.Format(time.DateOnly)
		items, err := s.source.FetchGamesByDate(ctx, date, s.seasonFor(day))
		if err != nil {
			return nil, fmt.Errorf("%w: fetch games for %s: %w", ErrDependencyUnavailable, date, err)
		}
		all = append(all, items...)
	}
	return game.FilterFinished(all), nil
}

type teamSeason struct {
	teamID int64
	season int
}

// fetchStats loads each team's season box scores once and keeps the lines of
// pending games. The memo lives for this call only.
func (s *SettlementService) fetchStats(ctx context.Context, pending []game.Result) ([]game.PlayerStat, error) {
	var (
		mu   sync.Mutex
		memo = make(map[teamSeason][]game.PlayerStat)
	)

	keys := make([]teamSeason, 0, len(pending)*2)
	seen := make(map[teamSeason]struct{}, len(pending)*2)
	for _, g := range pending {
		season := s.seasonFor(g.StartTimeUTC.In(s.cfg.Location))
		for _, teamID := range g.TeamIDs() {
			key := teamSeason{teamID: teamID, season: season}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}

	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(s.cfg.FetchConcurrency)
	for _, key := range keys {
		p.Go(func(ctx context.Context) error {
			items, err := s.source.FetchTeamSeasonStats(ctx, key.teamID, key.season)
			if err != nil {
				return fmt.Errorf("%w: fetch stats for team %d: %w", ErrDependencyUnavailable, key.teamID, err)
			}
			mu.Lock()
			memo[key] = items
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	wanted := make(map[int64]struct{}, len(pending))
	for _, g := range pending {
		wanted[g.GameID] = struct{}{}
	}

	lineSeen := make(map[settlement.EventKey]struct{})
	var out []game.PlayerStat
	for _, key := range keys {
		for _, stat := range memo[key] {
			if _, ok := wanted[stat.GameID]; !ok {
				continue
			}
			k := settlement.EventKey{PlayerID: stat.PlayerID, GameID: stat.GameID}
			if _, dup := lineSeen[k]; dup {
				continue
			}
			lineSeen[k] = struct{}{}
			out = append(out, stat)
		}
	}
	return out, nil
}

type accrual struct {
	gameIDs     []int64
	skipped     int
	teamPlayer  map[settlement.TeamPlayerKey]decimal.Decimal
	teamDay     map[settlement.TeamDayKey]decimal.Decimal
	teamTotals  map[int64]decimal.Decimal
	teamOwners  map[int64]string
	teamLastDay map[int64]string
}

func newAccrual() *accrual {
	return &accrual{
		teamPlayer:  make(map[settlement.TeamPlayerKey]decimal.Decimal),
		teamDay:     make(map[settlement.TeamDayKey]decimal.Decimal),
		teamTotals:  make(map[int64]decimal.Decimal),
		teamOwners:  make(map[int64]string),
		teamLastDay: make(map[int64]string),
	}
}

func (a *accrual) add(h fantasy.Holding, dateKey string, amount decimal.Decimal) {
	tp := settlement.TeamPlayerKey{TeamID: h.TeamID, PlayerID: h.PlayerID, DateKey: dateKey}
	a.teamPlayer[tp] = a.teamPlayer[tp].Add(amount)

	td := settlement.TeamDayKey{TeamID: h.TeamID, DateKey: dateKey}
	a.teamDay[td] = a.teamDay[td].Add(amount)

	a.teamTotals[h.TeamID] = a.teamTotals[h.TeamID].Add(amount)
	a.teamOwners[h.TeamID] = h.OwnerUserID
	if dateKey > a.teamLastDay[h.TeamID] {
		a.teamLastDay[h.TeamID] = dateKey
	}
}

func (a *accrual) total() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range a.teamTotals {
		sum = sum.Add(v)
	}
	return sum
}

// settle runs inside the ledger transaction: authoritative filtering, event
// inserts, in-memory accumulation, then one net write per key.
func (s *SettlementService) settle(
	ctx context.Context,
	tx settlement.Tx,
	pending []game.Result,
	stats []game.PlayerStat,
) (*accrual, error) {
	acc := newAccrual()

	processed, err := tx.ProcessedGameIDs(ctx, gameIDs(pending))
	if err != nil {
		return nil, fmt.Errorf("re-read processed games: %w", err)
	}
	pending = withoutProcessed(pending, processed)
	if len(pending) == 0 {
		return acc, nil
	}

	dateByGame := make(map[int64]string, len(pending))
	for _, g := range pending {
		dateByGame[g.GameID] = g.LocalDate(s.cfg.Location)
	}

	var events []settlement.PointEvent
	for _, stat := range stats {
		dateKey, ok := dateByGame[stat.GameID]
		if !ok {
			continue
		}
		points, reason := scoring.Score(stat)
		if reason != scoring.SkipNone {
			acc.skipped++
			s.logger.DebugContext(ctx, "stat line excluded from scoring",
				"player_id", stat.PlayerID,
				"game_id", stat.GameID,
				"minutes", stat.MinutesPlayed,
				"raw_score", points,
				"reason", reason,
			)
			continue
		}

		event := settlement.PointEvent{PlayerID: stat.PlayerID, GameID: stat.GameID, DateKey: dateKey, Points: points}
		inserted, err := tx.InsertPointEvent(ctx, event)
		if err != nil {
			return nil, fmt.Errorf("insert point event player=%d game=%d: %w", stat.PlayerID, stat.GameID, err)
		}
		if !inserted {
			continue
		}
		events = append(events, event)
	}

	if len(events) > 0 {
		holdings, err := tx.HoldingsByPlayers(ctx, eventPlayerIDs(events))
		if err != nil {
			return nil, fmt.Errorf("load roster holdings: %w", err)
		}
		byPlayer := make(map[int64][]fantasy.Holding, len(holdings))
		for _, h := range holdings {
			byPlayer[h.PlayerID] = append(byPlayer[h.PlayerID], h)
		}
		for _, event := range events {
			for _, h := range byPlayer[event.PlayerID] {
				acc.add(h, event.DateKey, scoring.Award(event.Points, h.IsCaptain))
			}
		}
	}

	if err := s.finalize(ctx, tx, acc); err != nil {
		return nil, err
	}

	acc.gameIDs = gameIDs(pending)
	if err := tx.MarkGamesProcessed(ctx, acc.gameIDs, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("mark games processed: %w", err)
	}
	return acc, nil
}

// finalize writes in ascending team order so concurrent writers lock rows consistently.
func (s *SettlementService) finalize(ctx context.Context, tx settlement.Tx, acc *accrual) error {
	tpKeys := make([]settlement.TeamPlayerKey, 0, len(acc.teamPlayer))
	for k := range acc.teamPlayer {
		tpKeys = append(tpKeys, k)
	}
	slices.SortFunc(tpKeys, func(a, b settlement.TeamPlayerKey) int {
		if a.TeamID != b.TeamID {
			return cmp.Compare(a.TeamID, b.TeamID)
		}
		if a.PlayerID != b.PlayerID {
			return cmp.Compare(a.PlayerID, b.PlayerID)
		}
		return cmp.Compare(a.DateKey, b.DateKey)
	})
	for _, k := range tpKeys {
		points := acc.teamPlayer[k]
		if points.IsZero() {
			continue
		}
		if err := tx.AddTeamPlayerDailyPoints(ctx, k, points); err != nil {
			return fmt.Errorf("add team player daily points team=%d player=%d: %w", k.TeamID, k.PlayerID, err)
		}
		if err := tx.AddRosterSlotPoints(ctx, k.TeamID, k.PlayerID, points); err != nil {
			return fmt.Errorf("add roster slot points team=%d player=%d: %w", k.TeamID, k.PlayerID, err)
		}
	}

	teamIDs := make([]int64, 0, len(acc.teamTotals))
	for teamID, total := range acc.teamTotals {
		if total.IsZero() {
			delete(acc.teamTotals, teamID)
			continue
		}
		teamIDs = append(teamIDs, teamID)
	}
	slices.Sort(teamIDs)
	for _, teamID := range teamIDs {
		if err := tx.AddTeamPoints(ctx, teamID, acc.teamTotals[teamID]); err != nil {
			return fmt.Errorf("add team points team=%d: %w", teamID, err)
		}
	}

	tdKeys := make([]settlement.TeamDayKey, 0, len(acc.teamDay))
	for k := range acc.teamDay {
		tdKeys = append(tdKeys, k)
	}
	slices.SortFunc(tdKeys, func(a, b settlement.TeamDayKey) int {
		if a.TeamID != b.TeamID {
			return cmp.Compare(a.TeamID, b.TeamID)
		}
		return cmp.Compare(a.DateKey, b.DateKey)
	})
	for _, k := range tdKeys {
		points := acc.teamDay[k]
		if points.IsZero() {
			continue
		}
		if err := tx.AddTeamDailyPoints(ctx, k, points); err != nil {
			return fmt.Errorf("add team daily points team=%d: %w", k.TeamID, err)
		}
	}
	return nil
}

func (s *SettlementService) buildIntents(acc *accrual) ([]settlement.NotificationIntent, error) {
	if acc == nil || len(acc.teamTotals) == 0 {
		return nil, nil
	}
	teamIDs := make([]int64, 0, len(acc.teamTotals))
	for teamID := range acc.teamTotals {
		teamIDs = append(teamIDs, teamID)
	}
	slices.Sort(teamIDs)

	now := s.clock.Now()
	out := make([]settlement.NotificationIntent, 0, len(teamIDs))
	for _, teamID := range teamIDs {
		intentID, err := s.ids.NewID()
		if err != nil {
			return nil, fmt.Errorf("generate intent id: %w", err)
		}
		out = append(out, settlement.NotificationIntent{
			ID:          intentID,
			TeamID:      teamID,
			OwnerUserID: acc.teamOwners[teamID],
			DateKey:     acc.teamLastDay[teamID],
			Points:      acc.teamTotals[teamID],
			CreatedAt:   now,
		})
	}
	return out, nil
}

// seasonFor returns the configured season or the year the season containing day started.
// Seasons start in October.
func (s *SettlementService) seasonFor(day time.Time) int {
	return SeasonFor(s.cfg.Season, day)
}

func SeasonFor(configured int, day time.Time) int {
	if configured > 0 {
		return configured
	}
	if day.Month() >= time.October {
		return day.Year()
	}
	return day.Year() - 1
}

func gameIDs(items []game.Result) []int64 {
	out := make([]int64, 0, len(items))
	for _, item := range items {
		out = append(out, item.GameID)
	}
	return out
}

func withoutProcessed(items []game.Result, processed map[int64]struct{}) []game.Result {
	if len(processed) == 0 {
		return items
	}
	out := make([]game.Result, 0, len(items))
	for _, item := range items {
		if _, ok := processed[item.GameID]; ok {
			continue
		}
		out = append(out, item)
	}
	return out
}

func eventPlayerIDs(events []settlement.PointEvent) []int64 {
	seen := make(map[int64]struct{}, len(events))
	out := make([]int64, 0, len(events))
	for _, e := range events {
		if _, ok := seen[e.PlayerID]; ok {
			continue
		}
		seen[e.PlayerID] = struct{}{}
		out = append(out, e.PlayerID)
	}
	return out
}
