package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riskibarqy/fantasy-settlement/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/trade"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/id"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/logging"
)

const tradeOutcomeApplied = "applied"

// LockChecker answers whether trades are frozen right now.
type LockChecker interface {
	IsLocked(ctx context.Context) (bool, error)
}

type TradeService struct {
	store    trade.Store
	teams    fantasy.Repository
	locks    LockChecker
	ids      id.Generator
	metrics  Metrics
	logger   *logging.Logger
	rules    fantasy.Rules
	location *time.Location
}

func NewTradeService(
	store trade.Store,
	teams fantasy.Repository,
	locks LockChecker,
	ids id.Generator,
	metrics Metrics,
	logger *logging.Logger,
	rules fantasy.Rules,
	location *time.Location,
) *TradeService {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if location == nil {
		location = time.UTC
	}
	if rules.DailyTradeQuota <= 0 {
		rules = fantasy.DefaultRules()
	}

	return &TradeService{
		store:    store,
		teams:    teams,
		locks:    locks,
		ids:      ids,
		metrics:  metricsOrNop(metrics),
		logger:   logger.With("component", "trade_ledger"),
		rules:    rules,
		location: location,
	}
}

// ApplyTrades applies drops then adds as one atomic batch.
func (s *TradeService) ApplyTrades(ctx context.Context, in trade.Input) (trade.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TradeService.ApplyTrades")
	defer span.End()

	return s.apply(ctx, in, nil)
}

// AddPlayer adds a single player, rejecting one already rostered before any transaction opens.
func (s *TradeService) AddPlayer(ctx context.Context, ownerUserID string, teamID, playerID int64) (trade.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TradeService.AddPlayer")
	defer span.End()

	in := trade.Input{OwnerUserID: ownerUserID, TeamID: teamID, Add: []int64{playerID}}
	return s.apply(ctx, in, func(ctx context.Context) error {
		onRoster, err := s.teams.IsOnRoster(ctx, teamID, playerID)
		if err != nil {
			return fmt.Errorf("check roster membership: %w", err)
		}
		if onRoster {
			return trade.RejectPlayer(trade.ReasonDuplicateRosterEntry, playerID)
		}
		return nil
	})
}

func (s *TradeService) DropPlayer(ctx context.Context, ownerUserID string, teamID, playerID int64) (trade.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TradeService.DropPlayer")
	defer span.End()

	return s.apply(ctx, trade.Input{OwnerUserID: ownerUserID, TeamID: teamID, Drop: []int64{playerID}}, nil)
}

func (s *TradeService) apply(ctx context.Context, in trade.Input, precheck func(context.Context) error) (trade.Result, error) {
	result, err := s.applyOnce(ctx, in, precheck)
	if err != nil {
		if reason, ok := trade.ReasonOf(err); ok {
			s.metrics.Trade(string(reason))
			s.logger.InfoContext(ctx, "trade rejected",
				"team_id", in.TeamID,
				"owner_user_id", in.OwnerUserID,
				"reason", reason,
				"error", err,
			)
		} else {
			s.metrics.Trade("error")
			if !errors.Is(err, ErrInvalidInput) {
				s.logger.ErrorContext(ctx, "trade failed", "team_id", in.TeamID, "error", err)
			}
		}
		return trade.Result{}, err
	}

	s.metrics.Trade(tradeOutcomeApplied)
	s.logger.InfoContext(ctx, "trade applied",
		"team_id", result.TeamID,
		"added", result.Added,
		"dropped", result.Dropped,
		"budget", result.Budget,
		"settled_at", result.SettledAt,
	)
	return result, nil
}

func (s *TradeService) applyOnce(ctx context.Context, in trade.Input, precheck func(context.Context) error) (trade.Result, error) {
	if err := in.Validate(); err != nil {
		return trade.Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if in.Size() == 0 {
		return trade.Result{}, trade.Reject(trade.ReasonEmptyTrade, "")
	}

	locked, err := s.locks.IsLocked(ctx)
	if err != nil {
		return trade.Result{}, fmt.Errorf("check market lock: %w", err)
	}
	if locked {
		return trade.Result{}, trade.Reject(trade.ReasonMarketLocked, "")
	}

	if precheck != nil {
		if err := precheck(ctx); err != nil {
			return trade.Result{}, err
		}
	}

	var result trade.Result
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx trade.Tx) error {
		var txErr error
		result, txErr = s.applyInTx(ctx, tx, in)
		return txErr
	})
	if err != nil {
		return trade.Result{}, err
	}
	return result, nil
}

func (s *TradeService) applyInTx(ctx context.Context, tx trade.Tx, in trade.Input) (trade.Result, error) {
	team, found, err := tx.LockTeam(ctx, in.TeamID, in.OwnerUserID)
	if err != nil {
		return trade.Result{}, fmt.Errorf("lock team: %w", err)
	}
	if !found {
		return trade.Result{}, trade.Reject(trade.ReasonNoTeam, fmt.Sprintf("team %d", in.TeamID))
	}

	now, err := tx.Now(ctx)
	if err != nil {
		return trade.Result{}, fmt.Errorf("read transaction clock: %w", err)
	}
	from, to := QuotaDay(now, s.location)
	used, err := tx.CountMovements(ctx, team.ID, from, to)
	if err != nil {
		return trade.Result{}, fmt.Errorf("count trades today: %w", err)
	}
	if err := s.rules.CheckQuota(used, in.Size()); err != nil {
		return trade.Result{}, trade.Reject(trade.ReasonQuotaExceeded, fmt.Sprintf("used=%d requested=%d quota=%d", used, in.Size(), s.rules.DailyTradeQuota))
	}

	leagueIDs, err := tx.LeagueIDs(ctx, team.ID)
	if err != nil {
		return trade.Result{}, fmt.Errorf("list team leagues: %w", err)
	}

	budget := team.Budget
	records := make([]trade.Record, 0, in.Size()*max(1, len(leagueIDs)))

	for _, playerID := range in.Drop {
		slot, existed, err := tx.DeleteRosterSlot(ctx, team.ID, playerID)
		if err != nil {
			return trade.Result{}, fmt.Errorf("delete roster slot player=%d: %w", playerID, err)
		}
		if existed {
			budget = fantasy.Refund(budget, slot.AcquiredPrice)
		} else {
			s.logger.DebugContext(ctx, "dropped player was not on roster, no refund", "team_id", team.ID, "player_id", playerID)
		}
		dropped, err := s.movementRecords(team.ID, playerID, trade.ActionDrop, leagueIDs, now)
		if err != nil {
			return trade.Result{}, err
		}
		records = append(records, dropped...)
	}

	for _, playerID := range in.Add {
		p, known, err := tx.GetPlayer(ctx, playerID)
		if err != nil {
			return trade.Result{}, fmt.Errorf("get player %d: %w", playerID, err)
		}
		if !known {
			return trade.Result{}, trade.RejectPlayer(trade.ReasonUnknownPlayer, playerID)
		}

		next, err := fantasy.Debit(budget, p.Price)
		if err != nil {
			return trade.Result{}, &trade.RejectionError{
				Reason:   trade.ReasonInsufficientBudget,
				PlayerID: playerID,
				Detail:   fmt.Sprintf("budget=%s price=%s", budget.StringFixed(2), p.Price.StringFixed(2)),
			}
		}

		err = tx.InsertRosterSlot(ctx, fantasy.RosterSlot{
			TeamID:        team.ID,
			PlayerID:      playerID,
			AcquiredPrice: p.Price,
			AcquiredAt:    now,
		})
		if errors.Is(err, trade.ErrDuplicateRosterEntry) {
			return trade.Result{}, trade.RejectPlayer(trade.ReasonDuplicateRosterEntry, playerID)
		}
		if err != nil {
			return trade.Result{}, fmt.Errorf("insert roster slot player=%d: %w", playerID, err)
		}

		budget = next
		added, err := s.movementRecords(team.ID, playerID, trade.ActionAdd, leagueIDs, now)
		if err != nil {
			return trade.Result{}, err
		}
		records = append(records, added...)
	}

	if budget.IsNegative() {
		return trade.Result{}, fmt.Errorf("%w: team=%d budget=%s", fantasy.ErrNegativeBudget, team.ID, budget)
	}
	if err := tx.SetBudget(ctx, team.ID, budget); err != nil {
		return trade.Result{}, fmt.Errorf("update budget: %w", err)
	}
	if err := tx.InsertRecords(ctx, records); err != nil {
		return trade.Result{}, fmt.Errorf("insert trade records: %w", err)
	}

	return trade.Result{
		TeamID:    team.ID,
		Budget:    budget,
		Added:     append([]int64(nil), in.Add...),
		Dropped:   append([]int64(nil), in.Drop...),
		SettledAt: now,
		Records:   records,
	}, nil
}

// movementRecords fans one movement out to one record per league, or a single
// league-less record when the team is in none.
func (s *TradeService) movementRecords(teamID, playerID int64, action trade.Action, leagueIDs []int64, at time.Time) ([]trade.Record, error) {
	movementID, err := s.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate movement id: %w", err)
	}

	targets := make([]*int64, 0, max(1, len(leagueIDs)))
	for _, leagueID := range leagueIDs {
		targets = append(targets, &leagueID)
	}
	if len(targets) == 0 {
		targets = append(targets, nil)
	}

	out := make([]trade.Record, 0, len(targets))
	for _, leagueID := range targets {
		recordID, err := s.ids.NewID()
		if err != nil {
			return nil, fmt.Errorf("generate trade record id: %w", err)
		}
		out = append(out, trade.Record{
			ID:         recordID,
			MovementID: movementID,
			TeamID:     teamID,
			PlayerID:   playerID,
			Action:     action,
			LeagueID:   leagueID,
			CreatedAt:  at,
		})
	}
	return out, nil
}

// QuotaDay is the local calendar day containing now, as a [from, to) range.
func QuotaDay(now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	to := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	return from, to
}
