package usecase

import (
	"context"

	"github.com/riskibarqy/fantasy-settlement/internal/domain/account"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/game"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
	"github.com/shopspring/decimal"
)

// StatSource is the upstream box-score provider.
type StatSource interface {
	FetchGamesByDate(ctx context.Context, date string, season int) ([]game.Result, error)
	FetchTeamSeasonStats(ctx context.Context, teamID int64, season int) ([]game.PlayerStat, error)
}

// NotificationSink delivers one intent. Implementations should be idempotent on intent.ID.
type NotificationSink interface {
	Name() string
	Publish(ctx context.Context, intent settlement.NotificationIntent) error
}

// IntentDispatcher hands post-commit intents to the best-effort side channel.
type IntentDispatcher interface {
	Dispatch(ctx context.Context, intents []settlement.NotificationIntent)
}

// AccountVerifier resolves a bearer token to its owner. Invalid tokens wrap ErrUnauthorized.
type AccountVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (account.Principal, error)
}

// AdvisoryLocker takes a cross-process named lock without waiting.
// When acquired is false, unlock is nil.
type AdvisoryLocker interface {
	TryLock(ctx context.Context, name string) (unlock func(context.Context) error, acquired bool, err error)
}

// Metrics receives business counters; see observability.Metrics.
type Metrics interface {
	SettlementRun(status settlement.Status, games int, points decimal.Decimal)
	Trade(outcome string)
	Notification(sink, result string)
}

type nopMetrics struct{}

func (nopMetrics) SettlementRun(settlement.Status, int, decimal.Decimal) {}
func (nopMetrics) Trade(string) {}
func (nopMetrics) Notification(string, string) {}

func metricsOrNop(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
