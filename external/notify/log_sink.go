package notify

import (
	"context"

	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/logging"
)

const SinkLog = "log"

// LogSink writes each intent to the structured log. It is the default when no
// transport is configured.
type LogSink struct {
	logger *logging.Logger
}

func NewLogSink(logger *logging.Logger) *LogSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSink{logger: logger.With("component", "notification_sink", "sink", SinkLog)}
}

func (s *LogSink) Name() string { return SinkLog }

func (s *LogSink) Publish(ctx context.Context, intent settlement.NotificationIntent) error {
	s.logger.InfoContext(ctx, "team points awarded",
		"intent_id", intent.ID,
		"team_id", intent.TeamID,
		"owner_user_id", intent.OwnerUserID,
		"date", intent.DateKey,
		"points", intent.Points,
	)
	return nil
}
