package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/logging"
)

const (
	SinkNATS = "nats"

	defaultStreamName      = "FANTASY_SETTLEMENT"
	defaultSubjectPrefix   = "fantasy.settlement"
	defaultDuplicateWindow = 2 * time.Hour
)

type JetStreamSinkConfig struct {
	URL             string
	StreamName      string
	SubjectPrefix   string
	MaxAge          time.Duration
	DuplicateWindow time.Duration
	Logger          *logging.Logger
}

type jetStreamPublisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// JetStreamSink publishes intents to <prefix>.team.<teamID>. The stream
// de-duplicates on the intent id inside its duplicate window.
type JetStreamSink struct {
	nc            *nats.Conn
	js            jetStreamPublisher
	streamName    string
	subjectPrefix string
	logger        *logging.Logger
}

func NewJetStreamSink(ctx context.Context, cfg JetStreamSinkConfig) (*JetStreamSink, error) {
	cfg = normalizeJetStreamConfig(cfg)
	logger := cfg.Logger.With("component", "notification_sink", "sink", SinkNATS)

	nc, err := nats.Connect(cfg.URL,
		nats.Name("fantasy-settlement"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        cfg.StreamName,
		Description: "fantasy settlement notifications",
		Subjects:    []string{cfg.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		Storage:     jetstream.FileStorage,
		MaxAge:      cfg.MaxAge,
		Duplicates:  cfg.DuplicateWindow,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream %s: %w", cfg.StreamName, err)
	}

	return newJetStreamSink(nc, js, cfg, logger), nil
}

func newJetStreamSink(nc *nats.Conn, js jetStreamPublisher, cfg JetStreamSinkConfig, logger *logging.Logger) *JetStreamSink {
	return &JetStreamSink{
		nc:            nc,
		js:            js,
		streamName:    cfg.StreamName,
		subjectPrefix: cfg.SubjectPrefix,
		logger:        logger,
	}
}

func normalizeJetStreamConfig(cfg JetStreamSinkConfig) JetStreamSinkConfig {
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = nats.DefaultURL
	}
	if strings.TrimSpace(cfg.StreamName) == "" {
		cfg.StreamName = defaultStreamName
	}
	cfg.SubjectPrefix = strings.Trim(strings.TrimSpace(cfg.SubjectPrefix), ".")
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = defaultSubjectPrefix
	}
	if cfg.DuplicateWindow <= 0 {
		cfg.DuplicateWindow = defaultDuplicateWindow
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 7 * 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return cfg
}

func (s *JetStreamSink) Name() string { return SinkNATS }

func (s *JetStreamSink) Subject(teamID int64) string {
	return s.subjectPrefix + ".team." + strconv.FormatInt(teamID, 10)
}

func (s *JetStreamSink) Publish(ctx context.Context, intent settlement.NotificationIntent) error {
	body, err := encodeIntent(intent)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(s.Subject(intent.TeamID))
	msg.Data = body
	msg.Header.Set("Event-Type", eventTypePointsAwarded)
	msg.Header.Set("Content-Type", "application/json")

	ack, err := s.js.PublishMsg(ctx, msg,
		jetstream.WithMsgID(intent.ID),
		jetstream.WithExpectStream(s.streamName),
	)
	if err != nil {
		return fmt.Errorf("publish to jetstream subject=%s: %w", msg.Subject, err)
	}

	s.logger.DebugContext(ctx, "published to jetstream",
		"intent_id", intent.ID,
		"subject", msg.Subject,
		"stream", ack.Stream,
		"sequence", ack.Sequence,
		"duplicate", ack.Duplicate,
	)
	return nil
}

func (s *JetStreamSink) Close() error {
	if s.nc == nil {
		return nil
	}
	return s.nc.Drain()
}
