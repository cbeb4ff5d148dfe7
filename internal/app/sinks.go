package app

import (
	"context"
	"fmt"

	"github.com/riskibarqy/fantasy-settlement/external/notify"
	"github.com/riskibarqy/fantasy-settlement/internal/config"
	"github.com/riskibarqy/fantasy-settlement/internal/usecase"
)

func (a *App) newNotificationSink(ctx context.Context) (usecase.NotificationSink, error) {
	cfg := a.cfg
	switch cfg.NotificationSink {
	case config.SinkQStash:
		sink, err := notify.NewQStashSink(notify.QStashSinkConfig{
			BaseURL:        cfg.QStashBaseURL,
			Token:          cfg.QStashToken,
			TargetURL:      cfg.QStashTargetURL,
			Retries:        cfg.QStashRetries,
			Logger:         a.logger,
			CircuitBreaker: cfg.QStashCircuit,
		})
		if err != nil {
			return nil, fmt.Errorf("build qstash sink: %w", err)
		}
		return sink, nil
	case config.SinkNATS:
		sink, err := notify.NewJetStreamSink(ctx, notify.JetStreamSinkConfig{
			URL:           cfg.NATSURL,
			StreamName:    cfg.NATSStream,
			SubjectPrefix: cfg.NATSSubjectPrefix,
			Logger:        a.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build nats sink: %w", err)
		}
		a.closers = append(a.closers, sink.Close)
		return sink, nil
	case config.SinkWebhook:
		sink, err := notify.NewWebhookSink(notify.WebhookSinkConfig{
			URL:     cfg.WebhookURL,
			Timeout: cfg.WebhookTimeout,
			Logger:  a.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build webhook sink: %w", err)
		}
		return sink, nil
	default:
		return notify.NewLogSink(a.logger), nil
	}
}
