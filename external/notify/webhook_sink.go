package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/logging"
	"github.com/valyala/fasthttp"
)

const (
	SinkWebhook = "webhook"

	idempotencyKeyHeader = "Idempotency-Key"
)

type WebhookSinkConfig struct {
	URL     string
	Timeout time.Duration
	Logger  *logging.Logger
}

// WebhookSink POSTs each intent as JSON to a fixed URL.
type WebhookSink struct {
	client  *fasthttp.Client
	url     string
	timeout time.Duration
	logger  *logging.Logger
}

func NewWebhookSink(cfg WebhookSinkConfig) (*WebhookSink, error) {
	target, err := validateHTTPBaseURL(cfg.URL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid WEBHOOK_URL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &WebhookSink{
		client: &fasthttp.Client{
			Name:                "fantasy-settlement",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		url:     target,
		timeout: timeout,
		logger:  logger.With("component", "notification_sink", "sink", SinkWebhook),
	}, nil
}

func (s *WebhookSink) Name() string { return SinkWebhook }

func (s *WebhookSink) Publish(ctx context.Context, intent settlement.NotificationIntent) error {
	body, err := encodeIntent(intent)
	if err != nil {
		return err
	}

	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	if timeout <= 0 {
		return crerr.Mark(fmt.Errorf("webhook deadline exceeded before send"), errSinkTransient)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set(idempotencyKeyHeader, intent.ID)
	req.SetBodyRaw(body)

	if err := s.client.DoTimeout(req, resp, timeout); err != nil {
		return crerr.Mark(fmt.Errorf("post webhook: %w", err), errSinkTransient)
	}

	status := resp.StatusCode()
	if status/100 == 2 {
		s.logger.DebugContext(ctx, "webhook delivered", "intent_id", intent.ID, "status", status)
		return nil
	}

	callErr := fmt.Errorf("webhook status=%d body=%s", status, truncateForLog(strings.TrimSpace(string(resp.Body())), 512))
	if isRetryableStatus(status) {
		return crerr.Mark(callErr, errSinkTransient)
	}
	return callErr
}
