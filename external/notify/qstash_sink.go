package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/logging"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/resilience"
	"github.com/riskibarqy/fantasy-settlement/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const SinkQStash = "qstash"

type QStashSinkConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	TargetURL      string
	Retries        int
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// QStashSink pushes intents through the QStash publish API, which then
// delivers them to TargetURL with its own retries.
type QStashSink struct {
	client     *http.Client
	publishURL string
	targetURL  string
	token      string
	retries    int
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
}

func NewQStashSink(cfg QStashSinkConfig) (*QStashSink, error) {
	baseURL, err := validateHTTPBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid QSTASH_BASE_URL")
	}
	targetURL, err := validateHTTPBaseURL(cfg.TargetURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid QSTASH_TARGET_URL")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, crerr.New("QSTASH_TOKEN is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &QStashSink{
		client:     client,
		publishURL: baseURL + "/v2/publish/" + targetURL,
		targetURL:  targetURL,
		token:      strings.TrimSpace(cfg.Token),
		retries:    max(cfg.Retries, 0),
		logger:     logger.With("component", "notification_sink", "sink", SinkQStash),
		breaker:    resilience.NewFromConfig(cfg.CircuitBreaker),
	}, nil
}

func (s *QStashSink) Name() string { return SinkQStash }

func (s *QStashSink) Publish(ctx context.Context, intent settlement.NotificationIntent) error {
	if err := s.breaker.Allow(); err != nil {
		s.logger.WarnContext(ctx, "qstash circuit breaker rejected request", "state", s.breaker.State())
		return fmt.Errorf("%w: qstash is temporarily unavailable: %w", usecase.ErrDependencyUnavailable, err)
	}

	body, err := encodeIntent(intent)
	if err != nil {
		return err
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("qstash.publish_url", s.publishURL),
			attribute.String("qstash.target_url", s.targetURL),
			attribute.String("qstash.deduplication_id", intent.ID),
		)
	}
	s.logger.DebugContext(ctx, "qstash publish request",
		"intent_id", intent.ID,
		"curl_preview", buildQStashCurlPreview(s.publishURL, s.retries, intent.ID, truncateForLog(string(body), 4096)),
	)

	callErr := s.publish(ctx, intent.ID, body)
	s.recordCircuitResult(callErr)
	if callErr != nil {
		return callErr
	}

	s.logger.DebugContext(ctx, "qstash message published", "intent_id", intent.ID, "team_id", intent.TeamID)
	return nil
}

func (s *QStashSink) publish(ctx context.Context, dedupID string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.publishURL, bytes.NewReader(body))
	if err != nil {
		return crerr.Wrap(err, "create qstash request")
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Upstash-Method", http.MethodPost)
	req.Header.Set("Upstash-Deduplication-Id", dedupID)
	if s.retries > 0 {
		req.Header.Set("Upstash-Retries", strconv.Itoa(s.retries))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return crerr.Mark(fmt.Errorf("publish qstash message target_url=%s: %w", s.targetURL, err), errSinkTransient)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 == 2 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	callErr := fmt.Errorf("publish qstash message status=%d target_url=%s body=%s",
		resp.StatusCode,
		s.targetURL,
		strings.TrimSpace(string(raw)),
	)
	if isRetryableStatus(resp.StatusCode) {
		return crerr.Mark(callErr, errSinkTransient)
	}
	return callErr
}

func (s *QStashSink) recordCircuitResult(err error) {
	if err != nil && IsTransient(err) {
		s.breaker.RecordFailure()
		return
	}
	s.breaker.RecordSuccess()
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

// buildQStashCurlPreview renders the request for debug logs with the token masked.
func buildQStashCurlPreview(publishURL string, retries int, dedupID, body string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	appendHeader := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl -X POST")
	appendPart(shellQuote(publishURL))
	appendHeader("Authorization: Bearer ***")
	appendHeader("Content-Type: application/json")
	appendHeader("Upstash-Method: POST")
	appendHeader("Upstash-Deduplication-Id: " + dedupID)
	if retries > 0 {
		appendHeader("Upstash-Retries: " + strconv.Itoa(retries))
	}
	appendPart("-d")
	appendPart(shellQuote(body))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
