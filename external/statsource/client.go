package statsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/game"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/logging"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/resilience"
	"github.com/riskibarqy/fantasy-settlement/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const (
	defaultBaseURL   = "https://v2.nba.api-sports.io"
	defaultTimeout   = 15 * time.Second
	apiKeyHeader     = "x-apisports-key"
	maxResponseBytes = 8 << 20
)

var errStatSourceTransient = crerr.New("stat source transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads schedules and box scores from the basketball stats API.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	maxRetries   int
	retryBackoff time.Duration
	logger       *logging.Logger
	breaker      *resilience.CircuitBreaker
	flight       singleflight.Group
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	return &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		maxRetries:   max(cfg.MaxRetries, 0),
		retryBackoff: backoff,
		logger:       logger.With("component", "stat_source"),
		breaker:      resilience.NewFromConfig(cfg.CircuitBreaker),
	}
}

// FetchGamesByDate lists the games scheduled on date (YYYY-MM-DD, provider UTC bucket).
func (c *Client) FetchGamesByDate(ctx context.Context, date string, season int) ([]game.Result, error) {
	var payload envelope[gameItem]
	if err := c.doJSON(ctx, "/games", map[string]string{
		"date":   date,
		"season": strconv.Itoa(season),
	}, &payload); err != nil {
		return nil, fmt.Errorf("fetch games date=%s: %w", date, err)
	}

	out := make([]game.Result, 0, len(payload.Response))
	for _, item := range payload.Response {
		if item.ID <= 0 {
			continue
		}
		start, err := parseStartTime(item.Date.Start)
		if err != nil {
			c.logger.WarnContext(ctx, "skip game with unparseable start time", "game_id", item.ID, "start", item.Date.Start)
			continue
		}
		out = append(out, game.Result{
			GameID:       item.ID,
			HomeTeamID:   item.Teams.Home.ID,
			AwayTeamID:   item.Teams.Visitors.ID,
			Status:       strings.TrimSpace(item.Status.Long),
			StartTimeUTC: start,
		})
	}
	return out, nil
}

// FetchTeamSeasonStats returns every player box score line of teamID in season.
func (c *Client) FetchTeamSeasonStats(ctx context.Context, teamID int64, season int) ([]game.PlayerStat, error) {
	var payload envelope[statLineItem]
	if err := c.doJSON(ctx, "/players/statistics", map[string]string{
		"team":   strconv.FormatInt(teamID, 10),
		"season": strconv.Itoa(season),
	}, &payload); err != nil {
		return nil, fmt.Errorf("fetch stats team=%d season=%d: %w", teamID, season, err)
	}

	out := make([]game.PlayerStat, 0, len(payload.Response))
	for _, item := range payload.Response {
		if item.Player.ID <= 0 || item.Game.ID <= 0 {
			continue
		}
		out = append(out, game.PlayerStat{
			PlayerID:      item.Player.ID,
			GameID:        item.Game.ID,
			TeamID:        item.Team.ID,
			MinutesPlayed: parseMinutes(item.Min),
			Points:        item.Points,
			Rebounds:      item.TotReb,
			Assists:       item.Assists,
			Blocks:        item.Blocks,
			Steals:        item.Steals,
			Turnovers:     item.Turnovers,
		})
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "stat source circuit breaker rejected request", "state", c.breaker.State())
		return fmt.Errorf("%w: stat source is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if reqErr != nil && isTransient(reqErr) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode stat source payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set(apiKeyHeader, c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = crerr.Mark(fmt.Errorf("send request: %w", err), errStatSourceTransient)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = crerr.Mark(fmt.Errorf("read response body: %w", readErr), errStatSourceTransient)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = crerr.Mark(fmt.Errorf("stat source status=%d body=%s", resp.StatusCode, abbreviateBody(raw)), errStatSourceTransient)
			default:
				return nil, fmt.Errorf("stat source status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * c.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "stat source request failed", "url", fullURL, "attempts", c.maxRetries+1, "error", lastErr)
	return nil, lastErr
}

func isTransient(err error) bool {
	return crerr.Is(err, errStatSourceTransient)
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) <= limit {
		return body
	}
	return body[:limit] + "..."
}

func parseStartTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty start time")
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// parseMinutes accepts "34" or "34:12" and drops the seconds.
func parseMinutes(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if idx := strings.IndexByte(raw, ':'); idx >= 0 {
		raw = raw[:idx]
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes < 0 {
		return 0
	}
	return minutes
}
