package anubis

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/account"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/cache"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/logging"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/resilience"
	"github.com/riskibarqy/fantasy-settlement/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultIntrospectPath = "/v1/auth/introspect"
	defaultTimeout        = 5 * time.Second
	defaultCacheTTL       = time.Minute
	adminKeyHeader        = "x-admin-key"
)

var errAnubisTransient = crerr.New("anubis transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	IntrospectPath string
	AdminKey       string
	Timeout        time.Duration
	CacheTTL       time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client verifies bearer tokens against the account service introspection
// endpoint. Active principals are cached by token hash.
type Client struct {
	httpClient    *http.Client
	introspectURL string
	adminKey      string
	logger        *logging.Logger
	breaker       *resilience.CircuitBreaker
	principals    *cache.Store[account.Principal]
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
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	path := cfg.IntrospectPath
	if strings.TrimSpace(path) == "" {
		path = defaultIntrospectPath
	}

	return &Client{
		httpClient:    httpClient,
		introspectURL: buildURL(cfg.BaseURL, path),
		adminKey:      strings.TrimSpace(cfg.AdminKey),
		logger:        logger.With("component", "anubis_client"),
		breaker:       resilience.NewFromConfig(cfg.CircuitBreaker),
		principals:    cache.NewStore[account.Principal](ttl),
	}
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (account.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return account.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	return c.principals.GetOrLoad(ctx, hashToken(token), func(ctx context.Context) (account.Principal, error) {
		return c.introspect(ctx, token)
	})
}

func (c *Client) introspect(ctx context.Context, token string) (account.Principal, error) {
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "anubis circuit breaker rejected request", "state", c.breaker.State())
		return account.Principal{}, fmt.Errorf("%w: anubis is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}

	principal, err := c.doIntrospect(ctx, token)
	if err != nil && isTransient(err) {
		c.breaker.RecordFailure()
		return account.Principal{}, fmt.Errorf("%w: %w", usecase.ErrDependencyUnavailable, err)
	}
	c.breaker.RecordSuccess()
	return principal, err
}

func (c *Client) doIntrospect(ctx context.Context, token string) (account.Principal, error) {
	encoded, err := sonic.Marshal(introspectRequest{Token: token})
	if err != nil {
		return account.Principal{}, fmt.Errorf("marshal introspect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectURL, bytes.NewReader(encoded))
	if err != nil {
		return account.Principal{}, fmt.Errorf("create introspect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.adminKey != "" {
		req.Header.Set(adminKeyHeader, c.adminKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return account.Principal{}, crerr.Mark(fmt.Errorf("request introspection: %w", err), errAnubisTransient)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return account.Principal{}, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return account.Principal{}, crerr.Mark(fmt.Errorf("read introspect response: %w", err), errAnubisTransient)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "anubis introspection non-200", "status_code", resp.StatusCode)
		callErr := fmt.Errorf("anubis introspection failed with status %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return account.Principal{}, crerr.Mark(callErr, errAnubisTransient)
		}
		return account.Principal{}, callErr
	}

	var decoded introspectResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return account.Principal{}, fmt.Errorf("unmarshal introspect response: %w", err)
	}
	if !decoded.Active {
		return account.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}
	if strings.TrimSpace(decoded.UserID) == "" {
		return account.Principal{}, fmt.Errorf("invalid introspect response: user_id is empty")
	}

	return account.Principal{
		UserID: decoded.UserID,
		Email:  decoded.Email,
	}, nil
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active bool   `json:"active"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func isTransient(err error) bool {
	return crerr.Is(err, errAnubisTransient)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func buildURL(baseURL, path string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	path = strings.TrimSpace(path)
	if path == "" {
		return baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return baseURL + path
}
