package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/logging"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/resilience"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"

	SinkLog     = "log"
	SinkQStash  = "qstash"
	SinkNATS    = "nats"
	SinkWebhook = "webhook"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	LogLevel           logging.Level
	CORSAllowedOrigins []string

	DBURL                   string
	DBDisablePreparedBinary bool
	DBMaxOpenConns          int

	Location               *time.Location
	MarketLockDayStartHour int
	MarketLockLead         time.Duration
	TradeDailyQuota        int

	StatSourceBaseURL          string
	StatSourceAPIKey           string
	StatSourceSeason           int
	StatSourceTimeout          time.Duration
	StatSourceMaxRetries       int
	StatSourceFetchConcurrency int
	StatSourceCircuit          resilience.CircuitBreakerConfig

	CronKey string

	AccountBaseURL        string
	AccountIntrospectPath string
	AccountAdminKey       string
	AccountTimeout        time.Duration
	AccountCacheTTL       time.Duration
	AccountCircuit        resilience.CircuitBreakerConfig

	NotificationSink         string
	NotificationWorkers      int
	NotificationMaxAttempts  int
	NotificationRetryBackoff time.Duration
	QStashBaseURL            string
	QStashToken              string
	QStashTargetURL          string
	QStashRetries            int
	QStashCircuit            resilience.CircuitBreakerConfig
	NATSURL                  string
	NATSStream               string
	NATSSubjectPrefix        string
	WebhookURL               string
	WebhookTimeout           time.Duration

	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	PprofEnabled               bool
	PprofAddr                  string
	MetricsEnabled             bool
}

// UsesMemoryStore reports whether the service runs without Postgres. Only dev allows it.
func (c Config) UsesMemoryStore() bool {
	return c.DBURL == ""
}

// Load reads the process environment, after merging an optional .env file
// (APP_ENV_FILE, default ".env"). Variables already set win over the file.
func Load() (Config, error) {
	if err := loadDotEnv(getEnv("APP_ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	r := &envReader{}
	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "fantasy-settlement"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:        r.positiveDuration("APP_READ_TIMEOUT", "10s"),
		WriteTimeout:       r.positiveDuration("APP_WRITE_TIMEOUT", "30s"),
		LogLevel:           logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		DBURL:                   strings.TrimSpace(getEnv("DB_URL", "")),
		DBDisablePreparedBinary: r.bool("DB_DISABLE_PREPARED_BINARY_RESULT", "true"),
		DBMaxOpenConns:          r.intAtLeast("DB_MAX_OPEN_CONNS", 20, 1),

		MarketLockDayStartHour: r.intAtLeast("MARKET_LOCK_DAY_START_HOUR", 7, 0),
		MarketLockLead:         r.duration("MARKET_LOCK_LEAD", "30m"),
		TradeDailyQuota:        r.intAtLeast("TRADE_DAILY_QUOTA", 2, 1),

		StatSourceBaseURL:          strings.TrimSpace(getEnv("STAT_SOURCE_BASE_URL", "https://v2.nba.api-sports.io")),
		StatSourceAPIKey:           strings.TrimSpace(getEnv("STAT_SOURCE_API_KEY", "")),
		StatSourceSeason:           r.intAtLeast("STAT_SOURCE_SEASON", 0, 0),
		StatSourceTimeout:          r.positiveDuration("STAT_SOURCE_TIMEOUT", "15s"),
		StatSourceMaxRetries:       r.intAtLeast("STAT_SOURCE_MAX_RETRIES", 2, 0),
		StatSourceFetchConcurrency: r.intAtLeast("STAT_SOURCE_FETCH_CONCURRENCY", 4, 1),
		StatSourceCircuit:          r.circuit("STAT_SOURCE"),

		CronKey: strings.TrimSpace(getEnv("CRON_KEY", "")),

		AccountBaseURL:        strings.TrimSpace(getEnv("ACCOUNT_BASE_URL", "http://localhost:8081")),
		AccountIntrospectPath: strings.TrimSpace(getEnv("ACCOUNT_INTROSPECT_PATH", "/v1/auth/introspect")),
		AccountAdminKey:       strings.TrimSpace(getEnv("ACCOUNT_ADMIN_KEY", "")),
		AccountTimeout:        r.positiveDuration("ACCOUNT_TIMEOUT", "3s"),
		AccountCacheTTL:       r.positiveDuration("ACCOUNT_CACHE_TTL", "60s"),
		AccountCircuit:        r.circuit("ACCOUNT"),

		NotificationSink:         strings.ToLower(strings.TrimSpace(getEnv("NOTIFICATION_SINK", SinkLog))),
		NotificationWorkers:      r.intAtLeast("NOTIFICATION_WORKERS", 4, 1),
		NotificationMaxAttempts:  r.intAtLeast("NOTIFICATION_MAX_ATTEMPTS", 3, 1),
		NotificationRetryBackoff: r.duration("NOTIFICATION_RETRY_BACKOFF", "2s"),
		QStashBaseURL:            strings.TrimSpace(getEnv("QSTASH_BASE_URL", "https://qstash.upstash.io")),
		QStashToken:              strings.TrimSpace(getEnv("QSTASH_TOKEN", "")),
		QStashTargetURL:          strings.TrimSpace(getEnv("QSTASH_TARGET_URL", "")),
		QStashRetries:            r.intAtLeast("QSTASH_RETRIES", 3, 0),
		QStashCircuit:            r.circuit("QSTASH"),
		NATSURL:                  strings.TrimSpace(getEnv("NATS_URL", "nats://127.0.0.1:4222")),
		NATSStream:               strings.TrimSpace(getEnv("NATS_STREAM", "FANTASY_SETTLEMENT")),
		NATSSubjectPrefix:        strings.TrimSpace(getEnv("NATS_SUBJECT_PREFIX", "fantasy.settlement")),
		WebhookURL:               strings.TrimSpace(getEnv("WEBHOOK_URL", "")),
		WebhookTimeout:           r.positiveDuration("WEBHOOK_TIMEOUT", "5s"),

		UptraceEnabled:             r.bool("UPTRACE_ENABLED", "false"),
		PyroscopeEnabled:           r.bool("PYROSCOPE_ENABLED", "false"),
		PyroscopeServerAddress:     strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        r.positiveDuration("PYROSCOPE_UPLOAD_RATE", "15s"),
		PprofEnabled:               r.bool("PPROF_ENABLED", "false"),
		PprofAddr:                  strings.TrimSpace(getEnv("PPROF_ADDR", ":6060")),
		MetricsEnabled:             r.bool("METRICS_ENABLED", "true"),
	}
	if r.err != nil {
		return Config{}, r.err
	}

	cfg.Location, err = time.LoadLocation(strings.TrimSpace(getEnv("SETTLEMENT_TIMEZONE", "America/New_York")))
	if err != nil {
		return Config{}, fmt.Errorf("parse SETTLEMENT_TIMEZONE: %w", err)
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.MarketLockDayStartHour > 23 {
		return fmt.Errorf("MARKET_LOCK_DAY_START_HOUR must be between 0 and 23")
	}
	if c.MarketLockLead < 0 {
		return fmt.Errorf("MARKET_LOCK_LEAD must be >= 0")
	}
	if c.NotificationRetryBackoff < 0 {
		return fmt.Errorf("NOTIFICATION_RETRY_BACKOFF must be >= 0")
	}
	if len(c.CORSAllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}
	if c.AppEnv != EnvDev {
		if c.DBURL == "" {
			return fmt.Errorf("DB_URL is required when APP_ENV=%s", c.AppEnv)
		}
		if c.CronKey == "" {
			return fmt.Errorf("CRON_KEY is required when APP_ENV=%s", c.AppEnv)
		}
	}

	switch c.NotificationSink {
	case SinkLog:
	case SinkQStash:
		if c.QStashToken == "" || c.QStashTargetURL == "" {
			return fmt.Errorf("QSTASH_TOKEN and QSTASH_TARGET_URL are required when NOTIFICATION_SINK=qstash")
		}
	case SinkNATS:
		if c.NATSURL == "" {
			return fmt.Errorf("NATS_URL is required when NOTIFICATION_SINK=nats")
		}
	case SinkWebhook:
		if c.WebhookURL == "" {
			return fmt.Errorf("WEBHOOK_URL is required when NOTIFICATION_SINK=webhook")
		}
	default:
		return fmt.Errorf("invalid NOTIFICATION_SINK %q: valid values are %s, %s, %s, %s", c.NotificationSink, SinkLog, SinkQStash, SinkNATS, SinkWebhook)
	}

	if c.UptraceEnabled && c.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	if c.PyroscopeEnabled {
		if c.PyroscopeServerAddress == "" {
			return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
		}
		if c.PyroscopeAppName == "" {
			return fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
		}
	}
	if c.PprofEnabled && c.PprofAddr == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}
	return nil
}

func loadDotEnv(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// envReader parses typed variables and keeps the first error.
type envReader struct {
	err error
}

func (r *envReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *envReader) bool(key, fallback string) bool {
	out, err := strconv.ParseBool(getEnv(key, fallback))
	if err != nil {
		r.fail(fmt.Errorf("parse %s: %w", key, err))
	}
	return out
}

func (r *envReader) duration(key, fallback string) time.Duration {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		r.fail(fmt.Errorf("parse %s: %w", key, err))
	}
	return out
}

func (r *envReader) positiveDuration(key, fallback string) time.Duration {
	out := r.duration(key, fallback)
	if out <= 0 {
		r.fail(fmt.Errorf("%s must be > 0", key))
	}
	return out
}

func (r *envReader) intAtLeast(key string, fallback, min int) int {
	out, err := getEnvAsInt(key, fallback)
	if err != nil {
		r.fail(fmt.Errorf("parse %s: %w", key, err))
		return fallback
	}
	if out < min {
		r.fail(fmt.Errorf("%s must be >= %d", key, min))
	}
	return out
}

// circuit reads <PREFIX>_CIRCUIT_{ENABLED,FAILURE_COUNT,OPEN_TIMEOUT,HALF_OPEN_MAX_REQ}.
func (r *envReader) circuit(prefix string) resilience.CircuitBreakerConfig {
	defaults := resilience.DefaultCircuitBreakerConfig()
	return resilience.CircuitBreakerConfig{
		Enabled:          r.bool(prefix+"_CIRCUIT_ENABLED", strconv.FormatBool(defaults.Enabled)),
		FailureThreshold: r.intAtLeast(prefix+"_CIRCUIT_FAILURE_COUNT", defaults.FailureThreshold, 1),
		OpenTimeout:      r.positiveDuration(prefix+"_CIRCUIT_OPEN_TIMEOUT", defaults.OpenTimeout.String()),
		HalfOpenMaxReq:   r.intAtLeast(prefix+"_CIRCUIT_HALF_OPEN_MAX_REQ", defaults.HalfOpenMaxReq, 1),
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
