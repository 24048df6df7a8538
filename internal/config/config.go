package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fplstack/insights/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	CORSAllowedOrigins []string
	LogLevel           logging.Level

	// DBURL enables the raw payload archive when set; empty disables it.
	DBURL                   string
	DBDisablePreparedBinary bool

	FPLBaseURL              string
	FPLUserAgent            string
	FPLTimeout              time.Duration
	FPLCircuitEnabled       bool
	FPLCircuitFailureCount  int
	FPLCircuitOpenTimeout   time.Duration
	FPLCircuitHalfOpenReq   int
	RateLimitMaxRequests    int
	RateLimitWindow         time.Duration
	CacheStaticTTL          time.Duration
	CacheFixturesTTL        time.Duration
	CacheSummaryTTL         time.Duration
	CacheStaleFallback      bool

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "fpl-insights-api"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		DBURL:              strings.TrimSpace(getEnv("DB_URL", "")),
		FPLBaseURL:         strings.TrimSpace(getEnv("FPL_BASE_URL", "https://fantasy.premierleague.com/api")),
		FPLUserAgent:       strings.TrimSpace(getEnv("FPL_USER_AGENT", "fpl-insights/1.0")),
		UptraceDSN:         strings.TrimSpace(getEnv("UPTRACE_DSN", "")),
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	if cfg.ReadTimeout, err = getEnvAsDuration("APP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = getEnvAsDuration("APP_WRITE_TIMEOUT", "15s"); err != nil {
		return Config{}, err
	}
	if cfg.FPLTimeout, err = getEnvAsDuration("FPL_TIMEOUT", "20s"); err != nil {
		return Config{}, err
	}

	if cfg.FPLCircuitEnabled, err = getEnvAsBool("FPL_CIRCUIT_ENABLED", "true"); err != nil {
		return Config{}, err
	}
	if cfg.FPLCircuitFailureCount, err = getEnvAsInt("FPL_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return Config{}, err
	}
	if cfg.FPLCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("FPL_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	if cfg.FPLCircuitOpenTimeout, err = getEnvAsDuration("FPL_CIRCUIT_OPEN_TIMEOUT", "15s"); err != nil {
		return Config{}, err
	}
	if cfg.FPLCircuitHalfOpenReq, err = getEnvAsInt("FPL_CIRCUIT_HALF_OPEN_MAX_REQ", 2); err != nil {
		return Config{}, err
	}
	if cfg.FPLCircuitHalfOpenReq < 1 {
		return Config{}, fmt.Errorf("FPL_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	if cfg.RateLimitMaxRequests, err = getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 20); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitMaxRequests < 1 {
		return Config{}, fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be >= 1")
	}
	if cfg.RateLimitWindow, err = getEnvAsDuration("RATE_LIMIT_WINDOW", "1m"); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitWindow <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_WINDOW must be > 0")
	}

	if cfg.CacheStaticTTL, err = getEnvAsDuration("CACHE_STATIC_TTL", "1h"); err != nil {
		return Config{}, err
	}
	if cfg.CacheFixturesTTL, err = getEnvAsDuration("CACHE_FIXTURES_TTL", "1h"); err != nil {
		return Config{}, err
	}
	if cfg.CacheSummaryTTL, err = getEnvAsDuration("CACHE_SUMMARY_TTL", "1h"); err != nil {
		return Config{}, err
	}
	if cfg.CacheStaticTTL <= 0 || cfg.CacheFixturesTTL <= 0 || cfg.CacheSummaryTTL <= 0 {
		return Config{}, fmt.Errorf("cache TTLs must be > 0")
	}
	if cfg.CacheStaleFallback, err = getEnvAsBool("CACHE_STALE_FALLBACK", "false"); err != nil {
		return Config{}, err
	}

	if cfg.DBDisablePreparedBinary, err = getEnvAsBool("DB_DISABLE_PREPARED_BINARY_RESULT", "true"); err != nil {
		return Config{}, err
	}

	if cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", "false"); err != nil {
		return Config{}, err
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", "false"); err != nil {
		return Config{}, err
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	if cfg.PyroscopeUploadRate, err = getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return Config{}, err
	}
	if cfg.PyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	return cfg, nil
}

// ArchiveEnabled reports whether the raw payload archive should be wired.
func (c Config) ArchiveEnabled() bool {
	return c.DBURL != ""
}

func parseAppEnv(v string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(v))
	switch normalized {
	case EnvDev, EnvStage, EnvProd:
		return normalized, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
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
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}

	return out, nil
}

func getEnvAsBool(key, fallback string) (bool, error) {
	out, err := strconv.ParseBool(getEnv(key, fallback))
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
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
