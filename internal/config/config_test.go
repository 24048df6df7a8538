package config

import (
	"testing"
	"time"

	"github.com/fplstack/insights/internal/platform/logging"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.AppEnv != EnvDev {
		t.Fatalf("unexpected AppEnv: %q", cfg.AppEnv)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected HTTPAddr: %q", cfg.HTTPAddr)
	}
	if cfg.FPLBaseURL != "https://fantasy.premierleague.com/api" {
		t.Fatalf("unexpected FPLBaseURL: %q", cfg.FPLBaseURL)
	}
	if cfg.RateLimitMaxRequests != 20 || cfg.RateLimitWindow != time.Minute {
		t.Fatalf("unexpected rate limit defaults: %d/%s", cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
	}
	if cfg.CacheStaticTTL != time.Hour || cfg.CacheFixturesTTL != time.Hour || cfg.CacheSummaryTTL != time.Hour {
		t.Fatalf("unexpected cache TTL defaults: %s/%s/%s", cfg.CacheStaticTTL, cfg.CacheFixturesTTL, cfg.CacheSummaryTTL)
	}
	if cfg.CacheStaleFallback {
		t.Fatalf("stale fallback should default off")
	}
	if cfg.ArchiveEnabled() {
		t.Fatalf("archive should be disabled without DB_URL")
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("unexpected CORS default: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("APP_LOG_LEVEL", "warn")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("CACHE_STATIC_TTL", "15m")
	t.Setenv("CACHE_STALE_FALLBACK", "true")
	t.Setenv("DB_URL", "postgres://localhost:5432/insights")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogLevel != logging.LevelWarn {
		t.Fatalf("unexpected LogLevel: %v", cfg.LogLevel)
	}
	if cfg.RateLimitMaxRequests != 5 || cfg.RateLimitWindow != 30*time.Second {
		t.Fatalf("unexpected rate limit: %d/%s", cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
	}
	if cfg.CacheStaticTTL != 15*time.Minute {
		t.Fatalf("unexpected CacheStaticTTL: %s", cfg.CacheStaticTTL)
	}
	if !cfg.CacheStaleFallback {
		t.Fatalf("expected stale fallback on")
	}
	if !cfg.ArchiveEnabled() {
		t.Fatalf("expected archive enabled with DB_URL")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected CORS origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"rate limit below one", "RATE_LIMIT_MAX_REQUESTS", "0"},
		{"unparseable window", "RATE_LIMIT_WINDOW", "soon"},
		{"zero cache ttl", "CACHE_STATIC_TTL", "0s"},
		{"breaker threshold below one", "FPL_CIRCUIT_FAILURE_COUNT", "0"},
		{"unparseable bool", "CACHE_STALE_FALLBACK", "maybe"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("APP_ENV", EnvDev)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.value)
			}
		})
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_PyroscopeRequiresServerWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}
