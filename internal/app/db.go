package app

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/fplstack/insights/internal/config"
)

const maxTracedQueryLength = 512

var queryWhitespace = regexp.MustCompile(`\s+`)

func openDatabase(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDatabaseURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(databaseNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(compactTracedQuery),
	)
	if err != nil {
		return nil, err
	}

	// The archive is a single low-volume writer; keep the pool small.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// normalizeDatabaseURL appends disable_prepared_binary_result=yes for
// poolers (pgbouncer et al.) that reject binary result formats on
// prepared statements.
func normalizeDatabaseURL(raw string, disablePreparedBinary bool) string {
	if !disablePreparedBinary {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil {
		return raw
	}

	query := parsed.Query()
	if query.Get("disable_prepared_binary_result") == "" {
		query.Set("disable_prepared_binary_result", "yes")
		parsed.RawQuery = query.Encode()
	}

	return parsed.String()
}

func databaseNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err == nil && parsed != nil && parsed.Scheme != "" {
		if name := strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/")); name != "" {
			return name
		}
	}

	// Key/value DSN form: "host=... dbname=insights ...".
	for _, token := range strings.Fields(trimmed) {
		if !strings.HasPrefix(token, "dbname=") {
			continue
		}
		if name := strings.Trim(strings.TrimPrefix(token, "dbname="), `"'`); name != "" {
			return name
		}
	}

	return ""
}

// compactTracedQuery collapses whitespace and truncates long statements
// before they are attached to spans.
func compactTracedQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	normalized := queryWhitespace.ReplaceAllString(query, " ")
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}

	return normalized[:maxTracedQueryLength] + "..."
}
