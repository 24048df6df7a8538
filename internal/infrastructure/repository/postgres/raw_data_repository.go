package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fplstack/insights/internal/domain/rawdata"
)

const upsertRawPayloadSQL = `
INSERT INTO raw_data_payloads (endpoint, payload, payload_hash, fetched_at)
VALUES (:endpoint, :payload, :payload_hash, :fetched_at)
ON CONFLICT (endpoint)
DO UPDATE SET
    payload = EXCLUDED.payload,
    payload_hash = EXCLUDED.payload_hash,
    fetched_at = EXCLUDED.fetched_at`

type RawDataRepository struct {
	db *sqlx.DB
}

func NewRawDataRepository(db *sqlx.DB) *RawDataRepository {
	return &RawDataRepository{db: db}
}

// Upsert stores the latest document for an endpoint, replacing any
// previous one. Unchanged payloads (same hash) are skipped to keep the
// write path cheap on cache-driven refetch cycles.
func (r *RawDataRepository) Upsert(ctx context.Context, item rawdata.Payload) error {
	if item.Endpoint == "" {
		return fmt.Errorf("payload endpoint is required")
	}

	current, err := r.currentHash(ctx, item.Endpoint)
	if err != nil {
		return err
	}
	if current == item.PayloadHash {
		return nil
	}

	model := rawDataPayloadModel{
		Endpoint:    item.Endpoint,
		Payload:     item.PayloadJSON,
		PayloadHash: item.PayloadHash,
		FetchedAt:   item.FetchedAt,
	}
	if _, err := r.db.NamedExecContext(ctx, upsertRawPayloadSQL, model); err != nil {
		return fmt.Errorf("upsert raw payload endpoint=%s: %w", item.Endpoint, err)
	}
	return nil
}

func (r *RawDataRepository) currentHash(ctx context.Context, endpoint string) (string, error) {
	var hash string
	err := r.db.QueryRowxContext(ctx,
		`SELECT payload_hash FROM raw_data_payloads WHERE endpoint = $1`, endpoint,
	).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("read raw payload hash endpoint=%s: %w", endpoint, err)
	}
	return hash, nil
}

type rawDataPayloadModel struct {
	Endpoint    string    `db:"endpoint"`
	Payload     string    `db:"payload"`
	PayloadHash string    `db:"payload_hash"`
	FetchedAt   time.Time `db:"fetched_at"`
}
