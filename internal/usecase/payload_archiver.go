package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/fplstack/insights/internal/domain/rawdata"
	"github.com/fplstack/insights/internal/platform/logging"
)

const archiveWriteTimeout = 10 * time.Second

// PayloadArchiver records raw upstream documents through the archive
// repository. Writes happen off the fetch path; a failed write is logged
// and dropped, never surfaced to the caller of the fetch.
type PayloadArchiver struct {
	repo   rawdata.Repository
	logger *logging.Logger
	now    func() time.Time
}

func NewPayloadArchiver(repo rawdata.Repository, logger *logging.Logger) *PayloadArchiver {
	if logger == nil {
		logger = logging.Default()
	}
	return &PayloadArchiver{repo: repo, logger: logger, now: time.Now}
}

func (a *PayloadArchiver) Record(ctx context.Context, endpoint string, body []byte) {
	if a.repo == nil || endpoint == "" || len(body) == 0 {
		return
	}

	digest := sha256.Sum256(body)
	item := rawdata.Payload{
		Endpoint:    endpoint,
		PayloadJSON: string(body),
		PayloadHash: hex.EncodeToString(digest[:]),
		FetchedAt:   a.now(),
	}

	detached := context.WithoutCancel(ctx)
	go func() {
		writeCtx, cancel := context.WithTimeout(detached, archiveWriteTimeout)
		defer cancel()
		if err := a.repo.Upsert(writeCtx, item); err != nil {
			a.logger.WarnContext(writeCtx, "archive raw payload failed", "endpoint", endpoint, "error", err)
		}
	}()
}
