package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fplstack/insights/internal/domain/rawdata"
	"github.com/fplstack/insights/internal/platform/logging"
)

type recordingRepo struct {
	mu    sync.Mutex
	items []rawdata.Payload
	done  chan struct{}
}

func (r *recordingRepo) Upsert(_ context.Context, item rawdata.Payload) error {
	r.mu.Lock()
	r.items = append(r.items, item)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func TestPayloadArchiver_RecordsHashAndBody(t *testing.T) {
	t.Parallel()

	repo := &recordingRepo{done: make(chan struct{}, 1)}
	archiver := NewPayloadArchiver(repo, logging.NewNop())

	archiver.Record(context.Background(), "fixtures/", []byte(`[{"id":1}]`))

	select {
	case <-repo.done:
	case <-time.After(2 * time.Second):
		t.Fatal("archive write never happened")
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.items) != 1 {
		t.Fatalf("items: got=%d want=1", len(repo.items))
	}
	item := repo.items[0]
	if item.Endpoint != "fixtures/" || item.PayloadJSON != `[{"id":1}]` {
		t.Fatalf("unexpected payload: %+v", item)
	}
	if len(item.PayloadHash) != 64 {
		t.Fatalf("hash length: %d", len(item.PayloadHash))
	}
	if item.FetchedAt.IsZero() {
		t.Fatal("fetched-at not set")
	}
}

func TestPayloadArchiver_IgnoresEmptyBodies(t *testing.T) {
	t.Parallel()

	repo := &recordingRepo{done: make(chan struct{}, 1)}
	archiver := NewPayloadArchiver(repo, logging.NewNop())

	archiver.Record(context.Background(), "fixtures/", nil)
	archiver.Record(context.Background(), "", []byte("x"))

	select {
	case <-repo.done:
		t.Fatal("empty record must not reach the repository")
	case <-time.After(100 * time.Millisecond):
	}
}
