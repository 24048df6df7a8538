package fplapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/fplstack/insights/internal/platform/resilience"
)

const bootstrapFixture = `{
	"events": [
		{"id": 1, "name": "Gameweek 1", "deadline_time": "2026-08-14T17:30:00Z", "is_current": true, "is_next": false, "is_previous": false, "finished": false}
	],
	"teams": [
		{"id": 1, "name": "Arsenal", "short_name": "ARS", "strength_overall_home": 1350, "strength_overall_away": 1380},
		{"id": 2, "name": "Brentford", "short_name": "BRE", "strength_overall_home": 1100, "strength_overall_away": 1080}
	],
	"element_types": [
		{"id": 1, "singular_name": "Goalkeeper", "singular_name_short": "GKP"},
		{"id": 3, "singular_name": "Midfielder", "singular_name_short": "MID"}
	],
	"elements": [
		{"id": 10, "first_name": "Bukayo", "second_name": "Saka", "web_name": "Saka", "team": 1, "element_type": 3,
		 "now_cost": 100, "total_points": 96, "form": "5.5", "points_per_game": "6.0", "selected_by_percent": "45.2",
		 "status": "a", "minutes": 1200, "goals_scored": 6, "assists": 8, "clean_sheets": 5, "bonus": 12}
	]
}`

type countingLimiter struct {
	calls atomic.Int32
}

func (l *countingLimiter) Acquire(context.Context) error {
	l.calls.Add(1)
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *countingLimiter) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	limiter := &countingLimiter{}
	client := NewClient(ClientConfig{
		HTTPClient: srv.Client(),
		BaseURL:    srv.URL,
		Limiter:    limiter,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled: false,
		},
	})
	return client, limiter
}

func TestClient_GetBootstrapStatic(t *testing.T) {
	t.Parallel()

	client, limiter := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bootstrap-static/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("User-Agent"); got == "" {
			t.Error("missing User-Agent header")
		}
		_, _ = w.Write([]byte(bootstrapFixture))
	})

	doc, warnings, err := client.GetBootstrapStatic(context.Background())
	if err != nil {
		t.Fatalf("GetBootstrapStatic: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if got := limiter.calls.Load(); got != 1 {
		t.Fatalf("limiter acquired %d times, want 1", got)
	}
	if len(doc.Elements) != 1 || doc.Elements[0].WebName != "Saka" {
		t.Fatalf("unexpected elements: %+v", doc.Elements)
	}
	if form, ok := doc.Elements[0].Form.Float(); !ok || form != 5.5 {
		t.Fatalf("form not parsed: %v %v", form, ok)
	}
}

func TestClient_ShapeMismatchIsWarningNotError(t *testing.T) {
	t.Parallel()

	// A team record without id/name violates the expected shape; the
	// payload must still come back with warnings attached.
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"events": [{"id": 1, "name": "GW1"}],
			"teams": [{"short_name": "XXX"}],
			"element_types": [{"id": 1}],
			"elements": [{"id": 5, "team": 1, "element_type": 1}]
		}`))
	})

	doc, warnings, err := client.GetBootstrapStatic(context.Background())
	if err != nil {
		t.Fatalf("shape mismatch must not fail the fetch: %v", err)
	}
	if doc == nil || len(doc.Teams) != 1 {
		t.Fatalf("payload not returned: %+v", doc)
	}
	if len(warnings) == 0 {
		t.Fatal("expected shape warnings")
	}
}

func TestClient_NonSuccessStatusIsFetchError(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})

	_, _, err := client.GetFixtures(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %T: %v", err, err)
	}
	if fetchErr.Endpoint != "fixtures/" {
		t.Fatalf("unexpected endpoint: %s", fetchErr.Endpoint)
	}
	if fetchErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: %d", fetchErr.StatusCode)
	}
	if !IsTransient(err) {
		t.Fatal("503 should be marked transient")
	}
}

func TestClient_ClientErrorStatusIsNotTransient(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such element", http.StatusNotFound)
	})

	_, err := client.GetPlayerSummary(context.Background(), 99)
	if err == nil {
		t.Fatal("expected error")
	}
	if IsTransient(err) {
		t.Fatal("404 must not trip the breaker")
	}
}

func TestClient_BreakerOpensAfterConsecutiveTransientFailures(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(ClientConfig{
		HTTPClient: srv.Client(),
		BaseURL:    srv.URL,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})

	for i := 0; i < 2; i++ {
		if _, _, err := client.GetFixtures(context.Background()); err == nil {
			t.Fatal("expected failure")
		}
	}

	// Third call must be rejected by the breaker without reaching the
	// upstream.
	_, _, err := client.GetFixtures(context.Background())
	if err == nil {
		t.Fatal("expected breaker rejection")
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("upstream hit %d times, want 2", got)
	}
}

func TestClient_GetFixturesByGameweekPassesEventFilter(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("event"); got != "7" {
			t.Errorf("event filter: got=%q want=7", got)
		}
		_, _ = w.Write([]byte(`[{"id": 1, "event": 7, "team_h": 1, "team_a": 2, "team_h_difficulty": 2, "team_a_difficulty": 4}]`))
	})

	rows, _, err := client.GetFixturesByGameweek(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetFixturesByGameweek: %v", err)
	}
	if len(rows) != 1 || rows[0].TeamHDifficulty != 2 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestNumber_UnmarshalTolerance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		wantVal float64
		wantOK  bool
	}{
		{name: "quoted numeric", payload: `{"v": "4.5"}`, wantVal: 4.5, wantOK: true},
		{name: "bare numeric", payload: `{"v": 7}`, wantVal: 7, wantOK: true},
		{name: "null", payload: `{"v": null}`, wantOK: false},
		{name: "missing", payload: `{}`, wantOK: false},
		{name: "non numeric text", payload: `{"v": "N/A"}`, wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var target struct {
				V Number `json:"v"`
			}
			if err := sonic.Unmarshal([]byte(tc.payload), &target); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			got, ok := target.V.Float()
			if ok != tc.wantOK {
				t.Fatalf("ok: got=%t want=%t", ok, tc.wantOK)
			}
			if ok && got != tc.wantVal {
				t.Fatalf("value: got=%v want=%v", got, tc.wantVal)
			}
		})
	}
}
