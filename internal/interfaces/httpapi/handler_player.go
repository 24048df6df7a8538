package httpapi

import (
	"net/http"
	"strings"

	"github.com/fplstack/insights/internal/usecase"
)

const (
	defaultPlayerLimit    = 20
	defaultFixtureWindow  = 5
	maxRequestedPlayerSet = 10
)

type searchPlayersRequest struct {
	Name  string `validate:"required,min=2,max=100"`
	Limit int    `validate:"min=1,max=50"`
}

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayers")
	defer span.End()

	values := r.URL.Query()
	query := usecase.PlayerQuery{
		Position:  strings.TrimSpace(values.Get("position")),
		Team:      strings.TrimSpace(values.Get("team")),
		SortBy:    strings.TrimSpace(values.Get("sort_by")),
		SortOrder: strings.TrimSpace(values.Get("sort_order")),
	}

	var err error
	if query.MinPrice, err = parseOptionalFloat(values, "min_price"); err != nil {
		writeError(ctx, w, err)
		return
	}
	if query.MaxPrice, err = parseOptionalFloat(values, "max_price"); err != nil {
		writeError(ctx, w, err)
		return
	}
	if query.MinPoints, err = parseOptionalInt(values, "min_points"); err != nil {
		writeError(ctx, w, err)
		return
	}
	if query.MinOwnership, err = parseOptionalFloat(values, "min_ownership"); err != nil {
		writeError(ctx, w, err)
		return
	}
	if query.MaxOwnership, err = parseOptionalFloat(values, "max_ownership"); err != nil {
		writeError(ctx, w, err)
		return
	}
	if query.MinForm, err = parseOptionalFloat(values, "min_form"); err != nil {
		writeError(ctx, w, err)
		return
	}
	if query.OnlyAvailable, err = parseBoolFlag(values, "only_available"); err != nil {
		writeError(ctx, w, err)
		return
	}
	if query.Limit, err = parseIntWithDefault(values, "limit", defaultPlayerLimit); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.analytics.FilterPlayers(ctx, query)
	if err != nil {
		h.logger.WarnContext(ctx, "filter players failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, filterResultToDTO(result))
}

func (h *Handler) SearchPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SearchPlayers")
	defer span.End()

	values := r.URL.Query()
	limit, err := parseIntWithDefault(values, "limit", 5)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	req := searchPlayersRequest{
		Name:  strings.TrimSpace(values.Get("name")),
		Limit: limit,
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	matches, err := h.dataset.FindPlayersByName(ctx, req.Name, req.Limit)
	if err != nil {
		h.logger.WarnContext(ctx, "search players failed", "name", req.Name, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, matchesToDTO(matches))
}

func (h *Handler) ComparePlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ComparePlayers")
	defer span.End()

	values := r.URL.Query()
	ids, err := parseIntList(values, "ids")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if len(ids) > maxRequestedPlayerSet {
		writeError(ctx, w, errTooManyPlayers(len(ids)))
		return
	}
	metrics := parseStringList(values, "metrics")

	result, err := h.comparison.ComparePlayers(ctx, ids, metrics)
	if err != nil {
		h.logger.WarnContext(ctx, "compare players failed", "ids", ids, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) GetPlayerFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerFixtures")
	defer span.End()

	playerID, err := parsePathInt(r.PathValue("playerID"), "player id")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	n, err := parseIntWithDefault(r.URL.Query(), "count", defaultFixtureWindow)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	outlook, err := h.fixtures.AnalyzePlayerFixtures(ctx, playerID, n)
	if err != nil {
		h.logger.WarnContext(ctx, "analyze player fixtures failed", "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, outlook)
}

func (h *Handler) GetPlayerHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerHistory")
	defer span.End()

	playerID, err := parsePathInt(r.PathValue("playerID"), "player id")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	n, err := parseIntWithDefault(r.URL.Query(), "rounds", 0)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	rounds, err := h.dataset.PlayerGameweekHistory(ctx, playerID, n)
	if err != nil {
		h.logger.WarnContext(ctx, "player history failed", "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, rounds)
}
