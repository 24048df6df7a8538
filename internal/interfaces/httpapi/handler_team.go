package httpapi

import (
	"net/http"
)

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	teams, err := h.dataset.Teams(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teamDTO, 0, len(teams))
	for _, t := range teams {
		items = append(items, teamToDTO(t))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetTeamEase(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamEase")
	defer span.End()

	teamID, err := parsePathInt(r.PathValue("teamID"), "team id")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	values := r.URL.Query()
	n, err := parseIntWithDefault(values, "count", defaultFixtureWindow)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	homeAdjust := true
	if raw := values.Get("home_adjust"); raw != "" {
		homeAdjust, err = parseBoolFlag(values, "home_adjust")
		if err != nil {
			writeError(ctx, w, err)
			return
		}
	}

	outlook, err := h.fixtures.TeamEaseScore(ctx, teamID, n, homeAdjust)
	if err != nil {
		h.logger.WarnContext(ctx, "team ease score failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, outlook)
}
