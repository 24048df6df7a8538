package httpapi

import (
	"fmt"
	"net/http"

	"github.com/fplstack/insights/internal/usecase"
)

const defaultGameweekWindow = 5

func errTooManyPlayers(count int) error {
	return fmt.Errorf("%w: at most %d players per comparison, got %d", usecase.ErrInvalidInput, maxRequestedPlayerSet, count)
}

func (h *Handler) GetCurrentGameweek(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentGameweek")
	defer span.End()

	gw, err := h.dataset.CurrentGameweek(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "current gameweek failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, gameweekToDTO(gw))
}

func (h *Handler) ListBlankGameweeks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListBlankGameweeks")
	defer span.End()

	n, err := parseIntWithDefault(r.URL.Query(), "gameweeks", defaultGameweekWindow)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	blanks, err := h.fixtures.BlankGameweeks(ctx, n)
	if err != nil {
		h.logger.WarnContext(ctx, "blank gameweeks failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, blanks)
}

func (h *Handler) ListDoubleGameweeks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListDoubleGameweeks")
	defer span.End()

	n, err := parseIntWithDefault(r.URL.Query(), "gameweeks", defaultGameweekWindow)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	doubles, err := h.fixtures.DoubleGameweeks(ctx, n)
	if err != nil {
		h.logger.WarnContext(ctx, "double gameweeks failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, doubles)
}
