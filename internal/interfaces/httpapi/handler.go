package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/fplstack/insights/internal/platform/logging"
	"github.com/fplstack/insights/internal/usecase"
)

type Handler struct {
	dataset    *usecase.DatasetService
	analytics  *usecase.AnalyticsService
	fixtures   *usecase.FixtureAnalyzerService
	comparison *usecase.ComparisonService
	logger     *logging.Logger
	validator  *validator.Validate
}

func NewHandler(
	dataset *usecase.DatasetService,
	analytics *usecase.AnalyticsService,
	fixtures *usecase.FixtureAnalyzerService,
	comparison *usecase.ComparisonService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		dataset:    dataset,
		analytics:  analytics,
		fixtures:   fixtures,
		comparison: comparison,
		logger:     logger,
		validator:  validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	_, span := startSpan(ctx, "httpapi.validateRequest")
	defer span.End()

	if err := h.validator.Struct(payload); err != nil {
		return fmt.Errorf("%w: %s", usecase.ErrInvalidInput, err.Error())
	}
	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}
