package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "salesdash/internal/errors"
	"salesdash/internal/services"
)

// DashboardHandler serves the derived views, the standalone trend and
// the filter options.
type DashboardHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/dashboard", h.GetDashboard)
	r.Get("/trend", h.GetTrend)
	r.Get("/filters/options", h.GetFilterOptions)

	return r
}

// dashboardResponse bundles the views with an echo of the applied
// filter so clients can confirm what was actually computed.
type dashboardResponse struct {
	Filter interface{} `json:"filter"`
	Views  interface{} `json:"views"`
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	query, err := bindDashboardQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	spec := query.FilterSpec()
	views, err := h.service.Dashboard(r.Context(), spec, query.Threshold, query.TopN)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "dashboard computed",
		slog.Int("rows", views.RowCount),
		slog.Float64("threshold_fraction", views.ThresholdFraction))

	render.JSON(w, r, dashboardResponse{Filter: spec, Views: views})
}

// GetTrend handles GET /api/trend
func (h *DashboardHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	rangeKey := r.URL.Query().Get("range")
	if rangeKey == "" {
		rangeKey = services.DefaultTrendRange
	}

	points, err := h.service.Trend(r.Context(), rangeKey)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"range": rangeKey,
		"trend": points,
	})
}

// GetFilterOptions handles GET /api/filters/options
func (h *DashboardHandler) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.FilterOptions(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, opts)
}
