package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"salesdash/internal/dataset"
)

// HealthHandler reports service liveness and active dataset stats.
type HealthHandler struct {
	service DashboardServiceInterface
	logger  *slog.Logger
	started time.Time
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(service DashboardServiceInterface, logger *slog.Logger, version string) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "health")),
		started: time.Now(),
		version: version,
	}
}

// healthResponse is the health endpoint payload.
type healthResponse struct {
	Status  string       `json:"status"`
	Version string       `json:"version"`
	Uptime  string       `json:"uptime"`
	Dataset dataset.Info `json:"dataset"`
}

// HealthCheck handles GET /api/healthz. The service is healthy even
// with no dataset loaded; the dataset block shows zero rows then.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResponse{
		Status:  "ok",
		Version: h.version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
		Dataset: h.service.DatasetInfo(),
	})
}
