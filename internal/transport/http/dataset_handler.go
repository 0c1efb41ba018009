package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"salesdash/internal/dataset"
	apierrors "salesdash/internal/errors"
	"salesdash/internal/exporter"
)

// DatasetHandler serves dataset uploads and CSV exports.
type DatasetHandler struct {
	service      DashboardServiceInterface
	exporter     *exporter.CSVExporter
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	maxBytes     int64
}

// NewDatasetHandler creates a new dataset handler. maxBytes caps the
// multipart body size.
func NewDatasetHandler(service DashboardServiceInterface, csvExporter *exporter.CSVExporter, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxBytes int64) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		exporter:     csvExporter,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
		maxBytes:     maxBytes,
	}
}

// Routes returns the dataset routes.
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/dataset", h.UploadDataset)
	r.Get("/export/records.csv", h.ExportRecords)
	r.Get("/export/customers.csv", h.ExportCustomers)

	return r
}

// uploadResponse echoes the installed dataset stats.
type uploadResponse struct {
	Success bool         `json:"success"`
	Dataset dataset.Info `json:"dataset"`
}

// UploadDataset handles POST /api/dataset. The file travels in the
// "file" multipart field; a successful load atomically replaces the
// active dataset.
func (h *DatasetHandler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	filename := filepath.Base(header.Filename)
	info, err := h.service.Upload(r.Context(), filename, data)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapLoadError(err, filename))
		return
	}

	h.logger.InfoContext(r.Context(), "dataset replaced",
		slog.String("file", filename),
		slog.Int("rows", info.Rows))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, uploadResponse{Success: true, Dataset: info})
}

// mapLoadError translates loader sentinels into API errors; anything
// already typed passes through for the error handler to classify.
func mapLoadError(err error, filename string) error {
	switch {
	case errors.Is(err, dataset.ErrUnsupportedFormat):
		return apierrors.UnsupportedFormatError(filepath.Ext(filename))
	case errors.Is(err, dataset.ErrMissingDateColumn):
		return apierrors.NewWithDetails(
			http.StatusUnprocessableEntity,
			"DATASET_LOAD_FAILED",
			"Failed to load dataset",
			"required date column not found",
		)
	case errors.Is(err, dataset.ErrNoUsableRows):
		return apierrors.NewWithDetails(
			http.StatusUnprocessableEntity,
			"DATASET_UNUSABLE",
			"File could not be loaded as a dataset",
			"file contains no usable rows",
		)
	default:
		return err
	}
}

// ExportRecords handles GET /api/export/records.csv with the same
// filter query as the dashboard.
func (h *DatasetHandler) ExportRecords(w http.ResponseWriter, r *http.Request) {
	query, err := bindDashboardQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	records, err := h.service.FilteredRecords(r.Context(), query.FilterSpec())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.writeCSV(w, r, "records.csv", func(dst io.Writer) error {
		return h.exporter.WriteRecords(dst, records)
	})
}

// ExportCustomers handles GET /api/export/customers.csv.
func (h *DatasetHandler) ExportCustomers(w http.ResponseWriter, r *http.Request) {
	query, err := bindDashboardQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	summaries, err := h.service.CustomerSummaries(r.Context(), query.FilterSpec(), query.Threshold)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.writeCSV(w, r, "customers.csv", func(dst io.Writer) error {
		return h.exporter.WriteCustomerSummaries(dst, summaries)
	})
}

func (h *DatasetHandler) writeCSV(w http.ResponseWriter, r *http.Request, filename string, write func(io.Writer) error) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")

	if err := write(w); err != nil {
		// headers are out already, log and drop the connection
		h.logger.ErrorContext(r.Context(), "csv export failed",
			slog.String("file", filename),
			slog.String("error", err.Error()))
	}
}
