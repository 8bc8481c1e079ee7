package handler

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	accesslog "empverify/internal/accesslog/models"
	"empverify/internal/admin/service"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/platform/httputil"
	"empverify/pkg/requestcontext"
)

// Service defines the admin reporting operations the handler needs.
type Service interface {
	Dashboard(ctx context.Context) (*service.Dashboard, error)
	Export(ctx context.Context) (*service.Export, error)
	EmailStats(ctx context.Context, days int) (*service.EmailStats, error)
	ListAccessLogs(ctx context.Context, f accesslog.Filter) (*accesslog.Page, error)
}

// Handler serves the admin reporting endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdmin mounts the reporting endpoints. Callers apply the admin role
// guard; canViewReports protects export and email statistics.
func (h *Handler) RegisterAdmin(r chi.Router, canViewReports func(http.Handler) http.Handler) {
	r.Get("/admin/dashboard", h.HandleDashboard)
	r.Get("/admin/logs", h.HandleAccessLogs)
	r.With(canViewReports).Get("/admin/export", h.HandleExport)
	r.With(canViewReports).Get("/admin/email-stats", h.HandleEmailStats)
}

// HandleDashboard handles GET /admin/dashboard.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dash, err := h.service.Dashboard(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Dashboard data retrieved successfully", dash)
}

// HandleExport handles GET /admin/export. ?format=csv streams a CSV file.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format != "" && format != "json" && format != "csv" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "format must be one of: json csv"))
		return
	}

	export, err := h.service.Export(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "verification export generated",
		"request_id", requestID,
		"rows", export.Total,
		"format", format,
	)

	if format != "csv" {
		httputil.WriteSuccess(w, http.StatusOK, "Export data generated successfully", export)
		return
	}

	filename := fmt.Sprintf("verifications-%s.csv", export.ExportedAt.UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if err := writeCSV(w, export); err != nil {
		h.logger.ErrorContext(ctx, "failed to write export csv",
			"request_id", requestID,
			"error", err,
		)
	}
}

func writeCSV(w http.ResponseWriter, export *service.Export) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(export.Headers); err != nil {
		return err
	}
	for _, row := range export.Records {
		if err := cw.Write(row.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// HandleEmailStats handles GET /admin/email-stats?days=N.
func (h *Handler) HandleEmailStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days := service.DefaultEmailStatsDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "days must be a number"))
			return
		}
		days = n
	}

	stats, err := h.service.EmailStats(ctx, days)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Email statistics retrieved successfully", stats)
}

// HandleAccessLogs handles GET /admin/logs?page=&limit=&status=&role=.
// Unparseable paging values fall back to defaults.
func (h *Handler) HandleAccessLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	logs, err := h.service.ListAccessLogs(ctx, accesslog.Filter{
		Status: strings.ToUpper(strings.TrimSpace(q.Get("status"))),
		Role:   strings.TrimSpace(q.Get("role")),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Access logs retrieved successfully", logs)
}
