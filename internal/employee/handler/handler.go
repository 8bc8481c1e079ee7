package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"empverify/internal/employee/models"
	"empverify/pkg/platform/httputil"
	"empverify/pkg/requestcontext"
)

// Handler serves the public company catalogue.
type Handler struct {
	companies []models.Company
	logger    *slog.Logger
}

func New(companies []models.Company, logger *slog.Logger) *Handler {
	return &Handler{companies: companies, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/companies", h.HandleListCompanies)
}

// HandleListCompanies handles GET /companies.
func (h *Handler) HandleListCompanies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.DebugContext(ctx, "companies listed",
		"request_id", requestcontext.RequestID(ctx),
		"count", len(h.companies),
	)
	httputil.WriteSuccess(w, http.StatusOK, "", h.companies)
}
