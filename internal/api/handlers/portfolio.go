package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Property-Investment-Backend/internal/api/response"
	"github.com/ndewijer/Property-Investment-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Investment-Backend/internal/service"
)

// PortfolioHandler handles portfolio valuation requests for a user.
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

// Portfolio returns a user's metrics, positions and monthly performance.
// A user without investments gets zero metrics and empty lists.
//
// Endpoint: GET /api/user/{uuid}/portfolio
// Response: 200 OK with Portfolio
// Error: 400 Bad Request if the user ID is invalid (validated by middleware)
// Error: 500 Internal Server Error if retrieval fails
func (h *PortfolioHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	portfolio, err := h.portfolioService.GetUserPortfolio(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrFailedToRetrievePortfolio)
		return
	}

	response.RespondJSON(w, http.StatusOK, portfolio)
}

// Performance returns only the monthly performance series.
//
// Endpoint: GET /api/user/{uuid}/portfolio/performance
// Response: 200 OK with array of PerformancePoint
// Error: 500 Internal Server Error if retrieval fails
func (h *PortfolioHandler) Performance(w http.ResponseWriter, r *http.Request) {
	series, err := h.portfolioService.GetPerformanceSeries(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrFailedToRetrievePerformance)
		return
	}

	response.RespondJSON(w, http.StatusOK, series)
}

// Dashboard returns the user's portfolio together with the investment
// properties they do not hold yet.
//
// Endpoint: GET /api/user/{uuid}/dashboard
// Response: 200 OK with Dashboard
// Error: 500 Internal Server Error if retrieval fails
func (h *PortfolioHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.portfolioService.GetDashboard(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrFailedToRetrievePortfolio)
		return
	}

	response.RespondJSON(w, http.StatusOK, dashboard)
}
