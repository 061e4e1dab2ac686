package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ndewijer/Property-Investment-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Property-Investment-Backend/internal/api/middleware"
	"github.com/ndewijer/Property-Investment-Backend/internal/config"
	"github.com/ndewijer/Property-Investment-Backend/internal/metrics"
	"github.com/ndewijer/Property-Investment-Backend/internal/service"
)

// Services groups the services the router exposes.
type Services struct {
	System     *service.SystemService
	Investment *service.InvestmentService
	Portfolio  *service.PortfolioService
	Escrow     *service.EscrowService
}

// NewRouter creates and configures the HTTP router
func NewRouter(services Services, m *metrics.Metrics, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(services.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		propertyHandler := handlers.NewPropertyHandler(services.Investment)
		r.Post("/property", propertyHandler.CreateProperty)

		r.Route("/investment-property", func(r chi.Router) {
			r.Get("/", propertyHandler.InvestmentProperties)
			r.Post("/", propertyHandler.CreateInvestmentProperty)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", propertyHandler.GetInvestmentProperty)
				r.Delete("/", propertyHandler.DeleteInvestmentProperty)
				r.Put("/value", propertyHandler.UpdateValue)
				r.Get("/history", propertyHandler.ValueHistory)
			})
		})

		r.Route("/investment", func(r chi.Router) {
			investmentHandler := handlers.NewInvestmentHandler(services.Investment)
			r.Post("/", investmentHandler.Buy)
			r.With(custommiddleware.ValidateUUIDMiddleware).Post("/{uuid}/sell", investmentHandler.Sell)
		})

		r.Route("/user/{uuid}", func(r chi.Router) {
			r.Use(custommiddleware.ValidateUUIDMiddleware)
			portfolioHandler := handlers.NewPortfolioHandler(services.Portfolio)
			r.Get("/portfolio", portfolioHandler.Portfolio)
			r.Get("/portfolio/performance", portfolioHandler.Performance)
			r.Get("/dashboard", portfolioHandler.Dashboard)
		})

		r.Route("/escrow", func(r chi.Router) {
			escrowHandler := handlers.NewEscrowHandler(services.Escrow)
			r.Post("/", escrowHandler.Initiate)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", escrowHandler.GetPayment)
				r.Post("/release", escrowHandler.Release)
				r.Post("/dispute", escrowHandler.Dispute)
				r.Get("/transitions", escrowHandler.Transitions)
			})
		})
	})

	return r
}
