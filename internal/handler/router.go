package handler

import (
	"net/http"
	"time"

	"github.com/emprestaja/p2p-lending-api-go/internal/infra/observability"
	"github.com/emprestaja/p2p-lending-api-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract consumed by the lending frontend.
func NewRouter(svc *service.NegotiationService, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.Handler())

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. 🤝 Negociações
		// =============================================
		r.Post("/negotiations", createNegotiationHandler(svc, logger))
		r.Get("/negotiations/{negotiationId}", getNegotiationHandler(svc, logger))
		r.Post("/negotiations/{negotiationId}/accept", acceptNegotiationHandler(svc, logger))
		r.Post("/negotiations/{negotiationId}/cancel", cancelNegotiationHandler(svc, logger))

		// =============================================
		// 2. 📝 Propostas
		// =============================================
		r.Post("/negotiations/{negotiationId}/proposals", submitProposalHandler(svc, logger))
		r.Get("/negotiations/{negotiationId}/proposals", listProposalsHandler(svc, logger))

		// =============================================
		// 3. 👤 Partes
		// =============================================
		r.Get("/parties/{partyId}/negotiations", listPartyNegotiationsHandler(svc, logger))
		r.Get("/parties/{partyId}/loans", listPartyLoansHandler(svc, logger))

		// =============================================
		// 4. 💰 Empréstimos ativos
		// =============================================
		r.Get("/loans/{negotiationId}", getLoanHandler(svc, logger))

		// =============================================
		// 5. 🧮 Simulação
		// =============================================
		r.Post("/simulations", simulateHandler(svc, logger))

		// =============================================
		// 6. 📊 Métricas
		// =============================================
		r.Get("/metrics/platform", platformMetricsHandler(metrics))
	})

	return r
}

// ============================================================
// Probes & metrics
// ============================================================

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "healthy",
			"services": []map[string]any{
				{"name": "p2p-lending-api", "status": "healthy", "last_checked": now},
			},
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func platformMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
