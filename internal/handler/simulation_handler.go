package handler

import (
	"encoding/json"
	"net/http"

	"github.com/emprestaja/p2p-lending-api-go/internal/domain"
	"github.com/emprestaja/p2p-lending-api-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Simulação de empréstimo
// ============================================================

func simulateHandler(svc *service.NegotiationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/simulations")
		defer span.End()

		var req domain.SimulationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(
			attribute.Float64("simulation.principal", req.Principal),
			attribute.Int("simulation.installments", req.Installments),
		)

		resp, err := svc.Simulate(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
