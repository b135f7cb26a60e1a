package handler

import (
	"net/http"

	"github.com/emprestaja/p2p-lending-api-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Empréstimos ativos
// ============================================================

func getLoanHandler(svc *service.NegotiationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/loans/{negotiationId}")
		defer span.End()

		negotiationID := chi.URLParam(r, "negotiationId")
		span.SetAttributes(attribute.String("negotiation.id", negotiationID))

		loan, err := svc.GetActiveLoan(ctx, negotiationID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, loan)
	}
}

func listPartyLoansHandler(svc *service.NegotiationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/parties/{partyId}/loans")
		defer span.End()

		partyID := chi.URLParam(r, "partyId")
		page, pageSize := parsePagination(r)

		loans, err := svc.ListActiveLoans(ctx, partyID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"loans": paginate(loans, page, pageSize),
			"total": len(loans),
		})
	}
}
