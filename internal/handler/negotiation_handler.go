package handler

import (
	"encoding/json"
	"net/http"

	"github.com/emprestaja/p2p-lending-api-go/internal/domain"
	"github.com/emprestaja/p2p-lending-api-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 1. Negociações
// ============================================================

func createNegotiationHandler(svc *service.NegotiationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/negotiations")
		defer span.End()

		var req domain.CreateNegotiationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(
			attribute.String("borrower.id", req.BorrowerID),
			attribute.String("investor.id", req.InvestorID),
		)

		view, err := svc.CreateNegotiation(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, view)
	}
}

func getNegotiationHandler(svc *service.NegotiationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/negotiations/{negotiationId}")
		defer span.End()

		negotiationID := chi.URLParam(r, "negotiationId")
		view, err := svc.GetNegotiation(ctx, negotiationID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func acceptNegotiationHandler(svc *service.NegotiationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/negotiations/{negotiationId}/accept")
		defer span.End()

		negotiationID := chi.URLParam(r, "negotiationId")

		var req domain.PartyActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.PartyID == "" {
			writeError(w, http.StatusBadRequest, "partyId is required")
			return
		}
		span.SetAttributes(attribute.String("party.id", req.PartyID))

		view, err := svc.AcceptNegotiation(ctx, negotiationID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func cancelNegotiationHandler(svc *service.NegotiationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/negotiations/{negotiationId}/cancel")
		defer span.End()

		negotiationID := chi.URLParam(r, "negotiationId")

		var req domain.PartyActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.PartyID == "" {
			writeError(w, http.StatusBadRequest, "partyId is required")
			return
		}

		view, err := svc.CancelNegotiation(ctx, negotiationID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// ============================================================
// 2. Propostas
// ============================================================

func submitProposalHandler(svc *service.NegotiationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/negotiations/{negotiationId}/proposals")
		defer span.End()

		negotiationID := chi.URLParam(r, "negotiationId")

		var req domain.SubmitProposalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.AuthorID == "" {
			writeError(w, http.StatusBadRequest, "authorId is required")
			return
		}
		span.SetAttributes(
			attribute.String("negotiation.id", negotiationID),
			attribute.String("author.id", req.AuthorID),
		)

		proposal, err := svc.SubmitProposal(ctx, negotiationID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, proposal)
	}
}

func listProposalsHandler(svc *service.NegotiationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/negotiations/{negotiationId}/proposals")
		defer span.End()

		negotiationID := chi.URLParam(r, "negotiationId")
		author := r.URL.Query().Get("author")
		role := r.URL.Query().Get("role")
		if author == "" {
			writeError(w, http.StatusBadRequest, "author is required")
			return
		}
		if role != domain.RoleBorrower && role != domain.RoleInvestor {
			writeError(w, http.StatusBadRequest, "role must be borrower or investor")
			return
		}

		proposals, err := svc.ListProposalsByAuthor(ctx, negotiationID, author, role)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"proposals": proposals})
	}
}

// ============================================================
// 3. Partes
// ============================================================

func listPartyNegotiationsHandler(svc *service.NegotiationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/parties/{partyId}/negotiations")
		defer span.End()

		partyID := chi.URLParam(r, "partyId")
		role := r.URL.Query().Get("role")
		page, pageSize := parsePagination(r)

		views, err := svc.ListNegotiationsByParty(ctx, partyID, role)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"negotiations": paginate(views, page, pageSize),
			"total":        len(views),
		})
	}
}
