// Package service provides the business logic layer (use cases).
// NegotiationService handles the negotiation lifecycle: opening,
// counter-proposals, acceptance, cancellation and window expiry.
package service

import (
	"context"
	"time"

	"github.com/emprestaja/p2p-lending-api-go/internal/domain"
	"github.com/emprestaja/p2p-lending-api-go/internal/finance"
	"github.com/emprestaja/p2p-lending-api-go/internal/infra/observability"
	"github.com/emprestaja/p2p-lending-api-go/internal/lifecycle"
	"github.com/emprestaja/p2p-lending-api-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service/negotiation")

// NegotiationService orchestrates negotiation operations over the store.
type NegotiationService struct {
	store      port.NegotiationStore
	parties    port.PartyStore
	partyCache port.Cache[domain.Party]
	metrics    *observability.Metrics
	logger     *zap.Logger

	window     time.Duration
	feePercent float64
	locale     string
}

// NewNegotiationService creates the negotiation service with all
// dependencies injected. window and feePercent fall back to the
// platform defaults when zero.
func NewNegotiationService(
	store port.NegotiationStore,
	parties port.PartyStore,
	partyCache port.Cache[domain.Party],
	metrics *observability.Metrics,
	logger *zap.Logger,
	window time.Duration,
	feePercent float64,
	locale string,
) *NegotiationService {
	if window <= 0 {
		window = lifecycle.Window
	}
	if feePercent <= 0 {
		feePercent = finance.DefaultFeePercent
	}
	return &NegotiationService{
		store:      store,
		parties:    parties,
		partyCache: partyCache,
		metrics:    metrics,
		logger:     logger,
		window:     window,
		feePercent: feePercent,
		locale:     locale,
	}
}

// validRole reports whether role is one of the two negotiation sides.
func validRole(role string) bool {
	return role == domain.RoleBorrower || role == domain.RoleInvestor
}

// partyFor returns the ID of the party acting in the given role.
func partyFor(neg *domain.Negotiation, role string) string {
	if role == domain.RoleBorrower {
		return neg.BorrowerID
	}
	return neg.InvestorID
}

// ============================================================
// Opening
// ============================================================

// CreateNegotiation opens a negotiation between a borrower and an
// investor. The author's initial terms become proposal #1 and are
// mirrored onto the negotiation.
func (s *NegotiationService) CreateNegotiation(ctx context.Context, req *domain.CreateNegotiationRequest) (*domain.NegotiationView, error) {
	ctx, span := tracer.Start(ctx, "NegotiationService.CreateNegotiation")
	defer span.End()
	span.SetAttributes(attribute.Float64("amount", req.Amount))

	if req.BorrowerID == "" {
		return nil, &domain.ErrValidation{Field: "borrowerId", Message: "required"}
	}
	if req.InvestorID == "" {
		return nil, &domain.ErrValidation{Field: "investorId", Message: "required"}
	}
	if req.BorrowerID == req.InvestorID {
		return nil, &domain.ErrValidation{Field: "investorId", Message: "tomador e investidor devem ser partes distintas"}
	}
	if !validRole(req.AuthorRole) {
		return nil, &domain.ErrValidation{Field: "authorRole", Message: "deve ser borrower ou investor"}
	}

	rate := req.Rate.Effective()
	payment, err := finance.MonthlyPayment(req.Amount, rate, req.TermMonths)
	if err != nil {
		return nil, err
	}

	// Both parties must exist before anything is recorded.
	if _, err := s.resolveParty(ctx, req.BorrowerID); err != nil {
		return nil, err
	}
	if _, err := s.resolveParty(ctx, req.InvestorID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	authorID := req.BorrowerID
	if req.AuthorRole == domain.RoleInvestor {
		authorID = req.InvestorID
	}

	neg := &domain.Negotiation{
		ID:            uuid.New().String(),
		BorrowerID:    req.BorrowerID,
		InvestorID:    req.InvestorID,
		Amount:        req.Amount,
		MonthlyRate:   rate,
		TermMonths:    req.TermMonths,
		Installment:   payment,
		Status:        domain.StatusPendente,
		ProposalCount: 1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateNegotiation(ctx, neg); err != nil {
		s.logger.Error("failed to create negotiation", zap.Error(err))
		return nil, err
	}

	proposal := &domain.Proposal{
		ID:            uuid.New().String(),
		NegotiationID: neg.ID,
		AuthorID:      authorID,
		AuthorRole:    req.AuthorRole,
		Rate:          req.Rate,
		TermMonths:    req.TermMonths,
		Installment:   payment,
		Negotiable:    req.Negotiable,
		Justification: req.Justification,
		CreatedAt:     now,
	}
	if err := s.store.AppendProposal(ctx, proposal); err != nil {
		s.logger.Error("failed to append opening proposal",
			zap.String("negotiation_id", neg.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.IncrNegotiation(domain.StatusPendente)
	s.metrics.IncrProposal(req.AuthorRole)
	s.logger.Info("negotiation created",
		zap.String("negotiation_id", neg.ID),
		zap.String("borrower_id", req.BorrowerID),
		zap.String("investor_id", req.InvestorID),
		zap.Float64("amount", req.Amount),
	)

	view := lifecycle.ViewAt(*neg, now, s.window)
	return &view, nil
}

// ============================================================
// Proposals
// ============================================================

// SubmitProposal appends one counter-proposal turn. The author must be
// a party to the negotiation and may not answer their own latest
// proposal; the negotiation must be open and inside its window.
func (s *NegotiationService) SubmitProposal(ctx context.Context, negotiationID string, req *domain.SubmitProposalRequest) (*domain.Proposal, error) {
	ctx, span := tracer.Start(ctx, "NegotiationService.SubmitProposal")
	defer span.End()
	span.SetAttributes(attribute.String("negotiation.id", negotiationID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("submit_proposal", time.Since(start)) }()

	if !validRole(req.AuthorRole) {
		return nil, &domain.ErrValidation{Field: "authorRole", Message: "deve ser borrower ou investor"}
	}

	neg, err := s.store.GetNegotiation(ctx, negotiationID)
	if err != nil {
		return nil, err
	}

	if req.AuthorID != partyFor(neg, req.AuthorRole) {
		return nil, &domain.ErrForbidden{Action: "propose on another party's negotiation"}
	}
	if lifecycle.IsTerminal(neg.Status) {
		return nil, &domain.ErrNegotiationClosed{NegotiationID: neg.ID, Status: neg.Status}
	}
	if lifecycle.IsExpiredAt(neg.CreatedAt, time.Now().UTC(), s.window) {
		return nil, &domain.ErrWindowExpired{NegotiationID: neg.ID}
	}

	proposals, err := s.store.ListProposals(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if last := lifecycle.Latest(proposals); last != nil && last.AuthorID == req.AuthorID {
		return nil, &domain.ErrNotYourTurn{PartyID: req.AuthorID, Role: req.AuthorRole}
	}

	rate := req.Rate.Effective()
	payment, err := finance.MonthlyPayment(neg.Amount, rate, req.TermMonths)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	proposal := &domain.Proposal{
		ID:            uuid.New().String(),
		NegotiationID: neg.ID,
		AuthorID:      req.AuthorID,
		AuthorRole:    req.AuthorRole,
		Rate:          req.Rate,
		TermMonths:    req.TermMonths,
		Installment:   payment,
		Negotiable:    req.Negotiable,
		Justification: req.Justification,
		CreatedAt:     now,
	}
	if err := s.store.AppendProposal(ctx, proposal); err != nil {
		s.logger.Error("failed to append proposal",
			zap.String("negotiation_id", neg.ID),
			zap.Error(err),
		)
		return nil, err
	}

	// Mirror the latest terms onto the negotiation.
	neg.MonthlyRate = rate
	neg.TermMonths = req.TermMonths
	neg.Installment = payment
	neg.Status = domain.StatusEmNegociacao
	neg.ProposalCount++
	neg.UpdatedAt = now
	if err := s.store.UpdateNegotiation(ctx, neg); err != nil {
		s.logger.Error("failed to update negotiation after proposal",
			zap.String("negotiation_id", neg.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.IncrProposal(req.AuthorRole)
	s.logger.Info("proposal submitted",
		zap.String("negotiation_id", neg.ID),
		zap.String("author_id", req.AuthorID),
		zap.String("author_role", req.AuthorRole),
		zap.Int("proposal_count", neg.ProposalCount),
	)

	return proposal, nil
}

// ListProposalsByAuthor returns the proposals one party authored in a
// negotiation, newest first, each carrying its own financial
// projection over the negotiation's principal.
func (s *NegotiationService) ListProposalsByAuthor(ctx context.Context, negotiationID, partyID, role string) ([]lifecycle.AuthoredProposal, error) {
	ctx, span := tracer.Start(ctx, "NegotiationService.ListProposalsByAuthor")
	defer span.End()

	neg, err := s.store.GetNegotiation(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	proposals, err := s.store.ListProposals(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	return lifecycle.ProposalsByAuthor(proposals, neg.Amount, partyID, role), nil
}

// ============================================================
// Acceptance / cancellation
// ============================================================

// AcceptNegotiation closes the deal on the latest proposal. Only the
// counterparty of that proposal may accept, and only while the
// negotiation is open and inside its window.
func (s *NegotiationService) AcceptNegotiation(ctx context.Context, negotiationID string, req *domain.PartyActionRequest) (*domain.NegotiationView, error) {
	ctx, span := tracer.Start(ctx, "NegotiationService.AcceptNegotiation")
	defer span.End()
	span.SetAttributes(attribute.String("negotiation.id", negotiationID))

	neg, err := s.store.GetNegotiation(ctx, negotiationID)
	if err != nil {
		return nil, err
	}

	if !validRole(req.Role) || req.PartyID != partyFor(neg, req.Role) {
		return nil, &domain.ErrForbidden{Action: "accept another party's negotiation"}
	}
	if lifecycle.IsTerminal(neg.Status) {
		return nil, &domain.ErrNegotiationClosed{NegotiationID: neg.ID, Status: neg.Status}
	}
	now := time.Now().UTC()
	if lifecycle.IsExpiredAt(neg.CreatedAt, now, s.window) {
		return nil, &domain.ErrWindowExpired{NegotiationID: neg.ID}
	}

	proposals, err := s.store.ListProposals(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	last := lifecycle.Latest(proposals)
	if last == nil {
		return nil, &domain.ErrValidation{Field: "negotiationId", Message: "negotiation has no proposals"}
	}
	if last.AuthorID == req.PartyID {
		return nil, &domain.ErrNotYourTurn{PartyID: req.PartyID, Role: req.Role}
	}

	neg.Status = domain.StatusAceita
	neg.AcceptedAt = &now
	neg.UpdatedAt = now
	if err := s.store.UpdateNegotiation(ctx, neg); err != nil {
		s.logger.Error("failed to accept negotiation",
			zap.String("negotiation_id", neg.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.IncrNegotiation(domain.StatusAceita)
	s.logger.Info("negotiation accepted",
		zap.String("negotiation_id", neg.ID),
		zap.String("party_id", req.PartyID),
		zap.Float64("monthly_rate", neg.MonthlyRate),
		zap.Int("term_months", neg.TermMonths),
	)

	view := lifecycle.ViewAt(*neg, now, s.window)
	return &view, nil
}

// CancelNegotiation moves an open negotiation to cancelada. Either
// party may cancel at any time before a terminal state; the window
// does not apply.
func (s *NegotiationService) CancelNegotiation(ctx context.Context, negotiationID string, req *domain.PartyActionRequest) (*domain.NegotiationView, error) {
	ctx, span := tracer.Start(ctx, "NegotiationService.CancelNegotiation")
	defer span.End()
	span.SetAttributes(attribute.String("negotiation.id", negotiationID))

	neg, err := s.store.GetNegotiation(ctx, negotiationID)
	if err != nil {
		return nil, err
	}

	if !validRole(req.Role) || req.PartyID != partyFor(neg, req.Role) {
		return nil, &domain.ErrForbidden{Action: "cancel another party's negotiation"}
	}
	if lifecycle.IsTerminal(neg.Status) {
		return nil, &domain.ErrNegotiationClosed{NegotiationID: neg.ID, Status: neg.Status}
	}

	now := time.Now().UTC()
	neg.Status = domain.StatusCancelada
	neg.UpdatedAt = now
	if err := s.store.UpdateNegotiation(ctx, neg); err != nil {
		s.logger.Error("failed to cancel negotiation",
			zap.String("negotiation_id", neg.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.IncrNegotiation(domain.StatusCancelada)
	s.logger.Info("negotiation cancelled",
		zap.String("negotiation_id", neg.ID),
		zap.String("party_id", req.PartyID),
	)

	view := lifecycle.ViewAt(*neg, now, s.window)
	return &view, nil
}

// ============================================================
// Queries
// ============================================================

// GetNegotiation returns one negotiation enriched with its derived
// lifecycle state.
func (s *NegotiationService) GetNegotiation(ctx context.Context, negotiationID string) (*domain.NegotiationView, error) {
	ctx, span := tracer.Start(ctx, "NegotiationService.GetNegotiation")
	defer span.End()

	neg, err := s.store.GetNegotiation(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	view := lifecycle.ViewAt(*neg, time.Now().UTC(), s.window)
	return &view, nil
}

// ListNegotiationsByParty returns the negotiations a party is involved
// in, most recent first. role filters to one side when set.
func (s *NegotiationService) ListNegotiationsByParty(ctx context.Context, partyID, role string) ([]domain.NegotiationView, error) {
	ctx, span := tracer.Start(ctx, "NegotiationService.ListNegotiationsByParty")
	defer span.End()
	span.SetAttributes(attribute.String("party.id", partyID))

	negotiations, err := s.store.ListNegotiationsByParty(ctx, partyID, role)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	views := make([]domain.NegotiationView, 0, len(negotiations))
	for _, neg := range negotiations {
		views = append(views, lifecycle.ViewAt(neg, now, s.window))
	}
	return views, nil
}

// ============================================================
// Window expiry sweep
// ============================================================

// ExpireSweep cancels every open negotiation whose window has closed.
// Returns the number of negotiations expired.
func (s *NegotiationService) ExpireSweep(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "NegotiationService.ExpireSweep")
	defer span.End()

	open, err := s.store.ListNegotiationsByStatus(ctx, domain.StatusPendente, domain.StatusEmNegociacao)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	expired := 0
	for _, neg := range open {
		if !lifecycle.IsExpiredAt(neg.CreatedAt, now, s.window) {
			continue
		}
		neg := neg
		neg.Status = domain.StatusCancelada
		neg.UpdatedAt = now
		if err := s.store.UpdateNegotiation(ctx, &neg); err != nil {
			s.logger.Error("failed to expire negotiation",
				zap.String("negotiation_id", neg.ID),
				zap.Error(err),
			)
			continue
		}
		expired++
		s.metrics.IncrExpired()
		s.logger.Info("negotiation expired",
			zap.String("negotiation_id", neg.ID),
			zap.Time("deadline", lifecycle.DeadlineAt(neg.CreatedAt, s.window)),
		)
	}
	return expired, nil
}

// RunExpireSweeper runs ExpireSweep on a fixed interval until ctx is
// cancelled. Meant to be started as a goroutine from main.
func (s *NegotiationService) RunExpireSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ExpireSweep(ctx); err != nil {
				s.logger.Error("expire sweep failed", zap.Error(err))
			}
		}
	}
}

// resolveParty fetches a party through the cache.
func (s *NegotiationService) resolveParty(ctx context.Context, partyID string) (*domain.Party, error) {
	if cached, ok := s.partyCache.Get(partyID); ok {
		s.metrics.IncrCacheHit("party")
		return &cached, nil
	}
	s.metrics.IncrCacheMiss("party")

	p, err := s.parties.GetParty(ctx, partyID)
	if err != nil {
		return nil, err
	}
	s.partyCache.Set(partyID, *p)
	return p, nil
}
