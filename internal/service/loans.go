package service

import (
	"context"
	"sort"
	"time"

	"github.com/emprestaja/p2p-lending-api-go/internal/domain"
	"github.com/emprestaja/p2p-lending-api-go/internal/lifecycle"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// loanStatuses are the raw states in which a negotiation backs a loan.
var loanStatuses = []string{domain.StatusAceita, domain.StatusEmAndamento, domain.StatusFinalizada}

func isLoanStatus(status string) bool {
	for _, st := range loanStatuses {
		if st == status {
			return true
		}
	}
	return false
}

// GetActiveLoan builds the loan view for one accepted negotiation,
// resolving both party identities concurrently.
func (s *NegotiationService) GetActiveLoan(ctx context.Context, negotiationID string) (*domain.ActiveLoan, error) {
	ctx, span := tracer.Start(ctx, "NegotiationService.GetActiveLoan")
	defer span.End()
	span.SetAttributes(attribute.String("negotiation.id", negotiationID))

	neg, err := s.store.GetNegotiation(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if !isLoanStatus(neg.Status) {
		return nil, &domain.ErrValidation{Field: "status", Message: "negotiation has not been accepted"}
	}

	var borrower, investor *domain.Party

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.resolveParty(gCtx, neg.BorrowerID)
		if err != nil {
			return err
		}
		borrower = p
		return nil
	})
	g.Go(func() error {
		p, err := s.resolveParty(gCtx, neg.InvestorID)
		if err != nil {
			return err
		}
		investor = p
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to resolve loan parties",
			zap.String("negotiation_id", negotiationID),
			zap.Error(err),
		)
		return nil, err
	}

	loan, err := lifecycle.BuildActiveLoan(*neg, *borrower, *investor)
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// ListActiveLoans returns the loans a party participates in, most
// recently accepted first. Party identities are resolved concurrently
// across loans, bounded by the errgroup limit.
func (s *NegotiationService) ListActiveLoans(ctx context.Context, partyID string) ([]domain.ActiveLoan, error) {
	ctx, span := tracer.Start(ctx, "NegotiationService.ListActiveLoans")
	defer span.End()
	span.SetAttributes(attribute.String("party.id", partyID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("list_active_loans", time.Since(start)) }()

	negotiations, err := s.store.ListNegotiationsByParty(ctx, partyID, "")
	if err != nil {
		return nil, err
	}

	accepted := make([]domain.Negotiation, 0, len(negotiations))
	for _, neg := range negotiations {
		if isLoanStatus(neg.Status) {
			accepted = append(accepted, neg)
		}
	}

	loans := make([]domain.ActiveLoan, len(accepted))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range accepted {
		i := i
		g.Go(func() error {
			neg := accepted[i]
			borrower, err := s.resolveParty(gCtx, neg.BorrowerID)
			if err != nil {
				return err
			}
			investor, err := s.resolveParty(gCtx, neg.InvestorID)
			if err != nil {
				return err
			}
			loan, err := lifecycle.BuildActiveLoan(neg, *borrower, *investor)
			if err != nil {
				s.logger.Warn("skipping loan with unusable terms",
					zap.String("negotiation_id", neg.ID),
					zap.Error(err),
				)
				return nil
			}
			loans[i] = loan
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.ActiveLoan, 0, len(loans))
	for _, loan := range loans {
		if loan.NegotiationID != "" {
			out = append(out, loan)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartDate.After(out[j].StartDate)
	})
	return out, nil
}
