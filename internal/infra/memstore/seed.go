package memstore

import (
	"context"
	"time"

	"github.com/emprestaja/p2p-lending-api-go/internal/domain"
)

func ptr(v float64) *float64 { return &v }

// Seed populates the store with a small deterministic dataset for
// development and demos: two parties, one negotiation mid-exchange and
// one already accepted.
func Seed(s *Store, now time.Time) {
	borrower := domain.Party{ID: "usr-ana", Name: "Ana Souza", Document: "123.456.789-09", Email: "ana@example.com"}
	investor := domain.Party{ID: "usr-carlos", Name: "Carlos Lima", Document: "987.654.321-00", Email: "carlos@example.com"}
	s.PutParty(context.Background(), borrower)
	s.PutParty(context.Background(), investor)

	// open negotiation, borrower waiting on a counter-proposal
	open := domain.Negotiation{
		ID:            "neg-seed-1",
		BorrowerID:    borrower.ID,
		InvestorID:    investor.ID,
		Amount:        5000,
		MonthlyRate:   1.8,
		TermMonths:    12,
		Status:        domain.StatusEmNegociacao,
		ProposalCount: 2,
		CreatedAt:     now.Add(-6 * time.Hour),
		UpdatedAt:     now.Add(-2 * time.Hour),
	}
	_ = s.CreateNegotiation(context.Background(), &open)
	_ = s.AppendProposal(context.Background(), &domain.Proposal{
		ID: "prop-seed-1", NegotiationID: open.ID,
		AuthorID: borrower.ID, AuthorRole: domain.RoleBorrower,
		Rate: domain.RateValue{Value: ptr(1.5)}, TermMonths: 12,
		Negotiable: true, Justification: "Taxa inicial proposta",
		CreatedAt: now.Add(-6 * time.Hour),
	})
	_ = s.AppendProposal(context.Background(), &domain.Proposal{
		ID: "prop-seed-2", NegotiationID: open.ID,
		AuthorID: investor.ID, AuthorRole: domain.RoleInvestor,
		Rate: domain.RateValue{Min: ptr(1.7), Max: ptr(1.9)}, TermMonths: 12,
		Negotiable: true,
		CreatedAt:  now.Add(-2 * time.Hour),
	})

	// accepted negotiation, shows up as an active loan
	acceptedAt := now.Add(-30 * 24 * time.Hour)
	accepted := domain.Negotiation{
		ID:            "neg-seed-2",
		BorrowerID:    borrower.ID,
		InvestorID:    investor.ID,
		Amount:        10000,
		MonthlyRate:   1.5,
		TermMonths:    24,
		Installment:   499.24,
		Status:        domain.StatusAceita,
		ProposalCount: 3,
		AcceptedAt:    &acceptedAt,
		CreatedAt:     acceptedAt.Add(-12 * time.Hour),
		UpdatedAt:     acceptedAt,
	}
	_ = s.CreateNegotiation(context.Background(), &accepted)
}
