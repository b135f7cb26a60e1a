package memstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/emprestaja/p2p-lending-api-go/internal/domain"
	"github.com/emprestaja/p2p-lending-api-go/internal/infra/memstore"
)

func TestCreateAndGetNegotiation(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	neg := &domain.Negotiation{ID: "neg-1", BorrowerID: "b", InvestorID: "i", Status: domain.StatusPendente}
	if err := s.CreateNegotiation(ctx, neg); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetNegotiation(ctx, "neg-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.BorrowerID != "b" {
		t.Errorf("unexpected negotiation: %+v", got)
	}

	// duplicate IDs are rejected
	if err := s.CreateNegotiation(ctx, neg); err == nil {
		t.Error("expected conflict on duplicate create")
	}
}

func TestGetNegotiation_NotFound(t *testing.T) {
	s := memstore.New()

	_, err := s.GetNegotiation(context.Background(), "missing")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateNegotiation(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	neg := &domain.Negotiation{ID: "neg-1", Status: domain.StatusPendente}
	if err := s.CreateNegotiation(ctx, neg); err != nil {
		t.Fatalf("create: %v", err)
	}

	neg.Status = domain.StatusAceita
	if err := s.UpdateNegotiation(ctx, neg); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := s.GetNegotiation(ctx, "neg-1")
	if got.Status != domain.StatusAceita {
		t.Errorf("expected aceita, got %s", got.Status)
	}

	if err := s.UpdateNegotiation(ctx, &domain.Negotiation{ID: "ghost"}); err == nil {
		t.Error("expected not found on updating unknown negotiation")
	}
}

func TestListNegotiationsByParty(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	base := time.Now()

	for _, neg := range []domain.Negotiation{
		{ID: "n1", BorrowerID: "ana", InvestorID: "x", CreatedAt: base},
		{ID: "n2", BorrowerID: "y", InvestorID: "ana", CreatedAt: base.Add(time.Hour)},
		{ID: "n3", BorrowerID: "z", InvestorID: "w", CreatedAt: base.Add(2 * time.Hour)},
	} {
		neg := neg
		if err := s.CreateNegotiation(ctx, &neg); err != nil {
			t.Fatalf("create %s: %v", neg.ID, err)
		}
	}

	asBorrower, _ := s.ListNegotiationsByParty(ctx, "ana", domain.RoleBorrower)
	if len(asBorrower) != 1 || asBorrower[0].ID != "n1" {
		t.Errorf("borrower list wrong: %+v", asBorrower)
	}

	asInvestor, _ := s.ListNegotiationsByParty(ctx, "ana", domain.RoleInvestor)
	if len(asInvestor) != 1 || asInvestor[0].ID != "n2" {
		t.Errorf("investor list wrong: %+v", asInvestor)
	}

	// empty role matches either side, most recent first
	any, _ := s.ListNegotiationsByParty(ctx, "ana", "")
	if len(any) != 2 || any[0].ID != "n2" {
		t.Errorf("any-role list wrong: %+v", any)
	}
}

func TestListNegotiationsByStatus(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	for _, neg := range []domain.Negotiation{
		{ID: "n1", Status: domain.StatusPendente},
		{ID: "n2", Status: domain.StatusEmNegociacao},
		{ID: "n3", Status: domain.StatusCancelada},
	} {
		neg := neg
		_ = s.CreateNegotiation(ctx, &neg)
	}

	open, _ := s.ListNegotiationsByStatus(ctx, domain.StatusPendente, domain.StatusEmNegociacao)
	if len(open) != 2 {
		t.Errorf("expected 2 open negotiations, got %d", len(open))
	}
}

func TestProposals_AppendOnlyOrdered(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	base := time.Now()

	neg := &domain.Negotiation{ID: "neg-1"}
	if err := s.CreateNegotiation(ctx, neg); err != nil {
		t.Fatalf("create: %v", err)
	}

	// appended out of order, listed by creation time
	for _, p := range []domain.Proposal{
		{ID: "p2", NegotiationID: "neg-1", CreatedAt: base.Add(time.Hour)},
		{ID: "p1", NegotiationID: "neg-1", CreatedAt: base},
	} {
		p := p
		if err := s.AppendProposal(ctx, &p); err != nil {
			t.Fatalf("append %s: %v", p.ID, err)
		}
	}

	got, err := s.ListProposals(ctx, "neg-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "p1" || got[1].ID != "p2" {
		t.Errorf("expected chronological order p1,p2; got %+v", got)
	}

	// proposals for an unknown negotiation are rejected
	if err := s.AppendProposal(ctx, &domain.Proposal{ID: "px", NegotiationID: "ghost"}); err == nil {
		t.Error("expected not found appending to unknown negotiation")
	}
}

func TestParties(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	s.PutParty(ctx, domain.Party{ID: "usr-1", Name: "Ana Souza"})

	got, err := s.GetParty(ctx, "usr-1")
	if err != nil {
		t.Fatalf("get party: %v", err)
	}
	if got.Name != "Ana Souza" {
		t.Errorf("unexpected party: %+v", got)
	}

	if _, err := s.GetParty(ctx, "ghost"); err == nil {
		t.Error("expected not found for unknown party")
	}
}

func TestSeed(t *testing.T) {
	s := memstore.New()
	memstore.Seed(s, time.Now())

	neg, err := s.GetNegotiation(context.Background(), "neg-seed-1")
	if err != nil {
		t.Fatalf("seed negotiation missing: %v", err)
	}
	if neg.Status != domain.StatusEmNegociacao {
		t.Errorf("unexpected seed status: %s", neg.Status)
	}

	proposals, _ := s.ListProposals(context.Background(), "neg-seed-1")
	if len(proposals) != 2 {
		t.Errorf("expected 2 seed proposals, got %d", len(proposals))
	}
}

func TestHydrate(t *testing.T) {
	s := memstore.New()

	s.Hydrate(
		[]domain.Negotiation{{ID: "n1", Status: domain.StatusPendente}},
		map[string][]domain.Proposal{"n1": {{ID: "p1", NegotiationID: "n1"}}},
		[]domain.Party{{ID: "u1", Name: "Ana"}},
	)

	if _, err := s.GetNegotiation(context.Background(), "n1"); err != nil {
		t.Fatalf("hydrated negotiation missing: %v", err)
	}
	proposals, _ := s.ListProposals(context.Background(), "n1")
	if len(proposals) != 1 {
		t.Errorf("expected 1 hydrated proposal, got %d", len(proposals))
	}
	if _, err := s.GetParty(context.Background(), "u1"); err != nil {
		t.Errorf("hydrated party missing: %v", err)
	}
}
