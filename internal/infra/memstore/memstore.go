// Package memstore is the in-memory repository backing the service in
// development and tests. It replaces the ambient mock arrays of the
// original platform with an explicit store passed into the services,
// so nothing in the core depends on package-level mutable state.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/emprestaja/p2p-lending-api-go/internal/domain"
)

// Store is a thread-safe in-memory negotiation/party repository.
type Store struct {
	mu           sync.RWMutex
	negotiations map[string]domain.Negotiation
	proposals    map[string][]domain.Proposal // keyed by negotiation ID
	parties      map[string]domain.Party
}

// New creates an empty store.
func New() *Store {
	return &Store{
		negotiations: make(map[string]domain.Negotiation),
		proposals:    make(map[string][]domain.Proposal),
		parties:      make(map[string]domain.Party),
	}
}

// ============================================================
// Negotiations
// ============================================================

func (s *Store) CreateNegotiation(ctx context.Context, neg *domain.Negotiation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.negotiations[neg.ID]; exists {
		return &domain.ErrConflict{Message: "negotiation already exists: " + neg.ID}
	}
	s.negotiations[neg.ID] = *neg
	return nil
}

func (s *Store) GetNegotiation(ctx context.Context, negotiationID string) (*domain.Negotiation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	neg, ok := s.negotiations[negotiationID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "negotiation", ID: negotiationID}
	}
	out := neg
	return &out, nil
}

func (s *Store) UpdateNegotiation(ctx context.Context, neg *domain.Negotiation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.negotiations[neg.ID]; !ok {
		return &domain.ErrNotFound{Resource: "negotiation", ID: neg.ID}
	}
	s.negotiations[neg.ID] = *neg
	return nil
}

func (s *Store) ListNegotiationsByParty(ctx context.Context, partyID, role string) ([]domain.Negotiation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Negotiation, 0)
	for _, neg := range s.negotiations {
		switch role {
		case domain.RoleBorrower:
			if neg.BorrowerID != partyID {
				continue
			}
		case domain.RoleInvestor:
			if neg.InvestorID != partyID {
				continue
			}
		default:
			if neg.BorrowerID != partyID && neg.InvestorID != partyID {
				continue
			}
		}
		out = append(out, neg)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) ListNegotiationsByStatus(ctx context.Context, statuses ...string) ([]domain.Negotiation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}

	out := make([]domain.Negotiation, 0)
	for _, neg := range s.negotiations {
		if wanted[neg.Status] {
			out = append(out, neg)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ============================================================
// Proposals
// ============================================================

func (s *Store) AppendProposal(ctx context.Context, p *domain.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.negotiations[p.NegotiationID]; !ok {
		return &domain.ErrNotFound{Resource: "negotiation", ID: p.NegotiationID}
	}
	s.proposals[p.NegotiationID] = append(s.proposals[p.NegotiationID], *p)
	return nil
}

func (s *Store) ListProposals(ctx context.Context, negotiationID string) ([]domain.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.proposals[negotiationID]
	out := make([]domain.Proposal, len(src))
	copy(out, src)

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ============================================================
// Parties
// ============================================================

func (s *Store) GetParty(ctx context.Context, partyID string) (*domain.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.parties[partyID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "party", ID: partyID}
	}
	out := p
	return &out, nil
}

// PutParty registers or replaces a party record.
func (s *Store) PutParty(ctx context.Context, p domain.Party) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parties[p.ID] = p
}

// Hydrate bulk-loads snapshots fetched from the external feed.
// Existing records with the same IDs are replaced; proposals are
// replaced wholesale per negotiation.
func (s *Store) Hydrate(negotiations []domain.Negotiation, proposals map[string][]domain.Proposal, parties []domain.Party) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, neg := range negotiations {
		s.negotiations[neg.ID] = neg
	}
	for negID, ps := range proposals {
		cp := make([]domain.Proposal, len(ps))
		copy(cp, ps)
		s.proposals[negID] = cp
	}
	for _, p := range parties {
		s.parties[p.ID] = p
	}
}
