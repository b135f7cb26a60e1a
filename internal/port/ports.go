// Package port defines the interfaces (ports) for external
// dependencies. Following hexagonal architecture, these ports decouple
// the core and service layer from concrete implementations.
package port

import (
	"context"

	"github.com/emprestaja/p2p-lending-api-go/internal/domain"
)

// NegotiationStore owns negotiation and proposal records. The core
// packages (finance, lifecycle) never touch it; only the negotiation
// service reads and writes through it.
type NegotiationStore interface {
	CreateNegotiation(ctx context.Context, neg *domain.Negotiation) error
	GetNegotiation(ctx context.Context, negotiationID string) (*domain.Negotiation, error)
	UpdateNegotiation(ctx context.Context, neg *domain.Negotiation) error
	ListNegotiationsByParty(ctx context.Context, partyID, role string) ([]domain.Negotiation, error)
	ListNegotiationsByStatus(ctx context.Context, statuses ...string) ([]domain.Negotiation, error)

	AppendProposal(ctx context.Context, p *domain.Proposal) error
	ListProposals(ctx context.Context, negotiationID string) ([]domain.Proposal, error)
}

// PartyStore resolves borrower/investor display identities.
type PartyStore interface {
	GetParty(ctx context.Context, partyID string) (*domain.Party, error)
}

// SnapshotSource is a read-only feed of negotiation data from an
// external store, used to hydrate the local repository. The core never
// persists anything through it.
type SnapshotSource interface {
	FetchNegotiations(ctx context.Context) ([]domain.Negotiation, error)
	FetchProposals(ctx context.Context, negotiationID string) ([]domain.Proposal, error)
	FetchParties(ctx context.Context) ([]domain.Party, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
