package lifecycle

import (
	"sort"

	"github.com/emprestaja/p2p-lending-api-go/internal/domain"
	"github.com/emprestaja/p2p-lending-api-go/internal/finance"
)

// AuthoredProposal is a proposal with its own financial projection,
// computed from the proposal's rate and term rather than the
// negotiation's current terms.
type AuthoredProposal struct {
	domain.Proposal
	MonthlyPayment float64 `json:"monthly_payment"`
	TotalAmount    float64 `json:"total_amount"`
}

// ProposalsByAuthor filters a flat proposal collection down to those
// authored by the given (partyID, role) pair, computes each proposal's
// monthly payment and total from its own rate/term over the stated
// principal, and sorts most recent first for display.
//
// Proposals whose terms are unusable (zero term) are kept with a zero
// projection rather than dropped; the author still sees their turn.
func ProposalsByAuthor(proposals []domain.Proposal, principal float64, partyID, role string) []AuthoredProposal {
	out := make([]AuthoredProposal, 0, len(proposals))
	for _, p := range proposals {
		if p.AuthorID != partyID || p.AuthorRole != role {
			continue
		}

		ap := AuthoredProposal{Proposal: p}
		if payment, err := finance.MonthlyPayment(principal, p.Rate.Effective(), p.TermMonths); err == nil {
			ap.MonthlyPayment = payment
			ap.TotalAmount = finance.TotalAmount(payment, p.TermMonths)
		}
		out = append(out, ap)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Latest returns the most recent proposal by creation time, or nil
// when the collection is empty.
func Latest(proposals []domain.Proposal) *domain.Proposal {
	var latest *domain.Proposal
	for i := range proposals {
		if latest == nil || proposals[i].CreatedAt.After(latest.CreatedAt) {
			latest = &proposals[i]
		}
	}
	return latest
}
