package lifecycle

import (
	"time"

	"github.com/emprestaja/p2p-lending-api-go/internal/domain"
	"github.com/emprestaja/p2p-lending-api-go/internal/finance"
)

// BuildActiveLoan joins an accepted negotiation with the resolved
// party identities and its financial projection.
//
// The monthly payment comes from the negotiation's stated installment
// value when present; otherwise it is derived from the declared
// amount/rate/term. Start date is the acceptance time (falling back to
// the last update), end date is start + term in calendar months with
// short months clamped to their last day.
func BuildActiveLoan(neg domain.Negotiation, borrower, investor domain.Party) (domain.ActiveLoan, error) {
	payment := neg.Installment
	if payment <= 0 {
		derived, err := finance.MonthlyPayment(neg.Amount, neg.MonthlyRate, neg.TermMonths)
		if err != nil {
			return domain.ActiveLoan{}, err
		}
		payment = derived
	}

	total := finance.TotalAmount(payment, neg.TermMonths)

	start := neg.UpdatedAt
	if neg.AcceptedAt != nil {
		start = *neg.AcceptedAt
	}

	return domain.ActiveLoan{
		NegotiationID: neg.ID,
		BorrowerName:  borrower.Name,
		InvestorName:  investor.Name,
		Amount:        neg.Amount,
		MonthlyRate:   neg.MonthlyRate,
		TermMonths:    neg.TermMonths,
		Status:        CanonicalStatus(neg.Status),
		Projection: domain.AmortizationResult{
			MonthlyPayment:    payment,
			TotalAmount:       total,
			TotalInterest:     finance.InterestAmount(total, neg.Amount),
			IntermediationFee: finance.IntermediationFee(neg.Amount),
		},
		StartDate: start,
		EndDate:   finance.AddMonths(start, neg.TermMonths),
	}, nil
}

// View enriches a negotiation snapshot with its derived lifecycle
// state for display.
func View(neg domain.Negotiation, now time.Time) domain.NegotiationView {
	return ViewAt(neg, now, Window)
}

// ViewAt is View with a configurable window.
func ViewAt(neg domain.Negotiation, now time.Time, window time.Duration) domain.NegotiationView {
	deadline := DeadlineAt(neg.CreatedAt, window)
	remaining := deadline.Sub(now)
	return domain.NegotiationView{
		Negotiation:     neg,
		CanonicalStatus: CanonicalStatus(neg.Status),
		Expired:         remaining <= 0,
		RemainingTime:   FormatRemaining(remaining),
		Deadline:        deadline,
	}
}
