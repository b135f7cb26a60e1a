// Package finance implements the amortization calculator: pure
// financial math over loan terms, no side effects, no I/O.
//
// Every composition step rounds to 2-decimal currency precision, so the
// total is computed from the already-rounded monthly payment. This
// matches the values the platform has always displayed; rounding only
// at the end produces off-by-a-cent totals.
package finance

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/emprestaja/p2p-lending-api-go/internal/domain"
)

// DefaultFeePercent is the platform intermediation fee over principal.
const DefaultFeePercent = 4.0

// MaxMonthlyRatePercent bounds the accepted monthly rate.
const MaxMonthlyRatePercent = 100.0

// round2 rounds to cents. decimal.Round is half away from zero, which
// is half-up for the positive amounts handled here.
func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func validateTerms(principal, monthlyRatePercent float64, installments int) error {
	if principal < 0 {
		return &domain.ErrInvalidInput{Field: "principal", Message: "must not be negative"}
	}
	if monthlyRatePercent < 0 || monthlyRatePercent > MaxMonthlyRatePercent {
		return &domain.ErrInvalidInput{Field: "monthly_rate", Message: "must be between 0 and 100"}
	}
	if installments <= 0 {
		return &domain.ErrInvalidInput{Field: "installments", Message: "must be a positive integer"}
	}
	return nil
}

// MonthlyPayment computes the constant installment for the given terms.
// With a zero rate the principal is split evenly (straight-line);
// otherwise the price/annuity formula P*i(1+i)^n / ((1+i)^n - 1)
// applies with i = monthlyRatePercent/100. The result is rounded
// half-up on the cent.
//
// Policy: installments <= 0 fails with ErrInvalidInput rather than
// returning 0 — callers must guard.
func MonthlyPayment(principal, monthlyRatePercent float64, installments int) (float64, error) {
	if err := validateTerms(principal, monthlyRatePercent, installments); err != nil {
		return 0, err
	}

	if monthlyRatePercent == 0 {
		return round2(principal / float64(installments)), nil
	}

	i := monthlyRatePercent / 100
	factor := math.Pow(1+i, float64(installments))
	payment := principal * (i * factor) / (factor - 1)

	return round2(payment), nil
}

// TotalAmount is the cost of the loan over its whole term, computed
// from the already-rounded monthly payment.
func TotalAmount(monthlyPayment float64, installments int) float64 {
	total := decimal.NewFromFloat(monthlyPayment).Mul(decimal.NewFromInt(int64(installments)))
	f, _ := total.Round(2).Float64()
	return f
}

// InterestAmount is totalAmount - principal at cent precision. It may
// be negative if the caller supplies inconsistent inputs; consistency
// is not validated here.
func InterestAmount(totalAmount, principal float64) float64 {
	f, _ := decimal.NewFromFloat(totalAmount).Sub(decimal.NewFromFloat(principal)).Round(2).Float64()
	return f
}

// IntermediationFee is the platform fee at the default 4% of principal.
func IntermediationFee(principal float64) float64 {
	return IntermediationFeeAt(principal, DefaultFeePercent)
}

// IntermediationFeeAt computes the fee at an arbitrary percentage.
func IntermediationFeeAt(principal, feePercent float64) float64 {
	fee := decimal.NewFromFloat(principal).
		Mul(decimal.NewFromFloat(feePercent)).
		Div(decimal.NewFromInt(100))
	f, _ := fee.Round(2).Float64()
	return f
}

// EstimatedProfit is the investor-side interest over the loan:
// InterestAmount(TotalAmount(MonthlyPayment(...), n), principal).
func EstimatedProfit(principal, monthlyRatePercent float64, installments int) (float64, error) {
	payment, err := MonthlyPayment(principal, monthlyRatePercent, installments)
	if err != nil {
		return 0, err
	}
	return InterestAmount(TotalAmount(payment, installments), principal), nil
}

// Savings is the difference between the total cost at oldRate and at
// newRate over the same principal and term. Positive means the new
// rate is cheaper for the borrower ("economia"); negative means it
// costs more. Callers rely on this sign convention.
func Savings(principal, oldRate, newRate float64, installments int) (float64, error) {
	oldPayment, err := MonthlyPayment(principal, oldRate, installments)
	if err != nil {
		return 0, err
	}
	newPayment, err := MonthlyPayment(principal, newRate, installments)
	if err != nil {
		return 0, err
	}

	oldTotal := decimal.NewFromFloat(TotalAmount(oldPayment, installments))
	newTotal := decimal.NewFromFloat(TotalAmount(newPayment, installments))
	f, _ := oldTotal.Sub(newTotal).Round(2).Float64()
	return f, nil
}

// Project bundles the standard projection used by negotiation views:
// monthly payment, total, interest and the platform fee.
func Project(terms domain.LoanTerms) (domain.AmortizationResult, error) {
	payment, err := MonthlyPayment(terms.Principal, terms.MonthlyRate, terms.Installments)
	if err != nil {
		return domain.AmortizationResult{}, err
	}
	total := TotalAmount(payment, terms.Installments)
	return domain.AmortizationResult{
		MonthlyPayment:    payment,
		TotalAmount:       total,
		TotalInterest:     InterestAmount(total, terms.Principal),
		IntermediationFee: IntermediationFee(terms.Principal),
	}, nil
}
