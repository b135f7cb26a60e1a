package finance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/emprestaja/p2p-lending-api-go/internal/domain"
)

// AddMonths advances t by n calendar months, clamping to the last
// valid day when the target month is shorter (Jan 31 + 1 month →
// Feb 28/29, never Mar 2-3 as time.AddDate would give).
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	month += time.Month(n)

	first := time.Date(year, month, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// Schedule builds the full amortization table for the given terms.
// Each row carries the interest/principal split of the constant
// payment and the remaining balance after it. The final row absorbs
// the residual cents so the balance closes at exactly zero.
func Schedule(terms domain.LoanTerms, firstDue time.Time) ([]domain.ScheduleEntry, error) {
	payment, err := MonthlyPayment(terms.Principal, terms.MonthlyRate, terms.Installments)
	if err != nil {
		return nil, err
	}

	rate := decimal.NewFromFloat(terms.MonthlyRate).Div(decimal.NewFromInt(100))
	balance := decimal.NewFromFloat(terms.Principal)
	pay := decimal.NewFromFloat(payment)

	entries := make([]domain.ScheduleEntry, 0, terms.Installments)
	for n := 1; n <= terms.Installments; n++ {
		interest := balance.Mul(rate).Round(2)
		principalPart := pay.Sub(interest)

		if n == terms.Installments {
			// settle the residual on the last installment
			principalPart = balance
			pay = balance.Add(interest)
		}
		balance = balance.Sub(principalPart)

		paymentF, _ := pay.Round(2).Float64()
		interestF, _ := interest.Float64()
		principalF, _ := principalPart.Round(2).Float64()
		balanceF, _ := balance.Round(2).Float64()

		entries = append(entries, domain.ScheduleEntry{
			Number:    n,
			DueDate:   AddMonths(firstDue, n-1),
			Payment:   paymentF,
			Interest:  interestF,
			Principal: principalF,
			Balance:   balanceF,
		})
	}
	return entries, nil
}
