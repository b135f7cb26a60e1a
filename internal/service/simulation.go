package service

import (
	"context"
	"time"

	"github.com/emprestaja/p2p-lending-api-go/internal/domain"
	"github.com/emprestaja/p2p-lending-api-go/internal/finance"
	"github.com/emprestaja/p2p-lending-api-go/internal/i18n"

	"go.opentelemetry.io/otel/attribute"
)

// Simulate computes the full financial projection for hypothetical
// loan terms: installment, totals, fee, investor profit, the optional
// savings against a second rate, and localized display strings.
func (s *NegotiationService) Simulate(ctx context.Context, req *domain.SimulationRequest) (*domain.SimulationResponse, error) {
	ctx, span := tracer.Start(ctx, "NegotiationService.Simulate")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("principal", req.Principal),
		attribute.Float64("monthly_rate", req.MonthlyRate),
		attribute.Int("installments", req.Installments),
	)

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("simulation", time.Since(start)) }()

	terms := domain.LoanTerms{
		Principal:    req.Principal,
		MonthlyRate:  req.MonthlyRate,
		Installments: req.Installments,
	}
	result, err := finance.Project(terms)
	if err != nil {
		return nil, err
	}

	profit, err := finance.EstimatedProfit(req.Principal, req.MonthlyRate, req.Installments)
	if err != nil {
		return nil, err
	}

	locale := req.Locale
	if locale == "" {
		locale = s.locale
	}
	fmtr := i18n.New(locale)

	resp := &domain.SimulationResponse{
		MonthlyPayment:    result.MonthlyPayment,
		TotalAmount:       result.TotalAmount,
		TotalInterest:     result.TotalInterest,
		IntermediationFee: finance.IntermediationFeeAt(req.Principal, s.feePercent),
		EstimatedProfit:   profit,
		RateLabel:         fmtr.Rate(req.MonthlyRate),
		MonthlyPaymentFmt: fmtr.Currency(result.MonthlyPayment),
		TotalAmountFmt:    fmtr.Currency(result.TotalAmount),
	}

	if req.CompareRate != nil {
		savings, err := finance.Savings(req.Principal, req.MonthlyRate, *req.CompareRate, req.Installments)
		if err != nil {
			return nil, err
		}
		resp.Savings = &savings
	}

	if req.WithSchedule {
		firstDue := finance.AddMonths(time.Now().UTC(), 1)
		schedule, err := finance.Schedule(terms, firstDue)
		if err != nil {
			return nil, err
		}
		resp.Schedule = schedule
	}

	return resp, nil
}
