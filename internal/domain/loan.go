package domain

import "time"

// LoanTerms is the immutable input to every financial calculation:
// principal in currency units, monthly interest rate as a percentage
// (1.8 means 1.8%/month) and the number of monthly installments.
type LoanTerms struct {
	Principal    float64 `json:"principal"`
	MonthlyRate  float64 `json:"monthly_rate"`
	Installments int     `json:"installments"`
}

// AmortizationResult holds the derived financial projection for a loan.
// It is never stored; it is recomputed from LoanTerms on demand.
//
// Invariants: TotalAmount == MonthlyPayment * Installments and
// TotalInterest == TotalAmount - Principal, both at 2-decimal precision.
type AmortizationResult struct {
	MonthlyPayment    float64 `json:"monthly_payment"`
	TotalAmount       float64 `json:"total_amount"`
	TotalInterest     float64 `json:"total_interest"`
	IntermediationFee float64 `json:"intermediation_fee"`
}

// ScheduleEntry is one row of the full amortization table.
type ScheduleEntry struct {
	Number    int       `json:"number"`
	DueDate   time.Time `json:"due_date"`
	Payment   float64   `json:"payment"`
	Interest  float64   `json:"interest"`
	Principal float64   `json:"principal"`
	Balance   float64   `json:"balance"`
}

// SimulationRequest is the body of POST /v1/simulations.
// CompareRate, when set, asks for the savings of switching from
// MonthlyRate to CompareRate over the same principal and term.
type SimulationRequest struct {
	Principal    float64  `json:"principal"`
	MonthlyRate  float64  `json:"monthlyRate"`
	Installments int      `json:"installments"`
	CompareRate  *float64 `json:"compareRate,omitempty"`
	Locale       string   `json:"locale,omitempty"`
	WithSchedule bool     `json:"withSchedule,omitempty"`
}

// SimulationResponse carries the projection plus display strings
// produced by the injected locale formatter.
type SimulationResponse struct {
	MonthlyPayment    float64         `json:"monthlyPayment"`
	TotalAmount       float64         `json:"totalAmount"`
	TotalInterest     float64         `json:"totalInterest"`
	IntermediationFee float64         `json:"intermediationFee"`
	EstimatedProfit   float64         `json:"estimatedProfit"`
	Savings           *float64        `json:"savings,omitempty"`
	RateLabel         string          `json:"rateLabel"`
	MonthlyPaymentFmt string          `json:"monthlyPaymentFormatted"`
	TotalAmountFmt    string          `json:"totalAmountFormatted"`
	Schedule          []ScheduleEntry `json:"schedule,omitempty"`
}
