package domain

import "time"

// Party roles in a negotiation.
const (
	RoleBorrower = "borrower"
	RoleInvestor = "investor"
)

// Raw negotiation status codes as stored by the platform (pt-BR).
// The lifecycle package maps these onto the three canonical states.
const (
	StatusPendente     = "pendente"
	StatusEmNegociacao = "em_negociacao"
	StatusAceita       = "aceita"
	StatusEmAndamento  = "em_andamento"
	StatusFinalizada   = "finalizada"
	StatusCancelada    = "cancelada"
)

// CanonicalStatus is the three-state view derived from the raw codes.
type CanonicalStatus string

const (
	CanonicalActive    CanonicalStatus = "active"
	CanonicalConcluded CanonicalStatus = "concluded"
	CanonicalCancelled CanonicalStatus = "cancelled"
)

// RateValue is a proposed interest rate: either a single value or a
// min/max range.
type RateValue struct {
	Value *float64 `json:"value,omitempty"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
}

// Effective returns the rate used for installment math: the single
// value when present, else the midpoint of the range.
func (r RateValue) Effective() float64 {
	if r.Value != nil {
		return *r.Value
	}
	if r.Min != nil && r.Max != nil {
		return (*r.Min + *r.Max) / 2
	}
	if r.Min != nil {
		return *r.Min
	}
	if r.Max != nil {
		return *r.Max
	}
	return 0
}

// Proposal is one negotiation turn. Proposals are append-only; a
// negotiation accumulates an ordered sequence of them by creation time.
type Proposal struct {
	ID            string    `json:"id"`
	NegotiationID string    `json:"negotiation_id"`
	AuthorID      string    `json:"author_id"`
	AuthorRole    string    `json:"author_role"`
	Rate          RateValue `json:"rate"`
	TermMonths    int       `json:"term_months"`
	Installment   float64   `json:"installment"`
	Negotiable    bool      `json:"negotiable"`
	Justification string    `json:"justification,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Negotiation aggregates the exchange between one borrower and one
// investor. Current term/amount/rate mirror the latest accepted or
// pending proposal. The on-chain hash fields are opaque to this
// service; they are recorded by an external process.
type Negotiation struct {
	ID            string     `json:"id"`
	BorrowerID    string     `json:"borrower_id"`
	InvestorID    string     `json:"investor_id"`
	Amount        float64    `json:"amount"`
	MonthlyRate   float64    `json:"monthly_rate"`
	TermMonths    int        `json:"term_months"`
	Installment   float64    `json:"installment"`
	Status        string     `json:"status"`
	ProposalCount int        `json:"proposal_count"`
	OnChainHash   string     `json:"on_chain_hash,omitempty"`
	OnChainTxHash string     `json:"on_chain_tx_hash,omitempty"`
	AcceptedAt    *time.Time `json:"accepted_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Party is a platform user able to open or answer negotiations.
type Party struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Document string `json:"document,omitempty"`
	Email    string `json:"email,omitempty"`
}

// ActiveLoan is the post-acceptance view joining a negotiation with the
// resolved party identities and its financial projection. Immutable
// after construction except for the externally reported status.
type ActiveLoan struct {
	NegotiationID string             `json:"negotiation_id"`
	BorrowerName  string             `json:"borrower_name"`
	InvestorName  string             `json:"investor_name"`
	Amount        float64            `json:"amount"`
	MonthlyRate   float64            `json:"monthly_rate"`
	TermMonths    int                `json:"term_months"`
	Status        CanonicalStatus    `json:"status"`
	Projection    AmortizationResult `json:"projection"`
	StartDate     time.Time          `json:"start_date"`
	EndDate       time.Time          `json:"end_date"`
}

// ============================================================
// API request/response bodies
// ============================================================

// CreateNegotiationRequest opens a negotiation with initial terms.
// The author's rate/term become proposal #1.
type CreateNegotiationRequest struct {
	BorrowerID    string    `json:"borrowerId"`
	InvestorID    string    `json:"investorId"`
	AuthorRole    string    `json:"authorRole"`
	Amount        float64   `json:"amount"`
	Rate          RateValue `json:"rate"`
	TermMonths    int       `json:"termMonths"`
	Negotiable    bool      `json:"negotiable"`
	Justification string    `json:"justification,omitempty"`
}

// SubmitProposalRequest is one counter-proposal turn.
type SubmitProposalRequest struct {
	AuthorID      string    `json:"authorId"`
	AuthorRole    string    `json:"authorRole"`
	Rate          RateValue `json:"rate"`
	TermMonths    int       `json:"termMonths"`
	Negotiable    bool      `json:"negotiable"`
	Justification string    `json:"justification,omitempty"`
}

// PartyActionRequest identifies the acting party on accept/cancel.
type PartyActionRequest struct {
	PartyID string `json:"partyId"`
	Role    string `json:"role"`
}

// NegotiationView is a negotiation snapshot enriched with the derived
// lifecycle state for display.
type NegotiationView struct {
	Negotiation
	CanonicalStatus CanonicalStatus `json:"canonical_status"`
	Expired         bool            `json:"expired"`
	RemainingTime   string          `json:"remaining_time"`
	Deadline        time.Time       `json:"deadline"`
}
