// Package lifecycle derives human-facing negotiation state from raw
// negotiation and proposal records. Every function is pure: "now" is
// always an explicit argument, nothing is mutated and nothing is
// logged, so callers can evaluate snapshots deterministically.
//
// Transition enforcement is NOT done here — the negotiation service
// owns that. This package only classifies whatever status it is handed.
package lifecycle

import "github.com/emprestaja/p2p-lending-api-go/internal/domain"

// statusTable maps the platform's raw pt-BR status codes onto the
// three canonical states. This table is the single source of truth
// for every downstream display; change it and everything follows.
var statusTable = map[string]domain.CanonicalStatus{
	domain.StatusEmAndamento:  domain.CanonicalActive,
	domain.StatusFinalizada:   domain.CanonicalConcluded,
	domain.StatusCancelada:    domain.CanonicalCancelled,
	domain.StatusEmNegociacao: domain.CanonicalActive,
	domain.StatusPendente:     domain.CanonicalActive,
	domain.StatusAceita:       domain.CanonicalActive,
}

// CanonicalStatus maps a raw status code to its canonical state.
// Unknown codes default to active.
func CanonicalStatus(raw string) domain.CanonicalStatus {
	if s, ok := statusTable[raw]; ok {
		return s
	}
	return domain.CanonicalActive
}

// IsTerminal reports whether the raw status admits no further
// proposals or transitions.
func IsTerminal(raw string) bool {
	switch CanonicalStatus(raw) {
	case domain.CanonicalConcluded, domain.CanonicalCancelled:
		return true
	}
	return false
}
