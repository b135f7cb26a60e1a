package domain

import "fmt"

// Error types for consistent error handling across the API.

// ErrInvalidInput indicates the financial core rejected its arguments
// (non-positive installment count, negative principal, out-of-range rate).
type ErrInvalidInput struct {
	Field   string
	Message string
}

func (e *ErrInvalidInput) Error() string {
	return fmt.Sprintf("invalid input '%s': %s", e.Field, e.Message)
}

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad request input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrNegotiationClosed indicates the negotiation is in a terminal state
// and accepts no further proposals or transitions.
type ErrNegotiationClosed struct {
	NegotiationID string
	Status        string
}

func (e *ErrNegotiationClosed) Error() string {
	return fmt.Sprintf("negociação %s encerrada (status=%s)", e.NegotiationID, e.Status)
}

// ErrWindowExpired indicates the 48h negotiation window has passed.
type ErrWindowExpired struct {
	NegotiationID string
}

func (e *ErrWindowExpired) Error() string {
	return fmt.Sprintf("janela de negociação expirada: %s", e.NegotiationID)
}

// ErrNotYourTurn indicates a party tried to answer its own latest proposal.
type ErrNotYourTurn struct {
	PartyID string
	Role    string
}

func (e *ErrNotYourTurn) Error() string {
	return fmt.Sprintf("party %s (%s) must wait for the counterparty's response", e.PartyID, e.Role)
}

// ErrForbidden indicates the party lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrConflict indicates a resource already exists or a state clash.
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrExternalService indicates a failure in the external negotiation feed.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}
