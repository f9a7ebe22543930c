// Package apierror provides standardized error structures for the API.
// The envelope types are what clients see on 4xx/5xx responses; the typed
// domain errors below are returned by services and mapped to HTTP status
// codes in the handler layer. Internal details (stack traces, DB errors)
// never leak through this package.
package apierror

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// FieldErrors wraps multiple field-level validation failures.
type FieldErrors struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewFieldErrors(fields map[string]string) *FieldErrors {
	return &FieldErrors{Detail: "validation failed", Fields: fields}
}

// ─── Typed domain errors ─────────────────────────────────────────────────────
//
// Every failure in the core is deterministic given current state; nothing is
// retried automatically. Errors carry the specific offending data so callers
// never receive a bare "invalid" message.

// ValidationError marks malformed input — the caller's fault, recoverable by
// correcting the request.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func Validation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// InvalidStateError means an entity is not in the state an operation
// requires (e.g. occupying a table that is not available, closing a caixa
// session that is already closed). Conditional-update conflicts surface as
// this type too: of two racing calls, exactly one gets it.
type InvalidStateError struct {
	Entity  string
	ID      uuid.UUID
	Current string
	Wanted  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s %s is %q, operation requires %q", e.Entity, e.ID, e.Current, e.Wanted)
}

// IllegalTransitionError reports an order status change outside the legal
// transition table.
type IllegalTransitionError struct {
	OrderID uuid.UUID
	From    string
	To      string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("order %s: illegal transition %s → %s", e.OrderID, e.From, e.To)
}

// CapacityExceededError reports a seating request over the table capacity.
type CapacityExceededError struct {
	TableID   uuid.UUID
	Capacity  int
	Seated    int
	Requested int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("table %s: capacity %d exceeded (%d seated, %d requested)",
		e.TableID, e.Capacity, e.Seated, e.Requested)
}

// OpenOrdersExistError blocks a table release and names every blocking order.
type OpenOrdersExistError struct {
	TableID  uuid.UUID
	OrderIDs []uuid.UUID
}

func (e *OpenOrdersExistError) Error() string {
	ids := make([]string, len(e.OrderIDs))
	for i, id := range e.OrderIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("table %s has open orders: %s", e.TableID, strings.Join(ids, ", "))
}

// SessionAlreadyOpenError rejects opening a caixa session while one is active.
type SessionAlreadyOpenError struct {
	SessionID uuid.UUID
}

func (e *SessionAlreadyOpenError) Error() string {
	return fmt.Sprintf("caixa session %s is already open", e.SessionID)
}

// NoActiveCaixaError rejects recording a payment with no open drawer session.
type NoActiveCaixaError struct{}

func (e *NoActiveCaixaError) Error() string {
	return "no caixa session is open; payments cannot be recorded"
}

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
