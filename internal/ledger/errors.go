// Package ledger owns the lifecycle of per-reservation payment
// installments: plan creation, due-date tracking, mark-paid transitions
// and the reconciliation read side used by the back office.
//
// The sentinel values below let handlers map domain failures onto HTTP
// statuses without string matching. Validation failures wrap ErrValidation
// with a human-readable detail, so errors.Is still works on them.
package ledger

import "errors"

// ErrNotFound is returned when the referenced installment or reservation
// does not exist. Handlers translate this into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when a payment plan or filter is malformed,
// e.g. an empty schedule or amounts that do not sum to the total.
// Handlers translate this into HTTP 400.
var ErrValidation = errors.New("validation failed")

// ErrAlreadyPaid is returned when mark-paid targets an installment that is
// already in the paid state. A repeated call is an explicit conflict, never
// a silent no-op: the ledger records money and a double submit must be
// visible to the caller. Handlers translate this into HTTP 409.
var ErrAlreadyPaid = errors.New("installment already paid")

// ErrInvalidState is returned when an operation is not legal for the
// current state, such as creating a plan twice for one reservation or
// paying a cancelled installment. Handlers translate this into HTTP 409.
var ErrInvalidState = errors.New("invalid state")

// ErrVersionConflict is returned when the caller presents an optimistic
// version token that no longer matches the stored row. The caller should
// re-read and retry. Handlers translate this into HTTP 409.
var ErrVersionConflict = errors.New("version conflict")
