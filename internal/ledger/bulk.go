package ledger

import (
	"context"
	"errors"
)

// BulkResultStatus tags the outcome of one item in a bulk mark-paid.
type BulkResultStatus string

const (
	BulkStatusPaid            BulkResultStatus = "paid"
	BulkStatusNotFound        BulkResultStatus = "not_found"
	BulkStatusAlreadyPaid     BulkResultStatus = "already_paid"
	BulkStatusVersionConflict BulkResultStatus = "version_conflict"
	BulkStatusInvalidState    BulkResultStatus = "invalid_state"
	BulkStatusError           BulkResultStatus = "error"
)

// BulkItem identifies one installment to mark paid. Version is optional;
// when present it is checked like in single mark-paid.
type BulkItem struct {
	ID        uint   `json:"id"`
	Version   *int   `json:"version,omitempty"`
	Method    string `json:"method,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// BulkResult reports the outcome for one item, in request order.
type BulkResult struct {
	ID     uint             `json:"id"`
	Status BulkResultStatus `json:"status"`
	Error  string           `json:"error,omitempty"`
}

// BulkMarkPaid applies MarkPaid to each item independently. There is no
// transaction across the batch: a failure on one id never rolls back the
// others, and the returned list reports each id's outcome in order.
func (l *Ledger) BulkMarkPaid(ctx context.Context, items []BulkItem, actor string) []BulkResult {
	results := make([]BulkResult, len(items))
	for i, item := range items {
		_, err := l.MarkPaid(ctx, item.ID, MarkPaidInput{
			Method:    item.Method,
			Reference: item.Reference,
			Version:   item.Version,
			Actor:     actor,
		})
		results[i] = BulkResult{ID: item.ID, Status: ClassifyBulkError(err)}
		if err != nil {
			results[i].Error = err.Error()
		}
	}
	return results
}

// ClassifyBulkError maps a mark-paid error onto a bulk result tag.
func ClassifyBulkError(err error) BulkResultStatus {
	switch {
	case err == nil:
		return BulkStatusPaid
	case errors.Is(err, ErrNotFound):
		return BulkStatusNotFound
	case errors.Is(err, ErrAlreadyPaid):
		return BulkStatusAlreadyPaid
	case errors.Is(err, ErrVersionConflict):
		return BulkStatusVersionConflict
	case errors.Is(err, ErrInvalidState):
		return BulkStatusInvalidState
	default:
		return BulkStatusError
	}
}

// AllSucceeded reports whether every bulk result is paid, letting handlers
// pick between 200 and 207 for the response.
func AllSucceeded(results []BulkResult) bool {
	for _, r := range results {
		if r.Status != BulkStatusPaid {
			return false
		}
	}
	return true
}
