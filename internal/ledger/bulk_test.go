package ledger

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyBulkError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected BulkResultStatus
	}{
		{name: "nil error is paid", err: nil, expected: BulkStatusPaid},
		{name: "not found", err: ErrNotFound, expected: BulkStatusNotFound},
		{name: "already paid", err: ErrAlreadyPaid, expected: BulkStatusAlreadyPaid},
		{name: "version conflict", err: ErrVersionConflict, expected: BulkStatusVersionConflict},
		{name: "invalid state", err: ErrInvalidState, expected: BulkStatusInvalidState},
		{
			name:     "wrapped sentinel still classifies",
			err:      fmt.Errorf("installment 7: %w", ErrAlreadyPaid),
			expected: BulkStatusAlreadyPaid,
		},
		{name: "unknown error", err: errors.New("connection reset"), expected: BulkStatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyBulkError(tt.err); got != tt.expected {
				t.Errorf("ClassifyBulkError(%v) = %q; want %q", tt.err, got, tt.expected)
			}
		})
	}
}

func TestAllSucceeded(t *testing.T) {
	tests := []struct {
		name     string
		results  []BulkResult
		expected bool
	}{
		{name: "empty batch", results: nil, expected: true},
		{
			name: "all paid",
			results: []BulkResult{
				{ID: 1, Status: BulkStatusPaid},
				{ID: 2, Status: BulkStatusPaid},
			},
			expected: true,
		},
		{
			name: "one failure",
			results: []BulkResult{
				{ID: 1, Status: BulkStatusPaid},
				{ID: 2, Status: BulkStatusNotFound},
				{ID: 3, Status: BulkStatusPaid},
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AllSucceeded(tt.results); got != tt.expected {
				t.Errorf("AllSucceeded() = %v; want %v", got, tt.expected)
			}
		})
	}
}
