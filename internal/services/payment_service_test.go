package services

import (
	"testing"
)

func TestBuildOrderID(t *testing.T) {
	got := BuildOrderID(42, 1700000000)
	want := "installment-42-1700000000"
	if got != want {
		t.Errorf("BuildOrderID(42, 1700000000) = %q; want %q", got, want)
	}
}

func TestParseOrderID(t *testing.T) {
	tests := []struct {
		name     string
		orderID  string
		expected uint
		wantErr  bool
	}{
		{
			name:     "valid order id",
			orderID:  "installment-42-1700000000",
			expected: 42,
		},
		{
			name:     "round trip",
			orderID:  BuildOrderID(7, 1699999999),
			expected: 7,
		},
		{
			name:    "wrong prefix",
			orderID: "payment-42-1700000000",
			wantErr: true,
		},
		{
			name:    "missing timestamp segment",
			orderID: "installment-42",
			wantErr: true,
		},
		{
			name:    "non-numeric id",
			orderID: "installment-abc-1700000000",
			wantErr: true,
		},
		{
			name:    "empty string",
			orderID: "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOrderID(tt.orderID)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOrderID(%q) error = %v; wantErr %v", tt.orderID, err, tt.wantErr)
			}
			if err == nil && got != tt.expected {
				t.Errorf("ParseOrderID(%q) = %d; want %d", tt.orderID, got, tt.expected)
			}
		})
	}
}
