package services

import (
	"testing"
)

func TestVerifyMidtransSignature(t *testing.T) {
	const (
		orderID     = "installment-42-1700000000"
		statusCode  = "200"
		grossAmount = "100000.00"
		serverKey   = "SB-Mid-server-testkey"
		validSig    = "e8e79cc6a53cdee0d01adeddf6cdf2cf8db5baad1decdfea48e9e18acc9048" +
			"7365433ecf633c05ecc106671ebaf7af154c89f9b5e5a8f256b5bbac274ff7d3f5"
	)

	tests := []struct {
		name      string
		signature string
		serverKey string
		expected  bool
	}{
		{name: "valid signature", signature: validSig, serverKey: serverKey, expected: true},
		{name: "tampered signature", signature: "deadbeef" + validSig[8:], serverKey: serverKey, expected: false},
		{name: "wrong server key", signature: validSig, serverKey: "SB-Mid-server-otherkey", expected: false},
		{name: "empty signature", signature: "", serverKey: serverKey, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VerifyMidtransSignature(orderID, statusCode, grossAmount, tt.serverKey, tt.signature)
			if got != tt.expected {
				t.Errorf("VerifyMidtransSignature() = %v; want %v", got, tt.expected)
			}
		})
	}
}
