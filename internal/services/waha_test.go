package services

import (
	"testing"
)

func TestNormalizeChatID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "phone number without country code",
			input:    "05512345678",
			expected: "525512345678@c.us",
		},
		{
			name:     "phone number with country code",
			input:    "525512345678",
			expected: "525512345678@c.us",
		},
		{
			name:     "group id",
			input:    "120363407813232111@g.us",
			expected: "120363407813232111@g.us",
		},
		{
			name:     "phone number without country code, with suffix",
			input:    "05512345678@c.us",
			expected: "525512345678@c.us",
		},
		{
			name:     "phone number with country code, with suffix",
			input:    "525512345678@c.us",
			expected: "525512345678@c.us",
		},
		{
			name:     "formatted number with plus and separators",
			input:    "+52 55 1234-5678",
			expected: "525512345678@c.us",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeChatID(tt.input, "52")
			if result != tt.expected {
				t.Errorf("NormalizeChatID(%q) = %q; want %q", tt.input, result, tt.expected)
			}
		})
	}
}
