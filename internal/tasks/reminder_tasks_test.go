package tasks

import (
	"strings"
	"testing"
)

func TestRenderReminder(t *testing.T) {
	data := ReminderData{
		Name:        "Mariana",
		TourName:    "Oaxaca Day of the Dead",
		Amount:      "1500.00",
		DueDate:     "2026-03-15",
		PaymentLink: "https://example.com/p/abc123",
	}

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{
			name:     "single placeholder",
			template: "Hola $name",
			expected: "Hola Mariana",
		},
		{
			name:     "tour_name does not collide with name",
			template: "$tour_name for $name",
			expected: "Oaxaca Day of the Dead for Mariana",
		},
		{
			name:     "no placeholders",
			template: "Payment received, thank you!",
			expected: "Payment received, thank you!",
		},
		{
			name:     "all placeholders",
			template: "$name $tour_name $amount $due_date $payment_link",
			expected: "Mariana Oaxaca Day of the Dead 1500.00 2026-03-15 https://example.com/p/abc123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderReminder(tt.template, data)
			if got != tt.expected {
				t.Errorf("RenderReminder(%q) = %q; want %q", tt.template, got, tt.expected)
			}
		})
	}
}

func TestDefaultTemplatesRenderClean(t *testing.T) {
	data := ReminderData{
		Name:        "Luis",
		TourName:    "Chiapas Jungle Trek",
		Amount:      "2200.50",
		DueDate:     "2026-04-01",
		PaymentLink: "https://example.com/p/xyz",
	}

	for _, template := range []string{DefaultReminderTemplate, DefaultOverdueTemplate} {
		rendered := RenderReminder(template, data)
		if strings.Contains(rendered, "$") {
			t.Errorf("rendered template still contains a placeholder: %q", rendered)
		}
		if !strings.Contains(rendered, data.PaymentLink) {
			t.Errorf("rendered template is missing the payment link: %q", rendered)
		}
	}
}
