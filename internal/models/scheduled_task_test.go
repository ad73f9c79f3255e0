package models

import (
	"testing"
	"time"
)

func TestNextDue(t *testing.T) {
	due := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	daily := "FREQ=DAILY"
	broken := "NOT-A-RULE"

	tests := []struct {
		name     string
		task     ScheduledTask
		now      time.Time
		expected time.Time
	}{
		{
			name:     "onetime returns stored due",
			task:     ScheduledTask{TaskType: ScheduledTaskTypeOneTime, Due: due},
			now:      due.AddDate(0, 0, 10),
			expected: due,
		},
		{
			name:     "recurring daily advances past now",
			task:     ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due, RecurringInterval: &daily},
			now:      due.AddDate(0, 0, 2).Add(time.Hour),
			expected: due.AddDate(0, 0, 3),
		},
		{
			name:     "recurring with now before due starts at due",
			task:     ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due, RecurringInterval: &daily},
			now:      due.AddDate(0, 0, -5),
			expected: due,
		},
		{
			name:     "recurring without rule falls back to due",
			task:     ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due},
			now:      due.AddDate(0, 0, 1),
			expected: due,
		},
		{
			name:     "recurring with invalid rule falls back to due",
			task:     ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due, RecurringInterval: &broken},
			now:      due.AddDate(0, 0, 1),
			expected: due,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.task.NextDue(tt.now)
			if !got.Equal(tt.expected) {
				t.Errorf("NextDue(%s) = %s; want %s", tt.now, got, tt.expected)
			}
		})
	}
}
