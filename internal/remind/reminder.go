// Package remind implements deterministic reminder detection in note
// text and the background delivery of scheduled reminders.
package remind

import (
	"time"

	"github.com/google/uuid"
)

// Reminder is a standalone scheduled notification. It is not part of
// the idea tree: detection short-circuits classification entirely.
type Reminder struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	FireAt  time.Time `json:"fire_at"`
	Sent    bool      `json:"sent"`
}

// NewReminder creates a reminder with a fresh ID and sent=false.
func NewReminder(message string, fireAt time.Time) Reminder {
	return Reminder{
		ID:      uuid.New().String(),
		Message: message,
		FireAt:  fireAt,
	}
}
