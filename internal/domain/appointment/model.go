package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. Completed and cancelled are terminal.
const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

var validStatuses = map[string]bool{
	StatusScheduled: true, StatusConfirmed: true,
	StatusCancelled: true, StatusCompleted: true,
}

// ValidStatus reports whether s is a known appointment status.
func ValidStatus(s string) bool { return validStatuses[s] }

// validTransitions encodes the appointment lifecycle:
// scheduled -> confirmed -> completed, or cancellation from either
// non-terminal state. Retroactively logged visits are created already
// completed; a stored scheduled appointment must be confirmed first.
var validTransitions = map[string]map[string]bool{
	StatusScheduled: {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusCompleted: true, StatusCancelled: true},
}

// CanTransition reports whether an appointment may move from one status to
// another. Terminal states allow no further transitions.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	return validTransitions[from][to]
}

// Appointment is the bookable visit record. The next-appointment pointer on
// Patient is derived from Consultations, not from this collection; the
// lifecycle manager only triggers resynchronization after mutations here.
type Appointment struct {
	ID             uuid.UUID  `json:"id"`
	OsteopathID    uuid.UUID  `json:"osteopath_id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	Date           time.Time  `json:"date"`
	Status         string     `json:"status"`
	ConsultationID *uuid.UUID `json:"consultation_id,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	IsTestData     bool       `json:"is_test_data"`
	PatientMissing bool       `json:"patient_missing"`
	MigratedAt     *time.Time `json:"migrated_at,omitempty"`
	MigratedBy     string     `json:"migrated_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
