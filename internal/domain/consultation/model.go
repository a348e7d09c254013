package consultation

import (
	"time"

	"github.com/google/uuid"
)

// Consultation statuses. Cancelled and completed consultations are terminal
// and never contribute to a patient's next-appointment pointer.
const (
	StatusDraft     = "draft"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

var validStatuses = map[string]bool{
	StatusDraft: true, StatusCompleted: true, StatusCancelled: true,
}

// ValidStatus reports whether s is a known consultation status.
func ValidStatus(s string) bool { return validStatuses[s] }

// Terminal reports whether a consultation in status s can still count as an
// upcoming appointment.
func Terminal(s string) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Consultation is the authoritative record the next-appointment pointer is
// derived from. PatientMissing is an advisory tag written by the integrity
// verifier when the referenced patient no longer exists.
type Consultation struct {
	ID             uuid.UUID  `json:"id"`
	OsteopathID    uuid.UUID  `json:"osteopath_id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	Date           time.Time  `json:"date"`
	Status         string     `json:"status"`
	AppointmentID  *uuid.UUID `json:"appointment_id,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	IsTestData     bool       `json:"is_test_data"`
	PatientMissing bool       `json:"patient_missing"`
	MigratedAt     *time.Time `json:"migrated_at,omitempty"`
	MigratedBy     string     `json:"migrated_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
