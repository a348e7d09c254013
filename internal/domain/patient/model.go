package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is the tenant-scoped patient record. NextAppointment is a
// denormalized pointer derived from the patient's consultations; it is
// written only by the synchronizer and must never be set by hand.
type Patient struct {
	ID              uuid.UUID  `json:"id"`
	OsteopathID     uuid.UUID  `json:"osteopath_id"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	NextAppointment *time.Time `json:"next_appointment,omitempty"`
	IsTestData      bool       `json:"is_test_data"`
	MigratedAt      *time.Time `json:"migrated_at,omitempty"`
	MigratedBy      string     `json:"migrated_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
