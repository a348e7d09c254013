package invoice

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusDraft = "draft"
	StatusSent  = "sent"
	StatusPaid  = "paid"
)

var validStatuses = map[string]bool{
	StatusDraft: true, StatusSent: true, StatusPaid: true,
}

func ValidStatus(s string) bool { return validStatuses[s] }

// Invoice carries no synchronization responsibility beyond the integrity
// tagging shared by every patient-referencing record.
type Invoice struct {
	ID             uuid.UUID  `json:"id"`
	OsteopathID    uuid.UUID  `json:"osteopath_id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	Number         string     `json:"number"`
	AmountCents    int64      `json:"amount_cents"`
	Status         string     `json:"status"`
	IsTestData     bool       `json:"is_test_data"`
	PatientMissing bool       `json:"patient_missing"`
	MigratedAt     *time.Time `json:"migrated_at,omitempty"`
	MigratedBy     string     `json:"migrated_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
