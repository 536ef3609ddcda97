package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/iuiualumni/alumni-backend/pkg/enums"
)

// LeadershipAssignment is a time-bounded occupancy of a position by one
// identity. EndedOn is set exactly when Status is ended; the partial unique
// indexes in the schema back up the exclusivity invariants enforced in
// internal/leadership.
type LeadershipAssignment struct {
	ID         uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	IdentityID uuid.UUID              `gorm:"column:identity_id;type:uuid;not null;index"`
	PositionID uuid.UUID              `gorm:"column:position_id;type:uuid;not null;index"`
	Status     enums.AssignmentStatus `gorm:"type:text;not null;default:'active'"`
	StartedOn  time.Time              `gorm:"column:started_on;type:date;not null"`
	EndedOn    *time.Time             `gorm:"column:ended_on;type:date"`
	Notes      string                 `gorm:"column:notes"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time              `gorm:"column:updated_at;autoUpdateTime"`

	Position *LeadershipPosition `gorm:"foreignKey:PositionID"`
}

// IsCurrent reports whether the assignment is active as of the given date.
func (a LeadershipAssignment) IsCurrent(today time.Time) bool {
	if a.Status != enums.AssignmentStatusActive {
		return false
	}
	return a.EndedOn == nil || !a.EndedOn.Before(today)
}
