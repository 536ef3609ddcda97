package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/iuiualumni/alumni-backend/pkg/enums"
)

// CommitteeMembership links one identity to one committee. The identity and
// committee form a unique pair: leaving and rejoining reactivates the existing
// row rather than inserting a second one.
type CommitteeMembership struct {
	ID          uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	IdentityID  uuid.UUID              `gorm:"column:identity_id;type:uuid;not null;uniqueIndex:idx_committee_memberships_pair"`
	CommitteeID uuid.UUID              `gorm:"column:committee_id;type:uuid;not null;uniqueIndex:idx_committee_memberships_pair"`
	RoleLabel   string                 `gorm:"column:role_label;not null;default:'Member'"`
	Status      enums.MembershipStatus `gorm:"type:text;not null;default:'active'"`
	StartedOn   time.Time              `gorm:"column:started_on;type:date;not null"`
	EndedOn     *time.Time             `gorm:"column:ended_on;type:date"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`

	Committee *Committee `gorm:"foreignKey:CommitteeID"`
}
