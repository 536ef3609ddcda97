package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a permission tag, not a leadership position. At most one role may
// carry IsDefault=true across the whole table.
type Role struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"type:text;not null;uniqueIndex"`
	Description string    `gorm:"column:description"`
	IsDefault   bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// IdentityRole links an identity to a permission role.
type IdentityRole struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	IdentityID uuid.UUID `gorm:"column:identity_id;type:uuid;not null;uniqueIndex:idx_identity_roles_pair"`
	RoleID     uuid.UUID `gorm:"column:role_id;type:uuid;not null;uniqueIndex:idx_identity_roles_pair"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
