package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/iuiualumni/alumni-backend/pkg/enums"
)

// LeadershipPosition is one entry in the administrator-managed position
// catalog (president, secretary, ...).
type LeadershipPosition struct {
	ID           uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Code         enums.PositionCode `gorm:"type:text;not null;uniqueIndex"`
	Description  string             `gorm:"column:description"`
	DisplayOrder int                `gorm:"column:display_order;not null;default:0"`
	IsActive     bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
}
