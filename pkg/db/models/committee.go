package models

import (
	"time"

	"github.com/google/uuid"
)

// Committee is a standing committee of the association.
type Committee struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string    `gorm:"type:text;not null;uniqueIndex"`
	Slug         string    `gorm:"type:text;not null;uniqueIndex"`
	Description  string    `gorm:"column:description"`
	DisplayOrder int       `gorm:"column:display_order;not null;default:0"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
