package models

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the unified person record: an alumni member that may or may not
// be able to authenticate. An empty PasswordHash means the identity has no
// usable credential.
type Identity struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MemberID       string     `gorm:"column:member_id;type:text;not null;uniqueIndex"`
	Email          string     `gorm:"type:text;not null;uniqueIndex"`
	FullName       string     `gorm:"column:full_name;not null"`
	PasswordHash   string     `gorm:"column:password_hash;not null;default:''"`
	IsActive       bool       `gorm:"column:is_active;not null;default:true"`
	IsStaff        bool       `gorm:"column:is_staff;not null;default:false"`
	IsSuperuser    bool       `gorm:"column:is_superuser;not null;default:false"`
	IsVerified     bool       `gorm:"column:is_verified;not null;default:false"`
	Batch          string     `gorm:"column:batch"`
	Course         string     `gorm:"column:course"`
	GraduationYear *int       `gorm:"column:graduation_year"`
	Phone          *string    `gorm:"column:phone"`
	CurrentJob     string     `gorm:"column:current_job"`
	CurrentCompany string     `gorm:"column:current_company"`
	JoinedOn       time.Time  `gorm:"column:joined_on;type:date"`
	LastLoginAt    *time.Time `gorm:"column:last_login_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Identity) TableName() string { return "identities" }
