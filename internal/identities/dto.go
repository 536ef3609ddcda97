package identities

import (
	"time"

	"github.com/google/uuid"

	"github.com/iuiualumni/alumni-backend/pkg/db/models"
)

// IdentityDTO is the transport shape that omits the credential hash.
type IdentityDTO struct {
	ID             uuid.UUID  `json:"id"`
	MemberID       string     `json:"member_id"`
	Email          string     `json:"email"`
	FullName       string     `json:"full_name"`
	IsActive       bool       `json:"is_active"`
	IsStaff        bool       `json:"is_staff"`
	IsSuperuser    bool       `json:"is_superuser"`
	IsVerified     bool       `json:"is_verified"`
	Batch          string     `json:"batch,omitempty"`
	Course         string     `json:"course,omitempty"`
	GraduationYear *int       `json:"graduation_year,omitempty"`
	Phone          *string    `json:"phone,omitempty"`
	CurrentJob     string     `json:"current_job,omitempty"`
	CurrentCompany string     `json:"current_company,omitempty"`
	JoinedOn       time.Time  `json:"joined_on"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CreateIdentityDTO holds the data required by the repo to persist a new identity.
type CreateIdentityDTO struct {
	MemberID       string
	Email          string
	FullName       string
	PasswordHash   string
	IsStaff        bool
	IsSuperuser    bool
	IsVerified     bool
	Batch          string
	Course         string
	GraduationYear *int
	Phone          *string
	CurrentJob     string
	CurrentCompany string
	JoinedOn       time.Time
	IsActive       *bool
}

// UpdateProfileDTO carries the mutable profile fields. Nil pointers mean
// "leave unchanged".
type UpdateProfileDTO struct {
	FullName       *string
	Batch          *string
	Course         *string
	GraduationYear *int
	Phone          *string
	ClearPhone     bool
	CurrentJob     *string
	CurrentCompany *string
}

func FromModel(identity *models.Identity) *IdentityDTO {
	if identity == nil {
		return nil
	}

	return &IdentityDTO{
		ID:             identity.ID,
		MemberID:       identity.MemberID,
		Email:          identity.Email,
		FullName:       identity.FullName,
		IsActive:       identity.IsActive,
		IsStaff:        identity.IsStaff,
		IsSuperuser:    identity.IsSuperuser,
		IsVerified:     identity.IsVerified,
		Batch:          identity.Batch,
		Course:         identity.Course,
		GraduationYear: identity.GraduationYear,
		Phone:          identity.Phone,
		CurrentJob:     identity.CurrentJob,
		CurrentCompany: identity.CurrentCompany,
		JoinedOn:       identity.JoinedOn,
		LastLoginAt:    identity.LastLoginAt,
		CreatedAt:      identity.CreatedAt,
		UpdatedAt:      identity.UpdatedAt,
	}
}

func (c CreateIdentityDTO) ToModel() *models.Identity {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	return &models.Identity{
		MemberID:       c.MemberID,
		Email:          c.Email,
		FullName:       c.FullName,
		PasswordHash:   c.PasswordHash,
		IsActive:       isActive,
		IsStaff:        c.IsStaff,
		IsSuperuser:    c.IsSuperuser,
		IsVerified:     c.IsVerified,
		Batch:          c.Batch,
		Course:         c.Course,
		GraduationYear: c.GraduationYear,
		Phone:          c.Phone,
		CurrentJob:     c.CurrentJob,
		CurrentCompany: c.CurrentCompany,
		JoinedOn:       c.JoinedOn,
	}
}
