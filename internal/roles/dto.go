package roles

import (
	"time"

	"github.com/google/uuid"

	"github.com/iuiualumni/alumni-backend/pkg/db/models"
)

// RoleDTO is the transport shape for a role.
type RoleDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateRoleDTO holds the data required to persist a new role.
type CreateRoleDTO struct {
	Name        string
	Description string
	IsDefault   bool
}

func FromModel(role *models.Role) *RoleDTO {
	if role == nil {
		return nil
	}
	return &RoleDTO{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		IsDefault:   role.IsDefault,
		CreatedAt:   role.CreatedAt,
		UpdatedAt:   role.UpdatedAt,
	}
}

func (c CreateRoleDTO) ToModel() *models.Role {
	return &models.Role{
		Name:        c.Name,
		Description: c.Description,
		IsDefault:   c.IsDefault,
	}
}
