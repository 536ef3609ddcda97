package roles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iuiualumni/alumni-backend/pkg/db/models"
)

// Repository exposes role persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a roles repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new role and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateRoleDTO) (*models.Role, error) {
	role := dto.ToModel()
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(role).Error; err != nil {
		return nil, err
	}
	return role, nil
}

// FindByID loads a role by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// FindByName loads a role by its unique name.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// FindDefault returns the role flagged as default, if any.
func (r *Repository) FindDefault(ctx context.Context) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("is_default = ?", true).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// FirstByName returns the alphabetically first role.
func (r *Repository) FirstByName(ctx context.Context) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Order("name ASC").First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// List returns all roles ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Role, error) {
	var rows []models.Role
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ClearDefault unsets is_default on every role.
func (r *Repository) ClearDefault(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Model(&models.Role{}).
		Where("is_default = ?", true).
		UpdateColumn("is_default", false).Error
}

// MarkDefault flags the given role as the default.
func (r *Repository) MarkDefault(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Role{}).
		Where("id = ?", id).
		UpdateColumn("is_default", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AssignToIdentity links a role to an identity. Returns true when a new link
// was created, false when the pair already existed.
func (r *Repository) AssignToIdentity(ctx context.Context, identityID, roleID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.IdentityRole{}).
		Where("identity_id = ? AND role_id = ?", identityID, roleID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	link := &models.IdentityRole{
		ID:         uuid.New(),
		IdentityID: identityID,
		RoleID:     roleID,
	}
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return false, err
	}
	return true, nil
}

// RemoveFromIdentity unlinks a role from an identity.
func (r *Repository) RemoveFromIdentity(ctx context.Context, identityID, roleID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("identity_id = ? AND role_id = ?", identityID, roleID).
		Delete(&models.IdentityRole{}).Error
}

// CountForIdentity returns how many roles an identity holds.
func (r *Repository) CountForIdentity(ctx context.Context, identityID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.IdentityRole{}).
		Where("identity_id = ?", identityID).
		Count(&count).Error
	return count, err
}

// ListForIdentity returns the roles held by an identity, ordered by name.
func (r *Repository) ListForIdentity(ctx context.Context, identityID uuid.UUID) ([]models.Role, error) {
	var rows []models.Role
	err := r.db.WithContext(ctx).
		Joins("JOIN identity_roles ON identity_roles.role_id = roles.id").
		Where("identity_roles.identity_id = ?", identityID).
		Order("roles.name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
