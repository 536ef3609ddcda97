package identities

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iuiualumni/alumni-backend/pkg/db/models"
)

// Repository exposes identity persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an identities repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new identity and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateIdentityDTO) (*models.Identity, error) {
	identity := dto.ToModel()
	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(identity).Error; err != nil {
		return nil, err
	}
	return identity, nil
}

// FindByEmail retrieves the identity matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	var identity models.Identity
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&identity).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

// FindByID loads an identity by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	var identity models.Identity
	if err := r.db.WithContext(ctx).First(&identity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

// FindByMemberID loads an identity by its public membership identifier.
func (r *Repository) FindByMemberID(ctx context.Context, memberID string) (*models.Identity, error) {
	var identity models.Identity
	if err := r.db.WithContext(ctx).Where("member_id = ?", memberID).First(&identity).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

// MemberIDExists reports whether a member ID is already taken.
func (r *Repository) MemberIDExists(ctx context.Context, memberID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Identity{}).
		Where("member_id = ?", memberID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// EmailExists reports whether an email is already registered.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Identity{}).
		Where("email = ?", email).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateLastLogin refreshes the identity's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Identity{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// UpdateProfile applies the provided profile changes.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, dto UpdateProfileDTO) (*models.Identity, error) {
	updates := map[string]any{}
	if dto.FullName != nil {
		updates["full_name"] = *dto.FullName
	}
	if dto.Batch != nil {
		updates["batch"] = *dto.Batch
	}
	if dto.Course != nil {
		updates["course"] = *dto.Course
	}
	if dto.GraduationYear != nil {
		updates["graduation_year"] = *dto.GraduationYear
	}
	if dto.ClearPhone {
		updates["phone"] = nil
	} else if dto.Phone != nil {
		updates["phone"] = *dto.Phone
	}
	if dto.CurrentJob != nil {
		updates["current_job"] = *dto.CurrentJob
	}
	if dto.CurrentCompany != nil {
		updates["current_company"] = *dto.CurrentCompany
	}

	if len(updates) > 0 {
		err := r.db.WithContext(ctx).
			Model(&models.Identity{}).
			Where("id = ?", id).
			Updates(updates).Error
		if err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

// UpdatePasswordHash replaces the stored credential hash.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.Identity{}).
		Where("id = ?", id).
		UpdateColumn("password_hash", hash).Error
}

// SetActive flips the is_active flag.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Identity{}).
		Where("id = ?", id).
		UpdateColumn("is_active", active).Error
}

// List returns identities ordered by join date, newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]models.Identity, error) {
	var rows []models.Identity
	err := r.db.WithContext(ctx).
		Order("joined_on DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
