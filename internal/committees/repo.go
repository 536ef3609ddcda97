package committees

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iuiualumni/alumni-backend/pkg/db/models"
	"github.com/iuiualumni/alumni-backend/pkg/enums"
)

// Repository exposes committee and membership persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a committee repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateCommittee inserts a catalog entry.
func (r *Repository) CreateCommittee(ctx context.Context, committee *models.Committee) error {
	if committee.ID == uuid.Nil {
		committee.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(committee).Error
}

// FindCommitteeByID loads one committee.
func (r *Repository) FindCommitteeByID(ctx context.Context, id uuid.UUID) (*models.Committee, error) {
	var committee models.Committee
	if err := r.db.WithContext(ctx).First(&committee, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &committee, nil
}

// FindCommitteeBySlug loads one committee by its URL-safe slug.
func (r *Repository) FindCommitteeBySlug(ctx context.Context, slug string) (*models.Committee, error) {
	var committee models.Committee
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&committee).Error; err != nil {
		return nil, err
	}
	return &committee, nil
}

// CommitteeNameExists reports whether a committee with this name or slug is
// already in the catalog.
func (r *Repository) CommitteeNameExists(ctx context.Context, name, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Committee{}).
		Where("name = ? OR slug = ?", name, slug).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListCommittees returns active catalog entries in display order.
func (r *Repository) ListCommittees(ctx context.Context) ([]models.Committee, error) {
	var rows []models.Committee
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_order ASC, name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindMembership loads the membership row for an identity+committee pair,
// whatever its status. The pair is unique so at most one row exists.
func (r *Repository) FindMembership(ctx context.Context, identityID, committeeID uuid.UUID) (*models.CommitteeMembership, error) {
	var membership models.CommitteeMembership
	err := r.db.WithContext(ctx).
		Where("identity_id = ? AND committee_id = ?", identityID, committeeID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// CreateMembership inserts a new membership row.
func (r *Repository) CreateMembership(ctx context.Context, membership *models.CommitteeMembership) error {
	if membership.ID == uuid.Nil {
		membership.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(membership).Error
}

// EndMembership marks an active membership ended as of the given date.
func (r *Repository) EndMembership(ctx context.Context, id uuid.UUID, endedOn time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.CommitteeMembership{}).
		Where("id = ? AND status = ?", id, enums.MembershipStatusActive).
		Updates(map[string]any{
			"status":   enums.MembershipStatusEnded,
			"ended_on": endedOn,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReactivateMembership restarts an ended membership on its existing row.
func (r *Repository) ReactivateMembership(ctx context.Context, id uuid.UUID, roleLabel string, startedOn time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.CommitteeMembership{}).
		Where("id = ? AND status = ?", id, enums.MembershipStatusEnded).
		Updates(map[string]any{
			"status":     enums.MembershipStatusActive,
			"role_label": roleLabel,
			"started_on": startedOn,
			"ended_on":   nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ActiveMembersOfCommittee returns the committee roster, active rows only.
func (r *Repository) ActiveMembersOfCommittee(ctx context.Context, committeeID uuid.UUID) ([]models.CommitteeMembership, error) {
	var rows []models.CommitteeMembership
	err := r.db.WithContext(ctx).
		Where("committee_id = ? AND status = ?", committeeID, enums.MembershipStatusActive).
		Order("started_on ASC, created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MembershipsForIdentity returns all of an identity's memberships, active and
// ended, newest start date first.
func (r *Repository) MembershipsForIdentity(ctx context.Context, identityID uuid.UUID) ([]models.CommitteeMembership, error) {
	var rows []models.CommitteeMembership
	err := r.db.WithContext(ctx).
		Preload("Committee").
		Where("identity_id = ?", identityID).
		Order("started_on DESC, created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
