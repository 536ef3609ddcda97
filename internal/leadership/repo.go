package leadership

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iuiualumni/alumni-backend/pkg/db/models"
	"github.com/iuiualumni/alumni-backend/pkg/enums"
)

// Repository exposes leadership persistence operations for both the position
// catalog and assignments.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a leadership repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindPositionByCode loads a catalog position by its code, active or not.
// History queries use this so retired positions stay readable.
func (r *Repository) FindPositionByCode(ctx context.Context, code enums.PositionCode) (*models.LeadershipPosition, error) {
	var position models.LeadershipPosition
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&position).Error; err != nil {
		return nil, err
	}
	return &position, nil
}

// FindActivePositionByCode loads a catalog position only while it is active.
// Promotions resolve positions through this lookup.
func (r *Repository) FindActivePositionByCode(ctx context.Context, code enums.PositionCode) (*models.LeadershipPosition, error) {
	var position models.LeadershipPosition
	err := r.db.WithContext(ctx).
		Where("code = ? AND is_active = ?", code, true).
		First(&position).Error
	if err != nil {
		return nil, err
	}
	return &position, nil
}

// ListPositions returns the catalog in display order.
func (r *Repository) ListPositions(ctx context.Context) ([]models.LeadershipPosition, error) {
	var rows []models.LeadershipPosition
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_order ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CreatePosition inserts a new catalog position.
func (r *Repository) CreatePosition(ctx context.Context, position *models.LeadershipPosition) error {
	if position.ID == uuid.Nil {
		position.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(position).Error
}

// lockForUpdate adds a row lock on dialects that support it. The sqlite
// driver used by tests has no SELECT ... FOR UPDATE.
func (r *Repository) lockForUpdate(query *gorm.DB) *gorm.DB {
	if r.db.Dialector.Name() == "postgres" {
		return query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return query
}

// ActiveAssignmentForIdentity returns the identity's active assignment,
// locking the row for the duration of the transaction.
func (r *Repository) ActiveAssignmentForIdentity(ctx context.Context, identityID uuid.UUID) (*models.LeadershipAssignment, error) {
	var assignment models.LeadershipAssignment
	err := r.lockForUpdate(r.db.WithContext(ctx)).
		Preload("Position").
		Where("identity_id = ? AND status = ?", identityID, enums.AssignmentStatusActive).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ActiveAssignmentForPosition returns the position's active assignment,
// locking the row for the duration of the transaction.
func (r *Repository) ActiveAssignmentForPosition(ctx context.Context, positionID uuid.UUID) (*models.LeadershipAssignment, error) {
	var assignment models.LeadershipAssignment
	err := r.lockForUpdate(r.db.WithContext(ctx)).
		Preload("Position").
		Where("position_id = ? AND status = ?", positionID, enums.AssignmentStatusActive).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// CreateAssignment inserts a new active assignment.
func (r *Repository) CreateAssignment(ctx context.Context, assignment *models.LeadershipAssignment) error {
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(assignment).Error
}

// EndAssignment marks an assignment ended as of the given date.
func (r *Repository) EndAssignment(ctx context.Context, id uuid.UUID, endedOn time.Time, notes string) error {
	updates := map[string]any{
		"status":   enums.AssignmentStatusEnded,
		"ended_on": endedOn,
	}
	if notes != "" {
		updates["notes"] = notes
	}
	result := r.db.WithContext(ctx).
		Model(&models.LeadershipAssignment{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListActiveAssignments returns every active assignment with its position.
func (r *Repository) ListActiveAssignments(ctx context.Context) ([]models.LeadershipAssignment, error) {
	var rows []models.LeadershipAssignment
	err := r.db.WithContext(ctx).
		Preload("Position").
		Where("status = ?", enums.AssignmentStatusActive).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// HistoryForIdentity returns an identity's assignments, newest first.
func (r *Repository) HistoryForIdentity(ctx context.Context, identityID uuid.UUID) ([]models.LeadershipAssignment, error) {
	var rows []models.LeadershipAssignment
	err := r.db.WithContext(ctx).
		Preload("Position").
		Where("identity_id = ?", identityID).
		Order("started_on DESC, created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// HistoryForPosition returns a position's assignments, newest first.
func (r *Repository) HistoryForPosition(ctx context.Context, positionID uuid.UUID) ([]models.LeadershipAssignment, error) {
	var rows []models.LeadershipAssignment
	err := r.db.WithContext(ctx).
		Preload("Position").
		Where("position_id = ?", positionID).
		Order("started_on DESC, created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
