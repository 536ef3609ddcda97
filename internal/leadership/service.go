package leadership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iuiualumni/alumni-backend/internal/audit"
	"github.com/iuiualumni/alumni-backend/pkg/clock"
	"github.com/iuiualumni/alumni-backend/pkg/db"
	"github.com/iuiualumni/alumni-backend/pkg/db/models"
	"github.com/iuiualumni/alumni-backend/pkg/enums"
	pkgerrors "github.com/iuiualumni/alumni-backend/pkg/errors"
)

type leadershipRepository interface {
	FindPositionByCode(ctx context.Context, code enums.PositionCode) (*models.LeadershipPosition, error)
	FindActivePositionByCode(ctx context.Context, code enums.PositionCode) (*models.LeadershipPosition, error)
	ListPositions(ctx context.Context) ([]models.LeadershipPosition, error)
	ActiveAssignmentForIdentity(ctx context.Context, identityID uuid.UUID) (*models.LeadershipAssignment, error)
	ActiveAssignmentForPosition(ctx context.Context, positionID uuid.UUID) (*models.LeadershipAssignment, error)
	CreateAssignment(ctx context.Context, assignment *models.LeadershipAssignment) error
	EndAssignment(ctx context.Context, id uuid.UUID, endedOn time.Time, notes string) error
	ListActiveAssignments(ctx context.Context) ([]models.LeadershipAssignment, error)
	HistoryForIdentity(ctx context.Context, identityID uuid.UUID) ([]models.LeadershipAssignment, error)
	HistoryForPosition(ctx context.Context, positionID uuid.UUID) ([]models.LeadershipAssignment, error)
}

type identityReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Identity, error)
}

// RepoFactory builds a tx-scoped leadership repository.
type RepoFactory func(tx *gorm.DB) leadershipRepository

// IdentityFactory builds a tx-scoped identity reader.
type IdentityFactory func(tx *gorm.DB) identityReader

// AuditFactory builds a tx-scoped audit recorder.
type AuditFactory func(tx *gorm.DB) audit.Recorder

// Service exposes the leadership assignment engine.
type Service interface {
	Promote(ctx context.Context, input PromoteInput, meta audit.Meta) (*AssignmentDTO, error)
	Demote(ctx context.Context, input DemoteInput, meta audit.Meta) (*AssignmentDTO, error)
	IsCurrentLeader(ctx context.Context, identityID uuid.UUID) (bool, error)
	CurrentAssignment(ctx context.Context, identityID uuid.UUID) (*AssignmentDTO, error)
	Roster(ctx context.Context) ([]RosterEntry, error)
	ListPositions(ctx context.Context) ([]PositionDTO, error)
	HistoryForIdentity(ctx context.Context, identityID uuid.UUID) ([]AssignmentDTO, error)
	HistoryForPosition(ctx context.Context, code enums.PositionCode) ([]AssignmentDTO, error)
}

// ServiceParams bundles the dependencies required to build a leadership service.
type ServiceParams struct {
	DB         db.TxRunner
	Reader     leadershipRepository
	Repos      RepoFactory
	Identities IdentityFactory
	Audit      AuditFactory
	Clock      clock.Clock
}

type service struct {
	db         db.TxRunner
	reader     leadershipRepository
	repos      RepoFactory
	identities IdentityFactory
	audit      AuditFactory
	clock      clock.Clock
}

// NewService constructs a leadership service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db is required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("leadership reader is required")
	}
	if params.Repos == nil {
		params.Repos = func(tx *gorm.DB) leadershipRepository { return NewRepository(tx) }
	}
	if params.Identities == nil {
		params.Identities = func(tx *gorm.DB) identityReader { return identityGormReader{db: tx} }
	}
	if params.Audit == nil {
		params.Audit = func(tx *gorm.DB) audit.Recorder { return audit.NewRecorder(tx) }
	}
	if params.Clock == nil {
		params.Clock = clock.New()
	}
	return &service{
		db:         params.DB,
		reader:     params.Reader,
		repos:      params.Repos,
		identities: params.Identities,
		audit:      params.Audit,
		clock:      params.Clock,
	}, nil
}

type identityGormReader struct {
	db *gorm.DB
}

func (r identityGormReader) FindByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	var identity models.Identity
	if err := r.db.WithContext(ctx).First(&identity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

// ValidationResult is the outcome of the pre-commit validation pass: the
// incumbent to displace, if the target position is currently held.
type ValidationResult struct {
	Incumbent *models.LeadershipAssignment
}

// Validate runs the promotion invariant checks against current state without
// writing anything. Callers run it inside the same transaction that commits
// the promotion, with the active assignment rows locked.
func Validate(
	ctx context.Context,
	repo leadershipRepository,
	identities identityReader,
	identityID uuid.UUID,
	position *models.LeadershipPosition,
) (*ValidationResult, error) {
	identity, err := identities.FindByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "identity not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup identity")
	}
	if !identity.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeAccountInactive, "identity is inactive")
	}

	current, err := repo.ActiveAssignmentForIdentity(ctx, identityID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check active assignment")
	}
	if current != nil {
		// Any active assignment blocks a promotion, held position or not.
		if current.PositionID == position.ID {
			return nil, pkgerrors.New(
				pkgerrors.CodeAlreadyLeader,
				fmt.Sprintf("identity already holds %s", position.Code.DisplayTitle()),
			)
		}
		return nil, pkgerrors.New(
			pkgerrors.CodeAlreadyLeader,
			"identity already holds an active leadership position; demote first",
		)
	}

	incumbent, err := repo.ActiveAssignmentForPosition(ctx, position.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check incumbent")
	}
	return &ValidationResult{Incumbent: incumbent}, nil
}

// Promote assigns the identity to the named position. A sitting incumbent is
// ended as of the promotion date inside the same transaction, so the position
// never has two active holders.
func (s *service) Promote(ctx context.Context, input PromoteInput, meta audit.Meta) (*AssignmentDTO, error) {
	var created *models.LeadershipAssignment
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repos(tx)

		position, err := repo.FindActivePositionByCode(ctx, input.Position)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(
					pkgerrors.CodeUnknownPosition,
					fmt.Sprintf("unknown position %q", input.Position),
				)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup position")
		}

		result, err := Validate(ctx, repo, s.identities(tx), input.IdentityID, position)
		if err != nil {
			return err
		}

		startedOn := s.clock.Today()
		if input.StartedOn != nil {
			startedOn = clock.Midnight(*input.StartedOn)
		}

		recorder := s.audit(tx)
		if result.Incumbent != nil {
			endedOn := startedOn
			if endedOn.Before(result.Incumbent.StartedOn) {
				return pkgerrors.New(
					pkgerrors.CodeInvalidDateRange,
					"promotion date precedes the incumbent's start date",
				)
			}
			if err := repo.EndAssignment(ctx, result.Incumbent.ID, endedOn, ""); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "end incumbent assignment")
			}
			err = recorder.Record(ctx, audit.Entry{
				IdentityID: &result.Incumbent.IdentityID,
				Action:     enums.AuditActionLeadershipRevoke,
				Details: map[string]any{
					"position": position.Code.String(),
					"reason":   "displaced by promotion",
				},
				IPAddress: meta.IPAddress,
				UserAgent: meta.UserAgent,
			})
			if err != nil {
				return err
			}
		}

		created = &models.LeadershipAssignment{
			IdentityID: input.IdentityID,
			PositionID: position.ID,
			Status:     enums.AssignmentStatusActive,
			StartedOn:  startedOn,
			Notes:      input.Notes,
		}
		if err := repo.CreateAssignment(ctx, created); err != nil {
			// Partial unique indexes are the storage backstop for the
			// exclusivity checks above.
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeLeadershipConflict, err, "active assignment conflict")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create assignment")
		}
		created.Position = position

		return recorder.Record(ctx, audit.Entry{
			IdentityID: &input.IdentityID,
			Action:     enums.AuditActionLeadershipAssign,
			Details:    map[string]any{"position": position.Code.String()},
			IPAddress:  meta.IPAddress,
			UserAgent:  meta.UserAgent,
		})
	})
	if err != nil {
		return nil, err
	}
	return AssignmentFromModel(created), nil
}

// Demote ends the identity's active assignment.
func (s *service) Demote(ctx context.Context, input DemoteInput, meta audit.Meta) (*AssignmentDTO, error) {
	var ended *models.LeadershipAssignment
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repos(tx)

		assignment, err := repo.ActiveAssignmentForIdentity(ctx, input.IdentityID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotALeader, "identity holds no active position")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup active assignment")
		}
		if input.Position != nil {
			if assignment.Position == nil || assignment.Position.Code != *input.Position {
				return pkgerrors.New(
					pkgerrors.CodeNotALeader,
					fmt.Sprintf("identity does not hold %s", input.Position.DisplayTitle()),
				)
			}
		}

		endedOn := s.clock.Today()
		if input.EndedOn != nil {
			endedOn = clock.Midnight(*input.EndedOn)
		}
		if endedOn.Before(assignment.StartedOn) {
			return pkgerrors.New(pkgerrors.CodeInvalidDateRange, "end date precedes start date")
		}

		if err := repo.EndAssignment(ctx, assignment.ID, endedOn, input.Notes); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "end assignment")
		}

		assignment.Status = enums.AssignmentStatusEnded
		assignment.EndedOn = &endedOn
		if input.Notes != "" {
			assignment.Notes = input.Notes
		}
		ended = assignment

		details := map[string]any{}
		if assignment.Position != nil {
			details["position"] = assignment.Position.Code.String()
		}
		return s.audit(tx).Record(ctx, audit.Entry{
			IdentityID: &input.IdentityID,
			Action:     enums.AuditActionLeadershipRevoke,
			Details:    details,
			IPAddress:  meta.IPAddress,
			UserAgent:  meta.UserAgent,
		})
	})
	if err != nil {
		return nil, err
	}
	return AssignmentFromModel(ended), nil
}

func (s *service) IsCurrentLeader(ctx context.Context, identityID uuid.UUID) (bool, error) {
	_, err := s.reader.ActiveAssignmentForIdentity(ctx, identityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check active assignment")
	}
	return true, nil
}

func (s *service) CurrentAssignment(ctx context.Context, identityID uuid.UUID) (*AssignmentDTO, error) {
	assignment, err := s.reader.ActiveAssignmentForIdentity(ctx, identityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup active assignment")
	}
	return AssignmentFromModel(assignment), nil
}

// Roster pairs every catalog position with its current holder.
func (s *service) Roster(ctx context.Context) ([]RosterEntry, error) {
	positions, err := s.reader.ListPositions(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list positions")
	}
	active, err := s.reader.ListActiveAssignments(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list active assignments")
	}

	byPosition := make(map[uuid.UUID]*models.LeadershipAssignment, len(active))
	for i := range active {
		byPosition[active[i].PositionID] = &active[i]
	}

	entries := make([]RosterEntry, 0, len(positions))
	for i := range positions {
		entry := RosterEntry{Position: *PositionFromModel(&positions[i])}
		if assignment, ok := byPosition[positions[i].ID]; ok {
			entry.Assignment = AssignmentFromModel(assignment)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *service) ListPositions(ctx context.Context) ([]PositionDTO, error) {
	positions, err := s.reader.ListPositions(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list positions")
	}
	out := make([]PositionDTO, 0, len(positions))
	for i := range positions {
		out = append(out, *PositionFromModel(&positions[i]))
	}
	return out, nil
}

func (s *service) HistoryForIdentity(ctx context.Context, identityID uuid.UUID) ([]AssignmentDTO, error) {
	rows, err := s.reader.HistoryForIdentity(ctx, identityID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list assignment history")
	}
	out := make([]AssignmentDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *AssignmentFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) HistoryForPosition(ctx context.Context, code enums.PositionCode) ([]AssignmentDTO, error) {
	position, err := s.reader.FindPositionByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(
				pkgerrors.CodeUnknownPosition,
				fmt.Sprintf("unknown position %q", code),
			)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup position")
	}

	rows, err := s.reader.HistoryForPosition(ctx, position.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list position history")
	}
	out := make([]AssignmentDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *AssignmentFromModel(&rows[i]))
	}
	return out, nil
}
