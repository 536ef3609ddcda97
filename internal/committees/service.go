package committees

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
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

// DefaultRoleLabel is used when a join request does not name a role.
const DefaultRoleLabel = "Member"

type committeeRepository interface {
	CreateCommittee(ctx context.Context, committee *models.Committee) error
	FindCommitteeByID(ctx context.Context, id uuid.UUID) (*models.Committee, error)
	FindCommitteeBySlug(ctx context.Context, slug string) (*models.Committee, error)
	CommitteeNameExists(ctx context.Context, name, slug string) (bool, error)
	ListCommittees(ctx context.Context) ([]models.Committee, error)
	FindMembership(ctx context.Context, identityID, committeeID uuid.UUID) (*models.CommitteeMembership, error)
	CreateMembership(ctx context.Context, membership *models.CommitteeMembership) error
	EndMembership(ctx context.Context, id uuid.UUID, endedOn time.Time) error
	ReactivateMembership(ctx context.Context, id uuid.UUID, roleLabel string, startedOn time.Time) error
	ActiveMembersOfCommittee(ctx context.Context, committeeID uuid.UUID) ([]models.CommitteeMembership, error)
	MembershipsForIdentity(ctx context.Context, identityID uuid.UUID) ([]models.CommitteeMembership, error)
}

// RepoFactory builds a tx-scoped committee repository.
type RepoFactory func(tx *gorm.DB) committeeRepository

// AuditFactory builds a tx-scoped audit recorder.
type AuditFactory func(tx *gorm.DB) audit.Recorder

// Service exposes the committee membership tracker.
type Service interface {
	CreateCommittee(ctx context.Context, input CreateCommitteeDTO) (*CommitteeDTO, error)
	ListCommittees(ctx context.Context) ([]CommitteeDTO, error)
	GetCommitteeBySlug(ctx context.Context, slug string) (*CommitteeDTO, error)
	Join(ctx context.Context, input JoinInput, meta audit.Meta) (*MembershipDTO, error)
	Reactivate(ctx context.Context, input ReactivateInput, meta audit.Meta) (*MembershipDTO, error)
	Leave(ctx context.Context, input LeaveInput, meta audit.Meta) (*MembershipDTO, error)
	Roster(ctx context.Context, committeeID uuid.UUID) ([]MembershipDTO, error)
	MembershipsForIdentity(ctx context.Context, identityID uuid.UUID) ([]MembershipDTO, error)
}

// ServiceParams bundles the dependencies required to build a committee service.
type ServiceParams struct {
	DB     db.TxRunner
	Reader committeeRepository
	Repos  RepoFactory
	Audit  AuditFactory
	Clock  clock.Clock
}

type service struct {
	db     db.TxRunner
	reader committeeRepository
	repos  RepoFactory
	audit  AuditFactory
	clock  clock.Clock
}

// NewService constructs a committee service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db is required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("committee reader is required")
	}
	if params.Repos == nil {
		params.Repos = func(tx *gorm.DB) committeeRepository { return NewRepository(tx) }
	}
	if params.Audit == nil {
		params.Audit = func(tx *gorm.DB) audit.Recorder { return audit.NewRecorder(tx) }
	}
	if params.Clock == nil {
		params.Clock = clock.New()
	}
	return &service{
		db:     params.DB,
		reader: params.Reader,
		repos:  params.Repos,
		audit:  params.Audit,
		clock:  params.Clock,
	}, nil
}

var slugSanitizeRe = regexp.MustCompile(`[^a-z0-9-]+`)

// Slugify derives the URL-safe catalog slug from a committee name.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugSanitizeRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// CreateCommittee adds a catalog entry. The slug is derived from the name and
// both must be unique.
func (s *service) CreateCommittee(ctx context.Context, input CreateCommitteeDTO) (*CommitteeDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeMissingField, "committee name is required")
	}
	slug := Slugify(name)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "committee name produces an empty slug")
	}

	var created *models.Committee
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repos(tx)

		exists, err := repo.CommitteeNameExists(ctx, name, slug)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check committee name")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("committee %q already exists", name))
		}

		created = &models.Committee{
			Name:         name,
			Slug:         slug,
			Description:  input.Description,
			DisplayOrder: input.DisplayOrder,
			IsActive:     true,
		}
		if err := repo.CreateCommittee(ctx, created); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create committee")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return CommitteeFromModel(created), nil
}

func (s *service) ListCommittees(ctx context.Context) ([]CommitteeDTO, error) {
	rows, err := s.reader.ListCommittees(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list committees")
	}
	out := make([]CommitteeDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *CommitteeFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) GetCommitteeBySlug(ctx context.Context, slug string) (*CommitteeDTO, error) {
	committee, err := s.reader.FindCommitteeBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "committee not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup committee")
	}
	return CommitteeFromModel(committee), nil
}

// Join adds the identity to the committee. The identity+committee pair is
// unique: any existing row, active or ended, blocks a second insert. An ended
// membership is restarted with Reactivate instead.
func (s *service) Join(ctx context.Context, input JoinInput, meta audit.Meta) (*MembershipDTO, error) {
	roleLabel := strings.TrimSpace(input.RoleLabel)
	if roleLabel == "" {
		roleLabel = DefaultRoleLabel
	}

	var created *models.CommitteeMembership
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repos(tx)

		committee, err := s.requireCommittee(ctx, repo, input.CommitteeID)
		if err != nil {
			return err
		}

		existing, err := repo.FindMembership(ctx, input.IdentityID, input.CommitteeID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check membership")
		}
		if existing != nil {
			if existing.Status == enums.MembershipStatusActive {
				return pkgerrors.New(pkgerrors.CodeAlreadyMember, "identity is already a member of this committee")
			}
			return pkgerrors.New(
				pkgerrors.CodeAlreadyMember,
				"identity has a previous membership in this committee; reactivate it instead",
			)
		}

		startedOn := s.clock.Today()
		if input.StartedOn != nil {
			startedOn = clock.Midnight(*input.StartedOn)
		}

		created = &models.CommitteeMembership{
			IdentityID:  input.IdentityID,
			CommitteeID: input.CommitteeID,
			RoleLabel:   roleLabel,
			Status:      enums.MembershipStatusActive,
			StartedOn:   startedOn,
		}
		if err := repo.CreateMembership(ctx, created); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create membership")
		}
		created.Committee = committee

		return s.audit(tx).Record(ctx, audit.Entry{
			IdentityID: &input.IdentityID,
			Action:     enums.AuditActionCommitteeJoin,
			Details: map[string]any{
				"committee":  committee.Name,
				"role_label": roleLabel,
			},
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
		})
	})
	if err != nil {
		return nil, err
	}
	return MembershipFromModel(created), nil
}

// Reactivate restarts an ended membership on its existing row.
func (s *service) Reactivate(ctx context.Context, input ReactivateInput, meta audit.Meta) (*MembershipDTO, error) {
	var updated *models.CommitteeMembership
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repos(tx)

		committee, err := s.requireCommittee(ctx, repo, input.CommitteeID)
		if err != nil {
			return err
		}

		membership, err := repo.FindMembership(ctx, input.IdentityID, input.CommitteeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no membership to reactivate")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup membership")
		}
		if membership.Status == enums.MembershipStatusActive {
			return pkgerrors.New(pkgerrors.CodeAlreadyMember, "membership is already active")
		}

		roleLabel := strings.TrimSpace(input.RoleLabel)
		if roleLabel == "" {
			roleLabel = membership.RoleLabel
		}
		startedOn := s.clock.Today()
		if input.StartedOn != nil {
			startedOn = clock.Midnight(*input.StartedOn)
		}
		if membership.EndedOn != nil && startedOn.Before(*membership.EndedOn) {
			return pkgerrors.New(
				pkgerrors.CodeInvalidDateRange,
				"reactivation date precedes the previous membership's end date",
			)
		}

		if err := repo.ReactivateMembership(ctx, membership.ID, roleLabel, startedOn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reactivate membership")
		}

		membership.Status = enums.MembershipStatusActive
		membership.RoleLabel = roleLabel
		membership.StartedOn = startedOn
		membership.EndedOn = nil
		membership.Committee = committee
		updated = membership

		return s.audit(tx).Record(ctx, audit.Entry{
			IdentityID: &input.IdentityID,
			Action:     enums.AuditActionCommitteeJoin,
			Details: map[string]any{
				"committee":   committee.Name,
				"role_label":  roleLabel,
				"reactivated": true,
			},
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
		})
	})
	if err != nil {
		return nil, err
	}
	return MembershipFromModel(updated), nil
}

// Leave ends the identity's active membership in the committee.
func (s *service) Leave(ctx context.Context, input LeaveInput, meta audit.Meta) (*MembershipDTO, error) {
	var ended *models.CommitteeMembership
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repos(tx)

		committee, err := s.requireCommittee(ctx, repo, input.CommitteeID)
		if err != nil {
			return err
		}

		membership, err := repo.FindMembership(ctx, input.IdentityID, input.CommitteeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "identity is not a member of this committee")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup membership")
		}
		if membership.Status != enums.MembershipStatusActive {
			return pkgerrors.New(pkgerrors.CodeNotFound, "membership is already ended")
		}

		endedOn := s.clock.Today()
		if input.EndedOn != nil {
			endedOn = clock.Midnight(*input.EndedOn)
		}
		if endedOn.Before(membership.StartedOn) {
			return pkgerrors.New(pkgerrors.CodeInvalidDateRange, "end date precedes start date")
		}

		if err := repo.EndMembership(ctx, membership.ID, endedOn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "end membership")
		}

		membership.Status = enums.MembershipStatusEnded
		membership.EndedOn = &endedOn
		membership.Committee = committee
		ended = membership

		return s.audit(tx).Record(ctx, audit.Entry{
			IdentityID: &input.IdentityID,
			Action:     enums.AuditActionCommitteeLeave,
			Details:    map[string]any{"committee": committee.Name},
			IPAddress:  meta.IPAddress,
			UserAgent:  meta.UserAgent,
		})
	})
	if err != nil {
		return nil, err
	}
	return MembershipFromModel(ended), nil
}

// Roster returns the committee's active members.
func (s *service) Roster(ctx context.Context, committeeID uuid.UUID) ([]MembershipDTO, error) {
	if _, err := s.requireCommittee(ctx, s.reader, committeeID); err != nil {
		return nil, err
	}
	rows, err := s.reader.ActiveMembersOfCommittee(ctx, committeeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list committee roster")
	}
	out := make([]MembershipDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *MembershipFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) MembershipsForIdentity(ctx context.Context, identityID uuid.UUID) ([]MembershipDTO, error) {
	rows, err := s.reader.MembershipsForIdentity(ctx, identityID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list identity memberships")
	}
	out := make([]MembershipDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *MembershipFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) requireCommittee(ctx context.Context, repo committeeRepository, id uuid.UUID) (*models.Committee, error) {
	committee, err := repo.FindCommitteeByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "committee not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup committee")
	}
	return committee, nil
}
