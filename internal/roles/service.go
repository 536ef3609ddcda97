package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iuiualumni/alumni-backend/internal/audit"
	"github.com/iuiualumni/alumni-backend/pkg/db"
	"github.com/iuiualumni/alumni-backend/pkg/db/models"
	"github.com/iuiualumni/alumni-backend/pkg/enums"
	pkgerrors "github.com/iuiualumni/alumni-backend/pkg/errors"
)

// FallbackRoleName is created on the fly when no role exists to hand a new
// registrant.
const FallbackRoleName = "Alumni"

type roleRepository interface {
	Create(ctx context.Context, dto CreateRoleDTO) (*models.Role, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Role, error)
	FindByName(ctx context.Context, name string) (*models.Role, error)
	FindDefault(ctx context.Context) (*models.Role, error)
	FirstByName(ctx context.Context) (*models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
	ClearDefault(ctx context.Context) error
	MarkDefault(ctx context.Context, id uuid.UUID) error
	AssignToIdentity(ctx context.Context, identityID, roleID uuid.UUID) (bool, error)
	RemoveFromIdentity(ctx context.Context, identityID, roleID uuid.UUID) error
	CountForIdentity(ctx context.Context, identityID uuid.UUID) (int64, error)
	ListForIdentity(ctx context.Context, identityID uuid.UUID) ([]models.Role, error)
}

// RepoFactory builds a tx-scoped role repository.
type RepoFactory func(tx *gorm.DB) roleRepository

// AuditFactory builds a tx-scoped audit recorder.
type AuditFactory func(tx *gorm.DB) audit.Recorder

// Service exposes role registry operations.
type Service interface {
	Create(ctx context.Context, input CreateRoleDTO) (*RoleDTO, error)
	List(ctx context.Context) ([]RoleDTO, error)
	ListForIdentity(ctx context.Context, identityID uuid.UUID) ([]RoleDTO, error)
	SetDefault(ctx context.Context, roleID uuid.UUID) (*RoleDTO, error)
	Assign(ctx context.Context, identityID, roleID uuid.UUID, meta audit.Meta) error
	Remove(ctx context.Context, identityID, roleID uuid.UUID, meta audit.Meta) error
}

// ServiceParams bundles the dependencies required to build a role service.
type ServiceParams struct {
	DB     db.TxRunner
	Reader roleRepository
	Repos  RepoFactory
	Audit  AuditFactory
}

type service struct {
	db     db.TxRunner
	reader roleRepository
	repos  RepoFactory
	audit  AuditFactory
}

// NewService constructs a role service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db is required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("role reader is required")
	}
	if params.Repos == nil {
		params.Repos = func(tx *gorm.DB) roleRepository { return NewRepository(tx) }
	}
	if params.Audit == nil {
		params.Audit = func(tx *gorm.DB) audit.Recorder { return audit.NewRecorder(tx) }
	}
	return &service{
		db:     params.DB,
		reader: params.Reader,
		repos:  params.Repos,
		audit:  params.Audit,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateRoleDTO) (*RoleDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeMissingField, "missing required fields: name")
	}
	input.Name = name

	var created *models.Role
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repos(tx)

		if _, err := repo.FindByName(ctx, name); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("role %q already exists", name))
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check role name")
		}

		if input.IsDefault {
			if err := repo.ClearDefault(ctx); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear default role")
			}
		}

		var err error
		created, err = repo.Create(ctx, input)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create role")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(created), nil
}

func (s *service) List(ctx context.Context) ([]RoleDTO, error) {
	rows, err := s.reader.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list roles")
	}
	out := make([]RoleDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) ListForIdentity(ctx context.Context, identityID uuid.UUID) ([]RoleDTO, error) {
	rows, err := s.reader.ListForIdentity(ctx, identityID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list identity roles")
	}
	out := make([]RoleDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// SetDefault atomically moves the default flag to the given role. The clear
// and the set run in one transaction so two defaults can never coexist.
func (s *service) SetDefault(ctx context.Context, roleID uuid.UUID) (*RoleDTO, error) {
	var updated *models.Role
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repos(tx)

		if _, err := repo.FindByID(ctx, roleID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "role not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup role")
		}

		if err := repo.ClearDefault(ctx); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear default role")
		}
		if err := repo.MarkDefault(ctx, roleID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark default role")
		}

		var err error
		updated, err = repo.FindByID(ctx, roleID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload role")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) Assign(ctx context.Context, identityID, roleID uuid.UUID, meta audit.Meta) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repos(tx)

		role, err := repo.FindByID(ctx, roleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "role not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup role")
		}

		added, err := repo.AssignToIdentity(ctx, identityID, roleID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign role")
		}
		if !added {
			// the pair already exists; assignment is idempotent
			return nil
		}

		return s.audit(tx).Record(ctx, audit.Entry{
			IdentityID: &identityID,
			Action:     enums.AuditActionRoleChange,
			Details:    map[string]any{"role": role.Name, "change": "assigned"},
			IPAddress:  meta.IPAddress,
			UserAgent:  meta.UserAgent,
		})
	})
}

func (s *service) Remove(ctx context.Context, identityID, roleID uuid.UUID, meta audit.Meta) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repos(tx)

		role, err := repo.FindByID(ctx, roleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "role not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup role")
		}

		if err := repo.RemoveFromIdentity(ctx, identityID, roleID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove role")
		}

		return s.audit(tx).Record(ctx, audit.Entry{
			IdentityID: &identityID,
			Action:     enums.AuditActionRoleChange,
			Details:    map[string]any{"role": role.Name, "change": "removed"},
			IPAddress:  meta.IPAddress,
			UserAgent:  meta.UserAgent,
		})
	})
}

// AssignDefaultRoleIfNone hands the identity its starter role. It is a no-op
// when the identity already holds at least one role. The fallback chain is:
// the flagged default role, then the first role by name, then a fresh
// FallbackRoleName role.
func AssignDefaultRoleIfNone(ctx context.Context, repo roleRepository, identityID uuid.UUID) (*models.Role, error) {
	count, err := repo.CountForIdentity(ctx, identityID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count identity roles")
	}
	if count > 0 {
		return nil, nil
	}

	role, err := repo.FindDefault(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		role, err = repo.FirstByName(ctx)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		role, err = repo.Create(ctx, CreateRoleDTO{
			Name:        FallbackRoleName,
			Description: "Standard alumni membership role.",
			IsDefault:   true,
		})
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve default role")
	}

	if _, err := repo.AssignToIdentity(ctx, identityID, role.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign default role")
	}
	return role, nil
}
