package identities

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iuiualumni/alumni-backend/internal/audit"
	"github.com/iuiualumni/alumni-backend/pkg/clock"
	"github.com/iuiualumni/alumni-backend/pkg/config"
	"github.com/iuiualumni/alumni-backend/pkg/db"
	"github.com/iuiualumni/alumni-backend/pkg/db/models"
	"github.com/iuiualumni/alumni-backend/pkg/enums"
	pkgerrors "github.com/iuiualumni/alumni-backend/pkg/errors"
	"github.com/iuiualumni/alumni-backend/pkg/memberid"
	"github.com/iuiualumni/alumni-backend/pkg/security"
)

// memberIDAttempts bounds the retry loop for fresh member IDs. The suffix
// space is 36^6, so exhausting this means something is very wrong.
const memberIDAttempts = 20

type identityRepository interface {
	Create(ctx context.Context, dto CreateIdentityDTO) (*models.Identity, error)
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Identity, error)
	FindByMemberID(ctx context.Context, memberID string) (*models.Identity, error)
	MemberIDExists(ctx context.Context, memberID string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, dto UpdateProfileDTO) (*models.Identity, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, limit, offset int) ([]models.Identity, error)
}

// RepoFactory builds a tx-scoped identity repository.
type RepoFactory func(tx *gorm.DB) identityRepository

// AuditFactory builds a tx-scoped audit recorder.
type AuditFactory func(tx *gorm.DB) audit.Recorder

// CreateAdminInput is the payload for provisioning an administrative identity.
type CreateAdminInput struct {
	Email    string
	FullName string
	Password string
}

// UpdateProfileInput carries the mutable profile fields for an identity.
type UpdateProfileInput struct {
	FullName       *string
	Batch          *string
	Course         *string
	GraduationYear *int
	Phone          *string
	ClearPhone     bool
	CurrentJob     *string
	CurrentCompany *string
}

// Service exposes identity operations.
type Service interface {
	CreateAdmin(ctx context.Context, input CreateAdminInput, meta audit.Meta) (*IdentityDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*IdentityDTO, error)
	GetByMemberID(ctx context.Context, memberID string) (*IdentityDTO, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput, meta audit.Meta) (*IdentityDTO, error)
	ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string, meta audit.Meta) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]IdentityDTO, error)
}

// ServiceParams bundles the dependencies required to build an identity service.
type ServiceParams struct {
	DB             db.TxRunner
	Reader         identityRepository
	Repos          RepoFactory
	Audit          AuditFactory
	PasswordConfig config.PasswordConfig
	Clock          clock.Clock
}

type service struct {
	db          db.TxRunner
	reader      identityRepository
	repos       RepoFactory
	audit       AuditFactory
	passwordCfg config.PasswordConfig
	clock       clock.Clock
}

// NewService constructs an identity service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db is required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("identity reader is required")
	}
	if params.Repos == nil {
		params.Repos = func(tx *gorm.DB) identityRepository { return NewRepository(tx) }
	}
	if params.Audit == nil {
		params.Audit = func(tx *gorm.DB) audit.Recorder { return audit.NewRecorder(tx) }
	}
	if params.Clock == nil {
		params.Clock = clock.New()
	}
	return &service{
		db:          params.DB,
		reader:      params.Reader,
		repos:       params.Repos,
		audit:       params.Audit,
		passwordCfg: params.PasswordConfig,
		clock:       params.Clock,
	}, nil
}

// memberIDChecker is the narrow surface needed by the member ID retry loop.
type memberIDChecker interface {
	MemberIDExists(ctx context.Context, memberID string) (bool, error)
}

// GenerateUniqueMemberID draws candidates until one is unused.
func GenerateUniqueMemberID(ctx context.Context, repo memberIDChecker, admin bool) (string, error) {
	for attempt := 0; attempt < memberIDAttempts; attempt++ {
		var candidate string
		var err error
		if admin {
			candidate, err = memberid.GenerateAdmin()
		} else {
			candidate, err = memberid.Generate()
		}
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate member id")
		}

		taken, err := repo.MemberIDExists(ctx, candidate)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check member id")
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "exhausted member id attempts")
}

// memberIDCreator is the surface needed to insert an identity under a fresh
// member ID.
type memberIDCreator interface {
	MemberIDExists(ctx context.Context, memberID string) (bool, error)
	Create(ctx context.Context, dto CreateIdentityDTO) (*models.Identity, error)
}

// CreateWithUniqueMemberID generates a member ID and inserts the identity
// under it. The existence pre-check cannot see a concurrent insert of the
// same candidate, so a member-ID unique violation at the insert regenerates
// and retries within the attempt budget instead of surfacing.
func CreateWithUniqueMemberID(ctx context.Context, repo memberIDCreator, dto CreateIdentityDTO, admin bool) (*models.Identity, error) {
	for attempt := 0; attempt < memberIDAttempts; attempt++ {
		memberID, err := GenerateUniqueMemberID(ctx, repo, admin)
		if err != nil {
			return nil, err
		}
		dto.MemberID = memberID

		created, err := repo.Create(ctx, dto)
		if err != nil {
			if db.IsUniqueViolation(err, "member_id") {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create identity")
		}
		return created, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "exhausted member id attempts")
}

func (s *service) CreateAdmin(ctx context.Context, input CreateAdminInput, meta audit.Meta) (*IdentityDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	fullName := strings.TrimSpace(input.FullName)

	missing := []string{}
	if email == "" {
		missing = append(missing, "email")
	}
	if fullName == "" {
		missing = append(missing, "full_name")
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(
			pkgerrors.CodeMissingField,
			fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")),
		)
	}

	// An omitted password leaves the hash empty: the account exists but
	// carries no usable credential until a password is set.
	hash := ""
	if input.Password != "" {
		var err error
		hash, err = security.HashPassword(input.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
	}

	var created *models.Identity
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repos(tx)

		taken, err := repo.EmailExists(ctx, email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check email")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeDuplicateEmail, "email already registered")
		}

		// administrative identities are always staff, superuser, and verified
		created, err = CreateWithUniqueMemberID(ctx, repo, CreateIdentityDTO{
			Email:        email,
			FullName:     fullName,
			PasswordHash: hash,
			IsStaff:      true,
			IsSuperuser:  true,
			IsVerified:   true,
			JoinedOn:     s.clock.Today(),
		}, true)
		if err != nil {
			return err
		}

		return s.audit(tx).Record(ctx, audit.Entry{
			IdentityID: &created.ID,
			Action:     enums.AuditActionAdminIdentityCreate,
			Details: map[string]any{
				"member_id": created.MemberID,
				"email":     created.Email,
			},
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
		})
	})
	if err != nil {
		return nil, err
	}
	return FromModel(created), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*IdentityDTO, error) {
	identity, err := s.reader.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "identity not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup identity")
	}
	return FromModel(identity), nil
}

func (s *service) GetByMemberID(ctx context.Context, memberID string) (*IdentityDTO, error) {
	identity, err := s.reader.FindByMemberID(ctx, strings.TrimSpace(memberID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "identity not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup identity")
	}
	return FromModel(identity), nil
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput, meta audit.Meta) (*IdentityDTO, error) {
	var updated *models.Identity
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repos(tx)

		if _, err := repo.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "identity not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup identity")
		}

		var err error
		updated, err = repo.UpdateProfile(ctx, id, UpdateProfileDTO{
			FullName:       input.FullName,
			Batch:          input.Batch,
			Course:         input.Course,
			GraduationYear: input.GraduationYear,
			Phone:          input.Phone,
			ClearPhone:     input.ClearPhone,
			CurrentJob:     input.CurrentJob,
			CurrentCompany: input.CurrentCompany,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
		}

		return s.audit(tx).Record(ctx, audit.Entry{
			IdentityID: &id,
			Action:     enums.AuditActionProfileUpdate,
			Details:    map[string]any{"fields": changedProfileFields(input)},
			IPAddress:  meta.IPAddress,
			UserAgent:  meta.UserAgent,
		})
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string, meta audit.Meta) error {
	if newPassword == "" {
		return pkgerrors.New(pkgerrors.CodeMissingField, "missing required fields: new_password")
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repos(tx)

		identity, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "identity not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup identity")
		}

		// an identity without a usable credential can set its first password
		if identity.PasswordHash != "" {
			valid, err := security.VerifyPassword(currentPassword, identity.PasswordHash)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
			}
			if !valid {
				return pkgerrors.New(pkgerrors.CodeInvalidCredentials, "invalid credentials")
			}
		}

		hash, err := security.HashPassword(newPassword, s.passwordCfg)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		if err := repo.UpdatePasswordHash(ctx, id, hash); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store password")
		}

		return s.audit(tx).Record(ctx, audit.Entry{
			IdentityID: &id,
			Action:     enums.AuditActionPasswordChange,
			IPAddress:  meta.IPAddress,
			UserAgent:  meta.UserAgent,
		})
	})
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repos(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "identity not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup identity")
		}
		if err := repo.SetActive(ctx, id, false); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate identity")
		}
		return nil
	})
}

func (s *service) List(ctx context.Context, limit, offset int) ([]IdentityDTO, error) {
	rows, err := s.reader.List(ctx, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list identities")
	}
	out := make([]IdentityDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func changedProfileFields(input UpdateProfileInput) []string {
	fields := []string{}
	if input.FullName != nil {
		fields = append(fields, "full_name")
	}
	if input.Batch != nil {
		fields = append(fields, "batch")
	}
	if input.Course != nil {
		fields = append(fields, "course")
	}
	if input.GraduationYear != nil {
		fields = append(fields, "graduation_year")
	}
	if input.Phone != nil || input.ClearPhone {
		fields = append(fields, "phone")
	}
	if input.CurrentJob != nil {
		fields = append(fields, "current_job")
	}
	if input.CurrentCompany != nil {
		fields = append(fields, "current_company")
	}
	return fields
}
